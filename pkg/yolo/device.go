package yolo

import (
	"fmt"
	"strconv"
	"strings"
)

type DeviceKind string

const (
	CPU  DeviceKind = "cpu"
	CUDA DeviceKind = "cuda"
)

type Device struct {
	Kind  DeviceKind
	Index int
}

// ParseDevice accepts "cpu", "cuda" and "cuda:<n>".
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case s == string(CPU):
		return Device{Kind: CPU}, nil
	case s == string(CUDA):
		return Device{Kind: CUDA}, nil
	case strings.HasPrefix(s, string(CUDA)+":"):
		index, err := strconv.Atoi(strings.TrimPrefix(s, string(CUDA)+":"))
		if err != nil || index < 0 {
			return Device{}, fmt.Errorf("invalid cuda device index in %q", s)
		}
		return Device{Kind: CUDA, Index: index}, nil
	default:
		return Device{}, fmt.Errorf("unsupported device %q", s)
	}
}

func (d Device) String() string {
	if d.Kind == CUDA {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return string(CPU)
}
