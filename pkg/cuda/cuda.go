package cuda

import (
	"QualityCheck/internal/entity"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

type IProber interface {
	Probe() (*entity.HostStatus, error)
}

// library is the subset of NVML the prober needs.
type library interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceName(index int) (string, nvml.Return)
}

type nvmlLibrary struct{}

func (nvmlLibrary) Init() nvml.Return {
	return nvml.Init()
}

func (nvmlLibrary) Shutdown() nvml.Return {
	return nvml.Shutdown()
}

func (nvmlLibrary) DeviceGetCount() (int, nvml.Return) {
	return nvml.DeviceGetCount()
}

func (nvmlLibrary) DeviceName(index int) (string, nvml.Return) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return "", ret
	}
	return device.GetName()
}

type prober struct {
	lib    library
	device int
}

// New returns a prober reporting on the given CUDA device index.
func New(device int) IProber {
	return &prober{
		lib:    nvmlLibrary{},
		device: device,
	}
}

// Probe queries NVML on every call. A host without the NVIDIA library, driver
// or devices reports only that no accelerator is available.
func (p *prober) Probe() (*entity.HostStatus, error) {
	if ret := p.lib.Init(); ret != nvml.SUCCESS {
		if unavailable(ret) {
			return &entity.HostStatus{Available: false}, nil
		}
		return nil, fmt.Errorf("nvml init: %w", ret)
	}
	defer p.lib.Shutdown()

	count, ret := p.lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml device count: %w", ret)
	}
	if count == 0 {
		return &entity.HostStatus{Available: false}, nil
	}

	if p.device >= count {
		return nil, fmt.Errorf("cuda:%d requested but only %d device(s) present", p.device, count)
	}

	name, ret := p.lib.DeviceName(p.device)
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml device name: %w", ret)
	}

	return &entity.HostStatus{
		Available:     true,
		DeviceCount:   count,
		CurrentDevice: fmt.Sprintf("cuda:%d", p.device),
		DeviceName:    name,
	}, nil
}

func unavailable(ret nvml.Return) bool {
	switch ret {
	case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_DRIVER_NOT_LOADED, nvml.ERROR_NOT_FOUND:
		return true
	default:
		return false
	}
}
