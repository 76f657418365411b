// Package yolo runs a YOLOv5 object detector exported to ONNX.
package yolo

import (
	"context"
	"errors"
	"image"
)

const (
	DefaultInputSize     = 640
	DefaultConfThreshold = 0.25
	DefaultIoUThreshold  = 0.45
	DefaultMaxDetections = 1000
)

var (
	ErrPoolBusy    = errors.New("timeout waiting for available session")
	ErrPoolClosed  = errors.New("pool is closed")
	ErrTimeout     = errors.New("inference did not finish in time")
	ErrRunnerPanic = errors.New("inference panicked")
)

// Prediction is one object found by the model. Box is x1, y1, x2, y2 in
// pixel coordinates of the source image.
type Prediction struct {
	Box        [4]float32
	Confidence float32
	Class      int
}

// Batch holds predictions per input image.
type Batch [][]Prediction

// Detector is the inference capability used by the HTTP layer.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (Batch, error)
	Labels() Labels
	Metrics() Metrics
}

// Runner performs inference on a single image. A Runner is not safe for
// concurrent use.
type Runner interface {
	Run(img image.Image) ([]Prediction, error)
	Destroy()
}

type Config struct {
	ModelPath     string
	Device        Device
	InputSize     int
	ConfThreshold float32
	IoUThreshold  float32
	MaxDetections int
}

func (c Config) withDefaults() Config {
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.ConfThreshold <= 0 {
		c.ConfThreshold = DefaultConfThreshold
	}
	if c.IoUThreshold <= 0 {
		c.IoUThreshold = DefaultIoUThreshold
	}
	if c.MaxDetections <= 0 {
		c.MaxDetections = DefaultMaxDetections
	}
	return c
}
