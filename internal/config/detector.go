package config

import (
	"QualityCheck/pkg/log"
	"QualityCheck/pkg/yolo"
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewDetector loads the model metadata, initializes ONNX Runtime and fills a
// session pool. The caller owns the returned pool and must Destroy it.
func NewDetector(logger *logrus.Logger, opts *Options) (*yolo.Pool, error) {
	device, err := yolo.ParseDevice(opts.Device)
	if err != nil {
		return nil, err
	}

	meta, err := yolo.LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	if err := yolo.InitEnvironment(opts.RuntimeLibrary); err != nil {
		return nil, err
	}

	cfg := yolo.Config{
		ModelPath:     opts.ModelPath,
		Device:        device,
		InputSize:     meta.InputSize,
		ConfThreshold: opts.ConfThreshold,
		IoUThreshold:  opts.IoUThreshold,
	}
	labels := yolo.Labels(meta.Names)

	pool, err := yolo.NewPool(opts.PoolSize, labels, func() (yolo.Runner, error) {
		return yolo.NewSession(cfg, labels)
	})
	if err != nil {
		_ = yolo.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create session pool: %w", err)
	}

	log.Named(logger, "model").WithFields(log.Fields{
		"model":   opts.ModelPath,
		"device":  device.String(),
		"classes": len(labels),
		"pool":    opts.PoolSize,
	}).Info("Model loaded")

	return pool, nil
}
