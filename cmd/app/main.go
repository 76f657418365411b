package main

import (
	"QualityCheck/internal/config"
	"QualityCheck/pkg/cuda"
	"QualityCheck/pkg/log"
	"QualityCheck/pkg/yolo"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	validator := config.NewValidator()
	opts, err := config.LoadOptions(validator)
	if err != nil {
		log.NewLogger(log.Config{}).Fatalf("Error loading configuration: %v", err)
	}

	logger := log.NewLogger(log.Config{
		Env:      opts.Env,
		Filename: opts.LogFile,
	})

	device, err := yolo.ParseDevice(opts.Device)
	if err != nil {
		logger.Fatal(err)
	}

	detector, err := config.NewDetector(logger, opts)
	if err != nil {
		logger.Fatalf("Error loading model: %v", err)
	}
	defer func() {
		detector.Destroy()
		if err := yolo.DestroyEnvironment(); err != nil {
			logger.Errorf("Error destroying ONNX environment: %v", err)
		}
	}()

	server, err := config.NewServer(
		config.WithFiber(config.NewFiber(logger, opts)),
		config.WithLogger(logger),
		config.WithOptions(opts),
		config.WithDetector(detector),
		config.WithProber(cuda.New(device.Index)),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Errorf("Error starting server: %v", err)
			sigChan <- syscall.SIGTERM
		}
	}()

	logger.Infof("Server started on %s", opts.Address())

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error shutting down server: %v", err)
	}
}
