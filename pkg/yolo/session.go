package yolo

import (
	"fmt"
	"image"
	"runtime"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputName  = "images"
	outputName = "output0"
)

// InitEnvironment loads the ONNX Runtime shared library. An empty libPath
// keeps the library's default lookup.
func InitEnvironment(libPath string) error {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func DestroyEnvironment() error {
	return ort.DestroyEnvironment()
}

// Session is one loaded copy of the model with its own input and output
// tensors.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	cfg     Config
	rows    int
	classes int
}

func NewSession(cfg Config, labels Labels) (*Session, error) {
	cfg = cfg.withDefaults()

	options, err := newSessionOptions(cfg.Device)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	size := int64(cfg.InputSize)
	rows := outputRows(cfg.InputSize)
	classes := len(labels)

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(rows), int64(5+classes)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &Session{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		cfg:     cfg,
		rows:    rows,
		classes: classes,
	}, nil
}

func newSessionOptions(device Device) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}

	if err := options.SetIntraOpNumThreads(runtime.NumCPU()); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error setting intra-op threads: %w", err)
	}

	if device.Kind != CUDA {
		return options, nil
	}

	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error creating CUDA provider options: %w", err)
	}
	defer cudaOptions.Destroy()

	if err := cudaOptions.Update(map[string]string{"device_id": strconv.Itoa(device.Index)}); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error configuring %s: %w", device, err)
	}

	if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error enabling %s: %w", device, err)
	}

	return options, nil
}

func (s *Session) Run(img image.Image) ([]Prediction, error) {
	canvas, lb := letterboxImage(img, s.cfg.InputSize)
	fillTensor(s.input.GetData(), canvas, s.cfg.InputSize)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	bounds := img.Bounds()
	return postprocess(s.output.GetData(), s.rows, s.classes, s.cfg, lb, bounds.Dx(), bounds.Dy()), nil
}

func (s *Session) Destroy() {
	if s.session != nil {
		s.session.Destroy()
	}
	if s.input != nil {
		s.input.Destroy()
	}
	if s.output != nil {
		s.output.Destroy()
	}
}
