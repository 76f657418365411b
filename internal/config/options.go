package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultBanner = `<!DOCTYPE html>
<html>
 <head>
  <meta charset="utf-8">
  <title>Quality Check API</title>
  <style>
  h1 { color: green; text-align: center; }
  </style>
 </head>
 <body>
  <h1>API For Quality Check</h1>
  <ol>
    <li><a href="/status">Status of the host GPU processing pipeline.</a></li>
    <li><a href="/metrics/pool">Inference session pool counters.</a></li>
  </ol>
 </body>
</html>
`

// Options is the full runtime configuration of the service.
type Options struct {
	AppName          string   `validate:"required"`
	Host             string   `validate:"omitempty,hostname|ip"`
	Port             string   `validate:"required,numeric"`
	Env              string   `validate:"omitempty,oneof=production development test"`
	Banner           string   `validate:"required"`
	StatusPaths      []string `validate:"min=1,dive,startswith=/"`
	ModelPath        string   `validate:"required"`
	MetadataPath     string   `validate:"required"`
	Device           string   `validate:"required,device"`
	RuntimeLibrary   string
	ConfThreshold    float32       `validate:"gt=0,lte=1"`
	IoUThreshold     float32       `validate:"gt=0,lte=1"`
	PoolSize         int           `validate:"min=1"`
	InferenceTimeout time.Duration `validate:"gt=0"`
	MaxUploadBytes   int           `validate:"min=1"`
	RateLimit        float64       `validate:"min=0"`
	RateBurst        int           `validate:"min=0"`
	LogFile          string
}

func (o *Options) Address() string {
	return fmt.Sprintf("%s:%s", o.Host, o.Port)
}

// LoadOptions reads the given dotenv files (".env" when none are named),
// overlays the process environment and validates the result. Missing dotenv
// files are not an error.
func LoadOptions(v *validator.Validate, files ...string) (*Options, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	opts := &Options{
		AppName:        getEnv("APP_NAME", "Quality Check API"),
		Host:           getEnv("APP_HOST", "0.0.0.0"),
		Port:           getEnv("APP_PORT", "8000"),
		Env:            getEnv("APP_ENV", "production"),
		Banner:         getEnv("BANNER", DefaultBanner),
		StatusPaths:    splitList(getEnv("STATUS_PATHS", "/status,/info")),
		ModelPath:      getEnv("MODEL_PATH", "model/best.onnx"),
		MetadataPath:   getEnv("MODEL_METADATA_PATH", "model/metadata.json"),
		Device:         getEnv("MODEL_DEVICE", "cuda:0"),
		RuntimeLibrary: os.Getenv("ONNXRUNTIME_LIB"),
		LogFile:        getEnv("LOG_FILE", "log.txt"),
	}

	var err error
	if opts.ConfThreshold, err = getEnvFloat32("CONF_THRESHOLD", 0.25); err != nil {
		return nil, err
	}
	if opts.IoUThreshold, err = getEnvFloat32("IOU_THRESHOLD", 0.45); err != nil {
		return nil, err
	}
	if opts.PoolSize, err = getEnvInt("POOL_SIZE", 1); err != nil {
		return nil, err
	}
	if opts.InferenceTimeout, err = getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes, err = getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024); err != nil {
		return nil, err
	}
	if opts.RateLimit, err = getEnvFloat64("RATE_LIMIT", 50); err != nil {
		return nil, err
	}
	if opts.RateBurst, err = getEnvInt("RATE_BURST", 100); err != nil {
		return nil, err
	}

	if err := v.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return opts, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat64(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvFloat32(key string, fallback float32) (float32, error) {
	f, err := getEnvFloat64(key, float64(fallback))
	return float32(f), err
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
