package log

import (
	contextPkg "QualityCheck/pkg/context"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const (
	RequestIDKey = "request_id"
	LoggerKey    = "logger"

	DefaultFilename   = "log.txt"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
)

type Fields = logrus.Fields

// Config controls the sinks of the process-wide logger.
type Config struct {
	Env        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	Level      logrus.Level
	Console    io.Writer
}

// NewLogger initializes the process-wide logger on first call and returns it
// on every call after that. Later configs are ignored.
func NewLogger(cfg Config) *logrus.Logger {
	once.Do(func() {
		logger = New(cfg)
	})

	return logger
}

// New builds a standalone logger writing to the console and, outside of the
// test environment, to a size-rotated file.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()

	level := cfg.Level
	if level == 0 {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		NoFieldsColors:  true,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		FieldsOrder:     []string{LoggerKey, RequestIDKey},
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}

	if cfg.Env != "test" {
		writers = append(writers, newFileWriter(cfg))
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(true)

	return l
}

func newFileWriter(cfg Config) *lumberjack.Logger {
	filename := cfg.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = DefaultMaxSizeMB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   filename,
		LocalTime:  true,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
}

// Named returns an entry tagged with the component name.
func Named(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField(LoggerKey, name)
}

// ErrorWithTraceID logs msg at error level and returns the trace id attached
// to it. The request id is reused as trace id when present.
func ErrorWithTraceID(l logrus.FieldLogger, fields Fields, msg string) string {
	if fields == nil {
		fields = Fields{}
	}

	var traceID string
	if reqID, ok := fields[RequestIDKey].(string); ok && reqID != "" && reqID != "unknown" {
		traceID = reqID
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			l.WithField("error", err.Error()).Error("[log.ErrorWithTraceID] failed to generate trace ID")
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	fields["trace_id"] = traceID
	l.WithFields(fields).Error(msg)

	return traceID
}

func WithRequestID(l logrus.FieldLogger, ctx context.Context) *logrus.Entry {
	requestID := "unknown"
	if ctx != nil {
		requestID = contextPkg.GetRequestID(ctx)
	}

	return l.WithField(RequestIDKey, requestID)
}
