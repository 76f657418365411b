package config

import (
	detectionHandler "QualityCheck/internal/api/detection/handler"
	detectionService "QualityCheck/internal/api/detection/service"
	statusHandler "QualityCheck/internal/api/status/handler"
	statusService "QualityCheck/internal/api/status/service"
	"QualityCheck/internal/middleware"
	"QualityCheck/pkg/cuda"
	"QualityCheck/pkg/utils"
	"QualityCheck/pkg/yolo"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	options    *Options
	middleware middleware.Middleware
	utils      utils.IUtils
	detector   yolo.Detector
	prober     cuda.IProber
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.options == nil {
		return nil, fmt.Errorf("options are required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, server.options.RateLimit, server.options.RateBurst)
	}
	if server.utils == nil {
		server.utils = utils.New()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithOptions(opts *Options) ServerOption {
	return func(s *Server) error {
		s.options = opts
		return nil
	}
}

func WithDetector(detector yolo.Detector) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

func WithProber(prober cuda.IProber) ServerOption {
	return func(s *Server) error {
		s.prober = prober
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.options == nil {
			return fmt.Errorf("options must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.options.RateLimit, s.options.RateBurst)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
	}))
	s.engine.Use(s.middleware.NewRecoverMiddleware)
	s.engine.Use(s.middleware.NewRateLimiter)

	// Detection
	detectionServices := detectionService.NewDetectionService(s.log, s.detector, s.utils)
	detectionHandlers := detectionHandler.New(s.log, s.middleware, detectionServices, s.utils, s.options.InferenceTimeout)

	// Host status
	statusServices := statusService.NewStatusService(s.log, s.prober)
	statusHandlers := statusHandler.New(s.log, s.middleware, statusServices, s.options.StatusPaths)

	s.setupBanner()
	s.handlers = append(s.handlers, detectionHandlers, statusHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) Run() error {
	return s.engine.Listen(s.options.Address())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.engine.ShutdownWithContext(ctx)
}

func (s *Server) setupBanner() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		ctx.Type("html", "utf-8")
		return ctx.SendString(s.options.Banner)
	})
}
