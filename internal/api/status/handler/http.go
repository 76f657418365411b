package statusHandler

import (
	statusService "QualityCheck/internal/api/status/service"
	"QualityCheck/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type StatusHandler struct {
	log           *logrus.Logger
	middleware    middleware.Middleware
	statusService statusService.IStatusService
	paths         []string
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss statusService.IStatusService,
	paths []string,
) *StatusHandler {
	return &StatusHandler{
		log:           log,
		middleware:    middleware,
		statusService: ss,
		paths:         paths,
	}
}

func (h *StatusHandler) Start(srv fiber.Router) {
	for _, path := range h.paths {
		srv.Get(path, h.Status)
	}
}
