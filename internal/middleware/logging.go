package middleware

import (
	"QualityCheck/pkg/handlerUtil"
	"QualityCheck/pkg/log"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type loggingMiddleware struct {
	logger *logrus.Entry
}

func newLoggingMiddleware(logger *logrus.Logger) *loggingMiddleware {
	return &loggingMiddleware{
		logger: log.Named(logger, "http"),
	}
}

// NewLoggingMiddleware writes one BEGIN line before the request is handled
// and one END line after it, both tagged with the request id.
func (m *middleware) NewLoggingMiddleware(c *fiber.Ctx) error {
	requestID := m.GetRequestID(c)
	start := time.Now()

	m.loggingMiddleware.logger.WithFields(log.Fields{
		log.RequestIDKey: requestID,
		"method":         c.Method(),
		"path":           c.Path(),
	}).Info("BEGIN")

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = handlerUtil.Resolve(err).Status
	}

	m.loggingMiddleware.logger.WithFields(log.Fields{
		log.RequestIDKey: requestID,
		"latency":        fmt.Sprintf("%.5fs", time.Since(start).Seconds()),
		"status":         status,
	}).Info("END")

	return err
}
