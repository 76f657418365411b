package handlerUtil

import (
	"QualityCheck/internal/api/detection"
	"QualityCheck/internal/api/status"
	"QualityCheck/pkg/log"
	"QualityCheck/pkg/response"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const internalServerError = "Internal server error"

// Mapping is the client-facing outcome of an error kind.
type Mapping struct {
	Status  int
	Message string
}

var errorTable = []struct {
	kind    error
	mapping Mapping
}{
	{detection.ErrDecode, Mapping{http.StatusInternalServerError, internalServerError}},
	{detection.ErrInference, Mapping{http.StatusInternalServerError, internalServerError}},
	{status.ErrEnvironmentQuery, Mapping{http.StatusInternalServerError, internalServerError}},
	{detection.ErrMissingFile, Mapping{http.StatusUnprocessableEntity, "Unprocessable entity"}},
	{detection.ErrPoolBusy, Mapping{http.StatusServiceUnavailable, "Service unavailable"}},
	{detection.ErrInferenceTimeout, Mapping{http.StatusGatewayTimeout, "Gateway timeout"}},
}

// Resolve maps err to a status code and a message that is safe to show to
// clients. Unknown errors become a plain 500.
func Resolve(err error) Mapping {
	for _, entry := range errorTable {
		if errors.Is(err, entry.kind) {
			return entry.mapping
		}
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		if respErr.Code >= http.StatusInternalServerError {
			return Mapping{respErr.Code, internalServerError}
		}
		return Mapping{respErr.Code, http.StatusText(respErr.Code)}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= http.StatusInternalServerError {
			return Mapping{fiberErr.Code, internalServerError}
		}
		return Mapping{fiberErr.Code, fiberErr.Message}
	}

	return Mapping{http.StatusInternalServerError, internalServerError}
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle logs err with full detail and writes the mapped plain-text response.
func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, operation string) error {
	return h.HandleWithFields(c, requestID, err, operation, nil)
}

// HandleWithFields is Handle with extra fields attached to the log entry.
func (h *ErrorHandler) HandleWithFields(c *fiber.Ctx, requestID string, err error, operation string, extra log.Fields) error {
	mapping := Resolve(err)

	fields := log.Fields{}
	for k, v := range extra {
		fields[k] = v
	}
	fields[log.LoggerKey] = "errors"
	fields[log.RequestIDKey] = requestID
	fields["error"] = err.Error()
	fields["method"] = c.Method()
	fields["path"] = c.Path()
	fields["operation"] = operation
	fields["status"] = mapping.Status

	if mapping.Status >= http.StatusInternalServerError {
		log.ErrorWithTraceID(h.logger, fields, "Request failed")
	} else {
		h.logger.WithFields(fields).Warn("Request rejected")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(mapping.Status).SendString(mapping.Message)
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
