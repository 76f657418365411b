package detectionHandler

import (
	"QualityCheck/internal/api/detection"
	contextPkg "QualityCheck/pkg/context"
	"QualityCheck/pkg/handlerUtil"
	"QualityCheck/pkg/log"
	"QualityCheck/pkg/response"
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

func (h *DetectionHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *DetectionHandler) Detect(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := h.withTimeout(contextPkg.FromFiberCtx(ctx))
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("file")
	if err != nil {
		return response.Wrap(detection.ErrMissingFile, err)
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing file upload")

	imageData, err := h.utils.ReadFormFile(file)
	if err != nil {
		return err
	}

	result, err := h.detectionService.Detect(c, imageData)
	if err != nil {
		return err
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"detections": len(result[0]),
	}).Info("Detection successful")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}

func (h *DetectionHandler) PoolMetrics(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, h.detectionService.PoolMetrics())
}

func (h *DetectionHandler) handleWebSocket(c *websocket.Conn) {
	requestID, ok := c.Locals(contextPkg.RequestIDKey).(string)
	if !ok || requestID == "" {
		requestID, _ = h.utils.NewULIDFromTimestamp(time.Now())
	}
	connCtx := contextPkg.WithRequestID(context.Background(), requestID)
	logger := log.WithRequestID(h.log, connCtx)

	logger.Info("Detection WebSocket client connected")
	defer logger.Info("Detection WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Detection WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		reply := h.detectFrame(connCtx, requestID, message)

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

// detectFrame runs one stream frame through the service. Errors and panics
// become a StreamError reply so the stream stays open.
func (h *DetectionHandler) detectFrame(parent context.Context, requestID string, frame []byte) (reply interface{}) {
	fields := log.Fields{
		log.LoggerKey:    "errors",
		log.RequestIDKey: requestID,
		"path":           "/detect/ws",
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			fields["error"] = err.Error()
			fields["stack"] = string(debug.Stack())
			log.ErrorWithTraceID(h.log, fields, "Stream frame failed")
			reply = detection.StreamError{Error: handlerUtil.Resolve(err).Message}
		}
	}()

	ctx, cancel := h.withTimeout(parent)
	defer cancel()

	result, err := h.detectionService.Detect(ctx, frame)
	if err != nil {
		mapping := handlerUtil.Resolve(err)
		fields["error"] = err.Error()
		fields["status"] = mapping.Status
		log.ErrorWithTraceID(h.log, fields, "Stream frame failed")
		return detection.StreamError{Error: mapping.Message}
	}

	return result
}
