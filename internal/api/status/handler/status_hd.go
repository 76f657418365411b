package statusHandler

import (
	contextPkg "QualityCheck/pkg/context"
	"QualityCheck/pkg/handlerUtil"
	"QualityCheck/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *StatusHandler) Status(ctx *fiber.Ctx) error {
	c := contextPkg.FromFiberCtx(ctx)

	result, err := h.statusService.Status(c)
	if err != nil {
		return err
	}

	log.WithRequestID(h.log, c).WithField("available", result.Cuda.Available).Debug("Host status queried")

	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, result)
}
