package config

import (
	contextPkg "QualityCheck/pkg/context"
	"QualityCheck/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, opts *Options) *fiber.App {
	errHandler := handlerUtil.New(logger)

	app := fiber.New(
		fiber.Config{
			AppName:               opts.AppName,
			BodyLimit:             opts.MaxUploadBytes,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			EnablePrintRoutes:     opts.Env == "development",
			DisableStartupMessage: opts.Env == "test",
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return errHandler.Handle(c, contextPkg.GetRequestID(contextPkg.FromFiberCtx(c)), err, "fiber")
			},
		})

	return app
}
