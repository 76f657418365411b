package config

import (
	"QualityCheck/pkg/yolo"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("device", func(fl validator.FieldLevel) bool {
		_, err := yolo.ParseDevice(fl.Field().String())
		return err == nil
	})

	return v
}
