package handlers

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorsOnce sync.Once

// registerValidators adds the custom tags used by request DTOs to Gin's
// validator engine:
//
//	notblank  string must contain a non-whitespace character
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}

// isValidationError reports whether err came from struct tag validation
// rather than from decoding the body.
func isValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}
