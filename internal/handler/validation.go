package handler

import (
	"sync"

	"optik-backend/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request types.
func registerValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		err = v.RegisterValidation("tckn", func(fl validator.FieldLevel) bool {
			return service.ValidTCIdentityNumber(fl.Field().String())
		})
	})
	return err
}
