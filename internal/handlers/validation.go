package handlers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators adds the custom tags used in request binding, such as
// notblank for text fields that must not be whitespace only.
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("binding validator is not go-playground/validator")
			return
		}
		validatorsErr = v.RegisterValidation("notblank", validators.NotBlank)
	})
	return validatorsErr
}
