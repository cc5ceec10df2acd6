package dto

import (
	"regexp"

	"smssignup/internal/utils"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?1?[0-9]{10,15}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
)

// RegisterValidations adds the "phone" and "otp" tags used by the request types.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(utils.StripPhone(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpPattern.MatchString(fl.Field().String())
	})
}
