package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	reHexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return reHexColor.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return rePhone.MatchString(fl.Field().String())
	})
	return v
}

// FieldError names the first field that failed validation.
type FieldError struct {
	Field string
	Tag   string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
}

// ValidateStruct runs the `validate` tags of s and returns the first failure
// as a FieldError.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	}
	return err
}

// IsHexColor reports whether s is a #RRGGBB color.
func IsHexColor(s string) bool {
	return reHexColor.MatchString(s)
}
