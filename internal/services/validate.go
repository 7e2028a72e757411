package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks v's `validate` tags and returns a *ValidationError keyed by json field name.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: map[string][]string{}}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
