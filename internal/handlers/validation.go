package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/apperr"

	"github.com/go-playground/validator/v10"
)

const msgValidationFailed = "Validation failed"

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct returns an InvalidRequest error listing every failed field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Wrap(err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldPath(fe.Namespace())] = messageForTag(fe.Tag(), fe.Param())
	}
	return apperr.Invalid(msgValidationFailed).WithField("errors", fields)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "url":
		return "Must be a valid URL."
	case "uuid":
		return "Must be a valid identifier."
	case "lowercase":
		return "Must be lowercase."
	case "len":
		return fmt.Sprintf("Must be exactly %s characters.", param)
	case "min", "gte":
		return fmt.Sprintf("Must be at least %s.", param)
	case "max", "lte":
		return fmt.Sprintf("Must be at most %s.", param)
	default:
		return "Invalid value."
	}
}
