package view

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormErrors maps a form field to its message.
type FormErrors map[string]string

// ValidationErrors converts validator output into FormErrors keyed by
// struct field name.
func ValidationErrors(err error) FormErrors {
	out := FormErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["general"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

// First returns one message, for display as a flash.
func (e FormErrors) First() string {
	if msg, ok := e["general"]; ok {
		return msg
	}
	for field, msg := range e {
		return field + ": " + msg
	}
	return ""
}

// ErrNotNumber is returned by ParseNumber for input that is not a finite
// decimal.
var ErrNotNumber = errors.New("not a finite number")

// ParseNumber reads a decimal form value. NaN and the infinities are
// rejected; the backend cannot encode them.
func ParseNumber(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, ErrNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumber
	}
	return f, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "ne":
		return fmt.Sprintf("must not be %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
