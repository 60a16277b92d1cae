// Package validation wraps go-playground/validator for request payloads and
// converts tag failures into user-correctable field messages.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campuslink/campuslink-server/internal/apperr"
)

var validate = validator.New()

// Struct validates v against its `validate` tags. On failure it returns a
// single apperr validation error naming the first offending field, carrying
// all field messages for the response envelope.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Validation("invalid payload")
	}
	msgs := Messages(verrs)
	ae := apperr.ValidationField(strings.ToLower(verrs[0].Field()), msgs[0])
	ae.Details = msgs
	return ae
}

// Messages renders one human-readable message per failed field.
func Messages(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "email":
			out = append(out, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			out = append(out, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "lte":
			out = append(out, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", field))
		}
	}
	return out
}
