package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vidtube/backend/internal/apperrors"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files managed by net/http.
const multipartMemory = 32 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the validate tags on req and reports every failing
// field in the error details.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Internal(err, "Something went wrong")
	}

	details := make([]string, 0, len(fieldErrs))
	onlyRequired := true
	for _, fe := range fieldErrs {
		if fe.Tag() != "required" {
			onlyRequired = false
		}
		details = append(details, fieldMessage(fe))
	}
	if onlyRequired {
		return apperrors.Validation("All fields are required").WithDetails(details...)
	}
	return apperrors.Validation("%s", details[0]).WithDetails(details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", fe.Field())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// normalizer is implemented by request bodies that trim or fold their fields.
type normalizer interface {
	normalize()
}

// decodeJSON reads a JSON body into dst, normalises it and validates it, so
// whitespace-only values fail the required checks.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return tooLarge
		}
		return apperrors.Validation("Invalid request body").WithCause(err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validateRequest(dst)
}

// parseMultipart parses a multipart body. Requests that are not multipart
// are accepted with an empty form so handlers can report missing fields.
func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	if tooLarge := bodyTooLarge(err); tooLarge != nil {
		return tooLarge
	}
	return apperrors.Validation("Invalid multipart body").WithCause(err)
}

func bodyTooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.PayloadTooLarge("Request body exceeds %d bytes", maxErr.Limit)
	}
	return nil
}
