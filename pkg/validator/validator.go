package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// webLinkRegexp accepts host-style web addresses with an optional http(s)
// scheme, port and path, e.g. "example.com/app" or "https://www.example.io:8080".
var webLinkRegexp = regexp.MustCompile(`^(?i)(https?://)?(www\.)?[a-z0-9]+([\-.][a-z0-9]+)*\.[a-z]{2,24}(:[0-9]{1,5})?(/.*)?$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so clients see the field they sent.
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

	_ = v.RegisterValidation("weblink", func(fl validator.FieldLevel) bool {
		return webLinkRegexp.MatchString(fl.Field().String())
	})

	return v
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// Var validates a single value against a tag string, e.g. Var(page, "gte=1").
func Var(field any, tag string) error {
	return validate.Var(field, tag)
}

// ValidationError wraps validator.ValidationErrors with client-facing messages.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, message(err))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = message(err)
	}
	return fields
}

// FieldNames returns the failing field names in declaration order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Errors))
	seen := make(map[string]bool, len(e.Errors))
	for _, err := range e.Errors {
		if seen[err.Field()] {
			continue
		}
		seen[err.Field()] = true
		names = append(names, err.Field())
	}
	return names
}

func message(fe validator.FieldError) string {
	return fmt.Sprintf("%s %s", fe.Field(), msgForTag(fe))
}

func msgForTag(fe validator.FieldError) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		if unit == "" {
			return fmt.Sprintf("cannot be more than %s", fe.Param())
		}
		return fmt.Sprintf("cannot be more than %s%s", fe.Param(), unit)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url", "weblink":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate decodes the JSON request body into dst and validates it.
// An empty body decodes as an empty object so required-field rules report
// what is missing.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("Request body too large")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return Validate(dst)
}
