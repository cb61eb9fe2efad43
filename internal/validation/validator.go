// Package validation provides struct validation for Dockboard inputs.
//
// It wraps go-playground/validator with the tags the registry and the app
// catalog rely on, and reports failures as field-level messages keyed by the
// JSON field name so API clients can highlight the offending input.
//
// # Custom Tags
//
//   - hostid: letters, digits, hyphens and underscores, at most 128 characters
//
// # Usage Example
//
//	v := validation.New()
//	result := v.Validate(&cfg)
//	if !result.Valid {
//	    for _, e := range result.Errors {
//	        fmt.Printf("%s: %s\n", e.Field, e.Message)
//	    }
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/go-playground/validator/v10"
)

// HostIDPattern is the accepted shape of a host identifier.
var HostIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// MaxHostIDLength bounds host identifiers.
const MaxHostIDLength = 128

// ValidHostID reports whether id is an acceptable host identifier.
func ValidHostID(id string) bool {
	return len(id) <= MaxHostIDLength && HostIDPattern.MatchString(id)
}

// Validator validates Go structs using their `validate` tags.
type Validator struct {
	structValidator *validator.Validate
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the JSON name of the field that failed validation
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// FieldErrors flattens the result into a field -> message map.
func (r *ValidationResult) FieldErrors() map[string]string {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Error joins all messages, which lets a result be wrapped into an error chain.
func (r *ValidationResult) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Err returns nil for a valid result, otherwise an *InputError.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return &InputError{Fields: r.FieldErrors()}
}

// InputError carries field-level messages for rejected input. It is
// classified as an invalid argument by containerd/errdefs.
type InputError struct {
	Fields map[string]string
}

// FieldError builds an InputError for a single field.
func FieldError(field, msg string) *InputError {
	return &InputError{Fields: map[string]string{field: msg}}
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InputError) Unwrap() error {
	return cerrdefs.ErrInvalidArgument
}

// New creates a new Validator with the Dockboard custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("hostid", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static
		return ValidHostID(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{structValidator: v}
}

// Validate checks s and returns the collected field errors.
func (v *Validator) Validate(s interface{}) *ValidationResult {
	err := v.structValidator.Struct(s)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "document", Message: err.Error()}},
		}
	}

	result := &ValidationResult{Valid: false}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   fe.Value(),
		})
	}
	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "hostid":
		return fmt.Sprintf("can only contain letters, numbers, hyphens, and underscores (at most %d characters)", MaxHostIDLength)
	case "url":
		return "must be a valid URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
