package api

import (
	"errors"
	"fmt"
	"net/http"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/labstack/echo/v4"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/validation"
)

// APIError represents a structured API error with HTTP status code.
type APIError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	FieldError map[string]string      `json:"field_errors,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NewAPIError creates a new API error.
func NewAPIError(code int, message string, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func BadRequestError(message, details string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, details)
}

func ValidationError(message string, fieldErrors map[string]string) *APIError {
	return &APIError{
		Code:       http.StatusBadRequest,
		Message:    message,
		FieldError: fieldErrors,
	}
}

func InternalError(message, details string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message, details)
}

func ConflictError(message, details string) *APIError {
	return NewAPIError(http.StatusConflict, message, details)
}

// FromError translates a domain error into an APIError using its
// errdefs class. Engine failures carry a troubleshooting hint.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var inputErr *validation.InputError
	if errors.As(err, &inputErr) {
		ve := ValidationError("Validation failed", inputErr.Fields)
		ve.Details = err.Error()
		return ve
	}

	switch {
	case cerrdefs.IsInvalidArgument(err):
		return BadRequestError("Invalid request", err.Error())
	case cerrdefs.IsAlreadyExists(err):
		return ConflictError("Conflict", err.Error())
	case cerrdefs.IsNotFound(err):
		return NewAPIError(http.StatusNotFound, "Resource not found", err.Error())
	case cerrdefs.IsFailedPrecondition(err):
		return BadRequestError("Operation not allowed", err.Error())
	case cerrdefs.IsUnavailable(err):
		return engineError(http.StatusBadGateway, "Docker engine unreachable", err)
	case cerrdefs.IsDeadlineExceeded(err):
		return engineError(http.StatusGatewayTimeout, "Docker engine timed out", err)
	}
	return InternalError("Internal server error", err.Error())
}

func engineError(code int, message string, err error) *APIError {
	e := NewAPIError(code, message, err.Error())
	e.Context = map[string]interface{}{
		"error_kind": engine.Kind(err),
		"suggestion": engine.Suggestion(err),
	}
	return e
}

// HTTPErrorHandler is a custom error handler for Echo.
func HTTPErrorHandler(err error, c echo.Context) {
	// Don't send response if already sent
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	if he, ok := err.(*echo.HTTPError); ok {
		apiErr = &APIError{
			Code:    he.Code,
			Message: getHTTPMessage(he.Code),
			Details: fmt.Sprintf("%v", he.Message),
		}
	} else {
		apiErr = FromError(err)
	}

	// Don't expose internal errors in production
	if apiErr.Code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = "An internal error occurred. Please try again later."
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.Code)
	} else {
		err = c.JSON(apiErr.Code, apiErr)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// getHTTPMessage returns a user-friendly message for HTTP status codes.
func getHTTPMessage(code int) string {
	messages := map[int]string{
		http.StatusBadRequest:            "Bad request",
		http.StatusNotFound:              "Resource not found",
		http.StatusMethodNotAllowed:      "Method not allowed",
		http.StatusConflict:              "Conflict",
		http.StatusUnsupportedMediaType:  "Unsupported media type",
		http.StatusTooManyRequests:       "Too many requests",
		http.StatusInternalServerError:   "Internal server error",
		http.StatusBadGateway:            "Bad gateway",
		http.StatusServiceUnavailable:    "Service unavailable",
		http.StatusGatewayTimeout:        "Gateway timeout",
		http.StatusRequestEntityTooLarge: "Request entity too large",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return http.StatusText(code)
}
