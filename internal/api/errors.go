package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/store"
	"evalgo.org/schemaeditor/internal/updater"
	"evalgo.org/schemaeditor/internal/validation"
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

func NotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Context: map[string]interface{}{"id": id},
	}
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

// FromError maps store and updater errors to API errors. Unknown errors are
// returned unchanged and end up as internal errors.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, store.ErrNoSchema):
		return NewAPIError(http.StatusConflict, "No schema selected", err.Error())
	case errors.Is(err, updater.ErrBoxNotFound), errors.Is(err, updater.ErrDictionaryNotFound), errors.Is(err, backend.ErrNotFound):
		return NewAPIError(http.StatusNotFound, "Resource not found", err.Error())
	case errors.Is(err, updater.ErrBoxExists), errors.Is(err, updater.ErrDictionaryExists), errors.Is(err, updater.ErrLinkExists):
		return ConflictError("Resource conflict", err.Error())
	case errors.Is(err, updater.ErrFromEndpointRequired), errors.Is(err, updater.ErrToEndpointRequired),
		errors.Is(err, updater.ErrLinkNameRequired), errors.Is(err, updater.ErrUnknownConnectionType):
		return BadRequestError("Invalid link", err.Error())
	case errors.Is(err, validation.ErrInvalid):
		return NewAPIError(http.StatusUnprocessableEntity, "Validation failed", err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		return NewAPIError(http.StatusBadGateway, "Backend rejected credentials", err.Error())
	case errors.As(err, &httpErr):
		return NewAPIError(http.StatusBadGateway, "Backend error", err.Error())
	case errors.Is(err, context.Canceled):
		return NewAPIError(http.StatusConflict, "Request superseded", err.Error())
	}
	return err
}

// HTTPErrorHandler writes every handler error as an APIError. Store and
// updater errors are mapped through FromError first, so handlers may return
// them unwrapped.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(FromError(err))
	if apiErr.Code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = "An internal error occurred. Please try again later."
	}

	if err := c.JSON(apiErr.Code, apiErr); err != nil {
		c.Logger().Error(err)
	}
}

func toAPIError(err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		out := *ae
		return &out
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{
			Code:    he.Code,
			Message: statusMessage(he.Code),
			Details: fmt.Sprintf("%v", he.Message),
		}
	}
	return &APIError{
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Details: err.Error(),
	}
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Resource not found",
	http.StatusMethodNotAllowed:    "Method not allowed",
	http.StatusConflict:            "Conflict",
	http.StatusUnprocessableEntity: "Unprocessable entity",
	http.StatusTooManyRequests:     "Too many requests",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Bad gateway",
}

func statusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return http.StatusText(code)
}
