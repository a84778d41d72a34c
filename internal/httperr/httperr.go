// Package httperr maps failures raised while serving a request to HTTP
// status codes and JSON bodies.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"portfolio/internal/repositories"
	"portfolio/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Error is a client-facing failure identified only by its code.
type Error struct {
	Status int
	Code   string
}

func (e *Error) Error() string {
	return e.Code
}

// New creates an Error.
func New(status int, code string) *Error {
	return &Error{Status: status, Code: code}
}

var (
	// ErrMissingToken is returned when no bearer token is presented.
	ErrMissingToken = New(http.StatusUnauthorized, "MissingToken")
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = New(http.StatusUnauthorized, "InvalidToken")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = New(http.StatusUnauthorized, "InvalidCredentials")
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = New(http.StatusNotFound, "NotFound")
)

// Response is the JSON body written for every failure.
type Response struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details *validation.Error `json:"details,omitempty"`
	Code    string            `json:"code,omitempty"`
	Meta    map[string]any    `json:"meta,omitempty"`
}

// Resolve returns the status and body for err.
func Resolve(err error) (int, Response) {
	var (
		verr     *validation.Error
		storeErr *repositories.StoreError
		apiErr   *Error
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Response{Error: "ValidationError", Details: verr}
	case errors.As(err, &storeErr):
		meta := storeErr.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		return http.StatusBadRequest, Response{Error: "DataStoreError", Code: storeErr.Code, Meta: meta}
	case errors.As(err, &apiErr):
		return apiErr.Status, Response{Error: apiErr.Code}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, Response{Error: "Error", Message: fiberErr.Message}
	default:
		return http.StatusInternalServerError, Response{Error: "Error", Message: http.StatusText(http.StatusInternalServerError)}
	}
}

// Handler returns the Fiber error handler. Unclassified failures are logged
// and answered with a generic 500.
func Handler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Resolve(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}
		return c.Status(status).JSON(body)
	}
}
