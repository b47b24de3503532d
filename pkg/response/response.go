package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlaswatch/api/pkg/briefing"
	"github.com/atlaswatch/api/pkg/orbit"
	"github.com/atlaswatch/api/pkg/upstream"
)

// ErrorBody is the body of every error response
type ErrorBody struct {
	Error string `json:"error"`
}

// Error sends an error response
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorBody{Error: message})
}

// OK sends a 200 OK response
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// RawJSON sends a 200 OK response with an already encoded body
func RawJSON(c echo.Context, body json.RawMessage) error {
	return c.JSONBlob(http.StatusOK, body)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// InternalServerError sends a 500 Internal Server Error response
func InternalServerError(c echo.Context, message string) error {
	return Error(c, http.StatusInternalServerError, message)
}

// StatusFor maps an error kind to the HTTP status reported to the caller
func StatusFor(err error) int {
	var upErr *briefing.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return upErr.Status
	case errors.Is(err, upstream.ErrMiss):
		return http.StatusNotFound
	case errors.Is(err, upstream.ErrUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, briefing.ErrMalformedOutput):
		return http.StatusBadGateway
	case errors.Is(err, briefing.ErrInvalidSchema), errors.Is(err, orbit.ErrInvalidWindow),
		errors.Is(err, orbit.ErrOutOfRange):
		return http.StatusBadRequest
	default:
		// includes orbit.ErrMissingParameters, a configuration fault
		return http.StatusInternalServerError
	}
}

// FromError sends the error response for err
func FromError(c echo.Context, err error) error {
	message := err.Error()
	var upErr *briefing.UpstreamError
	if errors.As(err, &upErr) {
		message = upErr.Message
	}
	return Error(c, StatusFor(err), message)
}
