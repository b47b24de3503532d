package briefing

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// UpstreamError is a model API failure mapped to the status the caller
// should see
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// classify maps an OpenAI error to an UpstreamError
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized:
		return &UpstreamError{Status: http.StatusUnauthorized, Message: "Invalid API key. Please check OPENAI_API_KEY", Err: err}
	case http.StatusTooManyRequests:
		return &UpstreamError{Status: http.StatusTooManyRequests, Message: "Rate limit exceeded. Please try again in a few moments.", Err: err}
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return &UpstreamError{Status: http.StatusServiceUnavailable, Message: "Model service temporarily unavailable. Please try again later.", Err: err}
	case http.StatusBadRequest:
		return &UpstreamError{Status: http.StatusBadRequest, Message: "Invalid request to model API.", Err: err}
	default:
		return &UpstreamError{Status: http.StatusInternalServerError, Message: "Failed to generate mission briefing", Err: err}
	}
}
