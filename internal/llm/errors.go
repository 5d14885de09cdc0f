package llm

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// HTTPError is a non-success response from the inference server.
type HTTPError struct {
	StatusCode int
	// Detail is the structured error body, when the server sent one.
	Detail string
	// Body is the raw response text when it could not be parsed.
	Body string
	Err  error
}

func (e *HTTPError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Detail)
	case e.Body != "":
		return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPError{
			StatusCode: apiErr.HTTPStatusCode,
			Detail:     apiErrorDetail(apiErr),
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &HTTPError{
			StatusCode: reqErr.HTTPStatusCode,
			Body:       strings.TrimSpace(string(reqErr.Body)),
			Err:        err,
		}
	}

	return err
}

func apiErrorDetail(e *openai.APIError) string {
	var parts []string
	if e.Type != "" {
		parts = append(parts, "type="+e.Type)
	}
	if e.Code != nil {
		parts = append(parts, fmt.Sprintf("code=%v", e.Code))
	}
	if e.Param != nil && *e.Param != "" {
		parts = append(parts, "param="+*e.Param)
	}
	if len(parts) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}
