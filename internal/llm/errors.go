package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrEmptyCompletion is returned when the backend answers with a blank reply.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// ErrorType categorizes upstream errors for logging.
type ErrorType string

const (
	ErrorTypeUnknown    ErrorType = "unknown"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeOverloaded ErrorType = "overloaded"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// UpstreamError wraps a transport or service fault from the backend.
type UpstreamError struct {
	Provider string
	Type     ErrorType
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error (%s): %v", e.Provider, e.Type, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an *UpstreamError, classifying it. nil stays nil,
// ErrEmptyCompletion and errors that already are upstream errors pass through.
func Upstream(provider string, err error) error {
	if err == nil || errors.Is(err, ErrEmptyCompletion) {
		return err
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Provider: provider, Type: ClassifyError(err), Err: err}
}

// ClassifyError determines the error type, from the HTTP status when the SDK
// exposes one and from the message otherwise.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if t := classifyStatus(statusCode(err)); t != ErrorTypeUnknown {
		return t
	}
	return ClassifyMessage(err.Error())
}

func statusCode(err error) int {
	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode
	}
	var oaiReqErr *openai.RequestError
	if errors.As(err, &oaiReqErr) {
		return oaiReqErr.HTTPStatusCode
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode
	}
	var genErr genai.APIError
	if errors.As(err, &genErr) {
		return genErr.Code
	}
	return 0
}

func classifyStatus(code int) ErrorType {
	switch code {
	case 429:
		return ErrorTypeRateLimit
	case 401, 403:
		return ErrorTypeAuth
	case 408, 504:
		return ErrorTypeTimeout
	case 502, 503, 529:
		return ErrorTypeOverloaded
	}
	return ErrorTypeUnknown
}

// ClassifyMessage determines the error type from an error message.
func ClassifyMessage(msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case lower == "":
		return ErrorTypeUnknown
	case containsAny(lower, "429", "rate_limit", "rate limit", "too many requests",
		"quota exceeded", "resource_exhausted", "resource has been exhausted"):
		return ErrorTypeRateLimit
	case containsAny(lower, "overloaded", "server is busy", "temporarily unavailable", "unavailable"):
		return ErrorTypeOverloaded
	case containsAny(lower, "401", "403", "invalid api key", "invalid_api_key", "api key not valid",
		"unauthorized", "permission_denied", "authentication"):
		return ErrorTypeAuth
	case containsAny(lower, "timeout", "timed out", "deadline exceeded"):
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
