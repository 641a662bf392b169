package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, ErrorTypeRateLimit},
		{"openai 401", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, ErrorTypeAuth},
		{"openai request 503", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("x")}, ErrorTypeOverloaded},
		{"gemini 504", genai.APIError{Code: 504, Message: "late"}, ErrorTypeTimeout},
		{"message rate limit", errors.New("RESOURCE_EXHAUSTED: quota"), ErrorTypeRateLimit},
		{"message overloaded", errors.New("model is overloaded"), ErrorTypeOverloaded},
		{"message auth", errors.New("API key not valid. Please pass a valid API key."), ErrorTypeAuth},
		{"message timeout", errors.New("dial tcp: i/o timeout"), ErrorTypeTimeout},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestUpstream(t *testing.T) {
	if Upstream("gemini", nil) != nil {
		t.Error("Upstream(nil) should stay nil")
	}
	if err := Upstream("gemini", ErrEmptyCompletion); err != ErrEmptyCompletion {
		t.Errorf("ErrEmptyCompletion should pass through, got %v", err)
	}

	cause := errors.New("429 too many requests")
	err := Upstream("openai", cause)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if ue.Provider != "openai" || ue.Type != ErrorTypeRateLimit {
		t.Errorf("UpstreamError = %+v", ue)
	}
	if !errors.Is(err, cause) {
		t.Error("UpstreamError should unwrap to its cause")
	}
	if again := Upstream("openai", err); again != err {
		t.Error("wrapping an UpstreamError twice should be a no-op")
	}
}
