// Package tokens estimates token counts of prompts and replies using tiktoken.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

// DefaultEncoding is cl100k_base. Counts for Gemini and Claude models are
// approximate.
const DefaultEncoding = "cl100k_base"

// Estimator counts tokens. A nil Estimator, or one without an encoding,
// falls back to one token per four characters.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global estimator. The encoding is loaded on first use and
// may need network access; on failure the fallback is used for the process
// lifetime.
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		e, err := New()
		if err != nil {
			L_warn("tokens: failed to load encoding, using character estimate", "encoding", DefaultEncoding, "error", err)
			e = &Estimator{}
		}
		globalEstimator = e
	})
	return globalEstimator
}

// New loads DefaultEncoding.
func New() (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Estimator{encoding: enc}, nil
}

// Count returns the token count for text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if e == nil || e.encoding == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoding.Encode(text, nil, nil))
}

// Estimate counts text with the global estimator.
func Estimate(text string) int {
	return Get().Count(text)
}
