// Package gateway runs generation requests against per-session
// conversations with at most one call in flight per session.
package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/KouCha61ue/MIndCore/internal/llm"
	"github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/metrics"
	"github.com/KouCha61ue/MIndCore/internal/session"
)

var (
	// ErrBusy is returned under BusyReject while the session has a call in flight.
	ErrBusy = errors.New("gateway: generation already in progress for session")
	// ErrEmptyPrompt is returned for blank prompts; callers filter these upstream.
	ErrEmptyPrompt = errors.New("gateway: empty prompt")
)

// Result is the outcome of one generation.
type Result struct {
	Text    string
	Err     error
	Elapsed time.Duration
}

// Gateway submits prompts to the completion service through the session store.
type Gateway struct {
	sessions *session.Store
	driver   string
	timeout  time.Duration
	policy   BusyPolicy
	metrics  *metrics.Manager
	count    TokenCounter

	mu    sync.Mutex
	locks map[string]*keyLock
}

// TokenCounter estimates the token count of a text.
type TokenCounter func(text string) int

// keyLock is a one-slot semaphore shared by all requests for one session.
type keyLock struct {
	sem  chan struct{}
	refs int
}

// New creates a gateway. driver names the completion backend in logs and
// metrics; m may be nil.
func New(sessions *session.Store, driver string, cfg Config, m *metrics.Manager) *Gateway {
	policy := cfg.BusyPolicy
	if policy == "" {
		policy = BusyWait
	}
	return &Gateway{
		sessions: sessions,
		driver:   driver,
		timeout:  cfg.Timeout(),
		policy:   policy,
		metrics:  m,
		locks:    make(map[string]*keyLock),
	}
}

// CountTokens records estimated prompt and reply tokens as
// "tokens/<driver>" counters for every successful generation.
func (g *Gateway) CountTokens(fn TokenCounter) {
	g.count = fn
}

// Generate submits prompt to the conversation for key and returns the
// trimmed reply. Failures are ErrBusy, ErrEmptyPrompt, llm.ErrEmptyCompletion
// or *llm.UpstreamError.
func (g *Gateway) Generate(ctx context.Context, key, prompt string) (string, error) {
	r := g.generate(ctx, key, prompt)
	return r.Text, r.Err
}

// GenerateAsync runs Generate off the caller's goroutine. The channel
// receives exactly one Result.
func (g *Gateway) GenerateAsync(ctx context.Context, key, prompt string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- g.generate(ctx, key, prompt)
	}()
	return out
}

func (g *Gateway) generate(ctx context.Context, key, prompt string) Result {
	if strings.TrimSpace(prompt) == "" {
		return Result{Err: ErrEmptyPrompt}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	stop := g.metrics.StartTimer("generation/"+g.driver, "elapsed")
	r := g.run(ctx, key, prompt)
	r.Elapsed = stop()

	if r.Err != nil {
		g.metrics.RecordFailure("generation", g.driver, failureReason(r.Err))
		return r
	}
	g.metrics.RecordSuccess("generation", g.driver)
	if g.count != nil {
		g.metrics.AddCounter("tokens/"+g.driver, "prompt", int64(g.count(prompt)))
		g.metrics.AddCounter("tokens/"+g.driver, "reply", int64(g.count(r.Text)))
	}
	logging.L_debug("gateway: generation complete", "key", key, "driver", g.driver,
		"chars", len(r.Text), "elapsed", r.Elapsed.Round(time.Millisecond))
	return r
}

func (g *Gateway) run(ctx context.Context, key, prompt string) Result {
	release, err := g.acquire(ctx, key)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return Result{Err: err}
		}
		return Result{Err: llm.Upstream(g.driver, err)}
	}

	conv, err := g.sessions.GetOrCreate(key)
	if err != nil {
		release()
		return Result{Err: llm.Upstream(g.driver, err)}
	}

	// The slot is held until Send returns, even if the caller gives up first,
	// so a conversation never sees two overlapping calls.
	done := make(chan Result, 1)
	go func() {
		defer release()
		text, err := conv.Send(ctx, prompt)
		done <- Result{Text: text, Err: err}
	}()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		return Result{Err: llm.Upstream(g.driver, ctx.Err())}
	}

	if r.Err != nil {
		return Result{Err: llm.Upstream(g.driver, r.Err)}
	}
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return Result{Err: llm.ErrEmptyCompletion}
	}
	return Result{Text: text}
}

// acquire takes the session's slot, waiting or failing per the busy policy.
func (g *Gateway) acquire(ctx context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		g.locks[key] = l
	}
	l.refs++
	g.mu.Unlock()

	if g.policy == BusyReject {
		select {
		case l.sem <- struct{}{}:
		default:
			g.unref(key, l)
			logging.L_debug("gateway: session busy, rejecting", "key", key)
			return nil, ErrBusy
		}
	} else {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			g.unref(key, l)
			return nil, ctx.Err()
		}
	}

	return func() {
		<-l.sem
		g.unref(key, l)
	}, nil
}

func (g *Gateway) unref(key string, l *keyLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, key)
	}
}

// InFlight returns the number of sessions with a pending or running call.
func (g *Gateway) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

func failureReason(err error) string {
	var ue *llm.UpstreamError
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrEmptyPrompt):
		return "empty_prompt"
	case errors.Is(err, llm.ErrEmptyCompletion):
		return "empty_completion"
	case errors.As(err, &ue):
		return string(ue.Type)
	}
	return "unknown"
}
