// Package oracle provides text completions from a language model. The
// survey treats the model as an unreliable oracle: callers go through Safe,
// which never fails.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/survey-cli/internal/resilience"
)

// Apology replaces the completion whenever the model cannot be reached.
const Apology = "Sorry, I couldn't generate a response right now."

// Oracle turns a prompt into a completion.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Completer is an Oracle that cannot fail. When the underlying call fails
// the reply is the fallback string and ok is false.
type Completer interface {
	Complete(ctx context.Context, prompt string) (reply string, ok bool)
}

type safe struct {
	next     Oracle
	fallback string
	timeout  time.Duration
}

// Safe wraps o so that any error, including a timeout, degrades to
// the Apology string. A non-positive timeout disables the per-call limit.
func Safe(o Oracle, timeout time.Duration) Completer {
	return SafeWithFallback(o, timeout, Apology)
}

// SafeWithFallback is Safe with a custom failure string.
func SafeWithFallback(o Oracle, timeout time.Duration, fallback string) Completer {
	return &safe{next: o, fallback: fallback, timeout: timeout}
}

func (s *safe) Complete(ctx context.Context, prompt string) (string, bool) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.next.Complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("oracle: completion failed", zap.Error(err))
		return s.fallback, false
	}
	return out, true
}

// Timeout bounds every call to o by d. A non-positive d returns o unchanged.
func Timeout(o Oracle, d time.Duration) Oracle {
	if d <= 0 {
		return o
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return o.Complete(ctx, prompt)
	})
}

// Guard adds rate limiting, retries on transient errors and a circuit
// breaker in front of o. A nil limiter disables rate limiting.
func Guard(o Oracle, name string, limiter *rate.Limiter, retry resilience.RetryConfig, breaker *resilience.CircuitBreaker) Oracle {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(name)
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		call := func(ctx context.Context) (string, error) {
			return resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return "", eris.Wrap(err, "oracle: rate limit wait")
					}
				}
				return o.Complete(ctx, prompt)
			})
		}
		if breaker == nil {
			return call(ctx)
		}
		return resilience.ExecuteVal(ctx, breaker, call)
	})
}

// Scripted replays canned completions in order and records every prompt.
// Once the script is exhausted the last reply repeats. An entry that is an
// error is returned as the call's error.
type Scripted struct {
	mu      sync.Mutex
	replies []any
	Prompts []string
}

// NewScripted creates a Scripted oracle. Each reply is a string or an error.
func NewScripted(replies ...any) *Scripted {
	return &Scripted{replies: replies}
}

// Complete returns the next scripted reply.
func (s *Scripted) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.Prompts)
	s.Prompts = append(s.Prompts, prompt)
	if len(s.replies) == 0 {
		return "", eris.New("oracle: empty script")
	}
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}

	switch r := s.replies[idx].(type) {
	case error:
		return "", r
	case string:
		return r, nil
	default:
		return "", eris.Errorf("oracle: unsupported scripted reply %T", r)
	}
}

// Calls returns how many prompts have been received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}
