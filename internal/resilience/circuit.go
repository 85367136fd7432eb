package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without calling through while the breaker is
// open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreaker stops calling a failing service for ResetTimeout after
// FailureThreshold consecutive failures, then lets one probe through.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments fall
// back to 5 failures and 30 seconds.
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// Open reports whether calls are currently being rejected.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open && cb.now().Sub(cb.openedAt) < cb.resetTimeout
}

// ExecuteVal runs fn through the breaker.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cb.Open() {
		return zero, ErrCircuitOpen
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.open {
			zap.L().Info("circuit closed", zap.String("service", cb.name))
		}
		cb.failures = 0
		cb.open = false
		return
	}

	cb.failures++
	if cb.open || cb.failures >= cb.failureThreshold {
		if !cb.open {
			zap.L().Warn("circuit opened",
				zap.String("service", cb.name),
				zap.Int("failures", cb.failures),
			)
		}
		cb.open = true
		cb.openedAt = cb.now()
	}
}
