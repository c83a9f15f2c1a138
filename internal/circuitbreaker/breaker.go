package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	Name             string        `json:"name"`
	FailThreshold    int           `json:"fail_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Timeout          time.Duration `json:"timeout"`
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithLogger sets the logger that records state transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Breaker) {
		b.logger = l
	}
}

// WithClock replaces the time source used to expire the open state.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// Breaker stops traffic to a venue after repeated transport or server
// failures and probes it again once Timeout has elapsed.
type Breaker struct {
	name             string
	state            atomic.Int32
	failures         atomic.Int32
	successes        atomic.Int32
	failThreshold    int
	successThreshold int
	timeout          time.Duration
	lastFailTime     atomic.Int64
	mu               sync.Mutex
	now              func() time.Time
	logger           zerolog.Logger
	metrics          *Metrics
}

type Metrics struct {
	totalRequests   atomic.Int64
	rejected        atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	stateChanges    atomic.Int32
}

func New(config Config, opts ...Option) *Breaker {
	b := &Breaker{
		name:             config.Name,
		failThreshold:    config.FailThreshold,
		successThreshold: config.SuccessThreshold,
		timeout:          config.Timeout,
		now:              time.Now,
		logger:           zerolog.Nop(),
		metrics:          &Metrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(int32(StateClosed))
	return b
}

func (b *Breaker) expired() bool {
	lastFail := time.Unix(0, b.lastFailTime.Load())
	return b.now().Sub(lastFail) >= b.timeout
}

// Allow reports whether a request may proceed.
func (b *Breaker) Allow() bool {
	b.metrics.totalRequests.Add(1)

	switch State(b.state.Load()) {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		b.mu.Lock()
		defer b.mu.Unlock()
		if State(b.state.Load()) != StateOpen {
			return true
		}
		if b.expired() {
			b.successes.Store(0)
			b.transitionTo(StateHalfOpen)
			return true
		}
	}

	b.metrics.rejected.Add(1)
	return false
}

// Record feeds the outcome of a request into the state machine.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.successRequests.Add(1)
	} else {
		b.metrics.failedRequests.Add(1)
	}

	state := State(b.state.Load())
	if state == StateOpen {
		if !b.expired() {
			return
		}
		b.successes.Store(0)
		b.transitionTo(StateHalfOpen)
		state = StateHalfOpen
	}

	switch state {
	case StateClosed:
		if success {
			b.failures.Store(0)
			return
		}
		if int(b.failures.Add(1)) >= b.failThreshold {
			b.trip()
		}
	case StateHalfOpen:
		if !success {
			b.trip()
			return
		}
		if int(b.successes.Add(1)) >= b.successThreshold {
			b.failures.Store(0)
			b.successes.Store(0)
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) trip() {
	b.lastFailTime.Store(b.now().UnixNano())
	b.successes.Store(0)
	b.transitionTo(StateOpen)
}

func (b *Breaker) transitionTo(newState State) {
	old := State(b.state.Swap(int32(newState)))
	if old == newState {
		return
	}
	b.metrics.stateChanges.Add(1)
	b.logger.Warn().
		Str("breaker", b.name).
		Str("from", old.String()).
		Str("to", newState.String()).
		Msg("circuit breaker state changed")
}

func (b *Breaker) State() State {
	return State(b.state.Load())
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures.Store(0)
	b.successes.Store(0)
	b.transitionTo(StateClosed)
}

func (b *Breaker) Failures() int {
	return int(b.failures.Load())
}

func (b *Breaker) Successes() int {
	return int(b.successes.Load())
}

func (b *Breaker) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:    b.metrics.totalRequests.Load(),
		RejectedRequests: b.metrics.rejected.Load(),
		SuccessRequests:  b.metrics.successRequests.Load(),
		FailedRequests:   b.metrics.failedRequests.Load(),
		StateChanges:     b.metrics.stateChanges.Load(),
		CurrentState:     b.State().String(),
	}
}

type MetricsSnapshot struct {
	TotalRequests    int64
	RejectedRequests int64
	SuccessRequests  int64
	FailedRequests   int64
	StateChanges     int32
	CurrentState     string
}
