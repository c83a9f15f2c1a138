package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"closed", StateClosed, "CLOSED"},
		{"open", StateOpen, "OPEN"},
		{"half_open", StateHalfOpen, "HALF_OPEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestBreaker_New(t *testing.T) {
	config := Config{
		FailThreshold:    5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}

	breaker := New(config)

	assert.NotNil(t, breaker)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_Allow_Closed(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    3,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	})

	assert.True(t, breaker.Allow())
}

func TestBreaker_TransitionToOpen(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    3,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	assert.Equal(t, StateClosed, breaker.State())

	breaker.Record(false)
	assert.Equal(t, StateClosed, breaker.State())

	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	assert.False(t, breaker.Allow())
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestBreaker_TransitionToHalfOpen(t *testing.T) {
	clock := newClock()
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	}, WithClock(clock.Now))

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(150 * time.Millisecond)

	assert.True(t, breaker.Allow())
	breaker.Record(true)
	assert.Equal(t, StateHalfOpen, breaker.State())
}

func TestBreaker_TransitionToClosed(t *testing.T) {
	clock := newClock()
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	}, WithClock(clock.Now))

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(150 * time.Millisecond)

	breaker.Record(true)
	assert.Equal(t, StateHalfOpen, breaker.State())

	breaker.Record(true)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_HalfOpenToFails(t *testing.T) {
	clock := newClock()
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	}, WithClock(clock.Now))

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(150 * time.Millisecond)

	breaker.Record(true)
	assert.Equal(t, StateHalfOpen, breaker.State())

	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreaker_Reset(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	breaker.Reset()

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, 0, breaker.Failures())
	assert.Equal(t, 0, breaker.Successes())
}

func TestBreaker_FailuresAndSuccesses(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    10,
		SuccessThreshold: 5,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	breaker.Record(false)
	breaker.Record(true)

	assert.Equal(t, 0, breaker.Failures())
	assert.Equal(t, 0, breaker.Successes())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    5,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, 3, breaker.Failures())

	breaker.Record(true)
	assert.Equal(t, 0, breaker.Failures())
}

func TestBreaker_OpenRejectsUntilTimeout(t *testing.T) {
	clock := newClock()
	breaker := New(Config{
		Name:             "braziliex",
		FailThreshold:    1,
		SuccessThreshold: 1,
		Timeout:          time.Second,
	}, WithClock(clock.Now))

	breaker.Record(false)
	assert.False(t, breaker.Allow())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, breaker.Allow())

	clock.Advance(500 * time.Millisecond)
	assert.True(t, breaker.Allow())
	assert.Equal(t, StateHalfOpen, breaker.State())

	breaker.Record(true)
	assert.Equal(t, StateClosed, breaker.State())

	metrics := breaker.Metrics()
	assert.Equal(t, int64(2), metrics.RejectedRequests)
	assert.Equal(t, int32(3), metrics.StateChanges)
	assert.Equal(t, "CLOSED", metrics.CurrentState)
}

func TestBreaker_RecordWhileOpenIgnored(t *testing.T) {
	clock := newClock()
	breaker := New(Config{
		FailThreshold:    1,
		SuccessThreshold: 1,
		Timeout:          time.Second,
	}, WithClock(clock.Now))

	breaker.Record(false)
	breaker.Record(true)

	assert.Equal(t, StateOpen, breaker.State())
}
