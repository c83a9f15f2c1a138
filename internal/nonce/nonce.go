// Package nonce generates strictly increasing request nonces.
package nonce

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Generator hands out nonces derived from a millisecond clock. When the clock
// has not advanced past the last issued value, the previous value plus one is
// used instead, so every caller sharing a Generator sees a distinct, larger
// nonce than anything issued before.
type Generator struct {
	current atomic.Int64
	now     func() time.Time
}

// New returns a Generator seeded from now. A nil now uses time.Now.
func New(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	g := &Generator{now: now}
	g.current.Store(now().UnixMilli() - 1)
	return g
}

// Next returns the next nonce.
func (g *Generator) Next() int64 {
	for {
		current := g.current.Load()
		next := g.now().UnixMilli()
		if next <= current {
			next = current + 1
		}
		if g.current.CompareAndSwap(current, next) {
			return next
		}
	}
}

// NextString returns the next nonce in decimal form.
func (g *Generator) NextString() string {
	return strconv.FormatInt(g.Next(), 10)
}

// Last returns the most recently issued nonce.
func (g *Generator) Last() int64 {
	return g.current.Load()
}
