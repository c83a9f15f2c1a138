package ordermanager

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"bursa/pkg/core"
)

type OrderCallback func(core.Order)

// Tracker is the authoritative record of orders placed through one client,
// keyed by the venue-assigned order id. Inserts from concurrent placements
// never lose updates; a second insert under the same id replaces the first.
type Tracker struct {
	logger      zerolog.Logger
	orders      sync.Map
	count       atomic.Int64
	callbacks   []OrderCallback
	callbacksMu sync.RWMutex
}

type Option func(*Tracker)

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		logger:    zerolog.Nop(),
		callbacks: make([]OrderCallback, 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track stores a copy of order and notifies subscribers. Orders without an
// id are ignored.
func (t *Tracker) Track(order *core.Order) {
	if order == nil || order.ID == "" {
		return
	}

	stored := *order
	if _, loaded := t.orders.Swap(stored.ID, &stored); !loaded {
		t.count.Add(1)
	}

	t.logger.Debug().
		Str("order_id", stored.ID).
		Str("symbol", stored.Symbol).
		Str("side", stored.Side.String()).
		Str("status", stored.Status.String()).
		Msg("order tracked")

	t.notifyCallbacks(stored)
}

// Get returns a copy of the tracked order.
func (t *Tracker) Get(orderID string) (core.Order, bool) {
	if orderID == "" {
		return core.Order{}, false
	}

	value, ok := t.orders.Load(orderID)
	if !ok {
		return core.Order{}, false
	}

	order, ok := value.(*core.Order)
	if !ok {
		return core.Order{}, false
	}
	return *order, true
}

// Orders returns the tracked orders matching filter, oldest first.
func (t *Tracker) Orders(filter OrderFilter) []core.Order {
	var result []core.Order

	t.orders.Range(func(key, value any) bool {
		order, ok := value.(*core.Order)
		if !ok {
			return true
		}
		if filter.Matches(order) {
			result = append(result, *order)
		}
		return true
	})

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Open returns the tracked orders not yet in a terminal state.
func (t *Tracker) Open() []core.Order {
	var result []core.Order
	for _, order := range t.Orders(OrderFilter{}) {
		if !order.Status.IsTerminal() {
			result = append(result, order)
		}
	}
	return result
}

func (t *Tracker) Len() int {
	return int(t.count.Load())
}

// OnOrder registers a callback invoked after every Track.
func (t *Tracker) OnOrder(callback OrderCallback) {
	t.callbacksMu.Lock()
	defer t.callbacksMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

func (t *Tracker) notifyCallbacks(order core.Order) {
	t.callbacksMu.RLock()
	callbacks := make([]OrderCallback, len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(order)
	}
}

// OrderFilter selects tracked orders. Nil fields match everything.
type OrderFilter struct {
	Symbol string            `json:"symbol,omitempty"`
	Side   *core.OrderSide   `json:"side,omitempty"`
	Status *core.OrderStatus `json:"status,omitempty"`
}

func (f *OrderFilter) Matches(order *core.Order) bool {
	if f.Symbol != "" && order.Symbol != f.Symbol {
		return false
	}

	if f.Side != nil && order.Side != *f.Side {
		return false
	}

	if f.Status != nil && order.Status != *f.Status {
		return false
	}

	return true
}
