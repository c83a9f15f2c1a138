package ordermanager

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bursa/pkg/core"
)

func side(s core.OrderSide) *core.OrderSide       { return &s }
func status(s core.OrderStatus) *core.OrderStatus { return &s }

func TestOrderFilter_Matches(t *testing.T) {
	order := &core.Order{
		Symbol: "BTC/BRL",
		Side:   core.SideSell,
		Status: core.StatusOpen,
	}

	tests := []struct {
		name   string
		filter OrderFilter
		want   bool
	}{
		{
			name:   "empty filter matches all",
			filter: OrderFilter{},
			want:   true,
		},
		{
			name:   "symbol match",
			filter: OrderFilter{Symbol: "BTC/BRL"},
			want:   true,
		},
		{
			name:   "symbol mismatch",
			filter: OrderFilter{Symbol: "ETH/BRL"},
			want:   false,
		},
		{
			name:   "side match",
			filter: OrderFilter{Side: side(core.SideSell)},
			want:   true,
		},
		{
			name:   "side mismatch",
			filter: OrderFilter{Side: side(core.SideBuy)},
			want:   false,
		},
		{
			name:   "status match",
			filter: OrderFilter{Status: status(core.StatusOpen)},
			want:   true,
		},
		{
			name:   "status mismatch",
			filter: OrderFilter{Status: status(core.StatusCanceled)},
			want:   false,
		},
		{
			name:   "all fields match",
			filter: OrderFilter{Symbol: "BTC/BRL", Side: side(core.SideSell), Status: status(core.StatusOpen)},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(order))
		})
	}
}

func TestTracker_TrackAndGet(t *testing.T) {
	tracker := NewTracker()

	order := &core.Order{ID: "42", Symbol: "BTC/BRL", Amount: 0.5, Remaining: 0.5}
	tracker.Track(order)

	got, ok := tracker.Get("42")
	require.True(t, ok)
	assert.Equal(t, "BTC/BRL", got.Symbol)
	assert.Equal(t, 1, tracker.Len())

	order.Amount = 9
	got, _ = tracker.Get("42")
	assert.Equal(t, 0.5, got.Amount)

	_, ok = tracker.Get("missing")
	assert.False(t, ok)
	_, ok = tracker.Get("")
	assert.False(t, ok)
}

func TestTracker_IgnoresEmptyID(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(nil)
	tracker.Track(&core.Order{Symbol: "BTC/BRL"})
	assert.Zero(t, tracker.Len())
}

func TestTracker_ReplaceSameID(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(&core.Order{ID: "1", Amount: 1})
	tracker.Track(&core.Order{ID: "1", Amount: 2})

	assert.Equal(t, 1, tracker.Len())
	got, ok := tracker.Get("1")
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Amount)
}

func TestTracker_ConcurrentTrack(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Track(&core.Order{ID: fmt.Sprintf("order-%d", i), Timestamp: int64(i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, tracker.Len())
	orders := tracker.Orders(OrderFilter{})
	require.Len(t, orders, 100)
	for i, o := range orders {
		assert.Equal(t, int64(i), o.Timestamp)
	}
}

func TestTracker_OrdersFilterAndOpen(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(&core.Order{ID: "1", Symbol: "BTC/BRL", Side: core.SideBuy, Timestamp: 3})
	tracker.Track(&core.Order{ID: "2", Symbol: "ETH/BRL", Side: core.SideSell, Timestamp: 1})
	tracker.Track(&core.Order{ID: "3", Symbol: "BTC/BRL", Side: core.SideSell, Timestamp: 2, Status: core.StatusCanceled})

	btc := tracker.Orders(OrderFilter{Symbol: "BTC/BRL"})
	require.Len(t, btc, 2)
	assert.Equal(t, "3", btc[0].ID)
	assert.Equal(t, "1", btc[1].ID)

	sells := tracker.Orders(OrderFilter{Side: side(core.SideSell)})
	assert.Len(t, sells, 2)

	open := tracker.Open()
	require.Len(t, open, 2)
	assert.Equal(t, "2", open[0].ID)
	assert.Equal(t, "1", open[1].ID)
}

func TestTracker_OnOrder(t *testing.T) {
	tracker := NewTracker()

	var mu sync.Mutex
	var seen []string
	tracker.OnOrder(func(o core.Order) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, o.ID)
	})

	tracker.Track(&core.Order{ID: "a"})
	tracker.Track(&core.Order{ID: "b"})
	tracker.Track(&core.Order{})

	assert.Equal(t, []string{"a", "b"}, seen)
}
