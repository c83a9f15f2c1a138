package nonce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_FollowsClock(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g := New(func() time.Time { return now })

	assert.Equal(t, int64(1_700_000_000_000), g.Next())

	now = now.Add(5 * time.Millisecond)
	assert.Equal(t, int64(1_700_000_000_005), g.Next())
}

func TestGenerator_FrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := New(func() time.Time { return frozen })

	first := g.Next()
	second := g.Next()
	third := g.Next()

	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
	assert.Equal(t, third, g.Last())
}

func TestGenerator_ClockMovesBackwards(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g := New(func() time.Time { return now })

	first := g.Next()
	now = now.Add(-time.Second)

	assert.Greater(t, g.Next(), first)
}

func TestGenerator_Concurrent(t *testing.T) {
	g := New(nil)

	const workers = 16
	const perWorker = 500

	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := int64(0)
			for j := 0; j < perWorker; j++ {
				n := g.Next()
				assert.Greater(t, n, prev)
				prev = n
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]struct{}, workers*perWorker)
	for n := range results {
		_, dup := seen[n]
		require.False(t, dup, "nonce %d issued twice", n)
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestGenerator_NextString(t *testing.T) {
	g := New(func() time.Time { return time.UnixMilli(42) })
	assert.Equal(t, "42", g.NextString())
}
