package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bursa/pkg/core"
)

func TestRateLimiter_New(t *testing.T) {
	limiter := New(10, time.Second)

	assert.NotNil(t, limiter)
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow(), "request 6 should be blocked")
}

func TestRateLimiter_Wait(t *testing.T) {
	limiter := New(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		err := limiter.Wait(context.Background())
		assert.NoError(t, err)
	}
}

func TestRateLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New(1, time.Second)

	err := limiter.Wait(context.Background())
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx)
	assert.Error(t, err)
}

func TestRateLimiter_Bucket(t *testing.T) {
	limiter := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.AllowBucket("bucket1"), "bucket1 request %d should be allowed", i+1)
	}
	assert.False(t, limiter.AllowBucket("bucket1"), "bucket1 request 6 should be blocked")

	assert.True(t, limiter.AllowBucket("bucket2"), "bucket2 request 1 should be allowed")
}

func TestRateLimiter_WaitBucket(t *testing.T) {
	limiter := New(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		err := limiter.WaitBucket(context.Background(), "bucket1")
		assert.NoError(t, err)
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := New(100, time.Second)

	var wg sync.WaitGroup
	successCount := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			successCount <- limiter.Allow()
		}()
	}

	wg.Wait()
	close(successCount)

	allowed := 0
	for success := range successCount {
		if success {
			allowed++
		}
	}

	assert.LessOrEqual(t, allowed, 100, "should not allow more than 100 requests")
}

func TestRateLimiter_SetLimit(t *testing.T) {
	limiter := New(1, time.Minute)

	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	limiter.SetLimit(1000, time.Second)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, limiter.Allow(), "should allow after limit increase and time passage")
}

func TestRateLimiter_WaitRequest(t *testing.T) {
	limiter := New(10, time.Second)

	public := core.NewRequest("GET", "/public/ticker")
	require.NoError(t, limiter.WaitRequest(context.Background(), public, core.OpFetchTickers))

	private := core.NewRequest("POST", "/private").SetAPI(core.APIPrivate)
	require.NoError(t, limiter.WaitRequest(context.Background(), private, core.OpPlaceBuyOrder))

	metrics := limiter.Metrics()
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.AllowedRequests)
	assert.Equal(t, int32(2), metrics.BucketCount)
}

func TestRateLimiter_WaitRequest_Weight(t *testing.T) {
	limiter := New(2, time.Minute)

	heavy := core.NewRequest("GET", "/public/ticker").SetWeight(2)
	require.NoError(t, limiter.WaitRequest(context.Background(), heavy, core.OpFetchTickers))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.WaitRequest(ctx, core.NewRequest("GET", "/public/currencies"), core.OpFetchCurrencies)
	assert.Error(t, err)
	assert.Equal(t, int64(1), limiter.Metrics().DeniedRequests)
}

func TestRateLimiter_ApplyLimits(t *testing.T) {
	limiter := New(100, time.Second)
	limiter.ApplyLimits(core.RateLimitConfig{OrdersPerSecond: 1})

	assert.True(t, limiter.AllowBucket(BucketOrders))
	assert.False(t, limiter.AllowBucket(BucketOrders))
	assert.True(t, limiter.AllowBucket(BucketPrivate))
}
