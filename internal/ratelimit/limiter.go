package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"bursa/pkg/core"
)

// Bucket names used for venue requests.
const (
	BucketPrivate = "private"
	BucketOrders  = "orders"
)

// RateLimiter provides rate limiting with support for global and per-bucket limits.
type RateLimiter struct {
	global   *rate.Limiter
	buckets  sync.Map
	mu       sync.RWMutex
	requests int
	period   time.Duration
	metrics  *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	bucketCount     atomic.Int32
}

// New creates a new RateLimiter with the specified number of requests allowed per period.
func New(requests int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		global:   rate.NewLimiter(perSecond(requests, period), requests),
		requests: requests,
		period:   period,
		metrics:  &Metrics{},
	}
}

func perSecond(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// ApplyLimits installs the venue's published order limit on the orders bucket.
func (r *RateLimiter) ApplyLimits(limits core.RateLimitConfig) {
	if limits.OrdersPerSecond > 0 {
		r.SetBucketLimit(BucketOrders, limits.OrdersPerSecond, time.Second)
	}
}

// WaitRequest blocks until req may be sent. Every request consumes its weight
// from the global limiter; private requests also draw from the private
// bucket and order placements from the orders bucket.
func (r *RateLimiter) WaitRequest(ctx context.Context, req *core.Request, op core.Operation) error {
	weight := req.Weight
	if weight <= 0 {
		weight = 1
	}

	r.metrics.totalRequests.Add(1)
	if err := r.global.WaitN(ctx, weight); err != nil {
		r.metrics.deniedRequests.Add(1)
		return fmt.Errorf("global limit: %w", err)
	}

	if req.API == core.APIPrivate {
		if err := r.getBucket(BucketPrivate).Wait(ctx); err != nil {
			r.metrics.deniedRequests.Add(1)
			return fmt.Errorf("%s limit: %w", BucketPrivate, err)
		}
	}

	if op == core.OpPlaceBuyOrder || op == core.OpPlaceSellOrder {
		if err := r.getBucket(BucketOrders).Wait(ctx); err != nil {
			r.metrics.deniedRequests.Add(1)
			return fmt.Errorf("%s limit: %w", BucketOrders, err)
		}
	}

	r.metrics.allowedRequests.Add(1)
	return nil
}

// Wait blocks until the global rate limiter allows a request or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.metrics.totalRequests.Add(1)
	err := r.global.Wait(ctx)
	if err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// WaitBucket blocks until the named bucket's rate limiter allows a request or the context is cancelled.
// Buckets are created on-demand with the default rate limit.
func (r *RateLimiter) WaitBucket(ctx context.Context, bucket string) error {
	r.metrics.totalRequests.Add(1)
	limiter := r.getBucket(bucket)
	err := limiter.Wait(ctx)
	if err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if the global rate limiter permits a request immediately.
func (r *RateLimiter) Allow() bool {
	r.metrics.totalRequests.Add(1)
	allowed := r.global.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// AllowBucket returns true if the named bucket's rate limiter permits a request immediately.
func (r *RateLimiter) AllowBucket(bucket string) bool {
	r.metrics.totalRequests.Add(1)
	limiter := r.getBucket(bucket)
	allowed := limiter.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

func (r *RateLimiter) getBucket(bucket string) *rate.Limiter {
	if v, ok := r.buckets.Load(bucket); ok {
		return v.(*rate.Limiter)
	}

	r.mu.RLock()
	limiter := rate.NewLimiter(perSecond(r.requests, r.period), r.requests)
	r.mu.RUnlock()

	actual, loaded := r.buckets.LoadOrStore(bucket, limiter)
	if !loaded {
		r.metrics.bucketCount.Add(1)
	}
	return actual.(*rate.Limiter)
}

// SetLimit updates the global rate limit to the specified requests per period.
func (r *RateLimiter) SetLimit(requests int, period time.Duration) {
	r.mu.Lock()
	r.requests = requests
	r.period = period
	r.mu.Unlock()

	r.global.SetLimit(perSecond(requests, period))
	r.global.SetBurst(requests)
}

// SetBucketLimit updates the rate limit for a specific bucket.
// The bucket is created if it does not exist.
func (r *RateLimiter) SetBucketLimit(bucket string, requests int, period time.Duration) {
	limiter := r.getBucket(bucket)
	limiter.SetLimit(perSecond(requests, period))
	limiter.SetBurst(requests)
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
		BucketCount:     r.metrics.bucketCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of requests that were allowed.
	AllowedRequests int64
	// DeniedRequests is the number of requests that were denied.
	DeniedRequests int64
	// BucketCount is the number of rate limit buckets in use.
	BucketCount int32
}
