package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bursa/internal/circuitbreaker"
	httpclient "bursa/internal/http"
	"bursa/internal/keyring"
	"bursa/internal/ratelimit"
	"bursa/pkg/core"
)

// State represents the lifecycle state of a Session.
type State int

const (
	// StateNew indicates a newly created session that has not yet been activated.
	StateNew State = iota
	// StateActive indicates a session that is ready to process requests.
	StateActive
	// StateClosed indicates a session that has been shut down and can no longer be used.
	StateClosed
)

// String returns the string representation of the State.
func (s State) String() string {
	return [...]string{"NEW", "ACTIVE", "CLOSED"}[s]
}

// Transport executes one raw request against the venue.
type Transport interface {
	Execute(ctx context.Context, method, url string, headers map[string]string, body string) (*core.Response, error)
}

type closer interface {
	Close() error
}

// Session carries one client's connection state to a venue: its protocol,
// credentials and nonce source, rate limiting, circuit breaking and caching.
// Sessions are safe for concurrent use.
type Session struct {
	mu             sync.RWMutex
	config         *core.Config
	protocol       core.Protocol
	transport      Transport
	ownsTransport  bool
	keys           *keyring.KeyRing
	rateLimiter    *ratelimit.RateLimiter
	circuitBreaker *circuitbreaker.Breaker
	cache          *Cache
	logger         zerolog.Logger
	now            func() time.Time
	state          State
	createdAt      time.Time
	lastUsed       time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithProtocol sets the venue protocol at construction time.
func WithProtocol(p core.Protocol) Option {
	return func(s *Session) {
		s.protocol = p
	}
}

// WithTransport replaces the default resty transport.
func WithTransport(t Transport) Option {
	return func(s *Session) {
		s.transport = t
	}
}

// WithKeyRing replaces the key ring derived from the config credentials.
func WithKeyRing(k *keyring.KeyRing) Option {
	return func(s *Session) {
		s.keys = k
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock replaces the time source used for cache expiry and key usage.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Cache provides a simple in-memory cache with TTL support.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheItem
	ttl   time.Duration
	now   func() time.Time
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// NewCache creates a new Cache instance with the specified default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]*cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached body for key, or nil if it is absent or expired.
func (c *Cache) Get(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || c.now().After(item.expiresAt) {
		return nil
	}
	return item.value
}

// Set stores a body under key. A zero ttl uses the cache default.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.ttl
	}
	c.items[key] = &cacheItem{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes an item from the cache by key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheItem)
}

// Len returns the number of stored items, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// New creates a new Session with the provided configuration.
// The configuration is validated before the session is created.
func New(config *core.Config, opts ...Option) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, core.NewExchangeError(config.Exchange, core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("config validation: %v", err)).
			WithCode(core.ErrCodeInvalidConfig).
			WithCause(err)
	}

	s := &Session{
		config:      config,
		rateLimiter: ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod),
		logger:      zerolog.Nop(),
		now:         time.Now,
		state:       StateNew,
	}
	for _, opt := range opts {
		opt(s)
	}

	if config.LogLevel != "" {
		if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			s.logger = s.logger.Level(level)
		}
	}
	s.logger = s.logger.With().Str("exchange", config.Exchange).Logger()

	if s.keys == nil {
		s.keys = keyring.FromCredentials(config.Credentials,
			keyring.WithClock(s.now),
			keyring.WithLogger(s.logger))
	}

	if config.CircuitBreakerEnabled {
		s.circuitBreaker = circuitbreaker.New(circuitbreaker.Config{
			Name:             config.Exchange,
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		}, circuitbreaker.WithLogger(s.logger), circuitbreaker.WithClock(s.now))
	}

	if config.CacheEnabled {
		s.cache = NewCache(config.CacheTTL)
		s.cache.now = s.now
	}

	s.createdAt = s.now()
	s.lastUsed = s.createdAt

	if s.protocol != nil {
		if err := s.activate(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetProtocol assigns the exchange protocol to the session.
// The session state transitions to Active if currently in New state.
func (s *Session) SetProtocol(protocol core.Protocol) error {
	if protocol == nil {
		return fmt.Errorf("protocol is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocol = protocol
	return s.activate()
}

func (s *Session) activate() error {
	if s.state == StateClosed {
		return core.NewExchangeError(s.config.Exchange, core.ErrorTypeUnknown, 0, "cannot activate a closed session").
			WithCode(core.ErrCodeInvalidState).
			WithCause(core.ErrClientClosed)
	}

	s.rateLimiter.ApplyLimits(s.protocol.RateLimits())

	if s.transport == nil {
		client, err := httpclient.NewClient(&httpclient.Config{
			Exchange:     s.config.Exchange,
			BaseURL:      s.baseURL(),
			Timeout:      s.config.Timeout,
			MaxRetries:   s.config.MaxRetries,
			RetryWaitMin: s.config.RetryWaitMin,
			RetryWaitMax: s.config.RetryWaitMax,
		}, httpclient.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("create transport: %w", err)
		}
		s.transport = client
		s.ownsTransport = true
	}

	if s.state == StateNew {
		s.state = StateActive
	}
	s.lastUsed = s.now()
	return nil
}

func (s *Session) baseURL() string {
	if s.config.BaseURL != "" {
		return s.config.BaseURL
	}
	return s.protocol.BaseURL(s.config.Sandbox)
}

// Do runs op against the venue and returns the response body once the
// protocol has classified it as successful. Private operations are signed
// with the current key; public ones may be served from the cache.
func (s *Session) Do(ctx context.Context, op core.Operation, params core.Params) ([]byte, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, core.NewExchangeError(s.config.Exchange, core.ErrorTypeUnknown, 0, core.ErrClientClosed.Error()).
			WithCode(core.ErrCodeClientClosed).
			WithCause(core.ErrClientClosed)
	}
	if s.protocol == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("protocol not set")
	}
	protocol := s.protocol
	transport := s.transport
	keys := s.keys
	baseURL := s.baseURL()
	s.lastUsed = s.now()
	s.mu.Unlock()

	var key *keyring.APIKey
	if protocol.IsPrivate(op) {
		if keys == nil || keys.Len() == 0 {
			return nil, core.NewExchangeError(s.config.Exchange, core.ErrorTypeAuthentication, 0,
				fmt.Sprintf("%s requires credentials", op)).
				WithCode(core.ErrCodeNoCredentials).
				WithCause(core.ErrNoCredentials)
		}
		if key = keys.Current(); key == nil {
			return nil, core.NewExchangeError(s.config.Exchange, core.ErrorTypeAuthentication, 0,
				fmt.Sprintf("%s: every API key is disabled", op)).
				WithCode(core.ErrCodeNoAPIKey).
				WithCause(core.ErrNoAPIKey)
		}
	}

	req, err := protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	cacheable := key == nil && req.CacheKey != "" && s.cache != nil
	if cacheable {
		if cached := s.cache.Get(req.CacheKey); cached != nil {
			s.logger.Debug().Str("cache_key", req.CacheKey).Msg("cache hit")
			return cached, nil
		}
	}

	if s.circuitBreaker != nil && !s.circuitBreaker.Allow() {
		return nil, core.NewExchangeError(s.config.Exchange, core.ErrorTypeServerError, http.StatusServiceUnavailable,
			core.ErrCircuitBreakerOpen.Error()).
			WithCode(core.ErrCodeCircuitBreaker).
			WithCause(core.ErrCircuitBreakerOpen)
	}

	if err := s.rateLimiter.WaitRequest(ctx, req, op); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var resp *core.Response
	send := func() error {
		var err error
		resp, err = transport.Execute(ctx, req.Method, req.URL(baseURL), req.Headers, req.Body)
		if s.circuitBreaker != nil {
			s.circuitBreaker.Record(err == nil && resp.StatusCode < http.StatusInternalServerError)
		}
		return err
	}

	// The nonce is drawn only once the request is cleared to go, and the
	// key stays locked until the venue has answered.
	if key != nil {
		err = key.Exclusive(func() error {
			if err := protocol.SignRequest(req, key); err != nil {
				return fmt.Errorf("sign request: %w", err)
			}
			keys.MarkUsed()
			return send()
		})
	} else {
		err = send()
	}
	if err != nil {
		onKeyError(keys, key, err)
		return nil, err
	}

	if err := s.classify(protocol, op, resp); err != nil {
		s.logger.Debug().
			Err(err).
			Str("operation", op.String()).
			Int("status", resp.StatusCode).
			Msg("request rejected")
		onKeyError(keys, key, err)
		return nil, err
	}

	if cacheable {
		s.cache.Set(req.CacheKey, resp.Body, req.CacheTTL)
	}

	return resp.Body, nil
}

// classify lets the protocol read the venue's own failure report first and
// falls back to the HTTP status.
func (s *Session) classify(protocol core.Protocol, op core.Operation, resp *core.Response) error {
	if err := protocol.CheckResponse(op, resp); err != nil {
		return err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	errType, code := mapStatusCode(resp.StatusCode)
	return core.NewExchangeError(
		s.config.Exchange,
		errType,
		resp.StatusCode,
		string(resp.Body),
	).WithCode(code).WithRaw(string(resp.Body))
}

func onKeyError(keys *keyring.KeyRing, key *keyring.APIKey, err error) {
	if key == nil || keys == nil {
		return
	}
	if core.IsAuthenticationError(err) || core.IsRateLimitError(err) {
		keys.OnError(err)
	}
}

func mapStatusCode(statusCode int) (core.ErrorType, core.ErrorCode) {
	switch {
	case statusCode >= 500:
		return core.ErrorTypeServerError, core.ErrCodeServerError
	case statusCode == http.StatusTooManyRequests:
		return core.ErrorTypeRateLimit, core.ErrCodeRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return core.ErrorTypeAuthentication, core.ErrCodeAuth
	case statusCode == http.StatusBadRequest:
		return core.ErrorTypeBadRequest, core.ErrCodeBadRequest
	case statusCode == http.StatusNotFound:
		return core.ErrorTypeNotFound, core.ErrCodeNotFound
	default:
		return core.ErrorTypeUnknown, ""
	}
}

// Close shuts down the session and releases resources.
// It clears the cache and transitions the session to Closed state.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	s.state = StateClosed

	if c, ok := s.transport.(closer); ok && s.ownsTransport {
		return c.Close()
	}
	return nil
}

// State returns the current lifecycle state of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Protocol returns the exchange protocol assigned to the session.
func (s *Session) Protocol() core.Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocol
}

func (s *Session) Config() *core.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// LastUsed returns the timestamp of the last request executed by the session.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// HasCredentials reports whether a usable key is available for private calls.
func (s *Session) HasCredentials() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys != nil && s.keys.Current() != nil
}

// SetCredentials replaces the key ring with one built from creds. Zero
// credentials leave the session public-only.
func (s *Session) SetCredentials(creds *core.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keyring.FromCredentials(creds,
		keyring.WithClock(s.now),
		keyring.WithLogger(s.logger))
}

// ClearCache removes all cached items from the session's cache.
func (s *Session) ClearCache() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Breaker exposes the circuit breaker, or nil when it is disabled.
func (s *Session) Breaker() *circuitbreaker.Breaker {
	return s.circuitBreaker
}

// RateLimiter exposes the session's limiter for metrics.
func (s *Session) RateLimiter() *ratelimit.RateLimiter {
	return s.rateLimiter
}

// IsClosed reports whether err came from a closed session or transport.
func IsClosed(err error) bool {
	return errors.Is(err, core.ErrClientClosed)
}
