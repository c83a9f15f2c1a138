package core

import "context"

// RateLimitConfig defines rate limiting parameters for an exchange protocol.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum general requests per second.
	RequestsPerSecond int `json:"requests_per_second"`
	// OrdersPerSecond is the maximum order placement requests per second.
	OrdersPerSecond int `json:"orders_per_second"`
	// Burst allows temporary exceeding of rate limits.
	Burst int `json:"burst"`
}

// AuthContext is the credential set of one client together with the nonce
// source bound to it. NextNonce must return strictly increasing values across
// concurrent callers.
type AuthContext interface {
	Credentials() Credentials
	NextNonce() int64
}

// Protocol defines the interface for exchange-specific protocol implementations.
// Each exchange must implement this interface to handle request building,
// authentication, response classification and rate limiting.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "braziliex").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL for the given environment.
	BaseURL(sandbox bool) string

	// IsPrivate reports whether op needs credentials. It is consulted before
	// the request is built.
	IsPrivate(op Operation) bool

	// BuildRequest constructs an unsigned request for the specified operation.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// SignRequest encodes the payload of a private request and attaches the
	// authentication headers, drawing a fresh nonce from auth.
	SignRequest(req *Request, auth AuthContext) error

	// CheckResponse inspects a transport response and returns a typed error
	// when the venue reports failure. A nil return passes the body through.
	CheckResponse(op Operation, resp *Response) error

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// RateLimits returns the rate limiting configuration for this exchange.
	RateLimits() RateLimitConfig
}
