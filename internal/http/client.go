package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"bursa/pkg/core"
)

// Client executes raw venue requests over resty.
type Client struct {
	client   *resty.Client
	exchange string
	logger   zerolog.Logger
	mu       sync.RWMutex
	closed   bool
}

type Config struct {
	Exchange     string            `validate:"required"`
	BaseURL      string            `validate:"required,url"`
	Timeout      time.Duration     `validate:"min=1ms"`
	MaxRetries   int               `validate:"min=0"`
	RetryWaitMin time.Duration     `validate:"min=0"`
	RetryWaitMax time.Duration     `validate:"min=0"`
	Headers      map[string]string `validate:"omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request and response tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, errors.New("invalid config: nil")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(config.BaseURL)
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(config.MaxRetries)
	client.SetRetryWaitTime(config.RetryWaitMin)
	client.SetRetryMaxWaitTime(config.RetryWaitMax)
	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	c := &Client{
		client:   client,
		exchange: config.Exchange,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger := c.logger
	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// Execute sends one request. url is resolved against the configured base
// URL. Any HTTP status is returned as a response; only transport failures
// produce an error.
func (c *Client) Execute(ctx context.Context, method, url string, headers map[string]string, body string) (*core.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.NewExchangeError(c.exchange, core.ErrorTypeUnknown, 0, core.ErrClientClosed.Error()).
			WithCode(core.ErrCodeClientClosed).
			WithCause(core.ErrClientClosed)
	}

	req := c.client.R().SetContext(ctx).SetHeaders(headers)
	if body != "" {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	return &core.Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Bytes(),
	}, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return fmt.Errorf("http request: %w", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewExchangeError(c.exchange, core.ErrorTypeTimeout, 0, err.Error()).
			WithCode(core.ErrCodeTimeout).
			WithCause(err)
	}

	return core.NewExchangeError(c.exchange, core.ErrorTypeNetwork, 0, err.Error()).
		WithCode(core.ErrCodeNetwork).
		WithCause(err)
}
