package exchange

import (
	"maps"

	"bursa/pkg/core"
)

type Option func(*Options)

type Options struct {
	// Since drops entries older than this epoch-millisecond timestamp.
	Since *int64
	// Limit caps the number of returned entries. Zero means no limit.
	Limit int
	// Params are forwarded to the venue untouched.
	Params core.Params
}

func WithSince(since int64) Option {
	return func(o *Options) {
		o.Since = &since
	}
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithParams merges venue-specific parameters into the request.
func WithParams(params core.Params) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = make(core.Params, len(params))
		}
		maps.Copy(o.Params, params)
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Merge returns base extended with the caller's extra params. Caller params
// win on conflict.
func (o *Options) Merge(base core.Params) core.Params {
	out := make(core.Params, len(base)+len(o.Params))
	maps.Copy(out, base)
	maps.Copy(out, o.Params)
	return out
}
