package core

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"time"
)

type Params map[string]any

// API selects the venue's endpoint family.
type API string

const (
	APIPublic  API = "public"
	APIPrivate API = "private"
)

type Request struct {
	Method string `json:"method"`
	API    API    `json:"api"`
	// Path is the endpoint relative to the base URL, placeholders already filled.
	Path string `json:"path"`
	// Command names the private endpoint inside the signed payload.
	Command     string            `json:"command,omitempty"`
	Query       Params            `json:"query,omitempty"`
	Form        Params            `json:"form,omitempty"`
	Body        string            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Weight      int               `json:"weight"`
	CacheKey    string            `json:"cache_key,omitempty"`
	CacheTTL    time.Duration     `json:"cache_ttl,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

// Response is the raw outcome of a transport round trip.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		API:     APIPublic,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
		Weight:  1,
	}
}

func (r *Request) SetAPI(api API) *Request {
	r.API = api
	return r
}

func (r *Request) SetCommand(command string) *Request {
	r.Command = command
	return r
}

func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

func (r *Request) SetForm(key string, value any) *Request {
	if r.Form == nil {
		r.Form = make(Params)
	}
	r.Form[key] = value
	return r
}

func (r *Request) SetFormParams(params Params) *Request {
	if r.Form == nil {
		r.Form = make(Params)
	}
	maps.Copy(r.Form, params)
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}

func (r *Request) SetCache(key string, ttl time.Duration) *Request {
	r.CacheKey = key
	r.CacheTTL = ttl
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

// URL joins the base URL, the resolved path and the encoded query string.
func (r *Request) URL(baseURL string) string {
	u := baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + EncodeParams(r.Query)
	}
	return u
}

// EncodeParams url-encodes params with keys in sorted order.
func EncodeParams(params Params) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, FormatParam(v))
	}
	return values.Encode()
}

// FormatParam renders a parameter value the way the venue expects it on the wire.
func FormatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
