package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("GET", "/public/ticker")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/public/ticker", req.Path)
	assert.Equal(t, APIPublic, req.API)
	assert.NotNil(t, req.Query)
	assert.NotNil(t, req.Headers)
	assert.Equal(t, 1, req.Weight)
}

func TestRequest_SetQuery(t *testing.T) {
	req := NewRequest("GET", "/public/tradehistory/btc_brl")
	result := req.SetQuery("limit", 10)

	assert.Equal(t, req, result)
	assert.Equal(t, 10, req.Query["limit"])
}

func TestRequest_SetForm(t *testing.T) {
	req := NewRequest("POST", "/private")
	result := req.SetForm("market", "btc_brl").SetFormParams(Params{"amount": 0.5})

	assert.Equal(t, req, result)
	assert.Equal(t, "btc_brl", req.Form["market"])
	assert.Equal(t, 0.5, req.Form["amount"])
}

func TestRequest_SetHeader(t *testing.T) {
	req := NewRequest("POST", "/private")
	result := req.SetHeader("Key", "value")

	assert.Equal(t, req, result)
	assert.Equal(t, "value", req.Headers["Key"])
}

func TestRequest_SetCache(t *testing.T) {
	req := NewRequest("GET", "/public/currencies")
	result := req.SetCache("currencies", 5*time.Second)

	assert.Equal(t, req, result)
	assert.Equal(t, "currencies", req.CacheKey)
	assert.Equal(t, 5*time.Second, req.CacheTTL)
}

func TestRequest_Chained(t *testing.T) {
	req := NewRequest("POST", "/private").
		SetAPI(APIPrivate).
		SetCommand("balance").
		SetBody("command=balance&nonce=1").
		SetWeight(2).
		SetRequireAuth(true)

	assert.Equal(t, APIPrivate, req.API)
	assert.Equal(t, "balance", req.Command)
	assert.Equal(t, "command=balance&nonce=1", req.Body)
	assert.Equal(t, 2, req.Weight)
	assert.True(t, req.RequireAuth)
}

func TestRequest_URL(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query Params
		want  string
	}{
		{"no_query", "/public/ticker/btc_brl", nil, "https://braziliex.com/api/v1/public/ticker/btc_brl"},
		{"sorted_query", "/public/tradehistory/btc_brl", Params{"since": 5, "limit": 2}, "https://braziliex.com/api/v1/public/tradehistory/btc_brl?limit=2&since=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest("GET", tt.path).SetQueryParams(tt.query)
			assert.Equal(t, tt.want, req.URL("https://braziliex.com/api/v1"))
		})
	}
}

func TestFormatParam(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "btc_brl", "btc_brl"},
		{"float", 0.00012, "0.00012"},
		{"whole_float", 100.0, "100"},
		{"int", 42, "42"},
		{"int64", int64(1700000000000), "1700000000000"},
		{"nil_pointer", (*float64)(nil), ""},
		{"pointer", Float64(2.5), "2.5"},
		{"stringer", SideSell, "sell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatParam(tt.value))
		})
	}
}

func TestEncodeParams(t *testing.T) {
	encoded := EncodeParams(Params{"nonce": int64(7), "command": "buy", "price": 100.5})
	assert.Equal(t, "command=buy&nonce=7&price=100.5", encoded)
}
