package braziliex

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bursa/pkg/core"
)

type staticAuth struct {
	creds core.Credentials
	nonce atomic.Int64
}

func newStaticAuth(creds core.Credentials, start int64) *staticAuth {
	a := &staticAuth{creds: creds}
	a.nonce.Store(start - 1)
	return a
}

func (a *staticAuth) Credentials() core.Credentials { return a.creds }
func (a *staticAuth) NextNonce() int64              { return a.nonce.Add(1) }

var _ core.Protocol = (*Protocol)(nil)

func TestProtocol_Metadata(t *testing.T) {
	p := NewProtocol()

	assert.Equal(t, "braziliex", p.Name())
	assert.Equal(t, "1", p.Version())
	assert.Equal(t, "https://braziliex.com/api/v1", p.BaseURL(false))
	assert.Equal(t, p.BaseURL(false), p.BaseURL(true))
	assert.Len(t, p.SupportedOperations(), 12)
	assert.Equal(t, 1, p.RateLimits().OrdersPerSecond)
}

func TestProtocol_IsPrivate(t *testing.T) {
	p := NewProtocol()

	for _, op := range p.SupportedOperations() {
		want := op == core.OpFetchBalance ||
			op == core.OpPlaceBuyOrder ||
			op == core.OpPlaceSellOrder ||
			op == core.OpCancelOrder ||
			op == core.OpFetchOpenOrders ||
			op == core.OpFetchMyTrades ||
			op == core.OpFetchDepositAddress
		assert.Equal(t, want, p.IsPrivate(op), op.String())
	}
}

func TestProtocol_BuildPublicRequest(t *testing.T) {
	p := NewProtocol()
	ctx := context.Background()

	tests := []struct {
		name    string
		op      core.Operation
		params  core.Params
		wantURL string
		cached  bool
	}{
		{
			name:    "currencies",
			op:      core.OpFetchCurrencies,
			wantURL: "https://braziliex.com/api/v1/public/currencies",
			cached:  true,
		},
		{
			name:    "ticker placeholder consumed",
			op:      core.OpFetchTicker,
			params:  core.Params{"market": "btc_brl"},
			wantURL: "https://braziliex.com/api/v1/public/ticker/btc_brl",
			cached:  true,
		},
		{
			name:    "leftover params become query",
			op:      core.OpFetchOrderBook,
			params:  core.Params{"market": "eth_btc", "depth": 5},
			wantURL: "https://braziliex.com/api/v1/public/orderbook/eth_btc?depth=5",
		},
		{
			name:    "trade history",
			op:      core.OpFetchTrades,
			params:  core.Params{"market": "btc_brl"},
			wantURL: "https://braziliex.com/api/v1/public/tradehistory/btc_brl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(ctx, tt.op, tt.params)
			require.NoError(t, err)

			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, core.APIPublic, req.API)
			assert.Equal(t, tt.wantURL, req.URL(ProductionURL))
			assert.Empty(t, req.Body)
			assert.False(t, req.RequireAuth)
			if tt.cached {
				assert.NotEmpty(t, req.CacheKey)
				assert.Positive(t, req.CacheTTL)
			} else {
				assert.Empty(t, req.CacheKey)
			}
		})
	}
}

func TestProtocol_BuildRequestLeavesParamsUntouched(t *testing.T) {
	p := NewProtocol()
	params := core.Params{"market": "btc_brl", "depth": 5}

	_, err := p.BuildRequest(context.Background(), core.OpFetchOrderBook, params)
	require.NoError(t, err)

	assert.Equal(t, core.Params{"market": "btc_brl", "depth": 5}, params)
}

func TestProtocol_BuildRequestUnresolvedPlaceholder(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(context.Background(), core.OpFetchTicker, core.Params{"symbol": "BTC/BRL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedPlaceholder)
}

func TestProtocol_BuildRequestUnsupported(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(context.Background(), core.Operation(99), nil)
	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeUnsupported))

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeBadRequest, exErr.Type)
}

func TestProtocol_BuildPrivateRequest(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpPlaceBuyOrder, core.Params{
		"market": "btc_brl",
		"amount": 0.5,
		"price":  100.0,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, core.APIPrivate, req.API)
	assert.Equal(t, "/private", req.Path)
	assert.Equal(t, "buy", req.Command)
	assert.True(t, req.RequireAuth)
	assert.Empty(t, req.Query)
	assert.Equal(t, "btc_brl", req.Form["market"])
	assert.Equal(t, "https://braziliex.com/api/v1/private", req.URL(ProductionURL))
}

func TestProtocol_SignRequest(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpPlaceBuyOrder, core.Params{
		"market": "btc_brl",
		"amount": 0.5,
		"price":  100.0,
	})
	require.NoError(t, err)

	require.NoError(t, p.SignRequest(req, newStaticAuth(testCreds, 1700000000001)))

	assert.Equal(t, "amount=0.5&command=buy&market=btc_brl&nonce=1700000000001&price=100", req.Body)
	assert.Equal(t, "api-key", req.Headers[HeaderKey])
	assert.Equal(t, "application/x-www-form-urlencoded", req.Headers[HeaderContentType])
	assert.Equal(t,
		"94bf43fedc1dd156138bb191267c6b6ac2519e97d5f6ee676cec3c3341985ea6989495b9a8d002dd4f8c3739027cde29c372782fbc0489a62115d0c11d957699",
		req.Headers[HeaderSign])
}

func TestProtocol_SignRequestDrawsFreshNonce(t *testing.T) {
	p := NewProtocol()
	auth := newStaticAuth(testCreds, 1700000000000)

	first, err := p.BuildRequest(context.Background(), core.OpFetchBalance, nil)
	require.NoError(t, err)
	second, err := p.BuildRequest(context.Background(), core.OpFetchBalance, nil)
	require.NoError(t, err)

	require.NoError(t, p.SignRequest(first, auth))
	require.NoError(t, p.SignRequest(second, auth))

	assert.Equal(t, "command=complete_balance&nonce=1700000000000", first.Body)
	assert.Equal(t, "command=complete_balance&nonce=1700000000001", second.Body)
	assert.NotEqual(t, first.Headers[HeaderSign], second.Headers[HeaderSign])
}

func TestProtocol_SignRequestPublicNoop(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpFetchTickers, nil)
	require.NoError(t, err)

	require.NoError(t, p.SignRequest(req, nil))
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Headers)
}

func TestProtocol_SignRequestMissingCredentials(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name string
		auth core.AuthContext
	}{
		{name: "nil auth", auth: nil},
		{name: "zero credentials", auth: newStaticAuth(core.Credentials{}, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(context.Background(), core.OpFetchBalance, nil)
			require.NoError(t, err)

			err = p.SignRequest(req, tt.auth)
			require.Error(t, err)
			assert.True(t, core.IsAuthenticationError(err))
			assert.True(t, core.IsErrorCode(err, core.ErrCodeNoCredentials))
			assert.ErrorIs(t, err, core.ErrNoCredentials)
			assert.Empty(t, req.Body)
		})
	}
}

func TestProtocol_CheckResponse(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name     string
		body     string
		wantAuth bool
		wantErr  bool
		wantCode core.ErrorCode
	}{
		{
			name:     "bad credentials",
			body:     `{"success":0,"message":"Invalid APIKey"}`,
			wantErr:  true,
			wantAuth: true,
			wantCode: core.ErrCodeBadCredentials,
		},
		{
			name:     "venue failure",
			body:     `{"success":0,"message":"market closed"}`,
			wantErr:  true,
			wantCode: core.ErrCodeVenueFailure,
		},
		{
			name:     "string success flag",
			body:     `{"success":"0","message":"market closed"}`,
			wantErr:  true,
			wantCode: core.ErrCodeVenueFailure,
		},
		{
			name: "success passes",
			body: `{"success":1,"message":"ok","order_number":"1"}`,
		},
		{
			name: "no success flag",
			body: `{"btc":{"available":"1","total":"2"}}`,
		},
		{
			name: "array body",
			body: `[{"_id":"1"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckResponse(core.OpFetchBalance, &core.Response{StatusCode: http.StatusOK, Body: []byte(tt.body)})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantAuth, core.IsAuthenticationError(err))
			assert.Equal(t, !tt.wantAuth, core.IsExchangeError(err))
			assert.True(t, core.IsErrorCode(err, tt.wantCode))

			var exErr *core.ExchangeError
			require.True(t, errors.As(err, &exErr))
			assert.Equal(t, tt.body, exErr.RawError)
		})
	}
}

func TestProtocol_CheckResponseNil(t *testing.T) {
	assert.Error(t, NewProtocol().CheckResponse(core.OpFetchBalance, nil))
}
