package braziliex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/bytedance/sonic"

	"bursa/pkg/core"
)

const (
	Name          = "braziliex"
	ProductionURL = "https://braziliex.com/api/v1"
	// The venue has no separate test environment.
	SandboxURL = ProductionURL

	// badCredentialsMessage is the exact failure message for a rejected key.
	badCredentialsMessage = "Invalid APIKey"
)

// ErrUnresolvedPlaceholder reports a path template whose placeholder had no
// matching parameter. It indicates a caller bug, not a venue condition.
var ErrUnresolvedPlaceholder = errors.New("unresolved path placeholder")

type endpoint struct {
	api      core.API
	path     string
	cacheTTL time.Duration
}

// endpoints is the venue's fixed catalogue. Public paths may carry {name}
// placeholders; private paths name the signed command.
var endpoints = map[core.Operation]endpoint{
	core.OpFetchCurrencies:     {api: core.APIPublic, path: "currencies", cacheTTL: time.Minute},
	core.OpFetchTickers:        {api: core.APIPublic, path: "ticker", cacheTTL: time.Second},
	core.OpFetchTicker:         {api: core.APIPublic, path: "ticker/{market}", cacheTTL: time.Second},
	core.OpFetchOrderBook:      {api: core.APIPublic, path: "orderbook/{market}"},
	core.OpFetchTrades:         {api: core.APIPublic, path: "tradehistory/{market}"},
	core.OpFetchBalance:        {api: core.APIPrivate, path: "complete_balance"},
	core.OpPlaceBuyOrder:       {api: core.APIPrivate, path: "buy"},
	core.OpPlaceSellOrder:      {api: core.APIPrivate, path: "sell"},
	core.OpCancelOrder:         {api: core.APIPrivate, path: "cancel_order"},
	core.OpFetchOpenOrders:     {api: core.APIPrivate, path: "open_orders"},
	core.OpFetchMyTrades:       {api: core.APIPrivate, path: "trade_history"},
	core.OpFetchDepositAddress: {api: core.APIPrivate, path: "deposit_address"},
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Protocol implements core.Protocol for the Braziliex REST API.
type Protocol struct{}

func NewProtocol() *Protocol {
	return &Protocol{}
}

func (p *Protocol) Name() string {
	return Name
}

func (p *Protocol) Version() string {
	return "1"
}

func (p *Protocol) BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpFetchCurrencies,
		core.OpFetchTickers,
		core.OpFetchTicker,
		core.OpFetchOrderBook,
		core.OpFetchTrades,
		core.OpFetchBalance,
		core.OpPlaceBuyOrder,
		core.OpPlaceSellOrder,
		core.OpCancelOrder,
		core.OpFetchOpenOrders,
		core.OpFetchMyTrades,
		core.OpFetchDepositAddress,
	}
}

// RateLimits allows one call per second.
func (p *Protocol) RateLimits() core.RateLimitConfig {
	return core.RateLimitConfig{
		RequestsPerSecond: 1,
		OrdersPerSecond:   1,
		Burst:             1,
	}
}

func (p *Protocol) IsPrivate(op core.Operation) bool {
	ep, ok := endpoints[op]
	return ok && ep.api == core.APIPrivate
}

// BuildRequest maps op onto the endpoint catalogue. Public calls become GET
// /public/<path> with leftover params in the query string. Private calls
// become POST /private carrying the path as command and params as form
// fields; SignRequest turns those into the signed body.
func (p *Protocol) BuildRequest(_ context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	ep, ok := endpoints[op]
	if !ok {
		return nil, core.NewExchangeError(Name, core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("unsupported operation: %d", op)).
			WithCode(core.ErrCodeUnsupported)
	}

	path, rest, err := implodePath(ep.path, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ep.api == core.APIPrivate {
		req := core.NewRequest(http.MethodPost, "/private").
			SetAPI(core.APIPrivate).
			SetCommand(path).
			SetFormParams(rest).
			SetRequireAuth(true)
		return req, nil
	}

	req := core.NewRequest(http.MethodGet, "/public/"+path).SetQueryParams(rest)
	if ep.cacheTTL > 0 {
		req.SetCache(req.URL(""), ep.cacheTTL)
	}
	return req, nil
}

// SignRequest encodes the form of a private request into its signed body.
// Public requests are left untouched.
func (p *Protocol) SignRequest(req *core.Request, auth core.AuthContext) error {
	if req.API != core.APIPrivate {
		return nil
	}
	if auth == nil {
		return missingCredentials()
	}
	creds := auth.Credentials()
	if creds.IsZero() {
		return missingCredentials()
	}

	body, headers := Sign(req.Command, req.Form, auth.NextNonce(), creds)
	req.SetBody(body)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return nil
}

type envelope struct {
	Success core.Number `json:"success"`
	Message any         `json:"message"`
}

// CheckResponse raises the venue's own failure report. A body that is not a
// JSON object, or has no success flag, passes through.
func (p *Protocol) CheckResponse(_ core.Operation, resp *core.Response) error {
	if resp == nil {
		return fmt.Errorf("nil response")
	}

	var env envelope
	if err := sonic.Unmarshal(resp.Body, &env); err != nil {
		return nil
	}
	if !env.Success.Valid || env.Success.Value != 0 {
		return nil
	}

	message := ""
	if env.Message != nil {
		message = fmt.Sprint(env.Message)
	}

	if message == badCredentialsMessage {
		return core.NewExchangeError(Name, core.ErrorTypeAuthentication, resp.StatusCode, message).
			WithCode(core.ErrCodeBadCredentials).
			WithRaw(string(resp.Body))
	}
	return core.NewExchangeError(Name, core.ErrorTypeExchange, resp.StatusCode, message).
		WithCode(core.ErrCodeVenueFailure).
		WithRaw(string(resp.Body))
}

// implodePath fills {name} placeholders from params and returns the params
// that were not consumed.
func implodePath(template string, params core.Params) (string, core.Params, error) {
	rest := make(core.Params, len(params))
	for k, v := range params {
		rest[k] = v
	}

	var missing error
	path := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		v, ok := rest[name]
		if !ok || v == nil {
			if missing == nil {
				missing = fmt.Errorf("%w %s in %q", ErrUnresolvedPlaceholder, token, template)
			}
			return token
		}
		delete(rest, name)
		return url.PathEscape(core.FormatParam(v))
	})
	if missing != nil {
		return "", nil, missing
	}
	return path, rest, nil
}

func missingCredentials() error {
	return core.NewExchangeError(Name, core.ErrorTypeAuthentication, 0, "private endpoints require credentials").
		WithCode(core.ErrCodeNoCredentials).
		WithCause(core.ErrNoCredentials)
}
