package exchange

import (
	"context"

	"github.com/go-playground/validator/v10"

	"bursa/pkg/core"
)

// Exchange defines the unified client surface of a venue adapter: market
// data, account state and order execution over canonical types.
type Exchange interface {
	Name() string
	Version() string

	FetchCurrencies(ctx context.Context, opts ...Option) (map[string]core.Currency, error)
	FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)
	// LoadMarkets fetches the market and currency catalogues once and caches
	// them for symbol resolution. reload forces a refresh.
	LoadMarkets(ctx context.Context, reload bool) ([]core.Market, error)

	FetchTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	FetchTickers(ctx context.Context, symbols []string, opts ...Option) (map[string]core.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	FetchBalance(ctx context.Context, opts ...Option) (*core.Balance, error)
	FetchDepositAddress(ctx context.Context, code string, opts ...Option) (*core.DepositAddress, error)

	CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	// CancelOrder returns the venue's raw acknowledgement.
	CancelOrder(ctx context.Context, id, symbol string, opts ...Option) (map[string]any, error)
	FetchOpenOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchMyTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	// Orders returns the orders placed through this client.
	Orders() []core.Order

	Close() error
}

// OrderRequest contains the parameters required to place a new order on an exchange.
type OrderRequest struct {
	Symbol string         `json:"symbol" validate:"required"`
	Side   core.OrderSide `json:"side" validate:"oneof=0 1"`
	Type   core.OrderType `json:"type" validate:"oneof=0 1"`
	Amount float64        `json:"amount" validate:"gt=0"`
	Price  *float64       `json:"price,omitempty" validate:"omitempty,gt=0"`
	Params core.Params    `json:"params,omitempty"`
}

var validate = validator.New()

// Validate checks the request fields.
func (r *OrderRequest) Validate() error {
	return validate.Struct(r)
}
