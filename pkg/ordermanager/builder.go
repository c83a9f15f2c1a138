package ordermanager

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"bursa/pkg/core"
	"bursa/pkg/exchange"
)

// OrderBuilder provides a fluent interface for constructing order requests.
// It keeps the first error and reports it on Build.
//
// Example:
//
//	req, err := ordermanager.NewOrderBuilder("BTC/BRL").
//	    Buy().
//	    Limit().
//	    Price("150000").
//	    Amount("0.001").
//	    Build()
type OrderBuilder struct {
	req *exchange.OrderRequest
	err error
}

// NewOrderBuilder creates a new order builder for the given trading symbol.
func NewOrderBuilder(symbol string) *OrderBuilder {
	return &OrderBuilder{
		req: &exchange.OrderRequest{
			Symbol: symbol,
			Type:   core.TypeLimit,
		},
	}
}

// Side sets the order side (buy or sell).
func (b *OrderBuilder) Side(side core.OrderSide) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

func (b *OrderBuilder) Buy() *OrderBuilder {
	return b.Side(core.SideBuy)
}

func (b *OrderBuilder) Sell() *OrderBuilder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *OrderBuilder) Type(orderType core.OrderType) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

func (b *OrderBuilder) Market() *OrderBuilder {
	return b.Type(core.TypeMarket)
}

func (b *OrderBuilder) Limit() *OrderBuilder {
	return b.Type(core.TypeLimit)
}

// Price sets the limit price from its decimal text.
func (b *OrderBuilder) Price(price string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	v, err := parsePositive(price)
	if err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
		return b
	}
	b.req.Price = &v
	return b
}

// PriceDecimal sets the limit price from an apd.Decimal value.
func (b *OrderBuilder) PriceDecimal(price apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	v, err := price.Float64()
	if err != nil {
		b.err = fmt.Errorf("convert price: %w", err)
		return b
	}
	b.req.Price = &v
	return b
}

// Amount sets the order amount in base currency from its decimal text.
func (b *OrderBuilder) Amount(amount string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	v, err := parsePositive(amount)
	if err != nil {
		b.err = fmt.Errorf("parse amount: %w", err)
		return b
	}
	b.req.Amount = v
	return b
}

// AmountDecimal sets the order amount from an apd.Decimal value.
func (b *OrderBuilder) AmountDecimal(amount apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	v, err := amount.Float64()
	if err != nil {
		b.err = fmt.Errorf("convert amount: %w", err)
		return b
	}
	b.req.Amount = v
	return b
}

// Param adds a venue-specific parameter sent with the order.
func (b *OrderBuilder) Param(key string, value any) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if b.req.Params == nil {
		b.req.Params = make(core.Params)
	}
	b.req.Params[key] = value
	return b
}

// Build validates and returns the constructed request.
func (b *OrderBuilder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.req.Type == core.TypeLimit && b.req.Price == nil {
		return nil, fmt.Errorf("price is required for limit orders")
	}

	if err := b.req.Validate(); err != nil {
		return nil, fmt.Errorf("validate order: %w", err)
	}

	return b.req, nil
}

func parsePositive(s string) (float64, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return 0, err
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%s must be positive", s)
	}
	return d.Float64()
}
