package core

import (
	"fmt"
	"strings"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("buy" or "sell").
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	side, err := ParseOrderSide(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// ParseOrderSide converts a venue side label into an OrderSide.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	}
	return 0, fmt.Errorf("unknown order side %q", s)
}

// OrderType represents the type of order to place on an exchange.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypeMarket executes immediately at the best available price.
	TypeMarket
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return [...]string{"limit", "market"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "limit":
		*t = TypeLimit
	case "market":
		*t = TypeMarket
	default:
		return fmt.Errorf("unknown order type %s", data)
	}
	return nil
}

// OrderStatus represents the current state of an order.
type OrderStatus int

// Order status constants define the lifecycle state of an order.
const (
	// StatusOpen indicates the order rests on the book. It is the only
	// state the venue's create and listing endpoints can report.
	StatusOpen OrderStatus = iota
	// StatusClosed indicates the order has been completely filled.
	StatusClosed
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return [...]string{"open", "closed", "canceled"}[s]
}

// IsTerminal returns true if the order is in a terminal state (no further changes possible).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// MarshalJSON implements json.Marshaler for OrderStatus.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderStatus.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "open":
		*s = StatusOpen
	case "closed":
		*s = StatusClosed
	case "canceled", "cancelled":
		*s = StatusCanceled
	default:
		return fmt.Errorf("unknown order status %s", data)
	}
	return nil
}

// MinMax is an optional numeric range. A nil bound means the venue does not
// publish it.
type MinMax struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Limits groups the trading and transfer ranges of a market or currency.
type Limits struct {
	Amount   MinMax  `json:"amount"`
	Price    MinMax  `json:"price"`
	Cost     MinMax  `json:"cost"`
	Withdraw *MinMax `json:"withdraw,omitempty"`
	Deposit  *MinMax `json:"deposit,omitempty"`
}

// Funding describes whether a transfer direction is enabled and what it costs.
type Funding struct {
	Active bool     `json:"active"`
	Fee    *float64 `json:"fee"`
}

// Currency status values.
const (
	CurrencyStatusOK          = "ok"
	CurrencyStatusMaintenance = "maintenance"
)

// Currency describes an asset listed on the venue.
type Currency struct {
	// ID is the venue-native asset symbol (e.g., "btc").
	ID string `json:"id"`
	// Code is the canonical currency code (e.g., "BTC").
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	Status    string         `json:"status"`
	Precision int            `json:"precision"`
	Withdraw  Funding        `json:"withdraw"`
	Deposit   Funding        `json:"deposit"`
	Limits    Limits         `json:"limits"`
	Info      map[string]any `json:"info"`
}

// MarketPrecision holds the number of decimal places for amounts and prices.
type MarketPrecision struct {
	Amount int `json:"amount"`
	Price  int `json:"price"`
}

// Market describes a tradable pair.
type Market struct {
	// ID is the venue-native composite identifier (e.g., "btc_brl").
	ID string `json:"id"`
	// Symbol is the canonical pair (e.g., "BTC/BRL").
	Symbol    string          `json:"symbol"`
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	BaseID    string          `json:"base_id"`
	QuoteID   string          `json:"quote_id"`
	Type      MarketType      `json:"type"`
	Active    bool            `json:"active"`
	Lot       float64         `json:"lot"`
	Precision MarketPrecision `json:"precision"`
	Limits    Limits          `json:"limits"`
	Info      map[string]any  `json:"info"`
}

// Ticker represents a market data snapshot for a trading pair.
// Fields the venue does not report are nil, never zero.
type Ticker struct {
	// Symbol is the trading pair identifier (e.g., "BTC/BRL").
	Symbol string `json:"symbol"`
	// Timestamp is the capture time in milliseconds.
	Timestamp   int64          `json:"timestamp"`
	Datetime    string         `json:"datetime"`
	High        *float64       `json:"high"`
	Low         *float64       `json:"low"`
	Bid         *float64       `json:"bid"`
	Ask         *float64       `json:"ask"`
	VWAP        *float64       `json:"vwap"`
	Open        *float64       `json:"open"`
	Close       *float64       `json:"close"`
	First       *float64       `json:"first"`
	Last        *float64       `json:"last"`
	Change      *float64       `json:"change"`
	Percentage  *float64       `json:"percentage"`
	Average     *float64       `json:"average"`
	BaseVolume  *float64       `json:"base_volume"`
	QuoteVolume *float64       `json:"quote_volume"`
	Info        map[string]any `json:"info"`
}

// OrderBookLevel represents a single price level in an order book.
type OrderBookLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// OrderBook is a full two-sided snapshot.
type OrderBook struct {
	Symbol string `json:"symbol"`
	// Bids are sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sorted by price ascending.
	Asks      []OrderBookLevel `json:"asks"`
	Timestamp *int64           `json:"timestamp"`
}

// Fee is the cost charged for a fill, denominated in Currency.
type Fee struct {
	Cost     float64 `json:"cost"`
	Currency string  `json:"currency"`
}

// Trade represents a public or private execution.
type Trade struct {
	ID     string    `json:"id"`
	Order  string    `json:"order,omitempty"`
	Symbol string    `json:"symbol"`
	Type   OrderType `json:"type"`
	Side   OrderSide `json:"side"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	// Cost is the venue-reported total, which may differ from Price*Amount by rounding.
	Cost      float64        `json:"cost"`
	Fee       *Fee           `json:"fee"`
	Timestamp int64          `json:"timestamp"`
	Datetime  string         `json:"datetime"`
	Info      map[string]any `json:"info"`
}

// Order represents an exchange order with all its details.
type Order struct {
	// ID is the exchange-assigned order number.
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Type      OrderType   `json:"type"`
	Side      OrderSide   `json:"side"`
	Status    OrderStatus `json:"status"`
	Price     float64     `json:"price"`
	Cost      float64     `json:"cost"`
	Amount    float64     `json:"amount"`
	Filled    float64     `json:"filled"`
	Remaining float64     `json:"remaining"`
	Fee       *Fee        `json:"fee"`
	Timestamp int64       `json:"timestamp"`
	Datetime  string      `json:"datetime"`
	// Info is the raw venue payload the order was built from.
	Info map[string]any `json:"info"`
}

// BalanceEntry holds the amounts of a single asset.
type BalanceEntry struct {
	Free  float64 `json:"free"`
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
}

// Balance is the account balance indexed by canonical currency code.
type Balance struct {
	Currencies map[string]BalanceEntry `json:"currencies"`
	Info       map[string]any          `json:"info"`
}

// Get returns the entry for a currency code and whether it was reported.
func (b *Balance) Get(code string) (BalanceEntry, bool) {
	entry, ok := b.Currencies[code]
	return entry, ok
}

// DepositAddress is where funds of a currency can be sent.
type DepositAddress struct {
	Currency string         `json:"currency"`
	Address  string         `json:"address"`
	Tag      string         `json:"tag,omitempty"`
	Status   string         `json:"status"`
	Info     map[string]any `json:"info"`
}
