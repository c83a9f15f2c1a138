// Package catalog holds the market and currency metadata of one venue and
// answers the lookups normalizers and order placement need.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"bursa/pkg/core"
)

// Catalog is safe for concurrent use. Markets are indexed by canonical
// symbol and by venue-native id, currencies by canonical code.
type Catalog struct {
	mu          sync.RWMutex
	exchange    string
	markets     map[string]*core.Market
	marketsByID map[string]*core.Market
	currencies  map[string]*core.Currency
	loaded      bool
}

func New(exchange string) *Catalog {
	return &Catalog{
		exchange:    exchange,
		markets:     make(map[string]*core.Market),
		marketsByID: make(map[string]*core.Market),
		currencies:  make(map[string]*core.Currency),
	}
}

// SetMarkets replaces the market set and marks the catalog loaded.
func (c *Catalog) SetMarkets(markets []core.Market) {
	bySymbol := make(map[string]*core.Market, len(markets))
	byID := make(map[string]*core.Market, len(markets))
	for i := range markets {
		m := markets[i]
		bySymbol[m.Symbol] = &m
		byID[m.ID] = &m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.markets = bySymbol
	c.marketsByID = byID
	c.loaded = true
}

// SetCurrencies replaces the currency set.
func (c *Catalog) SetCurrencies(currencies map[string]core.Currency) {
	byCode := make(map[string]*core.Currency, len(currencies))
	for code, cur := range currencies {
		byCode[code] = &cur
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.currencies = byCode
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// MarketBySymbol resolves a canonical symbol such as "BTC/BRL".
func (c *Catalog) MarketBySymbol(symbol string) (*core.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return nil, core.ErrMarketsNotLoaded
	}
	m, ok := c.markets[symbol]
	if !ok {
		return nil, c.notFound(core.ErrCodeInvalidSymbol, fmt.Sprintf("unknown symbol %s", symbol))
	}
	return m, nil
}

// MarketByID resolves a venue-native market id such as "btc_brl".
func (c *Catalog) MarketByID(id string) (*core.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return nil, core.ErrMarketsNotLoaded
	}
	m, ok := c.marketsByID[id]
	if !ok {
		return nil, c.notFound(core.ErrCodeInvalidSymbol, fmt.Sprintf("unknown market id %s", id))
	}
	return m, nil
}

func (c *Catalog) CurrencyByCode(code string) (*core.Currency, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cur, ok := c.currencies[code]
	if !ok {
		return nil, c.notFound(core.ErrCodeInvalidCurrency, fmt.Sprintf("unknown currency %s", code))
	}
	return cur, nil
}

// Markets returns the loaded markets ordered by symbol.
func (c *Catalog) Markets() []core.Market {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.Market, 0, len(c.markets))
	for _, m := range c.markets {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns the loaded canonical symbols in order.
func (c *Catalog) Symbols() []string {
	markets := c.Markets()
	symbols := make([]string, len(markets))
	for i, m := range markets {
		symbols[i] = m.Symbol
	}
	return symbols
}

func (c *Catalog) notFound(code core.ErrorCode, msg string) error {
	return core.NewExchangeError(c.exchange, core.ErrorTypeNotFound, 0, msg).WithCode(code)
}
