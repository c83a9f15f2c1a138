package core

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
)

// ParseOrderBook decodes a two-sided book whose sides are arrays of objects.
// bidsKey and asksKey name the side arrays; priceKey and amountKey name the
// level fields. The full snapshot is kept with bids sorted descending and asks
// ascending by price.
func ParseOrderBook(data []byte, symbol, bidsKey, asksKey, priceKey, amountKey string) (*OrderBook, error) {
	var raw map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode order book: %w", err)
	}

	bids, err := parseBookSide(raw[bidsKey], priceKey, amountKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bidsKey, err)
	}
	asks, err := parseBookSide(raw[asksKey], priceKey, amountKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", asksKey, err)
	}

	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	return &OrderBook{
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
	}, nil
}

func parseBookSide(data json.RawMessage, priceKey, amountKey string) ([]OrderBookLevel, error) {
	if len(data) == 0 || string(data) == "null" {
		return []OrderBookLevel{}, nil
	}

	var entries []map[string]Number
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode levels: %w", err)
	}

	levels := make([]OrderBookLevel, 0, len(entries))
	for i, entry := range entries {
		price, ok := entry[priceKey]
		if !ok || !price.Valid {
			return nil, fmt.Errorf("level %d: missing %s", i, priceKey)
		}
		amount, ok := entry[amountKey]
		if !ok || !amount.Valid {
			return nil, fmt.Errorf("level %d: missing %s", i, amountKey)
		}
		levels = append(levels, OrderBookLevel{Price: price.Value, Amount: amount.Value})
	}
	return levels, nil
}
