package braziliex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"bursa/pkg/core"
)

// Fixed market precision; the venue publishes none per market.
const (
	amountPrecision = 8
	pricePrecision  = 8
)

// MarketLookup resolves a venue-native market id.
type MarketLookup func(id string) (*core.Market, error)

type wireCurrency struct {
	Name               string      `json:"name"`
	Decimal            core.Number `json:"decimal"`
	Active             core.Number `json:"active"`
	UnderMaintenance   core.Number `json:"under_maintenance"`
	IsWithdrawalActive core.Number `json:"is_withdrawal_active"`
	IsDepositActive    core.Number `json:"is_deposit_active"`
	TxWithdrawalFee    core.Number `json:"txWithdrawalFee"`
	TxDepositFee       core.Number `json:"txDepositFee"`
	MinAmountTrade     core.Number `json:"minAmountTrade"`
	MinWithdrawal      core.Number `json:"MinWithdrawal"`
	MinDeposit         core.Number `json:"minDeposit"`
}

type wireTicker struct {
	Active        core.Number `json:"active"`
	Last          core.Number `json:"last"`
	PercentChange core.Number `json:"percentChange"`
	BaseVolume24  core.Number `json:"baseVolume24"`
	QuoteVolume24 core.Number `json:"quoteVolume24"`
	HighestBid24  core.Number `json:"highestBid24"`
	LowestAsk24   core.Number `json:"lowestAsk24"`
	HighestBid    core.Number `json:"highestBid"`
	LowestAsk     core.Number `json:"lowestAsk"`
}

type wireTrade struct {
	ID          idString    `json:"_id"`
	OrderNumber idString    `json:"order_number"`
	Market      string      `json:"market"`
	Type        string      `json:"type"`
	Price       core.Number `json:"price"`
	Amount      core.Number `json:"amount"`
	Total       core.Number `json:"total"`
	Date        string      `json:"date"`
	DateExec    *string     `json:"date_exec"`
}

type wireBalance struct {
	Available core.Number `json:"available"`
	Total     core.Number `json:"total"`
}

type wireFee struct {
	Cost     core.Number `json:"cost"`
	Currency string      `json:"currency"`
}

type wireOrder struct {
	OrderNumber idString        `json:"order_number"`
	Market      string          `json:"market"`
	Type        string          `json:"type"`
	Price       core.Number     `json:"price"`
	Amount      core.Number     `json:"amount"`
	Total       core.Number     `json:"total"`
	Progress    core.Number     `json:"progress"`
	Timestamp   core.Number     `json:"timestamp"`
	Date        string          `json:"date"`
	Fee         json.RawMessage `json:"fee"`

	fee *core.Fee
}

type wirePlacement struct {
	Success     core.Number `json:"success"`
	Message     string      `json:"message"`
	OrderNumber idString    `json:"order_number"`
}

type wireDepositAddress struct {
	DepositAddress string   `json:"deposit_address"`
	PaymentID      idString `json:"payment_id"`
}

// idString accepts identifiers sent either as JSON strings or numbers.
type idString string

func (s *idString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := sonic.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = idString(v)
		return nil
	}
	*s = idString(data)
	return nil
}

// Normalizer maps Braziliex payloads onto the canonical types. Every method
// is free of side effects apart from logging skipped entries.
type Normalizer struct {
	markets MarketLookup
	logger  zerolog.Logger
}

func NewNormalizer(markets MarketLookup, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		markets: markets,
		logger:  logger,
	}
}

// ParseCurrencies maps the currency catalogue keyed by canonical code.
// A currency is inactive when the venue disables it, puts it under
// maintenance, or disables either withdrawals or deposits.
func (n *Normalizer) ParseCurrencies(data []byte) (map[string]core.Currency, error) {
	entries, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode currencies: %w", err)
	}

	result := make(map[string]core.Currency, len(entries))
	for id, raw := range entries {
		var w wireCurrency
		info, err := decodeEntry(raw, &w)
		if err != nil {
			return nil, fmt.Errorf("currency %s: %w", id, err)
		}

		precision := w.Decimal.Int()
		code := core.CommonCurrencyCode(id)

		active := w.Active.Or(0) == 1
		status := core.CurrencyStatusOK
		if w.UnderMaintenance.Or(0) != 0 {
			active = false
			status = core.CurrencyStatusMaintenance
		}
		canWithdraw := w.IsWithdrawalActive.Or(0) == 1
		canDeposit := w.IsDepositActive.Or(0) == 1
		if !canWithdraw || !canDeposit {
			active = false
		}

		upper := core.Float64(core.Pow10(precision))
		result[code] = core.Currency{
			ID:        id,
			Code:      code,
			Name:      w.Name,
			Active:    active,
			Status:    status,
			Precision: precision,
			Withdraw:  core.Funding{Active: canWithdraw, Fee: w.TxWithdrawalFee.Ptr()},
			Deposit:   core.Funding{Active: canDeposit, Fee: w.TxDepositFee.Ptr()},
			Limits: core.Limits{
				Amount:   core.MinMax{Min: w.MinAmountTrade.Ptr(), Max: upper},
				Price:    core.MinMax{Min: core.Float64(core.Pow10(-precision)), Max: upper},
				Withdraw: &core.MinMax{Min: w.MinWithdrawal.Ptr(), Max: upper},
				Deposit:  &core.MinMax{Min: w.MinDeposit.Ptr()},
			},
			Info: info,
		}
	}
	return result, nil
}

// ParseMarkets derives the market list from the all-tickers payload. Every
// id must be base_quote; a single malformed id fails the whole list.
func (n *Normalizer) ParseMarkets(data []byte) ([]core.Market, error) {
	entries, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	lot := core.Pow10(-amountPrecision)
	markets := make([]core.Market, 0, len(entries))
	for id, raw := range entries {
		baseID, quoteID, err := splitMarketID(id)
		if err != nil {
			return nil, err
		}

		var w wireTicker
		info, err := decodeEntry(unwrapTicker(raw), &w)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", id, err)
		}

		base := core.CommonCurrencyCode(baseID)
		quote := core.CommonCurrencyCode(quoteID)
		markets = append(markets, core.Market{
			ID:      id,
			Symbol:  core.Symbol(base, quote),
			Base:    base,
			Quote:   quote,
			BaseID:  baseID,
			QuoteID: quoteID,
			Type:    core.MarketTypeSpot,
			Active:  w.Active.Or(0) == 1,
			Lot:     lot,
			Precision: core.MarketPrecision{
				Amount: amountPrecision,
				Price:  pricePrecision,
			},
			Limits: core.Limits{
				Amount: core.MinMax{Min: core.Float64(lot), Max: core.Float64(core.Pow10(amountPrecision))},
				Price:  core.MinMax{Min: core.Float64(core.Pow10(-pricePrecision)), Max: core.Float64(core.Pow10(pricePrecision))},
			},
			Info: info,
		})
	}

	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })
	return markets, nil
}

func splitMarketID(id string) (string, string, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed market id %q: expected base_quote", id)
	}
	return parts[0], parts[1], nil
}

// ParseTicker maps one ticker. The payload carries no time of its own, so
// timestamp is the caller's capture time in milliseconds. Both the bare
// ticker object and the {"date":..,"ticker":{..}} envelope are accepted.
func (n *Normalizer) ParseTicker(data []byte, market *core.Market, timestamp int64) (*core.Ticker, error) {
	var w wireTicker
	info, err := decodeEntry(unwrapTicker(data), &w)
	if err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}

	return &core.Ticker{
		Symbol:      market.Symbol,
		Timestamp:   timestamp,
		Datetime:    core.ISO8601(timestamp),
		High:        w.HighestBid24.Ptr(),
		Low:         w.LowestAsk24.Ptr(),
		Bid:         w.HighestBid.Ptr(),
		Ask:         w.LowestAsk.Ptr(),
		Last:        w.Last.Ptr(),
		Change:      w.PercentChange.Ptr(),
		BaseVolume:  w.BaseVolume24.Ptr(),
		QuoteVolume: w.QuoteVolume24.Ptr(),
		Info:        info,
	}, nil
}

// ParseTickers maps the all-tickers payload keyed by canonical symbol.
// Tickers of markets the lookup does not know are skipped.
func (n *Normalizer) ParseTickers(data []byte, timestamp int64) (map[string]core.Ticker, error) {
	entries, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}

	result := make(map[string]core.Ticker, len(entries))
	for id, raw := range entries {
		market, err := n.lookup(id)
		if err != nil || market == nil {
			n.logger.Warn().Err(err).Str("market_id", id).Msg("skipping ticker of unknown market")
			continue
		}
		ticker, err := n.ParseTicker(raw, market, timestamp)
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", id, err)
		}
		result[ticker.Symbol] = *ticker
	}
	return result, nil
}

// ParseOrderBook passes the full snapshot through the shared book parser.
func (n *Normalizer) ParseOrderBook(data []byte, symbol string) (*core.OrderBook, error) {
	return core.ParseOrderBook(data, symbol, "bids", "asks", "price", "amount")
}

// ParseTrades maps the public trade history, a bare JSON array.
func (n *Normalizer) ParseTrades(data []byte, market *core.Market) ([]core.Trade, error) {
	var entries []json.RawMessage
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	return n.parseTradeList(entries, market)
}

// ParseMyTrades maps the account trade history under "trade_history".
func (n *Normalizer) ParseMyTrades(data []byte, market *core.Market) ([]core.Trade, error) {
	entries, err := listField(data, "trade_history")
	if err != nil {
		return nil, err
	}
	return n.parseTradeList(entries, market)
}

func (n *Normalizer) parseTradeList(entries []json.RawMessage, market *core.Market) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(entries))
	for i, raw := range entries {
		trade, err := n.parseTrade(raw, market)
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", i, err)
		}
		trades = append(trades, trade)
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Timestamp < trades[j].Timestamp })
	return trades, nil
}

func (n *Normalizer) parseTrade(raw json.RawMessage, market *core.Market) (core.Trade, error) {
	var w wireTrade
	info, err := decodeEntry(raw, &w)
	if err != nil {
		return core.Trade{}, err
	}

	date := w.Date
	if w.DateExec != nil && strings.TrimSpace(*w.DateExec) != "" {
		date = *w.DateExec
	}
	timestamp, err := core.ParseISO8601(date)
	if err != nil {
		return core.Trade{}, err
	}

	side, err := core.ParseOrderSide(w.Type)
	if err != nil {
		return core.Trade{}, err
	}

	if market == nil && w.Market != "" {
		market, _ = n.lookup(w.Market)
	}
	symbol := ""
	if market != nil {
		symbol = market.Symbol
	}

	return core.Trade{
		ID:        string(w.ID),
		Order:     string(w.OrderNumber),
		Symbol:    symbol,
		Type:      core.TypeLimit,
		Side:      side,
		Price:     w.Price.Value,
		Amount:    w.Amount.Value,
		Cost:      w.Total.Value,
		Timestamp: timestamp,
		Datetime:  core.ISO8601(timestamp),
		Info:      info,
	}, nil
}

// ParseBalance maps the complete balance. Used is always total minus free;
// the venue reports only those two figures.
func (n *Normalizer) ParseBalance(data []byte) (*core.Balance, error) {
	entries, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	var info map[string]any
	if err := sonic.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}

	balance := &core.Balance{
		Currencies: make(map[string]core.BalanceEntry, len(entries)),
		Info:       info,
	}
	for id, raw := range entries {
		if !isObject(raw) {
			continue
		}
		var w wireBalance
		if err := sonic.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("balance %s: %w", id, err)
		}

		free := w.Available.Or(0)
		total := w.Total.Or(0)
		balance.Currencies[core.CommonCurrencyCode(id)] = core.BalanceEntry{
			Free:  free,
			Used:  total - free,
			Total: total,
		}
	}
	return balance, nil
}

// ParseOrders maps the open orders listed under "order_open".
func (n *Normalizer) ParseOrders(data []byte, market *core.Market) ([]core.Order, error) {
	entries, err := listField(data, "order_open")
	if err != nil {
		return nil, err
	}

	orders := make([]core.Order, 0, len(entries))
	for i, raw := range entries {
		var w wireOrder
		info, err := decodeEntry(raw, &w)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		order, err := n.ParseOrder(&w, info, market)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		orders = append(orders, *order)
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Timestamp < orders[j].Timestamp })
	return orders, nil
}

// ParseOrder maps an order record. market may be nil, in which case it is
// resolved from the embedded market id. Filled is amount times progress and
// remaining is rounded to the market's amount precision.
func (n *Normalizer) ParseOrder(w *wireOrder, info map[string]any, market *core.Market) (*core.Order, error) {
	if market == nil && w.Market != "" {
		market, _ = n.lookup(w.Market)
	}

	var timestamp int64
	if w.Timestamp.Valid {
		timestamp = int64(w.Timestamp.Value)
	} else {
		ts, err := core.ParseISO8601(w.Date)
		if err != nil {
			return nil, err
		}
		timestamp = ts
	}

	if !w.Price.Valid {
		return nil, fmt.Errorf("order %s: missing price", w.OrderNumber)
	}
	if !w.Amount.Valid {
		return nil, fmt.Errorf("order %s: missing amount", w.OrderNumber)
	}

	side, err := core.ParseOrderSide(w.Type)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", w.OrderNumber, err)
	}

	amount := w.Amount.Value
	filled := amount * w.Progress.Or(0)
	remaining := amount - filled

	symbol := ""
	if market != nil {
		symbol = market.Symbol
		remaining, err = core.RoundToPrecision(remaining, market.Precision.Amount)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", w.OrderNumber, err)
		}
	}

	if nested, ok := info["info"].(map[string]any); ok {
		info = nested
	}

	return &core.Order{
		ID:        string(w.OrderNumber),
		Symbol:    symbol,
		Type:      core.TypeLimit,
		Side:      side,
		Status:    core.StatusOpen,
		Price:     w.Price.Value,
		Cost:      w.Total.Or(0),
		Amount:    amount,
		Filled:    filled,
		Remaining: remaining,
		Fee:       w.parseFee(),
		Timestamp: timestamp,
		Datetime:  core.ISO8601(timestamp),
		Info:      info,
	}, nil
}

func (w *wireOrder) parseFee() *core.Fee {
	if w.fee != nil {
		return w.fee
	}
	if !isObject(w.Fee) {
		return nil
	}
	var f wireFee
	if err := sonic.Unmarshal(w.Fee, &f); err != nil || !f.Cost.Valid {
		return nil
	}
	return &core.Fee{Cost: f.Cost.Value, Currency: core.CommonCurrencyCode(f.Currency)}
}

// ParseCreatedOrder maps the response to a buy or sell call. The venue
// confirms fills only through the free-text message, which is tokenized by
// ParseConfirmation. A success flag other than 1 rejects the order.
func (n *Normalizer) ParseCreatedOrder(data []byte, market *core.Market, side core.OrderSide, timestamp int64) (*core.Order, error) {
	var w wirePlacement
	info, err := decodeEntry(data, &w)
	if err != nil {
		return nil, fmt.Errorf("decode order placement: %w", err)
	}

	if !w.Success.Valid || w.Success.Value != 1 {
		return nil, core.NewExchangeError(Name, core.ErrorTypeInvalidOrder, 0, "order rejected: "+string(data)).
			WithCode(core.ErrCodeInvalidOrder).
			WithRaw(string(data))
	}

	conf, err := ParseConfirmation(w.Message)
	if err != nil {
		return nil, err
	}

	if w.OrderNumber == "" {
		return nil, missingField("order_number", data)
	}

	return n.ParseOrder(&wireOrder{
		OrderNumber: w.OrderNumber,
		Market:      market.ID,
		Type:        side.String(),
		Price:       core.NewNumber(conf.Price),
		Amount:      core.NewNumber(conf.Amount),
		Total:       core.NewNumber(conf.Total),
		Progress:    core.NewNumber(0),
		Timestamp:   core.NewNumber(float64(timestamp)),
		fee:         &conf.Fee,
	}, info, market)
}

// ParseDepositAddress maps the deposit address of code. A response without
// an address is a venue failure.
func (n *Normalizer) ParseDepositAddress(data []byte, code string) (*core.DepositAddress, error) {
	var w wireDepositAddress
	info, err := decodeEntry(data, &w)
	if err != nil {
		return nil, fmt.Errorf("decode deposit address: %w", err)
	}
	if w.DepositAddress == "" {
		return nil, missingField("deposit_address", data)
	}

	return &core.DepositAddress{
		Currency: code,
		Address:  w.DepositAddress,
		Tag:      string(w.PaymentID),
		Status:   core.CurrencyStatusOK,
		Info:     info,
	}, nil
}

func (n *Normalizer) lookup(id string) (*core.Market, error) {
	if n.markets == nil {
		return nil, core.ErrMarketsNotLoaded
	}
	return n.markets(id)
}

func missingField(field string, data []byte) error {
	return core.NewExchangeError(Name, core.ErrorTypeExchange, 0, "response missing "+field).
		WithCode(core.ErrCodeMissingField).
		WithRaw(string(data))
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var entries map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// decodeEntry decodes raw into v and also returns it as a generic map for
// the Info field.
func decodeEntry(raw []byte, v any) (map[string]any, error) {
	if err := sonic.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	var info map[string]any
	if err := sonic.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// unwrapTicker returns the inner object of a {"date":..,"ticker":{..}}
// envelope, or raw itself.
func unwrapTicker(raw []byte) []byte {
	var env map[string]json.RawMessage
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if inner, ok := env["ticker"]; ok && isObject(inner) {
		return inner
	}
	return raw
}

func listField(data []byte, key string) ([]json.RawMessage, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	raw, ok := fields[key]
	if !ok {
		return nil, missingField(key, data)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return entries, nil
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
