package braziliex

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"bursa/internal/keyring"
	"bursa/pkg/catalog"
	"bursa/pkg/core"
	"bursa/pkg/exchange"
	"bursa/pkg/ordermanager"
	"bursa/pkg/session"
)

var _ exchange.Exchange = (*Exchange)(nil)

// Exchange is the Braziliex client. It resolves symbols through its catalog,
// sends every call through one session and records the orders it places.
type Exchange struct {
	config     *core.Config
	session    *session.Session
	protocol   *Protocol
	normalizer *Normalizer
	catalog    *catalog.Catalog
	tracker    *ordermanager.Tracker
	logger     zerolog.Logger
	now        func() time.Time
	loadMu     sync.Mutex
}

// Option is a functional option for configuring the Exchange.
type Option func(*Options)

// Options holds configuration options for the Exchange.
type Options struct {
	KeyRing   *keyring.KeyRing
	Logger    zerolog.Logger
	Transport session.Transport
	Clock     func() time.Time
}

// WithKeyRing returns an option that sets the API key ring for key rotation.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithTransport replaces the default HTTP transport.
func WithTransport(t session.Transport) Option {
	return func(o *Options) {
		o.Transport = t
	}
}

// WithClock sets the time source for ticker capture times, order
// timestamps and nonce seeding.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// New creates a Braziliex client from config. Credentials in config enable
// the private operations.
func New(config *core.Config, opts ...Option) (*Exchange, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	options := &Options{
		Logger: zerolog.Nop(),
		Clock:  time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	protocol := NewProtocol()
	sessOpts := []session.Option{
		session.WithProtocol(protocol),
		session.WithLogger(options.Logger),
		session.WithClock(options.Clock),
	}
	if options.KeyRing != nil {
		sessOpts = append(sessOpts, session.WithKeyRing(options.KeyRing))
	}
	if options.Transport != nil {
		sessOpts = append(sessOpts, session.WithTransport(options.Transport))
	}

	sess, err := session.New(config, sessOpts...)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger := options.Logger.With().Str("exchange", Name).Logger()
	cat := catalog.New(Name)

	return &Exchange{
		config:     config,
		session:    sess,
		protocol:   protocol,
		normalizer: NewNormalizer(cat.MarketByID, logger),
		catalog:    cat,
		tracker:    ordermanager.NewTracker(ordermanager.WithLogger(logger)),
		logger:     logger,
		now:        options.Clock,
	}, nil
}

// Register makes the venue available to container.Open.
func Register(container *exchange.Container, opts ...Option) {
	container.RegisterFactory(Name, func(config *core.Config) (exchange.Exchange, error) {
		return New(config, opts...)
	})
}

// Name returns the exchange identifier "braziliex".
func (e *Exchange) Name() string {
	return Name
}

// Version returns the Braziliex API version.
func (e *Exchange) Version() string {
	return e.protocol.Version()
}

// Close releases the session and its transport.
func (e *Exchange) Close() error {
	return e.session.Close()
}

// Session exposes the underlying session for breaker and limiter metrics.
func (e *Exchange) Session() *session.Session {
	return e.session
}

// Catalog exposes the loaded market and currency metadata.
func (e *Exchange) Catalog() *catalog.Catalog {
	return e.catalog
}

// Tracker exposes the registry of orders placed through this client.
func (e *Exchange) Tracker() *ordermanager.Tracker {
	return e.tracker
}

func (e *Exchange) FetchCurrencies(ctx context.Context, opts ...exchange.Option) (map[string]core.Currency, error) {
	options := exchange.ApplyOptions(opts...)

	data, err := e.session.Do(ctx, core.OpFetchCurrencies, options.Merge(nil))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseCurrencies(data)
}

// FetchMarkets lists the markets. The venue has no market endpoint; the
// all-tickers payload is keyed by market id and carries the active flag.
func (e *Exchange) FetchMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	options := exchange.ApplyOptions(opts...)

	data, err := e.session.Do(ctx, core.OpFetchTickers, options.Merge(nil))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseMarkets(data)
}

func (e *Exchange) LoadMarkets(ctx context.Context, reload bool) ([]core.Market, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if e.catalog.Loaded() && !reload {
		return e.catalog.Markets(), nil
	}

	currencies, err := e.FetchCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	markets, err := e.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	e.catalog.SetCurrencies(currencies)
	e.catalog.SetMarkets(markets)
	e.logger.Info().
		Int("markets", len(markets)).
		Int("currencies", len(currencies)).
		Msg("markets loaded")

	return e.catalog.Markets(), nil
}

func (e *Exchange) market(ctx context.Context, symbol string) (*core.Market, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	return e.catalog.MarketBySymbol(symbol)
}

func (e *Exchange) FetchTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchTicker, options.Merge(core.Params{"market": market.ID}))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseTicker(data, market, e.now().UnixMilli())
}

// FetchTickers returns the tickers of all known markets, or of symbols
// when any are given.
func (e *Exchange) FetchTickers(ctx context.Context, symbols []string, opts ...exchange.Option) (map[string]core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)

	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchTickers, options.Merge(nil))
	if err != nil {
		return nil, err
	}
	tickers, err := e.normalizer.ParseTickers(data, e.now().UnixMilli())
	if err != nil {
		return nil, err
	}

	if len(symbols) > 0 {
		maps.DeleteFunc(tickers, func(symbol string, _ core.Ticker) bool {
			return !slices.Contains(symbols, symbol)
		})
	}
	return tickers, nil
}

func (e *Exchange) FetchOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchOrderBook, options.Merge(core.Params{"market": market.ID}))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseOrderBook(data, market.Symbol)
}

// FetchTrades returns recent public trades, oldest first.
func (e *Exchange) FetchTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchTrades, options.Merge(core.Params{"market": market.ID}))
	if err != nil {
		return nil, err
	}
	trades, err := e.normalizer.ParseTrades(data, market)
	if err != nil {
		return nil, err
	}
	return filterTrades(trades, options), nil
}

func (e *Exchange) FetchBalance(ctx context.Context, opts ...exchange.Option) (*core.Balance, error) {
	options := exchange.ApplyOptions(opts...)

	data, err := e.session.Do(ctx, core.OpFetchBalance, options.Merge(nil))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseBalance(data)
}

func (e *Exchange) FetchDepositAddress(ctx context.Context, code string, opts ...exchange.Option) (*core.DepositAddress, error) {
	options := exchange.ApplyOptions(opts...)

	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	currency, err := e.catalog.CurrencyByCode(code)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchDepositAddress, options.Merge(core.Params{"currency": currency.ID}))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseDepositAddress(data, currency.Code)
}

// CreateOrder places req on the side-specific endpoint and registers the
// resulting open order with the tracker. Fill details come from the venue's
// confirmation message.
func (e *Exchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, core.NewExchangeError(Name, core.ErrorTypeBadRequest, 0, err.Error()).
			WithCode(core.ErrCodeBadRequest).
			WithCause(err)
	}

	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{
		"market": market.ID,
		"amount": req.Amount,
	}
	if req.Price != nil {
		params["price"] = *req.Price
	}
	maps.Copy(params, req.Params)

	data, err := e.session.Do(ctx, core.PlaceOrderOperation(req.Side), options.Merge(params))
	if err != nil {
		return nil, err
	}

	order, err := e.normalizer.ParseCreatedOrder(data, market, req.Side, e.now().UnixMilli())
	if err != nil {
		return nil, err
	}

	e.tracker.Track(order)
	e.logger.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", order.Side.String()).
		Float64("amount", order.Amount).
		Float64("price", order.Price).
		Msg("order placed")

	return order, nil
}

// CancelOrder requests cancellation and returns the venue's acknowledgement
// as received. The tracked order is left as is; reconcile through
// FetchOpenOrders.
func (e *Exchange) CancelOrder(ctx context.Context, id, symbol string, opts ...exchange.Option) (map[string]any, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpCancelOrder, options.Merge(core.Params{
		"order_number": id,
		"market":       market.ID,
	}))
	if err != nil {
		return nil, err
	}

	var ack map[string]any
	if err := sonic.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("decode cancel acknowledgement: %w", err)
	}
	e.logger.Info().Str("order_id", id).Str("symbol", market.Symbol).Msg("order cancel requested")
	return ack, nil
}

func (e *Exchange) FetchOpenOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchOpenOrders, options.Merge(core.Params{"market": market.ID}))
	if err != nil {
		return nil, err
	}
	return e.normalizer.ParseOrders(data, market)
}

// FetchMyTrades returns the account's executions in symbol, oldest first.
func (e *Exchange) FetchMyTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.session.Do(ctx, core.OpFetchMyTrades, options.Merge(core.Params{"market": market.ID}))
	if err != nil {
		return nil, err
	}
	trades, err := e.normalizer.ParseMyTrades(data, market)
	if err != nil {
		return nil, err
	}
	return filterTrades(trades, options), nil
}

func (e *Exchange) Orders() []core.Order {
	return e.tracker.Orders(ordermanager.OrderFilter{})
}

// filterTrades keeps trades at or after Since and then the first Limit of
// them. trades must be sorted oldest first.
func filterTrades(trades []core.Trade, options *exchange.Options) []core.Trade {
	if options.Since != nil {
		since := *options.Since
		trades = slices.DeleteFunc(trades, func(t core.Trade) bool {
			return t.Timestamp < since
		})
	}
	if options.Limit > 0 && len(trades) > options.Limit {
		trades = trades[:options.Limit]
	}
	return trades
}
