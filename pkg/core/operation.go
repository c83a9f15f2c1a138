package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpFetchCurrencies retrieves the asset catalogue.
	OpFetchCurrencies Operation = iota
	// OpFetchTickers retrieves tickers for every market. The same payload
	// doubles as the market catalogue.
	OpFetchTickers
	// OpFetchTicker retrieves the ticker of a single market.
	OpFetchTicker
	// OpFetchOrderBook retrieves the current order book snapshot.
	OpFetchOrderBook
	// OpFetchTrades retrieves recent public trades for a market.
	OpFetchTrades
	// OpFetchBalance retrieves account balances.
	OpFetchBalance
	// OpPlaceBuyOrder submits a buy order.
	OpPlaceBuyOrder
	// OpPlaceSellOrder submits a sell order.
	OpPlaceSellOrder
	// OpCancelOrder cancels an existing order.
	OpCancelOrder
	// OpFetchOpenOrders retrieves the account's open orders for a market.
	OpFetchOpenOrders
	// OpFetchMyTrades retrieves the account's executions for a market.
	OpFetchMyTrades
	// OpFetchDepositAddress retrieves the deposit address of a currency.
	OpFetchDepositAddress
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"FETCH_CURRENCIES",
		"FETCH_TICKERS",
		"FETCH_TICKER",
		"FETCH_ORDER_BOOK",
		"FETCH_TRADES",
		"FETCH_BALANCE",
		"PLACE_BUY_ORDER",
		"PLACE_SELL_ORDER",
		"CANCEL_ORDER",
		"FETCH_OPEN_ORDERS",
		"FETCH_MY_TRADES",
		"FETCH_DEPOSIT_ADDRESS",
	}[o]
}

// PlaceOrderOperation selects the side-specific placement operation.
func PlaceOrderOperation(side OrderSide) Operation {
	switch side {
	case SideSell:
		return OpPlaceSellOrder
	default:
		return OpPlaceBuyOrder
	}
}
