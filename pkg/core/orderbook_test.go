package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderBook(t *testing.T) {
	data := []byte(`{
		"bids": [{"price": "99", "amount": "1"}, {"price": 100, "amount": 2}],
		"asks": [{"price": "102", "amount": "0.5"}, {"price": "101", "amount": "3"}]
	}`)

	book, err := ParseOrderBook(data, "BTC/BRL", "bids", "asks", "price", "amount")
	require.NoError(t, err)

	assert.Equal(t, "BTC/BRL", book.Symbol)
	assert.Nil(t, book.Timestamp)
	assert.Equal(t, []OrderBookLevel{{Price: 100, Amount: 2}, {Price: 99, Amount: 1}}, book.Bids)
	assert.Equal(t, []OrderBookLevel{{Price: 101, Amount: 3}, {Price: 102, Amount: 0.5}}, book.Asks)
}

func TestParseOrderBook_EmptySides(t *testing.T) {
	book, err := ParseOrderBook([]byte(`{"bids": [], "asks": null}`), "BTC/BRL", "bids", "asks", "price", "amount")
	require.NoError(t, err)

	assert.Empty(t, book.Bids)
	assert.Empty(t, book.Asks)
}

func TestParseOrderBook_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not_json", `<html>`},
		{"missing_price", `{"bids": [{"amount": "1"}], "asks": []}`},
		{"missing_amount", `{"bids": [], "asks": [{"price": "1"}]}`},
		{"bad_number", `{"bids": [{"price": "x", "amount": "1"}], "asks": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrderBook([]byte(tt.data), "BTC/BRL", "bids", "asks", "price", "amount")
			assert.Error(t, err)
		})
	}
}
