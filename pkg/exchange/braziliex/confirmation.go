package braziliex

import (
	"fmt"
	"strings"

	"bursa/pkg/core"
)

// confirmationDelimiter separates the segments of an order confirmation.
const confirmationDelimiter = " / "

// Labels of the trailing confirmation segments, in order.
const (
	labelAmount = "amount:"
	labelPrice  = "price:"
	labelTotal  = "total:"
	labelFee    = "fee:"
)

// minConfirmationSegments is the echo, at least one descriptor segment and
// the four labelled segments.
const minConfirmationSegments = 6

// Confirmation holds the fill details the venue returns as free text when an
// order is placed, e.g.
//
//	buy / market btc_brl / amount: 1 0.5 / price: 2 100 / total: 3 50 / fee: 4 0.1 BRL
//
// Positions are fixed:
//   - segment 0 echoes the command and is dropped;
//   - segments between the echo and the last four describe the order;
//   - the last four are labelled amount:, price:, total: and fee:, in that order;
//   - amount, price and total take the last token of their segment;
//   - the fee segment ends with the fee cost followed by its currency.
type Confirmation struct {
	Descriptor []string
	Amount     float64
	Price      float64
	Total      float64
	Fee        core.Fee
}

// ParseConfirmation tokenizes a placement message. Any deviation from the
// fixed layout is reported as a malformed confirmation rather than guessed at.
func ParseConfirmation(message string) (*Confirmation, error) {
	segments := strings.Split(message, confirmationDelimiter)
	if len(segments) < minConfirmationSegments {
		return nil, malformed(message, fmt.Sprintf("expected at least %d segments, got %d",
			minConfirmationSegments, len(segments)))
	}

	tail := segments[len(segments)-4:]
	conf := &Confirmation{
		Descriptor: append([]string(nil), segments[1:len(segments)-4]...),
	}

	var err error
	if conf.Amount, err = labelledValue(tail[0], labelAmount); err != nil {
		return nil, malformed(message, err.Error())
	}
	if conf.Price, err = labelledValue(tail[1], labelPrice); err != nil {
		return nil, malformed(message, err.Error())
	}
	if conf.Total, err = labelledValue(tail[2], labelTotal); err != nil {
		return nil, malformed(message, err.Error())
	}
	if conf.Fee, err = feeValue(tail[3]); err != nil {
		return nil, malformed(message, err.Error())
	}

	return conf, nil
}

func labelledValue(segment, label string) (float64, error) {
	tokens, err := labelledTokens(segment, label, 2)
	if err != nil {
		return 0, err
	}
	return parseToken(label, tokens[len(tokens)-1])
}

func feeValue(segment string) (core.Fee, error) {
	tokens, err := labelledTokens(segment, labelFee, 3)
	if err != nil {
		return core.Fee{}, err
	}
	cost, err := parseToken(labelFee, tokens[len(tokens)-2])
	if err != nil {
		return core.Fee{}, err
	}
	return core.Fee{
		Cost:     cost,
		Currency: core.CommonCurrencyCode(tokens[len(tokens)-1]),
	}, nil
}

func labelledTokens(segment, label string, want int) ([]string, error) {
	tokens := strings.Fields(segment)
	if len(tokens) == 0 || !strings.EqualFold(tokens[0], label) {
		return nil, fmt.Errorf("segment %q: expected label %s", segment, label)
	}
	if len(tokens) < want {
		return nil, fmt.Errorf("segment %q: expected at least %d tokens", segment, want)
	}
	return tokens, nil
}

func parseToken(label, token string) (float64, error) {
	v, err := core.ParseDecimal(token)
	if err != nil {
		return 0, fmt.Errorf("%s %w", label, err)
	}
	return v, nil
}

func malformed(message, reason string) error {
	return core.NewExchangeError(Name, core.ErrorTypeExchange, 0, "malformed order confirmation: "+reason).
		WithCode(core.ErrCodeMalformedConfirmation).
		WithRaw(message)
}
