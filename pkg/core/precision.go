package core

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

var decimalContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// RoundToPrecision rounds v half-up to the given number of decimal places,
// quantizing in decimal space.
func RoundToPrecision(v float64, places int) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("round %v: not a finite number", v)
	}

	var d, out apd.Decimal
	if _, err := d.SetFloat64(v); err != nil {
		return 0, fmt.Errorf("round %v: %w", v, err)
	}
	if _, err := decimalContext.Quantize(&out, &d, -int32(places)); err != nil {
		return 0, fmt.Errorf("round %v to %d places: %w", v, places, err)
	}

	f, err := out.Float64()
	if err != nil {
		return 0, fmt.Errorf("round %v: %w", v, err)
	}
	return f, nil
}

// ParseDecimal parses a decimal string into a float64. NaN and infinities
// are rejected.
func ParseDecimal(s string) (float64, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return 0, fmt.Errorf("parse decimal %q: not a finite number", s)
	}
	v, err := d.Float64()
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return v, nil
}

// Pow10 returns 10^exp.
func Pow10(exp int) float64 {
	return math.Pow10(exp)
}
