package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Number decodes a JSON numeric field that venues send either as a number or
// as a quoted string. Null, empty strings and missing fields leave it invalid.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a valid Number holding v.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler for Number.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("decode number %s: %w", s, err)
		}
		s = strings.TrimSpace(unquoted)
		if s == "" {
			*n = Number{}
			return nil
		}
	}

	v, err := ParseDecimal(s)
	if err != nil {
		return fmt.Errorf("decode number %s: %w", data, err)
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// Ptr returns a pointer to the value, or nil when the number is unknown.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Or returns the value, or def when the number is unknown.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Int returns the value truncated to an int. Unknown numbers yield 0.
func (n Number) Int() int {
	return int(n.Value)
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
