package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      float64
		wantValid bool
		wantErr   bool
	}{
		{"number", `1.5`, 1.5, true, false},
		{"quoted", `"0.00012"`, 0.00012, true, false},
		{"integer", `1`, 1, true, false},
		{"null", `null`, 0, false, false},
		{"empty_string", `""`, 0, false, false},
		{"spaces", `" 42 "`, 42, true, false},
		{"exponent", `"1e-8"`, 1e-8, true, false},
		{"negative", `-0.25`, -0.25, true, false},
		{"garbage", `"abc"`, 0, false, true},
		{"nan", `"NaN"`, 0, false, true},
		{"infinity", `"Infinity"`, 0, false, true},
		{"bare_nan", `NaN`, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			err := n.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, n.Valid)
			assert.Equal(t, tt.want, n.Value)
		})
	}
}

func TestNumber_InStruct(t *testing.T) {
	var payload struct {
		Price  Number `json:"price"`
		Amount Number `json:"amount"`
		Total  Number `json:"total"`
	}
	require.NoError(t, sonic.Unmarshal([]byte(`{"price":"100","amount":0.5}`), &payload))

	assert.Equal(t, 100.0, payload.Price.Value)
	assert.Equal(t, 0.5, payload.Amount.Value)
	assert.False(t, payload.Total.Valid)
	assert.Nil(t, payload.Total.Ptr())
	assert.Equal(t, 0.0, payload.Total.Or(0))
}

func TestNumber_Ptr(t *testing.T) {
	n := NewNumber(3)
	p := n.Ptr()
	require.NotNil(t, p)
	*p = 4
	assert.Equal(t, 3.0, n.Value)
}

func TestNumber_MarshalJSON(t *testing.T) {
	data, err := NewNumber(0.1).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "0.1", string(data))

	data, err = Number{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
