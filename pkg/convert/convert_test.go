package convert

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUint64(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected uint64
		ok       bool
	}{
		// Unsigned types
		{"uint64", uint64(100), 100, true},
		{"uint64 max", uint64(math.MaxUint64), math.MaxUint64, true},
		{"uint", uint(10), 10, true},
		{"uint32", uint32(25), 25, true},
		{"uint8", uint8(3), 3, true},

		// Signed types
		{"int", 42, 42, true},
		{"int64", int64(99), 99, true},
		{"int zero", 0, 0, true},
		{"int negative", -1, 0, false},
		{"int64 min", int64(math.MinInt64), 0, false},

		// Floats
		{"float64 whole", 3.0, 3, true},
		{"float64 fraction", 3.7, 0, false},
		{"float64 negative", -2.0, 0, false},
		{"float64 2^64", math.Pow(2, 64), 0, false},
		{"float64 NaN", math.NaN(), 0, false},
		{"float64 Inf", math.Inf(1), 0, false},
		{"float32 whole", float32(8), 8, true},

		// Number text
		{"json.Number", json.Number("42"), 42, true},
		{"json.Number max", json.Number("18446744073709551615"), math.MaxUint64, true},
		{"json.Number overflow", json.Number("18446744073709551616"), 0, false},
		{"json.Number negative", json.Number("-5"), 0, false},
		{"json.Number exponent", json.Number("1e3"), 1000, true},
		{"json.Number fraction", json.Number("1.5"), 0, false},
		{"json.Number whole fraction", json.Number("2.0"), 2, true},
		{"json.Number beyond float precision", json.Number("9007199254740993.0"), 9007199254740993, true},
		{"json.Number max with fraction", json.Number("18446744073709551615.0"), math.MaxUint64, true},
		{"json.Number max as exponent", json.Number("1.8446744073709551615e19"), math.MaxUint64, true},
		{"json.Number overflow as exponent", json.Number("1.8446744073709551616e19"), 0, false},
		{"json.Number scaled fraction", json.Number("12.50e1"), 125, true},
		{"json.Number negative exponent", json.Number("1500e-2"), 15, true},
		{"json.Number fraction after exponent", json.Number("1501e-2"), 0, false},
		{"json.Number tiny", json.Number("1e-400"), 0, false},
		{"json.Number huge exponent", json.Number("1e99999999999999999999"), 0, false},
		{"json.Number zero huge exponent", json.Number("0e99999999999999999999"), 0, true},
		{"json.Number negative zero", json.Number("-0"), 0, true},
		{"json.Number negative zero fraction", json.Number("-0.0"), 0, true},
		{"json.Number negative whole fraction", json.Number("-2.0"), 0, false},
		{"string hex", "0x10", 0, false},
		{"string ratio", "1/2", 0, false},
		{"string plus sign", "+5", 0, false},
		{"string bare fraction", ".5", 0, false},
		{"string trailing dot", "1.", 0, false},
		{"string dangling exponent", "1e", 0, false},
		{"string", "7", 7, true},
		{"string invalid", "seven", 0, false},
		{"string empty", "", 0, false},

		// Not numeric
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToUint64(tt.input)
			assert.Equal(t, tt.ok, ok, "ok mismatch")
			assert.Equal(t, tt.expected, got, "value mismatch")
		})
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int64
		ok       bool
	}{
		{"int64", int64(-99), -99, true},
		{"int", 42, 42, true},
		{"uint64 small", uint64(5), 5, true},
		{"uint64 too large", uint64(math.MaxUint64), 0, false},
		{"uint32", uint32(25), 25, true},
		{"string", "-10", -10, true},
		{"string invalid", "ten", 0, false},
		{"float not accepted", 1.0, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.input)
			assert.Equal(t, tt.ok, ok, "ok mismatch")
			assert.Equal(t, tt.expected, got, "value mismatch")
		})
	}
}
