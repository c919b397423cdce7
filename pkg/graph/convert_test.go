package graph

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphkit/pkg/storage"
)

func TestNativeRoundTrip(t *testing.T) {
	values := []Value{
		Bool(true),
		Bool(false),
		Integer(0),
		Integer(42),
		Integer(math.MaxUint64),
		String(""),
		String("hello"),
		String(`quote " backslash \ newline` + "\n"),
		String("<tag> & unicode ✓"),
	}

	for _, v := range values {
		t.Run(v.Kind().String()+"_"+v.String(), func(t *testing.T) {
			native := ToNative(v)
			assert.True(t, json.Valid(native))

			back, err := FromNative(native)
			require.NoError(t, err)
			assert.Equal(t, v, back)
		})
	}
}

func TestToNative(t *testing.T) {
	assert.Equal(t, `true`, string(ToNative(Bool(true))))
	assert.Equal(t, `18446744073709551615`, string(ToNative(Integer(math.MaxUint64))))
	assert.Equal(t, `"a b"`, string(ToNative(String("a b"))))
	assert.Equal(t, `null`, string(ToNative(nil)))
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name    string
		native  string
		want    Value
		wantErr error
	}{
		{"bool", `false`, Bool(false), nil},
		{"string", `"x"`, String("x"), nil},
		{"escaped_string", `"\u0041b"`, String("Ab"), nil},
		{"integer", `7`, Integer(7), nil},
		{"whitespace", " 12 ", Integer(12), nil},
		{"max_uint64", `18446744073709551615`, Integer(math.MaxUint64), nil},
		{"whole_exponent", `1e3`, Integer(1000), nil},
		{"exact_beyond_float", `9007199254740993.0`, Integer(9007199254740993), nil},
		{"max_uint64_fraction", `18446744073709551615.0`, Integer(math.MaxUint64), nil},
		{"negative_zero", `-0`, Integer(0), nil},
		{"negative_zero_fraction", `-0.0`, Integer(0), nil},
		{"overflow", `18446744073709551616`, nil, ErrInvalidValue},
		{"overflow_fraction", `18446744073709551616.0`, nil, ErrInvalidValue},
		{"negative", `-1`, nil, ErrInvalidValue},
		{"fraction", `1.5`, nil, ErrInvalidValue},
		{"null", `null`, nil, ErrWrongInputType},
		{"array", `[1,2]`, nil, ErrWrongInputType},
		{"empty_array", `[]`, nil, ErrWrongInputType},
		{"object", `{"a":1}`, nil, ErrWrongInputType},
		{"empty", ``, nil, ErrWrongInputType},
		{"malformed", `{"a":`, nil, ErrWrongInputType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(json.RawMessage(tt.native))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnwrapValue(t *testing.T) {
	b, err := AsBool(Bool(true))
	require.NoError(t, err)
	assert.True(t, b)

	n, err := AsInteger(Integer(9))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), n)

	n, err = AsUint64(Integer(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)

	s, err := AsString(String("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = AsBool(String("true"))
	assert.ErrorIs(t, err, ErrWrongInputType)
	_, err = AsInteger(Bool(true))
	assert.ErrorIs(t, err, ErrWrongInputType)
	_, err = AsString(Integer(1))
	assert.ErrorIs(t, err, ErrWrongInputType)
	_, err = AsString(nil)
	assert.ErrorIs(t, err, ErrWrongInputType)
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    Value
		wantErr error
	}{
		{"bool", true, Bool(true), nil},
		{"string", "s", String("s"), nil},
		{"int", 5, Integer(5), nil},
		{"uint64_max", uint64(math.MaxUint64), Integer(math.MaxUint64), nil},
		{"int8", int8(3), Integer(3), nil},
		{"value_passthrough", Integer(4), Integer(4), nil},
		{"negative", -5, nil, ErrInvalidValue},
		{"float", 1.5, nil, ErrWrongInputType},
		{"nil", nil, nil, ErrWrongInputType},
		{"slice", []string{"a"}, nil, ErrWrongInputType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamedPropertyConversion(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		np, err := ToNamedProperty(Property{Name: "done", Value: Bool(true)})
		require.NoError(t, err)
		assert.Equal(t, "done", np.Name.String())
		assert.Equal(t, `true`, string(np.Value))

		p, err := FromNamedProperty(np)
		require.NoError(t, err)
		assert.Equal(t, Property{Name: "done", Value: Bool(true)}, p)
	})

	t.Run("invalid_name", func(t *testing.T) {
		_, err := ToNamedProperty(Property{Name: "", Value: Bool(true)})
		assert.ErrorIs(t, err, ErrInvalidIdentifier)

		_, err = ToNamedProperty(Property{Name: "bad name", Value: Bool(true)})
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})

	t.Run("nil_value", func(t *testing.T) {
		_, err := ToNamedProperty(Property{Name: "x"})
		assert.ErrorIs(t, err, ErrWrongInputType)
	})

	t.Run("invalid_utf8", func(t *testing.T) {
		_, err := ToNamedProperty(Property{Name: "title", Value: String("ok \xff")})
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Contains(t, err.Error(), "title")

		np, err := ToNamedProperty(Property{Name: "title", Value: String("caf\u00e9 ✓")})
		require.NoError(t, err)
		back, err := FromNamedProperty(np)
		require.NoError(t, err)
		assert.Equal(t, String("caf\u00e9 ✓"), back.Value)
	})

	t.Run("unnamed_native", func(t *testing.T) {
		_, err := FromNamedProperty(storage.NamedProperty{Value: json.RawMessage(`1`)})
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})

	t.Run("unsupported_native", func(t *testing.T) {
		_, err := FromNamedProperty(storage.NamedProperty{
			Name:  storage.MustIdentifier("tags"),
			Value: json.RawMessage(`["a"]`),
		})
		assert.ErrorIs(t, err, ErrWrongInputType)
		assert.Contains(t, err.Error(), "tags")
	})
}

func TestPropertyString(t *testing.T) {
	assert.Equal(t, "n=3", Property{Name: "n", Value: Integer(3)}.String())
	assert.Equal(t, "n=<nil>", Property{Name: "n"}.String())
}
