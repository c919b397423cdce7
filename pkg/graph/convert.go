package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/orneryd/graphkit/pkg/convert"
	"github.com/orneryd/graphkit/pkg/storage"
)

var nativeJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ToNative encodes v in the engine's native JSON representation.
//
// Bool becomes a JSON boolean, Integer an unsigned JSON number and String a
// JSON string. A nil Value encodes as JSON null, which FromNative rejects.
// Invalid UTF-8 in a String is replaced with U+FFFD by the encoder;
// ToNamedProperty refuses such strings before they reach an engine.
func ToNative(v Value) json.RawMessage {
	switch v := v.(type) {
	case Bool:
		return json.RawMessage(strconv.FormatBool(bool(v)))
	case Integer:
		return json.RawMessage(strconv.FormatUint(uint64(v), 10))
	case String:
		// Marshalling a string cannot fail.
		b, _ := nativeJSON.Marshal(string(v))
		return b
	}
	return json.RawMessage("null")
}

// FromNative decodes a native JSON value.
//
// Returns:
//   - Bool, Integer or String for JSON booleans, numbers and strings
//   - ErrInvalidValue for numbers that are negative, fractional or larger
//     than an unsigned 64-bit integer
//   - ErrWrongInputType for null, arrays, objects and malformed input
//
// Example:
//
//	v, _ := graph.FromNative(json.RawMessage(`42`))   // graph.Integer(42)
//	_, err := graph.FromNative(json.RawMessage(`[]`)) // ErrWrongInputType
func FromNative(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, fmt.Errorf("%w: malformed native value", ErrWrongInputType)
	}

	native := nativeJSON.Get(raw)
	switch native.ValueType() {
	case jsoniter.BoolValue:
		return Bool(native.ToBool()), nil
	case jsoniter.StringValue:
		return String(native.ToString()), nil
	case jsoniter.NumberValue:
		text := strings.TrimSpace(string(raw))
		n, ok := convert.ToUint64(json.Number(text))
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an unsigned 64-bit integer", ErrInvalidValue, text)
		}
		return Integer(n), nil
	case jsoniter.NilValue:
		return nil, fmt.Errorf("%w: native null", ErrWrongInputType)
	case jsoniter.ArrayValue:
		return nil, fmt.Errorf("%w: native array", ErrWrongInputType)
	case jsoniter.ObjectValue:
		return nil, fmt.Errorf("%w: native object", ErrWrongInputType)
	}
	return nil, fmt.Errorf("%w: unrecognized native value", ErrWrongInputType)
}

// AsBool unwraps a Bool.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, wrongKind(KindBool, v)
	}
	return bool(b), nil
}

// AsInteger unwraps an Integer.
func AsInteger(v Value) (uint64, error) {
	i, ok := v.(Integer)
	if !ok {
		return 0, wrongKind(KindInteger, v)
	}
	return uint64(i), nil
}

// AsUint64 is AsInteger.
func AsUint64(v Value) (uint64, error) {
	return AsInteger(v)
}

// AsString unwraps a String.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", wrongKind(KindString, v)
	}
	return string(s), nil
}

func wrongKind(want Kind, got Value) error {
	if got == nil {
		return fmt.Errorf("%w: want %s, got nil", ErrWrongInputType, want)
	}
	return fmt.Errorf("%w: want %s, got %s", ErrWrongInputType, want, got.Kind())
}

// ValueOf wraps a Go primitive as a Value.
//
// Accepts bool, string, every integer type and existing Values. Negative
// integers fail with ErrInvalidValue; any other type fails with
// ErrWrongInputType.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, ok := convert.ToUint64(x)
		if !ok {
			return nil, fmt.Errorf("%w: %v is negative", ErrInvalidValue, x)
		}
		return Integer(n), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrWrongInputType, x)
}

// ToNamedProperty converts p for the engine, validating its name. A String
// that is not valid UTF-8 fails with ErrInvalidValue, since JSON cannot carry
// it unchanged.
func ToNamedProperty(p Property) (storage.NamedProperty, error) {
	name, err := storage.NewIdentifier(p.Name)
	if err != nil {
		return storage.NamedProperty{}, fmt.Errorf("property name: %w", err)
	}
	if p.Value == nil {
		return storage.NamedProperty{}, fmt.Errorf("%w: property %q has no value", ErrWrongInputType, p.Name)
	}
	if str, ok := p.Value.(String); ok && !utf8.ValidString(string(str)) {
		return storage.NamedProperty{}, fmt.Errorf("%w: property %q is not valid UTF-8", ErrInvalidValue, p.Name)
	}
	return storage.NamedProperty{Name: name, Value: ToNative(p.Value)}, nil
}

// FromNamedProperty converts an engine property into a Property.
func FromNamedProperty(np storage.NamedProperty) (Property, error) {
	if np.Name.IsZero() {
		return Property{}, fmt.Errorf("%w: property without a name", ErrInvalidIdentifier)
	}
	v, err := FromNative(np.Value)
	if err != nil {
		return Property{}, fmt.Errorf("property %q: %w", np.Name, err)
	}
	return Property{Name: np.Name.String(), Value: v}, nil
}
