// Package convert provides the numeric narrowing used where graph
// property values cross a type boundary.
//
// Property values arrive from several places: JSON text decoded by the
// conversion layer, int64 columns handed back by the Neo4j driver, and plain
// Go values supplied by callers. Each of them ends up as an unsigned 64-bit
// integer, and every path must agree on what "fits" means. The helpers here
// are that single definition.
//
// All functions return a success boolean instead of an error so callers can
// attach their own error kind.
//
// Example:
//
//	if n, ok := convert.ToUint64(json.Number("42")); ok {
//		// n == 42
//	}
//
//	_, ok := convert.ToUint64(-1)   // ok == false, negative
//	_, ok = convert.ToUint64(1.5)   // ok == false, fractional
package convert

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxExactFloat is the largest float64 below 2^64. Every float64 in
// [0, maxExactFloat] with no fractional part converts to uint64 exactly.
const maxExactFloat = float64(1<<64 - 1<<11)

// ToUint64 narrows v to an unsigned 64-bit integer.
// Returns (value, true) on success, (0, false) when v is not numeric or does
// not fit.
//
// Narrowing is strict:
//   - signed integers must be >= 0
//   - floats must be whole and within [0, 2^64)
//   - strings and json.Number must spell a base-10 unsigned integer; an
//     exponent or fraction is accepted only if the value is still whole
//     ("1e3" is 1000, "1.5" fails); text is parsed exactly, never through
//     float64, and "-0" is zero like "-0.0"
//
// Example:
//
//	ToUint64(uint64(7))                     // (7, true)
//	ToUint64(int64(-7))                     // (0, false)
//	ToUint64("18446744073709551615")        // (math.MaxUint64, true)
//	ToUint64("18446744073709551616")        // (0, false) overflow
//	ToUint64(true)                          // (0, false)
func ToUint64(v any) (uint64, bool) {
	switch val := v.(type) {
	case uint64:
		return val, true
	case uint:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case uint16:
		return uint64(val), true
	case uint8:
		return uint64(val), true
	case int:
		return fromSigned(int64(val))
	case int64:
		return fromSigned(val)
	case int32:
		return fromSigned(int64(val))
	case int16:
		return fromSigned(int64(val))
	case int8:
		return fromSigned(int64(val))
	case float64:
		return fromFloat(val)
	case float32:
		return fromFloat(float64(val))
	case json.Number:
		return parseUnsigned(string(val))
	case string:
		return parseUnsigned(val)
	}
	return 0, false
}

// ToInt64 converts integer types to int64.
// Unsigned values above math.MaxInt64 fail instead of wrapping.
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int16:
		return int64(val), true
	case int8:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint8:
		return int64(val), true
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func fromSigned(i int64) (uint64, bool) {
	if i < 0 {
		return 0, false
	}
	return uint64(i), true
}

func fromFloat(f float64) (uint64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 || f > maxExactFloat || f != math.Trunc(f) {
		return 0, false
	}
	return uint64(f), true
}

// parseUnsigned parses number text exactly. Fraction and exponent forms
// are accepted only when the value they spell is a whole number in
// [0, 2^64); zero is accepted with either sign.
func parseUnsigned(s string) (uint64, bool) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, true
	}

	digits, exp, negative, ok := splitDecimal(s)
	if !ok {
		return 0, false
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, true
	}
	if negative {
		return 0, false
	}

	switch {
	case exp < 0:
		if -exp > len(digits) {
			return 0, false
		}
		cut := len(digits) + exp
		if strings.TrimLeft(digits[cut:], "0") != "" {
			return 0, false
		}
		digits = digits[:cut]
	case exp > 0:
		if len(digits)+exp > maxUint64Digits {
			return 0, false
		}
		digits += strings.Repeat("0", exp)
	}

	u, err := strconv.ParseUint(digits, 10, 64)
	return u, err == nil
}

// maxUint64Digits is the number of decimal digits in math.MaxUint64.
const maxUint64Digits = 20

// exponentLimit bounds exponents that do not fit an int. Any exponent this
// large already overflows or leaves a fraction.
const exponentLimit = 1 << 20

// splitDecimal splits JSON number text into its significant digits and the
// power of ten they are scaled by: s == sign * digits * 10^exp.
func splitDecimal(s string) (digits string, exp int, negative bool, ok bool) {
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	intPart, rest := leadingDigits(s)
	if intPart == "" {
		return "", 0, false, false
	}

	var frac string
	if strings.HasPrefix(rest, ".") {
		frac, rest = leadingDigits(rest[1:])
		if frac == "" {
			return "", 0, false, false
		}
	}

	if rest != "" {
		if rest[0] != 'e' && rest[0] != 'E' {
			return "", 0, false, false
		}
		rest = rest[1:]
		sign := ""
		if rest != "" && (rest[0] == '+' || rest[0] == '-') {
			sign, rest = rest[:1], rest[1:]
		}
		expDigits, tail := leadingDigits(rest)
		if expDigits == "" || tail != "" {
			return "", 0, false, false
		}
		e, err := strconv.Atoi(sign + expDigits)
		if err != nil {
			// Out of int range.
			e = exponentLimit
			if sign == "-" {
				e = -exponentLimit
			}
		}
		exp = max(min(e, exponentLimit), -exponentLimit)
	}

	return intPart + frac, exp - len(frac), negative, true
}

// leadingDigits splits s after its run of leading ASCII digits.
func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
