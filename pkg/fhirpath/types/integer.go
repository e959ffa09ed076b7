package types

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Integer is the FHIRPath integer primitive, backed by a Go int64.
type Integer struct {
	value int64
}

// NewInteger wraps a Go int64 as an Integer value.
func NewInteger(v int64) Integer {
	return Integer{value: v}
}

// Value unwraps the underlying int64.
func (i Integer) Value() int64 {
	return i.value
}

// Type reports the FHIRPath type name "Integer".
func (i Integer) Type() string {
	return "Integer"
}

// IsEmpty is always false.
func (i Integer) IsEmpty() bool {
	return false
}

// String renders the plain decimal digits, no thousands separators or
// leading zeros.
func (i Integer) String() string {
	return strconv.FormatInt(i.value, 10)
}

// ToDecimal widens the integer to an exact Decimal, used for any mixed
// Integer/Decimal arithmetic or comparison.
func (i Integer) ToDecimal() Decimal {
	return Decimal{value: decimal.NewFromInt(i.value)}
}

// Equal holds for an Integer with the same value, or a Decimal whose
// widened value matches exactly.
func (i Integer) Equal(other Value) bool {
	switch o := other.(type) {
	case Integer:
		return i.value == o.value
	case Decimal:
		return i.ToDecimal().Equal(o)
	default:
		return false
	}
}

// Equivalent has no looser notion of closeness for integers than Equal.
func (i Integer) Equivalent(other Value) bool {
	return i.Equal(other)
}

// Compare orders against another Integer or a Decimal (via widening);
// any other type is a TypeError.
func (i Integer) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Integer:
		switch {
		case i.value < o.value:
			return -1, nil
		case i.value > o.value:
			return 1, nil
		default:
			return 0, nil
		}
	case Decimal:
		return i.ToDecimal().Compare(o)
	default:
		return 0, NewTypeError("Integer", other.Type(), "comparison")
	}
}

// Add returns i + other.
func (i Integer) Add(other Integer) Integer {
	return NewInteger(i.value + other.value)
}

// Subtract returns i - other.
func (i Integer) Subtract(other Integer) Integer {
	return NewInteger(i.value - other.value)
}

// Multiply returns i * other.
func (i Integer) Multiply(other Integer) Integer {
	return NewInteger(i.value * other.value)
}

// Negate returns -i.
func (i Integer) Negate() Integer {
	return NewInteger(-i.value)
}

// Abs returns the non-negative magnitude of i.
func (i Integer) Abs() Integer {
	if i.value < 0 {
		return NewInteger(-i.value)
	}
	return i
}

// Divide implements FHIRPath `/`, which always produces a Decimal even
// for two integers that divide evenly.
func (i Integer) Divide(other Integer) (Decimal, error) {
	if other.value == 0 {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return i.ToDecimal().Divide(other.ToDecimal())
}

// Div implements FHIRPath `div`, truncating integer division.
func (i Integer) Div(other Integer) (Integer, error) {
	if other.value == 0 {
		return Integer{}, fmt.Errorf("division by zero")
	}
	return NewInteger(i.value / other.value), nil
}

// Mod implements FHIRPath `mod`.
func (i Integer) Mod(other Integer) (Integer, error) {
	if other.value == 0 {
		return Integer{}, fmt.Errorf("division by zero")
	}
	return NewInteger(i.value % other.value), nil
}

// Power raises i to exp, widening to Decimal since the result may not
// fit (or divide evenly) in an int64.
func (i Integer) Power(exp Integer) Decimal {
	return i.ToDecimal().Power(exp.ToDecimal())
}

// Sqrt returns the square root as a Decimal; negative input is an error
// since FHIRPath has no complex number type.
func (i Integer) Sqrt() (Decimal, error) {
	if i.value < 0 {
		return Decimal{}, fmt.Errorf("cannot take square root of negative number")
	}
	return NewDecimalFromFloat(math.Sqrt(float64(i.value))), nil
}
