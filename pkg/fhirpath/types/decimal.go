package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TypeNameDecimal is the FHIRPath type name for decimal values.
const TypeNameDecimal = "Decimal"

// Decimal is the FHIRPath decimal primitive: arbitrary-precision,
// backed by shopspring/decimal rather than float64, so values like
// 0.1 + 0.2 compare and print exactly.
type Decimal struct {
	value decimal.Decimal
}

// NewDecimal parses s (e.g. "3.14") into a Decimal.
func NewDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal: %s", s)
	}
	return Decimal{value: d}, nil
}

// NewDecimalFromInt widens an int64 to an exact Decimal.
func NewDecimalFromInt(v int64) Decimal {
	return Decimal{value: decimal.NewFromInt(v)}
}

// NewDecimalFromFloat converts a float64, inheriting its binary
// rounding error — callers doing exact arithmetic should prefer
// NewDecimal on a literal string instead.
func NewDecimalFromFloat(v float64) Decimal {
	return Decimal{value: decimal.NewFromFloat(v)}
}

// MustDecimal parses s like NewDecimal but panics on a malformed
// literal; reserved for compile-time-constant test fixtures.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Value exposes the underlying shopspring/decimal.Decimal.
func (d Decimal) Value() decimal.Decimal {
	return d.value
}

// Type reports the FHIRPath type name "Decimal".
func (d Decimal) Type() string {
	return TypeNameDecimal
}

// IsEmpty is always false.
func (d Decimal) IsEmpty() bool {
	return false
}

// String renders the value's canonical decimal digits.
func (d Decimal) String() string {
	return d.value.String()
}

// ToDecimal satisfies Numeric by returning d unchanged.
func (d Decimal) ToDecimal() Decimal {
	return d
}

// IsInteger reports whether d has no fractional part.
func (d Decimal) IsInteger() bool {
	return d.value.Equal(d.value.Truncate(0))
}

// ToInteger narrows d to an Integer, succeeding only when IsInteger.
func (d Decimal) ToInteger() (Integer, bool) {
	if !d.IsInteger() {
		return Integer{}, false
	}
	return NewInteger(d.value.IntPart()), true
}

// Equal holds for numeric equality against another Decimal or an
// Integer widened to Decimal.
func (d Decimal) Equal(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return d.value.Equal(o.value)
	case Integer:
		return d.value.Equal(decimal.NewFromInt(o.value))
	default:
		return false
	}
}

// Equivalent has no separate tolerance rule for decimals, so it
// collapses to Equal.
func (d Decimal) Equivalent(other Value) bool {
	return d.Equal(other)
}

// Compare orders against another Decimal or an Integer (widened).
func (d Decimal) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Decimal:
		return d.value.Cmp(o.value), nil
	case Integer:
		return d.value.Cmp(decimal.NewFromInt(o.value)), nil
	default:
		return 0, NewTypeError(TypeNameDecimal, other.Type(), "comparison")
	}
}

// Add returns d + other.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value)}
}

// Subtract returns d - other.
func (d Decimal) Subtract(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value)}
}

// Multiply returns d * other.
func (d Decimal) Multiply(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value)}
}

// Divide returns d / other rounded to 16 decimal places; dividing by
// zero is an error rather than an infinity.
func (d Decimal) Divide(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return Decimal{value: d.value.DivRound(other.value, 16)}, nil
}

// Negate returns -d.
func (d Decimal) Negate() Decimal {
	return Decimal{value: d.value.Neg()}
}

// Abs returns the non-negative magnitude of d.
func (d Decimal) Abs() Decimal {
	return Decimal{value: d.value.Abs()}
}

// Ceiling returns the smallest Integer >= d.
func (d Decimal) Ceiling() Integer {
	return NewInteger(d.value.Ceil().IntPart())
}

// Floor returns the largest Integer <= d.
func (d Decimal) Floor() Integer {
	return NewInteger(d.value.Floor().IntPart())
}

// Truncate discards the fractional part.
func (d Decimal) Truncate() Integer {
	return NewInteger(d.value.Truncate(0).IntPart())
}

// Round rounds to precision fractional digits.
func (d Decimal) Round(precision int32) Decimal {
	return Decimal{value: d.value.Round(precision)}
}

// Power computes d**exp via float64, since shopspring/decimal has no
// native arbitrary-precision exponentiation for non-integer exponents.
func (d Decimal) Power(exp Decimal) Decimal {
	base, _ := d.value.Float64()
	exponent, _ := exp.value.Float64()
	return NewDecimalFromFloat(math.Pow(base, exponent))
}

// Sqrt returns the square root; a negative d is an error since
// FHIRPath has no complex number type.
func (d Decimal) Sqrt() (Decimal, error) {
	if d.value.IsNegative() {
		return Decimal{}, fmt.Errorf("cannot take square root of negative number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Sqrt(f)), nil
}

// Exp returns e raised to d.
func (d Decimal) Exp() Decimal {
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Exp(f))
}

// Ln returns the natural logarithm; d must be strictly positive.
func (d Decimal) Ln() (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Log(f)), nil
}

// Log returns the logarithm of d in the given base; both d and base
// must be strictly positive, and base cannot equal 1.
func (d Decimal) Log(base Decimal) (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	if !base.value.IsPositive() || base.value.Equal(decimal.NewFromInt(1)) {
		return Decimal{}, fmt.Errorf("invalid logarithm base")
	}
	f, _ := d.value.Float64()
	b, _ := base.value.Float64()
	return NewDecimalFromFloat(math.Log(f) / math.Log(b)), nil
}
