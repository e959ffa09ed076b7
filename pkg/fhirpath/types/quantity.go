package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/octoshikari/aether-fhirpath/pkg/ucum"
)

// Quantity is the FHIRPath quantity primitive: a decimal magnitude
// paired with a unit string, compared and combined using UCUM
// normalization when the two sides don't share a unit verbatim.
type Quantity struct {
	value decimal.Decimal
	unit  string
}

// equivalenceTolerance bounds the relative difference UCUM-normalized
// magnitudes may have and still count as Equivalent, absorbing the
// float64 round trip Normalize does internally.
const equivalenceTolerance = 1e-10

// quantityPattern parses a magnitude followed by an optional quoted or
// bare unit, e.g. `5.4 mg` or `10 'kg'`.
var quantityPattern = regexp.MustCompile(`^([+-]?\d+\.?\d*)\s*(?:'([^']+)'|(\S+))?$`)

// NewQuantity parses s into a Quantity.
func NewQuantity(s string) (Quantity, error) {
	matches := quantityPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return Quantity{}, fmt.Errorf("invalid quantity format: %s", s)
	}

	val, err := decimal.NewFromString(matches[1])
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity value: %s", matches[1])
	}

	unit := matches[2] // quoted unit, e.g. 'kg'
	if unit == "" {
		unit = matches[3] // bare unit, e.g. mg
	}

	return Quantity{value: val, unit: unit}, nil
}

// NewQuantityFromDecimal builds a Quantity directly from a magnitude
// and unit, skipping string parsing.
func NewQuantityFromDecimal(value decimal.Decimal, unit string) Quantity {
	return Quantity{value: value, unit: unit}
}

// Type reports the FHIRPath type name "Quantity".
func (q Quantity) Type() string {
	return "Quantity"
}

// IsEmpty is always false.
func (q Quantity) IsEmpty() bool {
	return false
}

// Value exposes the numeric magnitude.
func (q Quantity) Value() decimal.Decimal {
	return q.value
}

// Unit exposes the unit string, empty for a unitless quantity.
func (q Quantity) Unit() string {
	return q.unit
}

// String renders "<value> <unit>", quoting the unit when it contains
// spaces, or just the value when there is no unit.
func (q Quantity) String() string {
	switch {
	case q.unit == "":
		return q.value.String()
	case strings.Contains(q.unit, " "):
		return fmt.Sprintf("%s '%s'", q.value.String(), q.unit)
	default:
		return fmt.Sprintf("%s %s", q.value.String(), q.unit)
	}
}

// Normalize converts q to UCUM canonical form, the common ground Equal/
// Equivalent/Compare fall back to when the two operands' unit strings
// don't match directly.
func (q Quantity) Normalize() ucum.NormalizedQuantity {
	val, _ := q.value.Float64()
	return ucum.Normalize(val, q.unit)
}

// Equal holds when the units match verbatim (or either is absent) and
// the magnitudes match exactly, or — for differing units — when their
// UCUM-normalized forms share a canonical code and an exactly equal
// normalized magnitude.
func (q Quantity) Equal(other Value) bool {
	o, ok := other.(Quantity)
	if !ok {
		return false
	}
	if q.unit == o.unit || q.unit == "" || o.unit == "" {
		return q.value.Equal(o.value)
	}

	norm1, norm2 := q.Normalize(), o.Normalize()
	if norm1.Code != norm2.Code {
		return false
	}
	return decimal.NewFromFloat(norm1.Value).Equal(decimal.NewFromFloat(norm2.Value))
}

// Equivalent relaxes Equal in two ways: unit comparison is
// case-insensitive, and differing-unit magnitudes are compared with
// equivalenceTolerance rather than requiring exact equality, to absorb
// the float64 round trip UCUM normalization goes through.
func (q Quantity) Equivalent(other Value) bool {
	o, ok := other.(Quantity)
	if !ok {
		return false
	}
	if q.unit == "" || o.unit == "" {
		return q.value.Equal(o.value)
	}
	if strings.EqualFold(q.unit, o.unit) {
		return q.value.Equal(o.value)
	}

	norm1, norm2 := q.Normalize(), o.Normalize()
	if norm1.Code != norm2.Code {
		return false
	}

	diff := norm1.Value - norm2.Value
	if diff < 0 {
		diff = -diff
	}
	maxVal := norm1.Value
	if norm2.Value > maxVal {
		maxVal = norm2.Value
	}
	if maxVal == 0 {
		return diff == 0
	}
	return diff/maxVal < equivalenceTolerance
}

// Compare orders q against other, normalizing through UCUM when the
// two units differ and are both present; an incompatible or
// non-Quantity other is an error rather than an arbitrary ordering.
func (q Quantity) Compare(other Value) (int, error) {
	o, ok := other.(Quantity)
	if !ok {
		return 0, fmt.Errorf("cannot compare Quantity with %s", other.Type())
	}
	if q.unit == o.unit || q.unit == "" || o.unit == "" {
		return q.value.Cmp(o.value), nil
	}

	norm1, norm2 := q.Normalize(), o.Normalize()
	if norm1.Code != norm2.Code {
		return 0, fmt.Errorf("incompatible units: %s and %s", q.unit, o.unit)
	}
	return decimal.NewFromFloat(norm1.Value).Cmp(decimal.NewFromFloat(norm2.Value)), nil
}

// resultUnit picks the unit an arithmetic result should carry: either
// operand's unit when the other is absent, the shared unit when equal,
// or an error when both are present and differ.
func resultUnit(a, b string) (string, error) {
	if a != b && a != "" && b != "" {
		return "", fmt.Errorf("incompatible units: %s and %s", a, b)
	}
	if a != "" {
		return a, nil
	}
	return b, nil
}

// Add sums two quantities; the operands must share a unit or one must
// be unitless.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	unit, err := resultUnit(q.unit, other.unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: q.value.Add(other.value), unit: unit}, nil
}

// Subtract takes the difference of two quantities, under the same
// unit constraint as Add.
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	unit, err := resultUnit(q.unit, other.unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: q.value.Sub(other.value), unit: unit}, nil
}

// Multiply scales the quantity by a dimensionless factor, keeping its
// unit.
func (q Quantity) Multiply(factor decimal.Decimal) Quantity {
	return Quantity{value: q.value.Mul(factor), unit: q.unit}
}

// Divide scales the quantity by a dimensionless divisor, keeping its
// unit.
func (q Quantity) Divide(divisor decimal.Decimal) (Quantity, error) {
	if divisor.IsZero() {
		return Quantity{}, fmt.Errorf("division by zero")
	}
	return Quantity{value: q.value.Div(divisor), unit: q.unit}, nil
}
