// Package types implements the FHIRPath value model: the primitive and
// compound types an expression operates over, and the Collection that
// wraps every intermediate and final result.
package types

// Value is satisfied by every FHIRPath scalar and object type:
// Boolean, String, Integer, Decimal, Date, Time, DateTime, Quantity,
// and ObjectValue.
type Value interface {
	// Type names the value's FHIRPath type, e.g. "Integer" or "Patient".
	Type() string

	// Equal implements the `=` operator: exact, type-sensitive equality.
	Equal(other Value) bool

	// Equivalent implements the `~` operator. String comparison is
	// case-insensitive and normalizes whitespace; for Integer and
	// Decimal, Equivalent is the same as Equal.
	Equivalent(other Value) bool

	// String renders the value as plain text: strings without quotes,
	// dates and times without the '@' prefix.
	String() string

	// IsEmpty reports whether this value stands in for the empty
	// collection rather than a real scalar.
	IsEmpty() bool
}

// Comparable is the subset of Value types that support `<`/`<=`/`>`/`>=`.
type Comparable interface {
	Value
	// Compare returns -1/0/1 for less-than/equal/greater-than, or an
	// error if other's type can't be ordered against this one.
	Compare(other Value) (int, error)
}

// Numeric is satisfied by Integer and Decimal, the two types that
// support a lossless widening conversion into Decimal for mixed-type
// arithmetic.
type Numeric interface {
	Value
	ToDecimal() Decimal
}
