package types

import "strconv"

// Boolean is the FHIRPath primitive backing `true`/`false` literals and
// the result of every comparison and logical operator.
type Boolean struct {
	value bool
}

// NewBoolean wraps a Go bool as a Boolean value.
func NewBoolean(v bool) Boolean {
	return Boolean{value: v}
}

// Bool unwraps the underlying bool.
func (b Boolean) Bool() bool {
	return b.value
}

// Not returns the logical negation.
func (b Boolean) Not() Boolean {
	return NewBoolean(!b.value)
}

// Type reports the FHIRPath type name "Boolean".
func (b Boolean) Type() string {
	return "Boolean"
}

// IsEmpty is always false: a Boolean value, once constructed, is never
// the empty collection itself.
func (b Boolean) IsEmpty() bool {
	return false
}

// String renders "true" or "false".
func (b Boolean) String() string {
	return strconv.FormatBool(b.value)
}

// Equal holds for another Boolean carrying the same value; anything
// else compares unequal rather than attempting coercion.
func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && b.value == o.value
}

// Equivalent has no case-insensitivity or tolerance concept for a
// two-valued type, so it collapses to Equal.
func (b Boolean) Equivalent(other Value) bool {
	return b.Equal(other)
}
