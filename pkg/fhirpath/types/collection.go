package types

import (
	"fmt"
	"strings"
)

// Collection is the ordered sequence of Values every FHIRPath
// expression ultimately produces — a bare scalar result is still a
// one-element Collection, and "no result" is a zero-element one.
type Collection []Value

// Empty reports whether the collection has no elements.
func (c Collection) Empty() bool {
	return len(c) == 0
}

// Count reports the number of elements.
func (c Collection) Count() int {
	return len(c)
}

// String renders "[]" for empty, otherwise each element's String()
// joined by ", " inside brackets.
func (c Collection) String() string {
	if len(c) == 0 {
		return "[]"
	}
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// First returns the leading element, or (nil, false) when empty.
func (c Collection) First() (Value, bool) {
	if len(c) == 0 {
		return nil, false
	}
	return c[0], true
}

// Last returns the trailing element, or (nil, false) when empty.
func (c Collection) Last() (Value, bool) {
	if len(c) == 0 {
		return nil, false
	}
	return c[len(c)-1], true
}

// Single returns the sole element, erroring if the collection is
// empty or has more than one item.
func (c Collection) Single() (Value, error) {
	switch len(c) {
	case 0:
		return nil, fmt.Errorf("expected single value, got empty collection")
	case 1:
		return c[0], nil
	default:
		return nil, fmt.Errorf("expected single value, got %d elements", len(c))
	}
}

// Tail drops the first element; an empty or one-element collection
// yields an empty one.
func (c Collection) Tail() Collection {
	if len(c) <= 1 {
		return Collection{}
	}
	return c[1:]
}

// Skip drops the first n elements (n<=0 is a no-op, n>=len empties).
func (c Collection) Skip(n int) Collection {
	switch {
	case n >= len(c):
		return Collection{}
	case n <= 0:
		return c
	default:
		return c[n:]
	}
}

// Take keeps only the first n elements (n<=0 empties, n>=len is a
// no-op).
func (c Collection) Take(n int) Collection {
	switch {
	case n <= 0:
		return Collection{}
	case n >= len(c):
		return c
	default:
		return c[:n]
	}
}

// Contains reports whether any element is Equal to v.
func (c Collection) Contains(v Value) bool {
	for _, item := range c {
		if item.Equal(v) {
			return true
		}
	}
	return false
}

// Distinct removes duplicate elements, keeping the first occurrence of
// each in its original position.
func (c Collection) Distinct() Collection {
	if len(c) <= 1 {
		return c
	}
	out := make(Collection, 0, len(c))
	for _, item := range c {
		if !out.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// IsDistinct reports whether every element is already unique.
func (c Collection) IsDistinct() bool {
	return len(c) == len(c.Distinct())
}

// Union appends other's elements that aren't already present,
// deduplicating the combined result.
func (c Collection) Union(other Collection) Collection {
	out := make(Collection, 0, len(c)+len(other))
	out = append(out, c...)
	for _, item := range other {
		if !out.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// Combine concatenates c and other verbatim, duplicates and all —
// unlike Union.
func (c Collection) Combine(other Collection) Collection {
	out := make(Collection, 0, len(c)+len(other))
	out = append(out, c...)
	out = append(out, other...)
	return out
}

// Intersect returns the elements of c that also appear in other, each
// at most once.
func (c Collection) Intersect(other Collection) Collection {
	out := make(Collection, 0)
	for _, item := range c {
		if other.Contains(item) && !out.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// Exclude returns the elements of c that do not appear in other.
func (c Collection) Exclude(other Collection) Collection {
	out := make(Collection, 0)
	for _, item := range c {
		if !other.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// ToBoolean narrows a singleton Boolean collection to a plain bool;
// any other shape or element type is an error.
func (c Collection) ToBoolean() (bool, error) {
	if len(c) == 0 {
		return false, fmt.Errorf("cannot convert empty collection to boolean")
	}
	if len(c) > 1 {
		return false, fmt.Errorf("cannot convert collection with %d elements to boolean", len(c))
	}
	b, ok := c[0].(Boolean)
	if !ok {
		return false, fmt.Errorf("cannot convert %s to boolean", c[0].Type())
	}
	return b.Bool(), nil
}

// AllTrue reports whether every element is the Boolean true (including
// the vacuous case of an empty collection).
func (c Collection) AllTrue() bool {
	for _, item := range c {
		if b, ok := item.(Boolean); !ok || !b.Bool() {
			return false
		}
	}
	return true
}

// AnyTrue reports whether at least one element is the Boolean true.
func (c Collection) AnyTrue() bool {
	for _, item := range c {
		if b, ok := item.(Boolean); ok && b.Bool() {
			return true
		}
	}
	return false
}

// AllFalse reports whether every element is the Boolean false
// (including the vacuous case of an empty collection).
func (c Collection) AllFalse() bool {
	for _, item := range c {
		if b, ok := item.(Boolean); !ok || b.Bool() {
			return false
		}
	}
	return true
}

// AnyFalse reports whether at least one element is the Boolean false.
func (c Collection) AnyFalse() bool {
	for _, item := range c {
		if b, ok := item.(Boolean); ok && !b.Bool() {
			return true
		}
	}
	return false
}
