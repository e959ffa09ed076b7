package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// ObjectValue represents a FHIR resource or complex type, backed
// directly by its source JSON bytes rather than an unmarshaled Go
// struct; field access parses lazily through jsonparser and caches the
// result.
type ObjectValue struct {
	data   []byte
	fields map[string]Value
}

// NewObjectValue wraps raw JSON object bytes as an ObjectValue.
func NewObjectValue(data []byte) *ObjectValue {
	return &ObjectValue{data: data, fields: make(map[string]Value)}
}

// FHIR complex-type names used by structural type inference below.
const (
	typeQuantity        = "Quantity"
	typeCoding          = "Coding"
	typeCodeableConcept = "CodeableConcept"
	typeReference       = "Reference"
	typePeriod          = "Period"
	typeIdentifier      = "Identifier"
	typeRange           = "Range"
	typeRatio           = "Ratio"
	typeAttachment      = "Attachment"
	typeHumanName       = "HumanName"
	typeAddress         = "Address"
	typeContactPoint    = "ContactPoint"
	typeAnnotation      = "Annotation"
	typeObject          = "Object"
)

// structuralTypeRule is one entry in the type-inference table: a name
// and a predicate over the object's fields. Rules are tried in order,
// since a looser rule (e.g. "has low or high" for Range) must not
// shadow a more specific one checked earlier.
type structuralTypeRule struct {
	name    string
	matches func(*ObjectValue) bool
}

// structuralTypeRules infers a FHIR complex-type name from an object's
// field shape when it carries no explicit "resourceType". Order
// matters: Quantity and Coding are checked before the broader
// CodeableConcept/Reference/etc. rules that follow.
var structuralTypeRules = []structuralTypeRule{
	{typeQuantity, func(o *ObjectValue) bool {
		return o.hasField("value") && (o.hasField("unit") || o.hasField("code") || o.hasField("system"))
	}},
	{typeCoding, func(o *ObjectValue) bool {
		return o.hasField("system") && o.hasField("code") && !o.hasField("value")
	}},
	{typeCodeableConcept, func(o *ObjectValue) bool { return o.hasArrayField("coding") }},
	{typeReference, func(o *ObjectValue) bool { return o.hasField("reference") }},
	{typePeriod, func(o *ObjectValue) bool { return o.hasField("start") || o.hasField("end") }},
	{typeIdentifier, func(o *ObjectValue) bool { return o.hasField("system") && o.hasStringField("value") }},
	{typeRange, func(o *ObjectValue) bool { return o.hasField("low") || o.hasField("high") }},
	{typeRatio, func(o *ObjectValue) bool { return o.hasField("numerator") || o.hasField("denominator") }},
	{typeAttachment, func(o *ObjectValue) bool { return o.hasField("contentType") }},
	{typeHumanName, func(o *ObjectValue) bool { return o.hasField("family") || o.hasArrayField("given") }},
	{typeAddress, func(o *ObjectValue) bool { return o.hasField("city") || o.hasField("postalCode") }},
	{typeContactPoint, func(o *ObjectValue) bool { return o.hasField("system") && o.hasField("use") }},
	{typeAnnotation, func(o *ObjectValue) bool {
		return o.hasField("text") && (o.hasField("time") || o.hasField("authorReference") || o.hasField("authorString"))
	}},
}

// Type returns the object's "resourceType" if present, otherwise the
// best structural-inference match, otherwise the generic "Object".
func (o *ObjectValue) Type() string {
	if rt, err := jsonparser.GetString(o.data, "resourceType"); err == nil {
		return rt
	}
	for _, rule := range structuralTypeRules {
		if rule.matches(o) {
			return rule.name
		}
	}
	return typeObject
}

// hasField reports whether name exists in the object, regardless of
// its value type.
func (o *ObjectValue) hasField(name string) bool {
	//nolint:dogsled // jsonparser.Get returns 4 values, we only need the error
	_, _, _, err := jsonparser.Get(o.data, name)
	return err == nil
}

// hasStringField reports whether name exists and holds a JSON string.
func (o *ObjectValue) hasStringField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.String
}

// hasArrayField reports whether name exists and holds a JSON array.
func (o *ObjectValue) hasArrayField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.Array
}

// Equal holds when other wraps byte-identical JSON; two objects with
// the same logical content but different formatting compare unequal.
func (o *ObjectValue) Equal(other Value) bool {
	ov, ok := other.(*ObjectValue)
	return ok && bytes.Equal(o.data, ov.data)
}

// Equivalent has no separate notion of closeness for objects, so it
// collapses to Equal.
func (o *ObjectValue) Equivalent(other Value) bool {
	return o.Equal(other)
}

// String renders the object's raw JSON.
func (o *ObjectValue) String() string {
	return string(o.data)
}

// IsEmpty is always false.
func (o *ObjectValue) IsEmpty() bool {
	return false
}

// Data exposes the object's raw JSON bytes, e.g. for re-serializing a
// result without round-tripping through String().
func (o *ObjectValue) Data() []byte {
	return o.data
}

// Get looks up a single field, parsing and caching the conversion to a
// Value on first access.
func (o *ObjectValue) Get(field string) (Value, bool) {
	if v, ok := o.fields[field]; ok {
		return v, true
	}

	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return nil, false
	}

	v := jsonValueToFHIRValue(raw, dataType)
	o.fields[field] = v
	return v, true
}

// GetCollection looks up field as a Collection: an array field expands
// to its elements, a scalar field wraps into a singleton, and a
// missing field yields the empty collection.
func (o *ObjectValue) GetCollection(field string) Collection {
	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return Collection{}
	}
	if dataType == jsonparser.Array {
		return jsonArrayToCollection(raw)
	}
	v := jsonValueToFHIRValue(raw, dataType)
	if v == nil {
		return Collection{}
	}
	return Collection{v}
}

// Keys lists the object's top-level field names.
func (o *ObjectValue) Keys() []string {
	var keys []string
	//nolint:errcheck // ObjectEach only returns errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// Children flattens every top-level field's value into one Collection,
// expanding array fields in place.
func (o *ObjectValue) Children() Collection {
	var out Collection
	//nolint:errcheck // ObjectEach only returns errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(_ []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Array {
			out = append(out, jsonArrayToCollection(value)...)
			return nil
		}
		if v := jsonValueToFHIRValue(value, dataType); v != nil {
			out = append(out, v)
		}
		return nil
	})
	return out
}

// ToQuantity reads this object as a FHIR Quantity-shaped structure
// ("value" plus "unit" or "code"), succeeding only when "value" is
// present and numeric.
func (o *ObjectValue) ToQuantity() (Quantity, bool) {
	valueBytes, dataType, _, err := jsonparser.Get(o.data, "value")
	if err != nil || dataType != jsonparser.Number {
		return Quantity{}, false
	}
	val, err := decimal.NewFromString(string(valueBytes))
	if err != nil {
		return Quantity{}, false
	}

	unit := ""
	if unitBytes, _, _, err := jsonparser.Get(o.data, "unit"); err == nil {
		unit = string(unitBytes)
	} else if codeBytes, _, _, err := jsonparser.Get(o.data, "code"); err == nil {
		unit = string(codeBytes)
	}

	return NewQuantityFromDecimal(val, unit), true
}

// jsonValueToFHIRValue converts one jsonparser-scanned scalar into its
// FHIRPath Value; arrays are not handled here since they expand to
// multiple elements (see jsonArrayToCollection).
func jsonValueToFHIRValue(data []byte, dataType jsonparser.ValueType) Value {
	switch dataType {
	case jsonparser.String:
		var s string
		if err := json.Unmarshal(append([]byte{'"'}, append(data, '"')...), &s); err != nil {
			s = string(data)
		}
		return NewString(s)

	case jsonparser.Number:
		s := string(data)
		if !strings.ContainsAny(s, ".eE") {
			if i, err := jsonparser.ParseInt(data); err == nil {
				return NewInteger(i)
			}
		}
		d, err := NewDecimal(s)
		if err != nil {
			return nil
		}
		return d

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return NewBoolean(b)

	case jsonparser.Object:
		return NewObjectValue(data)

	default: // Array (handled by the caller), Null, NotExist, Unknown
		return nil
	}
}

// jsonArrayToCollection converts a JSON array's raw bytes into a
// Collection, dropping elements that don't convert (e.g. nulls).
func jsonArrayToCollection(data []byte) Collection {
	var out Collection
	//nolint:errcheck // ArrayEach only returns errors for non-arrays; data is already validated as array
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if v := jsonValueToFHIRValue(value, dataType); v != nil {
			out = append(out, v)
		}
	})
	return out
}

// JSONToCollection parses a top-level JSON document (object, array, or
// scalar) into a Collection.
func JSONToCollection(data []byte) (Collection, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}

	switch dataType {
	case jsonparser.Object:
		return Collection{NewObjectValue(value)}, nil
	case jsonparser.Array:
		return jsonArrayToCollection(value), nil
	case jsonparser.Null:
		return Collection{}, nil
	default:
		v := jsonValueToFHIRValue(value, dataType)
		if v == nil {
			return Collection{}, nil
		}
		return Collection{v}, nil
	}
}
