package eval

import "strings"

// nonDomainResources holds the FHIR resources that inherit directly from
// Resource rather than DomainResource. Every other resource type is
// treated as a DomainResource.
var nonDomainResources = map[string]bool{
	"Bundle":     true,
	"Binary":     true,
	"Parameters": true,
}

// IsDomainResource reports whether resourceType inherits from
// DomainResource.
func IsDomainResource(resourceType string) bool {
	return !nonDomainResources[resourceType]
}

// IsSubtypeOf reports whether actualType is baseType or a descendant of it
// in the FHIR Resource/DomainResource hierarchy.
func IsSubtypeOf(actualType, baseType string) bool {
	if actualType == baseType {
		return true
	}
	if strings.EqualFold(actualType, baseType) {
		return true
	}
	if baseType == "Resource" || strings.EqualFold(baseType, "resource") {
		return isPossibleResourceType(actualType)
	}
	if baseType == "DomainResource" || strings.EqualFold(baseType, "domainresource") {
		return isPossibleResourceType(actualType) && IsDomainResource(actualType)
	}
	return false
}

var fhirPathPrimitiveNames = map[string]bool{
	"Boolean": true, "String": true, "Integer": true, "Decimal": true,
	"Date": true, "DateTime": true, "Time": true, "Quantity": true,
	"Object": true,
}

// isPossibleResourceType reports whether typeName looks like a FHIR
// resource type: PascalCase and not one of the FHIRPath primitive names.
func isPossibleResourceType(typeName string) bool {
	if typeName == "" {
		return false
	}
	if fhirPathPrimitiveNames[typeName] {
		return false
	}
	return typeName[0] >= 'A' && typeName[0] <= 'Z'
}

// fhirToFHIRPath maps FHIR's lowercase primitive and Quantity-subtype
// names to the PascalCase type names FHIRPath's type system uses.
var fhirToFHIRPath = map[string]string{
	"boolean":        "Boolean",
	"string":         "String",
	"integer":        "Integer",
	"decimal":        "Decimal",
	"date":           "Date",
	"datetime":       "DateTime",
	"time":           "Time",
	"instant":        "DateTime",
	"uri":            "String",
	"url":            "String",
	"canonical":      "String",
	"base64binary":   "String",
	"code":           "String",
	"id":             "String",
	"markdown":       "String",
	"oid":            "String",
	"uuid":           "String",
	"positiveint":    "Integer",
	"unsignedint":    "Integer",
	"integer64":      "Integer",
	"quantity":       "Quantity",
	"simplequantity": "Quantity",
	"age":            "Quantity",
	"count":          "Quantity",
	"distance":       "Quantity",
	"duration":       "Quantity",
	"money":          "Quantity",
}

// TypeMatches reports whether actualType (the runtime type tag of a
// value, as returned by Value.Type()) satisfies a requested type name,
// as used by is()/as()/ofType() and the `is`/`as` operators. It handles
// case-insensitive matching, the Resource/DomainResource hierarchy, FHIR
// primitive aliases, and the System./FHIR. namespace prefixes.
func TypeMatches(actualType, typeName string) bool {
	if actualType == typeName {
		return true
	}
	actualLower := strings.ToLower(actualType)
	typeNameLower := strings.ToLower(typeName)
	if actualLower == typeNameLower {
		return true
	}
	if IsSubtypeOf(actualType, typeName) {
		return true
	}
	if fhirPathType, ok := fhirToFHIRPath[typeNameLower]; ok {
		if actualType == fhirPathType {
			return true
		}
	}
	if fhirPathType, ok := fhirToFHIRPath[actualLower]; ok {
		if fhirPathType == typeName || strings.EqualFold(fhirPathType, typeName) {
			return true
		}
	}
	if strings.HasPrefix(typeNameLower, "system.") {
		systemType := typeName[len("System."):]
		if strings.EqualFold(actualType, systemType) {
			return true
		}
	}
	if strings.HasPrefix(typeNameLower, "fhir.") {
		fhirType := typeName[len("FHIR."):]
		if strings.EqualFold(actualType, fhirType) {
			return true
		}
	}
	return false
}

// polymorphicTypeSuffixes lists the FHIR type suffixes tried, in order,
// when resolving a `value[x]`-pattern element name like "value" against
// an object's actual fields ("valueQuantity", "valueString", ...).
var polymorphicTypeSuffixes = []string{
	"Boolean", "Integer", "Integer64", "Decimal", "String", "Code", "Id", "Uri", "Url", "Canonical",
	"Base64Binary", "Instant", "Date", "DateTime", "Time", "Oid", "Uuid", "Markdown", "PositiveInt", "UnsignedInt",
	"Quantity", "CodeableConcept", "Coding", "Range", "Period", "Ratio", "RatioRange",
	"Identifier", "Reference", "Attachment", "HumanName", "Address", "ContactPoint",
	"Timing", "Signature", "Annotation", "SampledData", "Age", "Distance", "Duration",
	"Count", "Money", "MoneyQuantity", "SimpleQuantity",
	"Meta", "Dosage", "ContactDetail", "Contributor", "DataRequirement", "Expression",
	"ParameterDefinition", "RelatedArtifact", "TriggerDefinition", "UsageContext",
}
