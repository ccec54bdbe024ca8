package models

import (
	"fmt"
	"math"
)

// Datatype names the value type of a measure or location identifier.
// Only the four listed values are valid; everything else is rejected at
// insert time.
type Datatype string

const (
	DatatypeString  Datatype = "string"
	DatatypeInteger Datatype = "integer"
	DatatypeFloat   Datatype = "float"
	DatatypeBoolean Datatype = "boolean"
)

// ValidDatatype reports whether s is one of the recognised datatype names.
func ValidDatatype(s string) bool {
	switch Datatype(s) {
	case DatatypeString, DatatypeInteger, DatatypeFloat, DatatypeBoolean:
		return true
	}
	return false
}

// CheckValue verifies that a decoded JSON value matches the declared
// datatype. JSON numbers decode as float64, so integers are accepted as
// whole-number floats.
func (d Datatype) CheckValue(v interface{}) error {
	switch d {
	case DatatypeString:
		if _, ok := v.(string); ok {
			return nil
		}
	case DatatypeInteger:
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			return nil
		}
	case DatatypeFloat:
		if _, ok := v.(float64); ok {
			return nil
		}
	case DatatypeBoolean:
		if _, ok := v.(bool); ok {
			return nil
		}
	default:
		return fmt.Errorf("unrecognised datatype: %s", d)
	}
	return fmt.Errorf("expected a %s value, got %T", d, v)
}
