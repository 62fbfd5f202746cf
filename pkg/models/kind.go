// Package models defines the core data types shared by graphs, documents and stored workflows.
package models

import (
	"fmt"
	"slices"
)

// DataKind is the data-kind tag carried by every pin.
type DataKind string

const (
	KindInt     DataKind = "int"
	KindString  DataKind = "str"
	KindBool    DataKind = "bool"
	KindFloat   DataKind = "float"
	KindGate    DataKind = "logic"
	KindDynamic DataKind = "none" // Concrete kind is chosen per pin instance
	KindImage   DataKind = "img"
)

// DynamicChoices lists the kinds a dynamic pin may resolve to.
var DynamicChoices = []DataKind{KindInt, KindString, KindBool, KindFloat}

// ParseDataKind converts a wire name into a DataKind.
func ParseDataKind(s string) (DataKind, error) {
	kind := DataKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown data kind '%s'", s)
	}

	return kind, nil
}

func (k DataKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k DataKind) Valid() bool {
	switch k {
	case KindInt, KindString, KindBool, KindFloat, KindGate, KindDynamic, KindImage:
		return true
	default:
		return false
	}
}

// Scalar reports whether values of this kind can be typed as literal text.
func (k DataKind) Scalar() bool {
	return slices.Contains(DynamicChoices, k)
}

// IsDynamicChoice reports whether a dynamic pin may resolve to k.
func IsDynamicChoice(k DataKind) bool {
	return slices.Contains(DynamicChoices, k)
}
