package models

import "strings"

// Address groups the optional street/zip/city fields. An address with
// all three parts blank is "empty" and is stored as absent, never as an
// empty record.
type Address struct {
	Street  string
	ZipCode string
	City    string
}

// NewAddress trims the parts. Returns nil when every part is blank so
// callers persist absence instead of an empty address.
func NewAddress(street, zipCode, city string) *Address {
	a := Address{
		Street:  strings.TrimSpace(street),
		ZipCode: strings.TrimSpace(zipCode),
		City:    strings.TrimSpace(city),
	}
	if a.IsEmpty() {
		return nil
	}
	return &a
}

// IsEmpty reports whether all parts are blank.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.ZipCode == "" && a.City == ""
}

// Formatted renders "street, zip city" omitting absent parts.
func (a Address) Formatted() string {
	parts := make([]string, 0, 2)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if line := strings.TrimSpace(a.ZipCode + " " + a.City); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

func (a Address) String() string { return a.Formatted() }
