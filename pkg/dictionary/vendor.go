package dictionary

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Well-known private enterprise numbers with special handling
const (
	VendorUSR       = 429
	VendorLucent    = 4846
	VendorStarent   = 8164
	VendorWiMAX     = 24757
	VendorFreeDHCP  = 34673
	VendorDHCPMagic = 54
)

// Vendor describes a private enterprise and the layout of its sub-attributes
type Vendor struct {
	Name   string `yaml:"name" json:"name" cbor:"1,keyasint"`
	Number uint32 `yaml:"id" json:"id" cbor:"2,keyasint"`

	// TypeSize is the width in octets of the sub-attribute type field (1, 2 or 4)
	TypeSize uint8 `yaml:"type_size,omitempty" json:"type_size,omitempty" cbor:"3,keyasint"`

	// Length is the width in octets of the sub-attribute length field (0, 1 or 2)
	Length uint8 `yaml:"length_size,omitempty" json:"length_size,omitempty" cbor:"4,keyasint"`

	// Continuation marks the WiMAX continuation byte after the length field
	Continuation bool `yaml:"continuation,omitempty" json:"continuation,omitempty" cbor:"5,keyasint,omitempty"`
}

// defaultFormat returns the layout used when a VENDOR line has no format=
func defaultFormat(pen uint32) (typeSize, length uint8) {
	switch pen {
	case VendorUSR:
		return 4, 0
	case VendorLucent:
		return 2, 1
	case VendorStarent:
		return 2, 2
	default:
		return 1, 1
	}
}

// ParseVendorFormat parses a "format=T,L[,c]" option for the given vendor
func ParseVendorFormat(format string, pen uint32) (typeSize, length uint8, continuation bool, err error) {
	if len(format) < 7 || !strings.EqualFold(format[:7], "format=") {
		return 0, 0, false, fmt.Errorf("%w: invalid format for VENDOR, expected 'format=', got '%s'", ErrSyntax, format)
	}

	parts := strings.Split(format[7:], ",")
	if len(parts) < 2 || len(parts) > 3 || len(parts[0]) != 1 || len(parts[1]) != 1 {
		return 0, 0, false, fmt.Errorf("%w: syntax error in VENDOR format %s", ErrSyntax, format)
	}

	t, _ := strconv.Atoi(parts[0])
	l, lerr := strconv.Atoi(parts[1])

	if t != 1 && t != 2 && t != 4 {
		return 0, 0, false, fmt.Errorf("%w: invalid type value %s for VENDOR", ErrSyntax, parts[0])
	}
	if lerr != nil || l < 0 || l > 2 {
		return 0, 0, false, fmt.Errorf("%w: invalid length value %s for VENDOR", ErrSyntax, parts[1])
	}

	if len(parts) == 3 {
		// Only WiMAX uses the continuation byte
		if parts[2] != "c" || pen != VendorWiMAX || t != 1 || l != 1 {
			return 0, 0, false, fmt.Errorf("%w: only WiMAX VSAs can have continuations", ErrSyntax)
		}
		continuation = true
	}

	return uint8(t), uint8(l), continuation, nil
}

// AddVendor registers a vendor with the default 1,1 layout.
// Re-adding a name with the same number is a no-op.
func (d *Dictionary) AddVendor(name string, pen uint32) error {
	if len(name) >= MaxNameLength {
		return fmt.Errorf("%w: vendor name too long", ErrInvalidName)
	}

	key := strings.ToLower(name)
	if old, ok := d.vendorsByName[key]; ok {
		if old.Number != pen {
			return fmt.Errorf("%w: duplicate vendor name %s", ErrDuplicate, name)
		}
		return nil
	}

	v := &Vendor{
		Name:     name,
		Number:   pen,
		TypeSize: 1,
		Length:   1,
	}

	d.vendorsByName[key] = v

	// The newest name wins when printing by number
	d.vendorsByNumber[pen] = v

	return nil
}

// SetVendorFormat changes the sub-attribute layout of a registered vendor
func (d *Dictionary) SetVendorFormat(pen uint32, typeSize, length uint8, continuation bool) error {
	v, ok := d.vendorsByNumber[pen]
	if !ok {
		return fmt.Errorf("%w: failed adding format for VENDOR %d", ErrUnknownVendor, pen)
	}

	v.TypeSize = typeSize
	v.Length = length
	v.Continuation = continuation

	return nil
}

// VendorByName returns the named vendor, case-insensitively
func (d *Dictionary) VendorByName(name string) (*Vendor, bool) {
	v, ok := d.vendorsByName[strings.ToLower(name)]
	return v, ok
}

// VendorByNumber returns the vendor registered for a PEN
func (d *Dictionary) VendorByNumber(pen uint32) (*Vendor, bool) {
	v, ok := d.vendorsByNumber[pen]
	return v, ok
}

// Vendors returns every vendor known by number
func (d *Dictionary) Vendors() []*Vendor {
	out := make([]*Vendor, 0, len(d.vendorsByNumber))
	for _, v := range d.vendorsByNumber {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}
