package dictionary

import (
	"fmt"
	"strconv"
	"strings"
)

// leadingUint parses the decimal digits at the start of s
func leadingUint(s string) (uint32, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}

	n, err := strconv.ParseUint(s[:i], 10, 32)
	if err != nil || n == 0 || n == 1<<32-1 {
		return 0, s, false
	}

	return uint32(n), s[i:], true
}

// CopyUnknown copies an unknown attribute together with every unknown
// ancestor, so the copy shares nothing with other unknown chains.
func CopyUnknown(a *Attribute) *Attribute {
	if a == nil {
		return nil
	}

	parent := a.Parent
	if parent != nil && parent.Flags.IsUnknown {
		parent = CopyUnknown(parent)
	}

	n := &Attribute{
		Name:   a.Name,
		Attr:   a.Attr,
		Vendor: a.Vendor,
		Type:   a.Type,
		Flags:  a.Flags,
		Parent: parent,
		Depth:  a.Depth,
	}
	n.Flags.IsUnknown = true

	return n
}

// UnknownVendor returns the vendor node for vendor below a VSA or EVS
// parent, synthesizing an unknown one if the dictionary has none.
func (d *Dictionary) UnknownVendor(parent *Attribute, vendor uint32) (*Attribute, error) {
	switch parent.Type {
	case TypeVSA, TypeEVS:
		if v, ok := parent.ChildByNumber(vendor); ok {
			return v, nil
		}

	case TypeVendor:
		if parent.Attr == vendor {
			return parent, nil
		}
		return nil, fmt.Errorf("%w: unknown vendor cannot be parented by another vendor", ErrUnknownVendor)

	default:
		return nil, fmt.Errorf("%w: unknown vendors can only be parented by 'vsa' or 'evs' attributes, not '%s'",
			ErrUnknownVendor, parent.Type)
	}

	return &Attribute{
		Name:   "unknown-vendor",
		Attr:   vendor,
		Type:   TypeVendor,
		Parent: parent,
		Depth:  parent.Depth + 1,
		Flags: Flags{
			IsUnknown: true,
			TypeSize:  1,
			Length:    1,
		},
	}, nil
}

// unknownFromFields initialises an unknown octets attribute below parent
func unknownFromFields(parent *Attribute, vendor, attr uint32) *Attribute {
	da := &Attribute{
		Attr:   attr,
		Vendor: vendor,
		Type:   TypeOctets,
		Parent: parent,
		Depth:  parent.Depth + 1,
		Flags: Flags{
			IsUnknown: true,
		},
	}
	da.Name = "Attr-" + PrintOID(nil, da)

	return da
}

// UnknownFromFields creates an unknown attribute for raw wire data. When
// vendor is set and parent is a VSA or EVS, the vendor node is looked up
// or synthesized.
func (d *Dictionary) UnknownFromFields(parent *Attribute, vendor, attr uint32) (*Attribute, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: nil parent", ErrNotFound)
	}

	if vendor != 0 && (parent.Type == TypeVSA || parent.Type == TypeEVS) {
		v, err := d.UnknownVendor(parent, vendor)
		if err != nil {
			return nil, err
		}
		parent = v
	} else if parent.Flags.IsUnknown {
		// Unknown chains are never shared
		parent = CopyUnknown(parent)
	}

	return unknownFromFields(parent, vendor, attr), nil
}

// UnknownFromOID creates an unknown attribute from a name of the form
// Attr-N, Attr-N.M..., Vendor-V-Attr-N or VendorName-Attr-N. As much of
// the path as possible is resolved through known attributes.
func (d *Dictionary) UnknownFromOID(parent *Attribute, name string) (*Attribute, error) {
	if parent == nil {
		parent = d.root
	}

	if i := ValidName(name); i >= 0 {
		return nil, fmt.Errorf("%w: invalid character %q in attribute name", ErrInvalidName, name[i])
	}

	if parent.Flags.IsUnknown {
		parent = CopyUnknown(parent)
	}

	var vendor uint32
	p := name

	// Pull off vendor prefix first
	if !hasPrefixFold(p, "Attr-") {
		if hasPrefixFold(p, "Vendor-") {
			num, rest, ok := leadingUint(p[7:])
			if !ok {
				return nil, fmt.Errorf("%w: invalid vendor value in attribute name '%s'", ErrInvalidOID, name)
			}
			vendor = num
			p = rest
		} else {
			vname, _, ok := strings.Cut(p, "-")
			if !ok {
				return nil, fmt.Errorf("%w: invalid vendor name in attribute name '%s'", ErrInvalidOID, name)
			}

			v, found := d.VendorByName(vname)
			if !found {
				return nil, fmt.Errorf("%w: unknown name '%s'", ErrUnknownVendor, name)
			}
			vendor = v.Number
			p = p[len(vname):]
		}

		// The vendor context was omitted, so it must be Vendor-Specific below the root
		if !parent.Flags.IsRoot {
			return nil, fmt.Errorf("%w: vendor specified without context, but parent is not root", ErrInvalidOID)
		}

		vsa, ok := parent.ChildByNumber(AttrVendorSpecific)
		if !ok {
			return nil, fmt.Errorf("%w: missing definition for Vendor-Specific (26)", ErrNotFound)
		}
		parent = vsa

		if !strings.HasPrefix(p, "-") {
			return nil, fmt.Errorf("%w: invalid text following vendor definition in attribute name '%s'", ErrInvalidOID, name)
		}
		p = p[1:]
	}

	if !hasPrefixFold(p, "Attr-") {
		return nil, fmt.Errorf("%w: unknown attribute '%s'", ErrInvalidOID, name)
	}

	attr, rest, ok := leadingUint(p[5:])
	if !ok {
		return nil, fmt.Errorf("%w: invalid value in attribute name '%s'", ErrInvalidOID, name)
	}
	p = rest

	if (vendor != 0 && p != "") || (vendor == 0 && p != "" && p[0] != '.') {
		return nil, fmt.Errorf("%w: invalid OID", ErrInvalidOID)
	}

	if strings.HasPrefix(p, ".") {
		child, ok := parent.ChildByNumber(attr)
		if !ok {
			return nil, fmt.Errorf("%w: cannot parse names without dictionaries", ErrNotFound)
		}

		if !child.Type.IsStructural() {
			return nil, fmt.Errorf("%w: standard attributes cannot use OIDs", ErrInvalidOID)
		}

		// Attr-26.<vendor>.<attr>
		if child.Type == TypeVSA || child.Type == TypeEVS {
			num, after, ok := leadingUint(p[1:])
			if !ok {
				return nil, fmt.Errorf("%w: invalid vendor", ErrInvalidOID)
			}
			if !strings.HasPrefix(after, ".") {
				return nil, fmt.Errorf("%w: invalid OID", ErrInvalidOID)
			}
			vendor = num
			p = after
			attr = 0
		}
		parent = child
	}

	if vendor != 0 {
		if _, known := d.VendorByNumber(vendor); known {
			if parent.Type != TypeVSA && parent.Type != TypeEVS {
				return nil, fmt.Errorf("%w: vendor specified, but current parent is not 'evs' or 'vsa'", ErrInvalidOID)
			}

			child, ok := parent.ChildByNumber(vendor)
			if !ok {
				return nil, fmt.Errorf("%w: missing vendor attr for %d", ErrNotFound, vendor)
			}
			parent = child
		} else {
			parent = &Attribute{
				Name:   fmt.Sprintf("Vendor-%d", vendor),
				Attr:   vendor,
				Type:   TypeVendor,
				Parent: parent,
				Depth:  parent.Depth + 1,
				Flags: Flags{
					IsUnknown: true,
					TypeSize:  1,
					Length:    1,
				},
			}
		}
	}

	if strings.HasPrefix(p, ".") {
		res, err := d.ByOID(parent, vendor, p[1:])
		if err != nil {
			return nil, err
		}
		parent, vendor, attr = res.Parent, res.Vendor, res.Attr
	}

	return unknownFromFields(parent, vendor, attr), nil
}

// UnknownFromSubOID parses an unknown attribute name at the start of s and
// returns the remainder of s.
func (d *Dictionary) UnknownFromSubOID(parent *Attribute, s string) (*Attribute, string, error) {
	end := 0
	for end < len(s) && ValidName(s[end:end+1]) < 0 {
		end++
	}

	if end > MaxNameLength {
		return nil, s, fmt.Errorf("%w: attribute name too long", ErrInvalidName)
	}
	if end == 0 {
		return nil, s, fmt.Errorf("%w: invalid attribute name", ErrInvalidName)
	}

	da, err := d.UnknownFromOID(parent, s[:end])
	if err != nil {
		return nil, s, err
	}

	return da, s[end:], nil
}

// AddUnknown promotes an unknown attribute and its unknown ancestors into
// the dictionary, returning the known attribute.
func (d *Dictionary) AddUnknown(old *Attribute) (*Attribute, error) {
	if old == nil {
		return nil, fmt.Errorf("%w: nil attribute", ErrNotFound)
	}
	if !old.Flags.IsUnknown {
		return old, nil
	}

	parent := old.Parent
	if parent.Flags.IsUnknown {
		var err error
		if parent, err = d.AddUnknown(parent); err != nil {
			return nil, err
		}
	}

	if da, ok := parent.ChildByNumber(old.Attr); ok {
		return da, nil
	}

	flags := old.Flags
	flags.IsUnknown = false

	name := old.Name

	// Ensure the vendor is present in the vendor table
	if old.Type == TypeVendor {
		if _, ok := d.VendorByNumber(old.Attr); !ok || name == "unknown-vendor" {
			name = fmt.Sprintf("Vendor-%d", old.Attr)
		}
		if _, ok := d.VendorByNumber(old.Attr); !ok {
			if err := d.AddVendor(name, old.Attr); err != nil {
				return nil, err
			}
		}
	}

	if err := d.AddAttribute(parent, name, int(old.Attr), old.Type, flags); err != nil {
		return nil, err
	}

	da, ok := parent.ChildByNumber(old.Attr)
	if !ok {
		return nil, fmt.Errorf("%w: attribute %s was not added", ErrNotFound, old.Name)
	}

	return da, nil
}

// Known maps an unknown attribute back to a known one, if the dictionary
// now defines every node of its chain.
func (d *Dictionary) Known(a *Attribute) (*Attribute, bool) {
	if a == nil {
		return nil, false
	}
	if !a.Flags.IsUnknown {
		return a, true
	}

	if a.Parent == nil {
		return nil, false
	}

	parent, ok := d.Known(a.Parent)
	if !ok {
		return nil, false
	}

	return parent.ChildByNumber(a.Attr)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
