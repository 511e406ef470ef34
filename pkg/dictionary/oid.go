package dictionary

import (
	"fmt"
	"strconv"
)

// OIDResult is the outcome of resolving an OID string.
//
// On error Parent is the deepest attribute that was resolved and Attr is
// the component that failed.
type OIDResult struct {
	Parent   *Attribute
	Vendor   uint32
	Attr     uint32
	Consumed int
}

// OIDComponent parses one decimal component at the start of oid. The
// component must be followed by the end of the string or a '.'.
func OIDComponent(oid string) (uint32, string, error) {
	i := 0
	for i < len(oid) && oid[i] >= '0' && oid[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, oid, fmt.Errorf("%w: invalid OID component %q", ErrInvalidOID, oid)
	}

	num, err := strconv.ParseUint(oid[:i], 10, 32)
	if err != nil {
		return 0, oid, fmt.Errorf("%w: invalid OID component %q", ErrInvalidOID, oid[:i])
	}

	if i < len(oid) && oid[i] != '.' {
		return 0, oid, fmt.Errorf("%w: unexpected text after OID component", ErrInvalidOID)
	}

	return uint32(num), oid[i:], nil
}

// ByOID resolves a dotted numeric path below parent. Every component but
// the last must already exist; the last one is returned as Attr, with
// Parent set to the attribute directly above it.
//
// From the root and outside of a vendor, "26.<vendor>.<rest>" resolves
// <rest> below the vendor's node in Vendor-Specific.
func (d *Dictionary) ByOID(parent *Attribute, vendor uint32, oid string) (OIDResult, error) {
	res := OIDResult{Parent: parent, Vendor: vendor}
	if parent == nil {
		return res, fmt.Errorf("%w: nil parent", ErrInvalidOID)
	}

	p := oid
	for {
		num, rest, err := OIDComponent(p)
		if err != nil {
			res.Consumed = len(oid) - len(p)
			return res, err
		}
		res.Attr = num

		if res.Parent.Flags.IsRoot && res.Vendor == 0 && num == AttrVendorSpecific {
			if rest == "" {
				return res, fmt.Errorf("%w: vendor attribute must specify a VID", ErrInvalidOID)
			}

			pen, after, err := OIDComponent(rest[1:])
			if err != nil {
				return res, err
			}
			if after == "" {
				return res, fmt.Errorf("%w: vendor attribute must specify a child", ErrInvalidOID)
			}

			dv, ok := d.VendorByNumber(pen)
			if !ok {
				return res, fmt.Errorf("%w: unknown vendor '%d'", ErrUnknownVendor, pen)
			}
			res.Vendor = dv.Number

			vsa, ok := res.Parent.ChildByNumber(AttrVendorSpecific)
			if !ok {
				return res, fmt.Errorf("%w: unknown child attribute starting at %q", ErrNotFound, p)
			}
			res.Parent = vsa

			vda, ok := vsa.ChildByNumber(pen)
			if !ok {
				return res, fmt.Errorf("%w: unknown child attribute starting at %q", ErrNotFound, rest[1:])
			}
			res.Parent = vda

			p = after[1:]
			continue
		}

		if !res.Parent.Type.IsStructural() {
			return res, fmt.Errorf("%w: parent attribute %s is not TLV for child attribute starting at %q",
				ErrInvalidOID, res.Parent.Name, p)
		}

		// Only vendor numbers and vendor or root children may exceed a single octet
		switch res.Parent.Type {
		case TypeVendor, TypeVSA, TypeEVS:
		default:
			if !res.Parent.Flags.IsRoot && num > 0xff {
				return res, fmt.Errorf("%w: TLV attributes must be between 0..255 inclusive", ErrInvalidOID)
			}
		}

		if rest == "" {
			res.Consumed = len(oid)
			return res, nil
		}

		child, ok := res.Parent.ChildByNumber(num)
		if !ok {
			res.Consumed = len(oid) - len(p)
			return res, fmt.Errorf("%w: unknown child attribute starting at %q", ErrNotFound, p)
		}
		res.Parent = child
		p = rest[1:]
	}
}

// AttrByOID resolves an OID string to an existing attribute
func (d *Dictionary) AttrByOID(parent *Attribute, oid string) (*Attribute, bool) {
	if parent == nil {
		parent = d.root
	}

	if parent.Flags.IsRoot {
		if da, ok := vendorNodeByOID(parent, oid); ok {
			return da, true
		}
	}

	res, err := d.ByOID(parent, 0, oid)
	if err != nil {
		return nil, false
	}

	return res.Parent.ChildByNumber(res.Attr)
}

// vendorNodeByOID resolves "26" and "26.<vendor>" below the root, which
// ByOID rejects as incomplete vendor paths
func vendorNodeByOID(root *Attribute, oid string) (*Attribute, bool) {
	num, rest, err := OIDComponent(oid)
	if err != nil || num != AttrVendorSpecific {
		return nil, false
	}

	vsa, ok := root.ChildByNumber(AttrVendorSpecific)
	if !ok || rest == "" {
		return vsa, ok
	}

	pen, after, err := OIDComponent(rest[1:])
	if err != nil || after != "" {
		return nil, false
	}

	return vsa.ChildByNumber(pen)
}
