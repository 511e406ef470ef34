package dictionary

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxArgs is the most whitespace-separated fields a dictionary line may carry
const MaxArgs = 16

// splitArgs splits a line on whitespace, stopping at a '#' comment
func splitArgs(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	args := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if len(args) > MaxArgs {
		args = args[:MaxArgs]
	}

	return args
}

// scanUint parses a decimal or 0x-prefixed hex number of at most 32 bits,
// stopping at the first '.'. Any other trailing character is an error.
func scanUint(s string) (uint32, error) {
	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	num, _, _ := strings.Cut(s, ".")

	v, err := strconv.ParseUint(num, base, 32)
	if err != nil {
		return 0, err
	}

	return uint32(v), nil
}

// processAttribute handles the arguments of an ATTRIBUTE line
func (d *Dictionary) processAttribute(parent *Attribute, blockVendor uint32, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("%w: invalid ATTRIBUTE syntax", ErrSyntax)
	}

	name := args[0]

	// Dictionaries need real names
	if strings.HasPrefix(name, "Attr-") {
		return fmt.Errorf("%w: invalid ATTRIBUTE name", ErrInvalidName)
	}

	var (
		attr  uint32
		flags Flags
		isOID bool
	)

	if !strings.Contains(args[1], ".") {
		v, err := scanUint(args[1])
		if err != nil {
			return fmt.Errorf("%w: invalid ATTRIBUTE number: %w", ErrInvalidNumber, err)
		}
		attr = v
	} else {
		// Every component of the OID other than the leaf must exist
		isOID = true

		if parent.Flags.IsRoot && blockVendor == 0 {
			if err := d.ensureVendorOID(parent, args[1]); err != nil {
				return err
			}
		}

		res, err := d.ByOID(parent, blockVendor, args[1])
		if err != nil {
			return err
		}

		parent = res.Parent
		attr = res.Attr
		blockVendor = res.Vendor
	}

	var typ Type
	if rest, ok := strings.CutPrefix(args[2], "octets["); ok {
		typ = TypeOctets

		inner, _, found := strings.Cut(rest, "]")
		if !found {
			return fmt.Errorf("%w: invalid format for 'octets'", ErrSyntax)
		}

		length, err := scanUint(inner)
		if err != nil || length == 0 || length > 253 {
			return fmt.Errorf("%w: invalid length for 'octets'", ErrSyntax)
		}
		flags.Length = uint8(length)
	} else {
		t, ok := ParseType(args[2])
		if !ok {
			return fmt.Errorf("%w: unknown data type '%s'", ErrInvalidType, args[2])
		}
		typ = t
	}

	if len(args) == 4 {
		keys := strings.Split(args[3], ",")
		for i, key := range keys {
			if key == "" {
				if i == len(keys)-1 {
					break
				}
				return fmt.Errorf("%w: unknown option ''", ErrSyntax)
			}

			switch {
			case key == "has_tag" || key == "has_tag=1":
				flags.HasTag = true

			case strings.HasPrefix(key, "encrypt="):
				n, err := strconv.ParseInt(key[8:], 0, 64)
				if err != nil || n < 0 || n > 0xff {
					return fmt.Errorf("%w: invalid option %s", ErrSyntax, key)
				}
				flags.Encrypt = Encrypt(n)

			case key == "internal":
				flags.Internal = true

			case key == "array":
				flags.Array = true

			case key == "concat":
				flags.Concat = true

			case key == "virtual":
				flags.Virtual = true

			case i == 0 && len(keys) == 1:
				// A lone known vendor name places the attribute in that vendor's space
				if isOID {
					return fmt.Errorf("%w: ATTRIBUTE cannot use a 'vendor' flag", ErrSyntax)
				}
				if blockVendor != 0 {
					return fmt.Errorf("%w: vendor flag inside of 'BEGIN-VENDOR' is not allowed", ErrSyntax)
				}

				v, ok := d.VendorByName(key)
				if !ok {
					return fmt.Errorf("%w: unknown option '%s'", ErrSyntax, key)
				}

				vda, err := d.vendorNode(d.root, nil, v)
				if err != nil {
					return err
				}
				parent = vda

			default:
				return fmt.Errorf("%w: unknown option '%s'", ErrSyntax, key)
			}
		}
	}

	return d.AddAttribute(parent, name, int(attr), typ, flags)
}

// ensureVendorOID creates Vendor-Specific and the vendor node for a
// "26.<vendor>.<attr>" OID used outside of a vendor block.
func (d *Dictionary) ensureVendorOID(root *Attribute, oid string) error {
	num, rest, err := OIDComponent(oid)
	if err != nil || num != AttrVendorSpecific || rest == "" {
		return nil
	}

	pen, _, err := OIDComponent(rest[1:])
	if err != nil {
		return nil
	}

	v, ok := d.VendorByNumber(pen)
	if !ok {
		return fmt.Errorf("%w: unknown vendor '%d'", ErrUnknownVendor, pen)
	}

	_, err = d.vendorNode(root, nil, v)
	return err
}

// vendorNode returns the vendor attribute below vsa (or Vendor-Specific of
// parent when vsa is nil), creating the missing nodes.
func (d *Dictionary) vendorNode(parent, vsa *Attribute, v *Vendor) (*Attribute, error) {
	if vsa == nil {
		var ok bool
		vsa, ok = parent.ChildByNumber(AttrVendorSpecific)
		if !ok {
			// Not every dictionary loads the RFC definitions first
			vsa = &Attribute{
				Name: "Vendor-Specific",
				Attr: AttrVendorSpecific,
				Type: TypeVSA,
			}
			parent.addChild(vsa)
		}
	}

	if vda, ok := vsa.ChildByNumber(v.Number); ok {
		return vda, nil
	}

	vda := &Attribute{
		Name: v.Name,
		Attr: v.Number,
		Type: TypeVendor,
		Flags: Flags{
			TypeSize: 1,
			Length:   1,
		},
	}

	// EVS vendors always use the 1,1 format
	if vsa.Type == TypeVSA {
		vda.Flags.TypeSize = v.TypeSize
		vda.Flags.Length = v.Length
	}

	vsa.addChild(vda)

	return vda, nil
}

// processValue handles the arguments of a VALUE line
func (d *Dictionary) processValue(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: invalid VALUE syntax", ErrSyntax)
	}

	value, err := scanUint(args[2])
	if err != nil {
		return fmt.Errorf("%w: invalid number in VALUE: %w", ErrSyntax, err)
	}

	return d.AddEnum(args[0], args[1], value)
}

// processVendor handles the arguments of a VENDOR line
func (d *Dictionary) processVendor(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: invalid VENDOR syntax", ErrSyntax)
	}

	pen, err := scanUint(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid number in VENDOR: %w", ErrSyntax, err)
	}

	if err := d.AddVendor(args[0], pen); err != nil {
		return err
	}

	// An explicit format overrides the hard-coded ones
	var (
		typeSize, length uint8
		continuation     bool
	)
	if len(args) == 3 {
		typeSize, length, continuation, err = ParseVendorFormat(args[2], pen)
		if err != nil {
			return err
		}
	} else {
		typeSize, length = defaultFormat(pen)
	}

	return d.SetVendorFormat(pen, typeSize, length, continuation)
}

// ParseLine processes a single ATTRIBUTE, VALUE or VENDOR line. A nil
// parent means the dictionary root; vendor scopes ATTRIBUTE as if inside
// a BEGIN-VENDOR block.
func (d *Dictionary) ParseLine(line string, parent *Attribute, vendor uint32) error {
	args := splitArgs(line)
	if len(args) == 0 {
		return nil
	}

	switch strings.ToUpper(args[0]) {
	case "VALUE":
		return d.processValue(args[1:])

	case "ATTRIBUTE":
		if parent == nil {
			parent = d.root
		}
		return d.processAttribute(parent, vendor, args[1:])

	case "VENDOR":
		return d.processVendor(args[1:])

	default:
		return fmt.Errorf("%w: invalid input '%s'", ErrSyntax, args[0])
	}
}
