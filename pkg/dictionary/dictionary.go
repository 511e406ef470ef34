package dictionary

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vitalvas/radwire/pkg/log"
)

const (
	// MaxNameLength is the exclusive upper bound on attribute, vendor and value name lengths
	MaxNameLength = 128

	// AttrVendorSpecific is the RFC 2865 Vendor-Specific attribute number
	AttrVendorSpecific = 26

	// firstAutoAttr is where automatically numbered attributes begin
	firstAutoAttr = 256

	// AutoNumber asks AddAttribute to pick the next free internal number
	AutoNumber = -1
)

// Option configures a Dictionary.
type Option func(*Dictionary)

// WithLogger sets the logger used while loading.
func WithLogger(l log.Logger) Option {
	return func(d *Dictionary) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithID sets the dictionary instance identifier.
func WithID(id uuid.UUID) Option {
	return func(d *Dictionary) {
		d.ID = id
	}
}

type comboKey struct {
	vendor uint32
	attr   uint32
	typ    Type
}

// Dictionary is a protocol attribute dictionary.
//
// A Dictionary is safe for concurrent readers once loading has finished.
// Mutating it while readers are active requires external synchronization.
type Dictionary struct {
	// ID identifies this dictionary instance in logs and snapshots
	ID uuid.UUID

	root *Attribute

	byName map[string]*Attribute
	combo  map[comboKey]*Attribute

	vendorsByName   map[string]*Vendor
	vendorsByNumber map[uint32]*Vendor

	enumsByName  map[enumNameKey]*Enum
	enumsByValue map[enumValueKey]*Enum
	enumAliases  map[*Attribute]*Attribute
	fixups       []fixup
	lastEnumAttr *Attribute

	maxAttr uint32
	stats   map[fileID]fileStat

	logger log.Logger
}

// New creates an empty dictionary whose root is named after the protocol
func New(protocol string, opts ...Option) *Dictionary {
	d := &Dictionary{
		ID:              uuid.New(),
		byName:          make(map[string]*Attribute),
		combo:           make(map[comboKey]*Attribute),
		vendorsByName:   make(map[string]*Vendor),
		vendorsByNumber: make(map[uint32]*Vendor),
		enumsByName:     make(map[enumNameKey]*Enum),
		enumsByValue:    make(map[enumValueKey]*Enum),
		enumAliases:     make(map[*Attribute]*Attribute),
		maxAttr:         firstAutoAttr,
		stats:           make(map[fileID]fileStat),
		logger:          log.NewNopLogger(),
	}

	d.root = &Attribute{
		Name: protocol,
		Type: TypeTLV,
		Flags: Flags{
			IsRoot:   true,
			TypeSize: 1,
			Length:   1,
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Root returns the root attribute of the dictionary
func (d *Dictionary) Root() *Attribute {
	return d.root
}

// Logger returns the logger used by the dictionary
func (d *Dictionary) Logger() log.Logger {
	return d.logger
}

// ValidName checks that name only contains [A-Za-z0-9_.:-] and returns the
// offset of the first invalid character, or -1.
func ValidName(name string) int {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-' || c == ':' || c == '.':
		default:
			return i
		}
	}
	return -1
}

// AttrByName returns the attribute with the given name, case-insensitively
func (d *Dictionary) AttrByName(name string) (*Attribute, bool) {
	a, ok := d.byName[strings.ToLower(name)]
	return a, ok
}

// AttrByNamePrefix resolves the longest attribute name at the start of s
// made of valid name characters, returning the attribute and the rest of s.
func (d *Dictionary) AttrByNamePrefix(s string) (*Attribute, string, bool) {
	end := len(s)
	if i := ValidName(s); i >= 0 {
		end = i
	}
	if end == 0 || end >= MaxNameLength {
		return nil, s, false
	}

	a, ok := d.AttrByName(s[:end])
	if !ok {
		return nil, s, false
	}
	return a, s[end:], true
}

// AttrByNumber returns an attribute by vendor and number. Vendor 0 is the
// standard space, other vendors are resolved below Vendor-Specific.
func (d *Dictionary) AttrByNumber(vendor, attr uint32) (*Attribute, bool) {
	if vendor == 0 {
		return d.root.ChildByNumber(attr)
	}

	vsa, ok := d.root.ChildByNumber(AttrVendorSpecific)
	if !ok {
		return nil, false
	}

	v, ok := vsa.ChildByNumber(vendor)
	if !ok {
		return nil, false
	}

	return v.ChildByNumber(attr)
}

// AttrByType returns the IPv4 or IPv6 variant of a combo-ip attribute
func (d *Dictionary) AttrByType(vendor, attr uint32, typ Type) (*Attribute, bool) {
	a, ok := d.combo[comboKey{vendor: vendor, attr: attr, typ: typ}]
	return a, ok
}

// Walk calls fn for every attribute below the root in depth-first bin order
func (d *Dictionary) Walk(fn func(*Attribute) bool) {
	var walk func(*Attribute) bool
	walk = func(a *Attribute) bool {
		for _, c := range a.Children() {
			if !fn(c) || !walk(c) {
				return false
			}
		}
		return true
	}
	walk(d.root)
}

// AddAttribute validates and inserts a new attribute below parent.
// Passing AutoNumber for attr under the root allocates an internal number.
func (d *Dictionary) AddAttribute(parent *Attribute, name string, attr int, typ Type, flags Flags) error {
	if parent == nil {
		return attrError(name, fmt.Errorf("%w: nil parent", ErrNotFound))
	}

	if len(name) >= MaxNameLength {
		return attrError(name, fmt.Errorf("%w: attribute name too long", ErrInvalidName))
	}

	if parent.Depth+1 > MaxStackDepth {
		return attrError(name, fmt.Errorf("%w: attribute is nested deeper than %d", ErrInvalidNumber, MaxStackDepth))
	}
	if i := ValidName(name); i >= 0 {
		return attrError(name, fmt.Errorf("%w: invalid character %q in attribute name", ErrInvalidName, name[i]))
	}

	// type_size limits the maximum attribute number, so it's checked first
	if flags.TypeSize != 0 {
		if typ != TypeTLV && typ != TypeVendor {
			return attrError(name, fmt.Errorf("%w: the 'format=' flag can only be used with attributes of type 'tlv'", ErrInvalidFlags))
		}
		if flags.TypeSize != 1 && flags.TypeSize != 2 && flags.TypeSize != 4 {
			return attrError(name, fmt.Errorf("%w: the 'format=' flag can only be used with attributes of type size 1,2 or 4", ErrInvalidFlags))
		}
	}

	if parent.Flags.IsRoot {
		if attr == AutoNumber {
			if _, ok := d.AttrByName(name); ok {
				return nil
			}
			d.maxAttr++
			attr = int(d.maxAttr)
			flags.Internal = true
		} else if attr <= 0 {
			return attrError(name, fmt.Errorf("%w: ATTRIBUTE number %d is invalid, must be greater than zero", ErrInvalidNumber, attr))
		} else if uint32(attr) > d.maxAttr {
			d.maxAttr = uint32(attr)
		}

		// Server-side attributes in the RADIUS space are always internal
		if parent.Flags.TypeSize == 1 && attr >= 3000 && attr < 4000 {
			flags.Internal = true
		}
	}

	if attr < 0 {
		return attrError(name, fmt.Errorf("%w: ATTRIBUTE number %d is invalid, must be greater than zero", ErrInvalidNumber, attr))
	}

	// VMPS attributes are numbered 0x2b00..0x2cff in the RFC space
	vmps := parent.Flags.IsRoot && attr >= 0x2b00 && attr < 0x2d00

	if attr > 0xff && !flags.Internal && !vmps {
		if v := nearestFormat(parent); v != nil && v.Flags.TypeSize < 4 && attr >= 1<<(8*uint(v.Flags.TypeSize)) {
			return attrError(name, fmt.Errorf("%w: attributes must have value between 1..%d",
				ErrInvalidNumber, (1<<(8*uint(v.Flags.TypeSize)))-1))
		}
	}

	if err := d.checkFlags(parent, attr, typ, &flags); err != nil {
		return attrError(name, err)
	}

	if err := d.checkParent(parent, attr, typ, &flags); err != nil {
		return attrError(name, err)
	}

	vendor := parent.Vendor
	if parent.Type == TypeVendor {
		vendor = parent.Attr
	}

	n := &Attribute{
		Name:   name,
		Attr:   uint32(attr),
		Vendor: vendor,
		Type:   typ,
		Flags:  flags,
	}

	key := strings.ToLower(name)
	if old, ok := d.byName[key]; ok {
		if old.Parent != parent || old.Attr != n.Attr || old.Type != n.Type {
			return attrError(name, fmt.Errorf("%w: duplicate attribute name", ErrDuplicate))
		}

		// Identical redefinitions are common when dictionaries overlap
		return nil
	}

	// Struct members contribute to the length of their parent
	if parent.Type == TypeStruct {
		parent.Flags.Length += flags.Length
	}

	d.byName[key] = n

	if typ == TypeComboIPAddr {
		v4 := *n
		v4.Type = TypeIPv4Addr
		v6 := *n
		v6.Type = TypeIPv6Addr
		d.combo[comboKey{vendor: vendor, attr: n.Attr, typ: TypeIPv4Addr}] = &v4
		d.combo[comboKey{vendor: vendor, attr: n.Attr, typ: TypeIPv6Addr}] = &v6
	}

	parent.addChild(n)

	// Copies share the final parent and depth of the real node
	if typ == TypeComboIPAddr {
		for _, t := range []Type{TypeIPv4Addr, TypeIPv6Addr} {
			c := d.combo[comboKey{vendor: vendor, attr: n.Attr, typ: t}]
			c.Parent = n.Parent
			c.Depth = n.Depth
		}
	}

	return nil
}

// nearestFormat returns the closest TLV or vendor node at or above a
func nearestFormat(a *Attribute) *Attribute {
	for v := a; v != nil; v = v.Parent {
		if v.Type == TypeTLV || v.Type == TypeVendor {
			return v
		}
	}
	return nil
}

// checkFlags validates flag combinations against the type and position
func (d *Dictionary) checkFlags(parent *Attribute, attr int, typ Type, flags *Flags) error {
	if flags.Virtual {
		if !parent.Flags.IsRoot {
			return fmt.Errorf("%w: the 'virtual' flag can only be used for normal attributes", ErrInvalidFlags)
		}
		if attr <= 1<<(8*uint(parent.Flags.TypeSize)) {
			return fmt.Errorf("%w: the 'virtual' flag can only be used for non-protocol attributes", ErrInvalidFlags)
		}
	}

	if flags.HasTag {
		if typ != TypeInteger && typ != TypeString {
			return fmt.Errorf("%w: the 'has_tag' flag can only be used for attributes of type 'integer' or 'string'", ErrInvalidFlags)
		}

		if !(parent.Flags.IsRoot ||
			(parent.Type == TypeVendor && parent.Parent != nil && parent.Parent.Type == TypeVSA)) {
			return fmt.Errorf("%w: the 'has_tag' flag can only be used with RFC and VSA attributes", ErrInvalidFlags)
		}

		if flags.Array || flags.HasValue || flags.Concat || flags.Virtual || flags.Length != 0 {
			return fmt.Errorf("%w: the 'has_tag' flag cannot be used any other flag", ErrInvalidFlags)
		}

		if flags.Encrypt != EncryptNone && flags.Encrypt != EncryptTunnelPassword {
			return fmt.Errorf("%w: the 'has_tag' flag can only be used with 'encrypt=2'", ErrInvalidFlags)
		}
	}

	if flags.Concat {
		if typ != TypeOctets {
			return fmt.Errorf("%w: the 'concat' flag can only be used for attributes of type 'octets'", ErrInvalidFlags)
		}
		if !parent.Flags.IsRoot {
			return fmt.Errorf("%w: the 'concat' flag can only be used with RFC attributes", ErrInvalidFlags)
		}
		if flags.Array || flags.Internal || flags.HasValue || flags.Virtual ||
			flags.Encrypt != EncryptNone || flags.Length != 0 {
			return fmt.Errorf("%w: the 'concat' flag cannot be used any other flag", ErrInvalidFlags)
		}
	}

	if flags.Length != 0 {
		if flags.Array || flags.HasValue || flags.Virtual {
			return fmt.Errorf("%w: the 'octets[...]' syntax cannot be used any other flag", ErrInvalidFlags)
		}

		if flags.Length > 253 {
			return fmt.Errorf("%w: invalid length %d", ErrInvalidFlags, flags.Length)
		}

		if typ == TypeTLV || typ == TypeVendor {
			if flags.Length != 1 && flags.Length != 2 && flags.Length != 4 {
				return fmt.Errorf("%w: the 'length' flag can only be used with attributes of TLV lengths of 1,2 or 4", ErrInvalidFlags)
			}
		} else if typ != TypeOctets {
			return fmt.Errorf("%w: the 'length' flag can only be set for attributes of type 'octets'", ErrInvalidFlags)
		}
	}

	// Packing multiple values into one option is a DHCP feature
	if flags.Array {
		if v := parent.AncestorOfType(TypeVendor); v != nil {
			if v.Attr != VendorFreeDHCP && v.Attr != VendorDHCPMagic {
				return fmt.Errorf("%w: the 'array' flag can only be used with DHCP options", ErrInvalidFlags)
			}
		}

		switch typ {
		case TypeIPv4Addr, TypeIPv6Addr, TypeByte, TypeShort, TypeInteger, TypeDate, TypeString:
		default:
			return fmt.Errorf("%w: the 'array' flag cannot be used with attributes of type '%s'", ErrInvalidFlags, typ)
		}

		if flags.Internal || flags.HasValue || flags.Encrypt != EncryptNone || flags.Virtual {
			return fmt.Errorf("%w: the 'array' flag cannot be used any other flag", ErrInvalidFlags)
		}
	}

	if flags.HasValue {
		if typ != TypeInteger {
			return fmt.Errorf("%w: the 'has_value' flag can only be used with attributes of type 'integer'", ErrInvalidFlags)
		}
		if flags.Encrypt != EncryptNone || flags.Virtual {
			return fmt.Errorf("%w: the 'has_value' flag cannot be used with any other flag", ErrInvalidFlags)
		}
	}

	if flags.Encrypt != EncryptNone {
		// User-Password has no length field, so binary data needs a fixed size
		if flags.Encrypt == EncryptUserPassword && typ != TypeString {
			if typ != TypeOctets {
				return fmt.Errorf("%w: the 'encrypt=1' flag can only be used with attributes of type 'string'", ErrInvalidFlags)
			}
			if flags.Length == 0 {
				return fmt.Errorf("%w: the 'encrypt=1' flag MUST be used with an explicit length for 'octets' data types", ErrInvalidFlags)
			}
		}

		if flags.Encrypt > EncryptAscendSecret {
			return fmt.Errorf("%w: the 'encrypt' flag can only be 0..3", ErrInvalidFlags)
		}

		if flags.Encrypt != EncryptTunnelPassword {
			if parent.AncestorOfType(TypeExtended, TypeLongExtended, TypeEVS) != nil {
				return fmt.Errorf("%w: the 'encrypt=%d' flag cannot be used with attributes of type '%s'",
					ErrInvalidFlags, flags.Encrypt, typ)
			}
		}

		switch typ {
		case TypeIPv4Addr, TypeInteger, TypeOctets:
			if flags.Encrypt == EncryptAscendSecret {
				return fmt.Errorf("%w: the 'encrypt' flag cannot be used with attributes of type '%s'", ErrInvalidFlags, typ)
			}
		case TypeString:
		default:
			return fmt.Errorf("%w: the 'encrypt' flag cannot be used with attributes of type '%s'", ErrInvalidFlags, typ)
		}
	}

	return nil
}

// checkParent enforces which types may appear where and fixes up format fields
func (d *Dictionary) checkParent(parent *Attribute, attr int, typ Type, flags *Flags) error {
	switch typ {
	case TypeExtended, TypeLongExtended, TypeVSA:
		if !parent.Flags.IsRoot {
			return fmt.Errorf("%w: attributes of type '%s' can only be used in the RFC space", ErrInvalidType, typ)
		}

	case TypeEVS:
		if parent.Type != TypeExtended && parent.Type != TypeLongExtended {
			return fmt.Errorf("%w: attributes of type 'evs' MUST have a parent of type 'extended', instead of '%s'",
				ErrInvalidType, parent.Type)
		}

	case TypeVendor:
		if parent.Type != TypeVSA && parent.Type != TypeEVS {
			return fmt.Errorf("%w: attributes of type 'vendor' MUST have a parent of type 'vsa' or 'evs', instead of '%s'",
				ErrInvalidType, parent.Type)
		}

		flags.TypeSize, flags.Length = 1, 1
		if parent.Type == TypeVSA {
			if v, ok := d.VendorByNumber(uint32(attr)); ok {
				flags.TypeSize, flags.Length = v.TypeSize, v.Length
			}
		}

	case TypeTLV:
		// The root is always a TLV, so this only fails for detached parents
		v := nearestFormat(parent)
		if v == nil {
			return fmt.Errorf("%w: attributes of type '%s' require a parent attribute", ErrInvalidType, typ)
		}
		flags.TypeSize = v.Flags.TypeSize
		flags.Length = v.Flags.Length

	case TypeComboIPAddr:
		if parent.AncestorOfType(TypeVSA) == nil {
			return fmt.Errorf("%w: attributes of type '%s' can only be used in VSA dictionaries", ErrInvalidType, typ)
		}

	case TypeInvalid, TypeTimeval, TypeBool, TypeDecimal, TypeComboIPPrefix:
		return fmt.Errorf("%w: attributes of type '%s' cannot be used in dictionaries", ErrInvalidType, typ)
	}

	if n := typ.FixedLength(); n != 0 {
		flags.Length = n
	}

	switch typ {
	case TypeExtended, TypeLongExtended:
		if !parent.Flags.IsRoot || attr < 241 {
			return fmt.Errorf("%w: attributes of type '%s' MUST be RFC attributes with value >= 241", ErrInvalidType, typ)
		}
		flags.Length = 0

	case TypeEVS:
		if attr != AttrVendorSpecific {
			return fmt.Errorf("%w: attributes of type 'evs' MUST have attribute code 26, got %d", ErrInvalidType, attr)
		}
		flags.Length = 0

	case TypeStruct:
		// Computed from the children as they are added
		flags.Length = 0
	}

	if parent.Type == TypeStruct {
		if typ != TypeStruct && flags.Length == 0 {
			return fmt.Errorf("%w: children of 'struct' type attributes MUST have fixed length", ErrInvalidType)
		}
		if attr > 1 && parent.Flags.Length == 0 {
			return fmt.Errorf("%w: children of 'struct' type attributes MUST start with sub-attribute 1", ErrInvalidNumber)
		}
	}

	return nil
}
