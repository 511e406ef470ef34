package dictionary

import "strings"

// Type is the data type of an attribute
type Type uint8

const (
	TypeInvalid Type = iota
	TypeString
	TypeOctets
	TypeIPv4Addr
	TypeIPv4Prefix
	TypeIPv6Addr
	TypeIPv6Prefix
	TypeIfID
	TypeComboIPAddr
	TypeComboIPPrefix
	TypeEthernet
	TypeBool
	TypeByte
	TypeShort
	TypeInteger
	TypeInteger64
	TypeSigned
	TypeTimeval
	TypeDecimal
	TypeDate
	TypeABinary
	TypeTLV
	TypeStruct
	TypeExtended
	TypeLongExtended
	TypeVSA
	TypeEVS
	TypeVendor
)

// typeNames maps dictionary keywords to types. The first entry for each
// type is its canonical name.
var typeNames = []struct {
	name string
	typ  Type
}{
	{"integer", TypeInteger},
	{"string", TypeString},
	{"ipaddr", TypeIPv4Addr},
	{"date", TypeDate},
	{"abinary", TypeABinary},
	{"octets", TypeOctets},
	{"ifid", TypeIfID},
	{"ipv6addr", TypeIPv6Addr},
	{"ipv6prefix", TypeIPv6Prefix},
	{"byte", TypeByte},
	{"short", TypeShort},
	{"ether", TypeEthernet},
	{"combo-ip", TypeComboIPAddr},
	{"combo-prefix", TypeComboIPPrefix},
	{"tlv", TypeTLV},
	{"signed", TypeSigned},
	{"extended", TypeExtended},
	{"long-extended", TypeLongExtended},
	{"evs", TypeEVS},
	{"integer64", TypeInteger64},
	{"ipv4prefix", TypeIPv4Prefix},
	{"vsa", TypeVSA},
	{"vendor", TypeVendor},
	{"timeval", TypeTimeval},
	{"boolean", TypeBool},
	{"decimal", TypeDecimal},
	{"struct", TypeStruct},

	// Aliases
	{"uint8", TypeByte},
	{"uint16", TypeShort},
	{"uint32", TypeInteger},
	{"int32", TypeSigned},
	{"uint64", TypeInteger64},
	{"cidr", TypeIPv4Prefix},
}

// typeSizes holds the minimum and maximum encoded size of each type.
// A maximum of ^uint(0) means unbounded.
var typeSizes = map[Type][2]uint{
	TypeString:       {0, ^uint(0)},
	TypeInteger:      {4, 4},
	TypeIPv4Addr:     {4, 4},
	TypeDate:         {4, 4},
	TypeABinary:      {32, ^uint(0)},
	TypeOctets:       {0, ^uint(0)},
	TypeIfID:         {8, 8},
	TypeIPv6Addr:     {16, 16},
	TypeIPv6Prefix:   {2, 18},
	TypeByte:         {1, 1},
	TypeShort:        {2, 2},
	TypeEthernet:     {6, 6},
	TypeSigned:       {4, 4},
	TypeComboIPAddr:  {4, 16},
	TypeTLV:          {2, ^uint(0)},
	TypeExtended:     {2, ^uint(0)},
	TypeLongExtended: {3, ^uint(0)},
	TypeEVS:          {6, ^uint(0)},
	TypeInteger64:    {8, 8},
	TypeIPv4Prefix:   {6, 6},
	TypeVSA:          {4, ^uint(0)},
	TypeVendor:       {0, 0},
	TypeStruct:       {1, ^uint(0)},
}

// ParseType returns the type named by a dictionary keyword, case-insensitively
func ParseType(name string) (Type, bool) {
	for _, tn := range typeNames {
		if strings.EqualFold(tn.name, name) {
			return tn.typ, true
		}
	}
	return TypeInvalid, false
}

// String returns the canonical dictionary keyword for the type
func (t Type) String() string {
	for _, tn := range typeNames {
		if tn.typ == t {
			return tn.name
		}
	}
	return "invalid"
}

// IsStructural reports whether attributes of this type carry children
// rather than a value.
func (t Type) IsStructural() bool {
	switch t {
	case TypeTLV, TypeStruct, TypeExtended, TypeLongExtended, TypeVSA, TypeEVS, TypeVendor:
		return true
	default:
		return false
	}
}

// Size returns the minimum and maximum encoded size of the type.
// ok is false for types with no wire representation.
func (t Type) Size() (min, max uint, ok bool) {
	s, ok := typeSizes[t]
	return s[0], s[1], ok
}

// FixedLength returns the fixed value length of the type, or 0 if the
// type is variable length.
func (t Type) FixedLength() uint8 {
	switch t {
	case TypeByte:
		return 1
	case TypeShort:
		return 2
	case TypeDate, TypeIPv4Addr, TypeInteger, TypeSigned:
		return 4
	case TypeInteger64, TypeIfID:
		return 8
	case TypeEthernet:
		return 6
	case TypeIPv6Addr:
		return 16
	default:
		return 0
	}
}
