// Package value holds typed attribute values and converts them between
// their host form, network byte order and text.
package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"time"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

var (
	// ErrTypeMismatch is returned when two values of different types meet
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOverflow is returned when a number does not fit the target type
	ErrOverflow = errors.New("value out of range")

	// ErrInvalidValue is returned for text or wire data that cannot be parsed
	ErrInvalidValue = errors.New("invalid value")
)

// Value is a typed attribute value. The zero Value has TypeInvalid.
//
// Variable length data (string, octets, abinary) is referenced, not
// copied; use Copy to detach a value from the buffer it was built from.
type Value struct {
	typ dictionary.Type

	data  []byte     // string, octets, abinary
	num   uint64     // bool, byte, short, integer, integer64, date
	sign  int32      // signed
	float float64    // decimal
	addr  netip.Addr // address and prefix types
	bits  int        // prefix length for prefix types
	fixed [8]byte    // ether (6 octets), ifid (8 octets)
}

// String returns a string value
func String(s string) Value {
	return Value{typ: dictionary.TypeString, data: []byte(s)}
}

// Octets returns an octets value referencing b
func Octets(b []byte) Value {
	return Value{typ: dictionary.TypeOctets, data: b}
}

// ABinary returns an Ascend binary filter value referencing b
func ABinary(b []byte) Value {
	return Value{typ: dictionary.TypeABinary, data: b}
}

// Bool returns a boolean value
func Bool(b bool) Value {
	v := Value{typ: dictionary.TypeBool}
	if b {
		v.num = 1
	}
	return v
}

// Byte returns an 8-bit unsigned value
func Byte(n uint8) Value {
	return Value{typ: dictionary.TypeByte, num: uint64(n)}
}

// Short returns a 16-bit unsigned value
func Short(n uint16) Value {
	return Value{typ: dictionary.TypeShort, num: uint64(n)}
}

// Integer returns a 32-bit unsigned value
func Integer(n uint32) Value {
	return Value{typ: dictionary.TypeInteger, num: uint64(n)}
}

// Integer64 returns a 64-bit unsigned value
func Integer64(n uint64) Value {
	return Value{typ: dictionary.TypeInteger64, num: n}
}

// Signed returns a 32-bit signed value
func Signed(n int32) Value {
	return Value{typ: dictionary.TypeSigned, sign: n}
}

// Decimal returns a floating point value
func Decimal(f float64) Value {
	return Value{typ: dictionary.TypeDecimal, float: f}
}

// Date returns a date value. The wire form holds 32-bit seconds.
func Date(t time.Time) Value {
	return Value{typ: dictionary.TypeDate, num: uint64(uint32(t.Unix()))}
}

// IPv4Addr returns an IPv4 address value
func IPv4Addr(a netip.Addr) (Value, error) {
	a = a.Unmap()
	if !a.Is4() {
		return Value{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrInvalidValue, a)
	}
	return Value{typ: dictionary.TypeIPv4Addr, addr: a, bits: 32}, nil
}

// IPv6Addr returns an IPv6 address value
func IPv6Addr(a netip.Addr) (Value, error) {
	if !a.Is6() {
		return Value{}, fmt.Errorf("%w: %s is not an IPv6 address", ErrInvalidValue, a)
	}
	return Value{typ: dictionary.TypeIPv6Addr, addr: a.WithZone(""), bits: 128}, nil
}

// IPv4Prefix returns an IPv4 prefix value. Host bits are cleared.
func IPv4Prefix(p netip.Prefix) (Value, error) {
	if !p.IsValid() || !p.Addr().Unmap().Is4() {
		return Value{}, fmt.Errorf("%w: %s is not an IPv4 prefix", ErrInvalidValue, p)
	}
	p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()).Masked()
	return Value{typ: dictionary.TypeIPv4Prefix, addr: p.Addr(), bits: p.Bits()}, nil
}

// IPv6Prefix returns an IPv6 prefix value. Host bits are cleared.
func IPv6Prefix(p netip.Prefix) (Value, error) {
	if !p.IsValid() || !p.Addr().Is6() {
		return Value{}, fmt.Errorf("%w: %s is not an IPv6 prefix", ErrInvalidValue, p)
	}
	p = p.Masked()
	return Value{typ: dictionary.TypeIPv6Prefix, addr: p.Addr(), bits: p.Bits()}, nil
}

// Ethernet returns a MAC address value
func Ethernet(mac [6]byte) Value {
	v := Value{typ: dictionary.TypeEthernet}
	copy(v.fixed[:], mac[:])
	return v
}

// IfID returns an interface identifier value
func IfID(id [8]byte) Value {
	return Value{typ: dictionary.TypeIfID, fixed: id}
}

// Type returns the data type of the value
func (v Value) Type() dictionary.Type {
	return v.typ
}

// IsValid reports whether the value has a type
func (v Value) IsValid() bool {
	return v.typ != dictionary.TypeInvalid
}

// Bytes returns the data of string, octets and abinary values
func (v Value) Bytes() []byte {
	return v.data
}

// Uint returns the number held by unsigned integer, bool and date values
func (v Value) Uint() uint64 {
	return v.num
}

// Int returns the number held by a signed value
func (v Value) Int() int32 {
	return v.sign
}

// Float returns the number held by a decimal value
func (v Value) Float() float64 {
	return v.float
}

// Time returns the time held by a date value
func (v Value) Time() time.Time {
	return time.Unix(int64(v.num), 0).UTC()
}

// Addr returns the address held by address and prefix values
func (v Value) Addr() netip.Addr {
	return v.addr
}

// Prefix returns the prefix held by prefix values
func (v Value) Prefix() netip.Prefix {
	return netip.PrefixFrom(v.addr, v.bits)
}

// MAC returns the address held by an ether value
func (v Value) MAC() [6]byte {
	var mac [6]byte
	copy(mac[:], v.fixed[:6])
	return mac
}

// InterfaceID returns the identifier held by an ifid value
func (v Value) InterfaceID() [8]byte {
	return v.fixed
}

// Len returns the length of the value in network byte order
func (v Value) Len() int {
	switch v.typ {
	case dictionary.TypeString, dictionary.TypeOctets, dictionary.TypeABinary:
		return len(v.data)
	case dictionary.TypeBool, dictionary.TypeByte:
		return 1
	case dictionary.TypeShort:
		return 2
	case dictionary.TypeInteger, dictionary.TypeDate, dictionary.TypeSigned, dictionary.TypeIPv4Addr:
		return 4
	case dictionary.TypeInteger64, dictionary.TypeIfID, dictionary.TypeDecimal:
		return 8
	case dictionary.TypeEthernet:
		return 6
	case dictionary.TypeIPv4Prefix:
		return 6
	case dictionary.TypeIPv6Addr:
		return 16
	case dictionary.TypeIPv6Prefix:
		return 18
	default:
		return 0
	}
}

// AppendWire appends the network byte order form of the value to dst
func (v Value) AppendWire(dst []byte) []byte {
	switch v.typ {
	case dictionary.TypeString, dictionary.TypeOctets, dictionary.TypeABinary:
		return append(dst, v.data...)
	case dictionary.TypeBool:
		return append(dst, byte(v.num&0x01))
	case dictionary.TypeByte:
		return append(dst, byte(v.num))
	case dictionary.TypeShort:
		return binary.BigEndian.AppendUint16(dst, uint16(v.num))
	case dictionary.TypeInteger, dictionary.TypeDate:
		return binary.BigEndian.AppendUint32(dst, uint32(v.num))
	case dictionary.TypeSigned:
		return binary.BigEndian.AppendUint32(dst, uint32(v.sign))
	case dictionary.TypeInteger64:
		return binary.BigEndian.AppendUint64(dst, v.num)
	case dictionary.TypeDecimal:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.float))
	case dictionary.TypeEthernet:
		return append(dst, v.fixed[:6]...)
	case dictionary.TypeIfID:
		return append(dst, v.fixed[:]...)
	case dictionary.TypeIPv4Addr, dictionary.TypeIPv6Addr:
		return append(dst, v.addr.AsSlice()...)
	case dictionary.TypeIPv4Prefix, dictionary.TypeIPv6Prefix:
		dst = append(dst, 0, byte(v.bits))
		return append(dst, v.addr.AsSlice()...)
	default:
		return dst
	}
}

// Wire returns the network byte order form of the value
func (v Value) Wire() []byte {
	return v.AppendWire(make([]byte, 0, v.Len()))
}

// FromWire builds a value of type typ from its network byte order form.
// Variable length data is referenced, not copied.
func FromWire(typ dictionary.Type, b []byte) (Value, error) {
	fixed := func(n int) error {
		if len(b) != n {
			return fmt.Errorf("%w: %s needs %d octets, got %d", ErrInvalidValue, typ, n, len(b))
		}
		return nil
	}

	switch typ {
	case dictionary.TypeString, dictionary.TypeOctets, dictionary.TypeABinary:
		return Value{typ: typ, data: b}, nil

	case dictionary.TypeBool:
		if err := fixed(1); err != nil {
			return Value{}, err
		}
		return Bool(b[0]&0x01 != 0), nil

	case dictionary.TypeByte:
		if err := fixed(1); err != nil {
			return Value{}, err
		}
		return Byte(b[0]), nil

	case dictionary.TypeShort:
		if err := fixed(2); err != nil {
			return Value{}, err
		}
		return Short(binary.BigEndian.Uint16(b)), nil

	case dictionary.TypeInteger, dictionary.TypeDate:
		if err := fixed(4); err != nil {
			return Value{}, err
		}
		return Value{typ: typ, num: uint64(binary.BigEndian.Uint32(b))}, nil

	case dictionary.TypeSigned:
		if err := fixed(4); err != nil {
			return Value{}, err
		}
		return Signed(int32(binary.BigEndian.Uint32(b))), nil

	case dictionary.TypeInteger64:
		if err := fixed(8); err != nil {
			return Value{}, err
		}
		return Integer64(binary.BigEndian.Uint64(b)), nil

	case dictionary.TypeDecimal:
		if err := fixed(8); err != nil {
			return Value{}, err
		}
		return Decimal(math.Float64frombits(binary.BigEndian.Uint64(b))), nil

	case dictionary.TypeEthernet:
		if err := fixed(6); err != nil {
			return Value{}, err
		}
		var mac [6]byte
		copy(mac[:], b)
		return Ethernet(mac), nil

	case dictionary.TypeIfID:
		if err := fixed(8); err != nil {
			return Value{}, err
		}
		var id [8]byte
		copy(id[:], b)
		return IfID(id), nil

	case dictionary.TypeIPv4Addr:
		if err := fixed(4); err != nil {
			return Value{}, err
		}
		return IPv4Addr(netip.AddrFrom4([4]byte(b)))

	case dictionary.TypeIPv6Addr:
		if err := fixed(16); err != nil {
			return Value{}, err
		}
		return IPv6Addr(netip.AddrFrom16([16]byte(b)))

	case dictionary.TypeIPv4Prefix:
		if err := fixed(6); err != nil {
			return Value{}, err
		}
		if b[1] > 32 {
			return Value{}, fmt.Errorf("%w: IPv4 prefix length %d", ErrInvalidValue, b[1])
		}
		return IPv4Prefix(netip.PrefixFrom(netip.AddrFrom4([4]byte(b[2:])), int(b[1])))

	case dictionary.TypeIPv6Prefix:
		if len(b) < 2 || len(b) > 18 {
			return Value{}, fmt.Errorf("%w: ipv6prefix needs 2 to 18 octets, got %d", ErrInvalidValue, len(b))
		}
		if b[1] > 128 {
			return Value{}, fmt.Errorf("%w: IPv6 prefix length %d", ErrInvalidValue, b[1])
		}
		// Trailing zero octets of the address may be omitted
		var a [16]byte
		copy(a[:], b[2:])
		return IPv6Prefix(netip.PrefixFrom(netip.AddrFrom16(a), int(b[1])))

	default:
		return Value{}, fmt.Errorf("%w: no wire form for type %s", ErrInvalidValue, typ)
	}
}

// Copy returns a value that shares no memory with v
func Copy(v Value) Value {
	if v.data != nil {
		v.data = append([]byte(nil), v.data...)
	}
	return v
}

// Equal reports whether a and b have the same type and value
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}
