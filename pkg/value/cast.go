package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// v4 mapped IPv6 prefix, ::ffff:0:0/96
var v4Mapped = [12]byte{10: 0xff, 11: 0xff}

// Cast converts v to type dst. Text is parsed, anything can be printed
// to a string or flattened to octets, and numbers only widen. Octets are
// taken as the network byte order form of dst.
func Cast(dst dictionary.Type, v Value, enums EnumLookup) (Value, error) {
	if !v.IsValid() {
		return Value{}, fmt.Errorf("%w: cannot cast an empty value", ErrInvalidValue)
	}

	if dst == v.typ {
		return Copy(v), nil
	}

	switch {
	case v.typ == dictionary.TypeString:
		return FromString(dst, string(v.data), 0, enums)

	case dst == dictionary.TypeString:
		return String(v.Print(enums, 0)), nil

	case dst == dictionary.TypeOctets:
		return Octets(v.Wire()), nil

	case v.typ == dictionary.TypeOctets || v.typ == dictionary.TypeABinary:
		if dst == dictionary.TypeABinary {
			return ABinary(append([]byte(nil), v.data...)), nil
		}
		out, err := FromWire(dst, v.data)
		if err != nil {
			return Value{}, err
		}
		return Copy(out), nil
	}

	switch dst {
	case dictionary.TypeShort:
		if v.typ == dictionary.TypeByte {
			return Short(uint16(v.num)), nil
		}

	case dictionary.TypeInteger:
		switch v.typ {
		case dictionary.TypeByte, dictionary.TypeShort, dictionary.TypeDate:
			return Integer(uint32(v.num)), nil
		case dictionary.TypeIPv4Addr:
			return Integer(binary.BigEndian.Uint32(v.addr.AsSlice())), nil
		}

	case dictionary.TypeInteger64:
		switch v.typ {
		case dictionary.TypeByte, dictionary.TypeShort, dictionary.TypeInteger, dictionary.TypeDate:
			return Integer64(v.num), nil
		case dictionary.TypeIfID:
			return Integer64(binary.BigEndian.Uint64(v.fixed[:])), nil
		}

	case dictionary.TypeSigned:
		switch v.typ {
		case dictionary.TypeByte, dictionary.TypeShort, dictionary.TypeInteger, dictionary.TypeInteger64:
			if v.num > math.MaxInt32 {
				return Value{}, fmt.Errorf("%w: %d does not fit in signed", ErrOverflow, v.num)
			}
			return Signed(int32(v.num)), nil
		}

	case dictionary.TypeDate:
		switch v.typ {
		case dictionary.TypeInteger:
			return Value{typ: dictionary.TypeDate, num: v.num}, nil
		case dictionary.TypeSigned:
			if v.sign < 0 {
				return Value{}, fmt.Errorf("%w: negative date %d", ErrOverflow, v.sign)
			}
			return Value{typ: dictionary.TypeDate, num: uint64(v.sign)}, nil
		}

	case dictionary.TypeEthernet:
		if v.typ == dictionary.TypeInteger64 {
			if v.num>>48 != 0 {
				return Value{}, fmt.Errorf("%w: %d does not fit in ether", ErrOverflow, v.num)
			}
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], v.num)
			return Ethernet([6]byte(buf[2:])), nil
		}

	case dictionary.TypeIfID:
		if v.typ == dictionary.TypeInteger64 {
			var id [8]byte
			binary.BigEndian.PutUint64(id[:], v.num)
			return IfID(id), nil
		}

	case dictionary.TypeIPv4Addr:
		switch v.typ {
		case dictionary.TypeInteger:
			var a [4]byte
			binary.BigEndian.PutUint32(a[:], uint32(v.num))
			return IPv4Addr(netip.AddrFrom4(a))
		case dictionary.TypeIPv4Prefix:
			if v.bits != 32 {
				return Value{}, fmt.Errorf("%w: only /32 prefixes may be cast to ipaddr", ErrInvalidValue)
			}
			return IPv4Addr(v.addr)
		case dictionary.TypeIPv6Addr, dictionary.TypeIPv6Prefix:
			a, ok := unmapV4(v)
			if !ok {
				return Value{}, fmt.Errorf("%w: %s is not a v4 mapped address", ErrInvalidValue, v.Print(nil, 0))
			}
			return IPv4Addr(a)
		}

	case dictionary.TypeIPv4Prefix:
		switch v.typ {
		case dictionary.TypeIPv4Addr:
			return IPv4Prefix(netip.PrefixFrom(v.addr, 32))
		case dictionary.TypeIPv6Addr, dictionary.TypeIPv6Prefix:
			a, ok := unmapV4(v)
			if !ok {
				return Value{}, fmt.Errorf("%w: %s is not a v4 mapped prefix", ErrInvalidValue, v.Print(nil, 0))
			}
			return IPv4Prefix(netip.PrefixFrom(a, v.bits-96))
		}

	case dictionary.TypeIPv6Addr:
		switch v.typ {
		case dictionary.TypeIPv4Addr:
			return IPv6Addr(mapV4(v.addr))
		case dictionary.TypeIPv4Prefix:
			if v.bits != 32 {
				return Value{}, fmt.Errorf("%w: only /32 prefixes may be cast to ipv6addr", ErrInvalidValue)
			}
			return IPv6Addr(mapV4(v.addr))
		case dictionary.TypeIPv6Prefix:
			if v.bits != 128 {
				return Value{}, fmt.Errorf("%w: only /128 prefixes may be cast to ipv6addr", ErrInvalidValue)
			}
			return IPv6Addr(v.addr)
		}

	case dictionary.TypeIPv6Prefix:
		switch v.typ {
		case dictionary.TypeIPv4Addr:
			return IPv6Prefix(netip.PrefixFrom(mapV4(v.addr), 128))
		case dictionary.TypeIPv4Prefix:
			return IPv6Prefix(netip.PrefixFrom(mapV4(v.addr), v.bits+96))
		case dictionary.TypeIPv6Addr:
			return IPv6Prefix(netip.PrefixFrom(v.addr, 128))
		}
	}

	return Value{}, fmt.Errorf("%w: invalid cast from %s to %s", ErrTypeMismatch, v.typ, dst)
}

func mapV4(a netip.Addr) netip.Addr {
	var b [16]byte
	copy(b[:12], v4Mapped[:])
	copy(b[12:], a.AsSlice())
	return netip.AddrFrom16(b)
}

// unmapV4 extracts the IPv4 part of a v4 mapped address or prefix
func unmapV4(v Value) (netip.Addr, bool) {
	b := v.addr.As16()
	if [12]byte(b[:12]) != v4Mapped {
		return netip.Addr{}, false
	}
	if v.typ == dictionary.TypeIPv6Prefix && v.bits < 96 {
		return netip.Addr{}, false
	}
	return netip.AddrFrom4([4]byte(b[12:])), true
}
