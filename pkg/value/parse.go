package value

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// Unescape expands backslash escapes in s. With quote set to '\'' only \'
// and \\ are recognised. Otherwise \r \n \t \\, an escaped quote, \xHH and
// three-digit octal escapes are expanded. Unrecognised escapes are kept
// verbatim.
func Unescape(s string, quote byte) []byte {
	out := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}

		next := s[i+1]

		if quote == '\'' {
			if next == '\'' || next == '\\' {
				out = append(out, next)
				i++
				continue
			}
			out = append(out, c)
			continue
		}

		switch {
		case next == 'r':
			out = append(out, '\r')
			i++
		case next == 'n':
			out = append(out, '\n')
			i++
		case next == 't':
			out = append(out, '\t')
			i++
		case next == '\\':
			out = append(out, '\\')
			i++
		case quote != 0 && next == quote:
			out = append(out, quote)
			i++
		case next == 'x' && i+3 < len(s) && isHex(s[i+2]) && isHex(s[i+3]):
			b, _ := strconv.ParseUint(s[i+2:i+4], 16, 8)
			out = append(out, byte(b))
			i += 3
		case i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]):
			b, err := strconv.ParseUint(s[i+1:i+4], 8, 16)
			if err != nil || b > 0xff {
				out = append(out, c)
				continue
			}
			out = append(out, byte(b))
			i += 3
		default:
			out = append(out, c)
		}
	}

	return out
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// parseUnsigned accepts decimal or 0x-prefixed hexadecimal numbers
func parseUnsigned(s string, bits int) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

// dateLayouts are tried in order when a date is not a plain number
var dateLayouts = []string{
	time.RFC3339,
	"Jan _2 2006 15:04:05 MST",
	"Jan _2 2006 15:04:05",
	"Jan _2 2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FromString parses the text form of a value of type typ. quote is the
// character the text was quoted with, or zero. enums resolves names for
// integer types and may be nil.
//
// ComboIPAddr yields an IPv4Addr or IPv6Addr value depending on the text.
func FromString(typ dictionary.Type, s string, quote byte, enums EnumLookup) (Value, error) {
	switch typ {
	case dictionary.TypeString:
		if quote == 0 {
			return String(s), nil
		}
		return Value{typ: typ, data: Unescape(s, quote)}, nil

	case dictionary.TypeVSA:
		return Value{}, fmt.Errorf("%w: must use 'Attr-26 = ...' instead of 'Vendor-Specific = ...'", ErrInvalidValue)

	case dictionary.TypeOctets, dictionary.TypeABinary:
		if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
			return Value{typ: typ, data: []byte(s)}, nil
		}
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid hex data in '%s'", ErrInvalidValue, s)
		}
		return Value{typ: typ, data: b}, nil

	case dictionary.TypeIPv4Addr:
		a, err := parseAddr(s, 32)
		if err != nil {
			return Value{}, err
		}
		return IPv4Addr(a)

	case dictionary.TypeIPv6Addr:
		a, err := parseAddr(s, 128)
		if err != nil {
			return Value{}, err
		}
		return IPv6Addr(a)

	case dictionary.TypeIPv4Prefix:
		p, err := parsePrefix(s)
		if err != nil {
			return Value{}, err
		}
		return IPv4Prefix(p)

	case dictionary.TypeIPv6Prefix:
		p, err := parsePrefix(s)
		if err != nil {
			return Value{}, err
		}
		return IPv6Prefix(p)

	case dictionary.TypeComboIPAddr:
		a, err := netip.ParseAddr(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid IP address '%s'", ErrInvalidValue, s)
		}
		if a.Is4() {
			return IPv4Addr(a)
		}
		return IPv6Addr(a)

	case dictionary.TypeByte, dictionary.TypeShort, dictionary.TypeInteger:
		return parseEnumerated(typ, s, enums)

	case dictionary.TypeInteger64:
		n, err := parseUnsigned(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid value '%s' for integer64", ErrInvalidValue, s)
		}
		return Integer64(n), nil

	case dictionary.TypeSigned:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid value '%s' for signed", ErrInvalidValue, s)
		}
		return Signed(int32(n)), nil

	case dictionary.TypeDecimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid value '%s' for decimal", ErrInvalidValue, s)
		}
		return Decimal(f), nil

	case dictionary.TypeBool:
		switch strings.ToLower(s) {
		case "yes", "true", "1":
			return Bool(true), nil
		case "no", "false", "0":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("%w: invalid value '%s' for bool", ErrInvalidValue, s)

	case dictionary.TypeDate:
		return parseDate(s)

	case dictionary.TypeIfID:
		return parseIfID(s)

	case dictionary.TypeEthernet:
		return parseEthernet(s)

	default:
		return Value{}, fmt.Errorf("%w: cannot parse values of type %s", ErrInvalidValue, typ)
	}
}

// parseAddr accepts an address with an optional host-length prefix
func parseAddr(s string, hostBits int) (netip.Addr, error) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		bits, err := strconv.Atoi(s[i+1:])
		if err != nil || bits != hostBits {
			return netip.Addr{}, fmt.Errorf("%w: invalid IP address suffix '%s', only '/%d' permitted for address types",
				ErrInvalidValue, s[i:], hostBits)
		}
		s = s[:i]
	}

	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: invalid IP address '%s'", ErrInvalidValue, s)
	}
	return a, nil
}

// parsePrefix accepts "addr/len" or a bare address as a host prefix
func parsePrefix(s string) (netip.Prefix, error) {
	if !strings.Contains(s, "/") {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: invalid IP prefix '%s'", ErrInvalidValue, s)
		}
		return netip.PrefixFrom(a, a.BitLen()), nil
	}

	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: invalid IP prefix '%s'", ErrInvalidValue, s)
	}
	return p, nil
}

func parseEnumerated(typ dictionary.Type, s string, enums EnumLookup) (Value, error) {
	limit := uint64(math.MaxUint32)
	switch typ {
	case dictionary.TypeByte:
		limit = math.MaxUint8
	case dictionary.TypeShort:
		limit = math.MaxUint16
	}

	n, err := parseUnsigned(s, 64)
	if err != nil {
		if enums == nil {
			return Value{}, fmt.Errorf("%w: unknown or invalid value '%s' for %s", ErrInvalidValue, s, typ)
		}
		ev, ok := enums.EnumValue(s)
		if !ok {
			return Value{}, fmt.Errorf("%w: unknown or invalid value '%s' for %s", ErrInvalidValue, s, typ)
		}
		n = uint64(ev)
	}

	if n > limit {
		return Value{}, fmt.Errorf("%w: value %d is too large for %s", ErrOverflow, n, typ)
	}

	return Value{typ: typ, num: n}, nil
}

func parseDate(s string) (Value, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Value{typ: dictionary.TypeDate, num: n}, nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Unix() < 0 || t.Unix() > math.MaxUint32 {
			return Value{}, fmt.Errorf("%w: date '%s' out of range", ErrOverflow, s)
		}
		return Date(t), nil
	}

	return Value{}, fmt.Errorf("%w: failed to parse time string '%s'", ErrInvalidValue, s)
}

// parseIfID accepts four colon-separated groups of up to four hex digits
func parseIfID(s string) (Value, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Value{}, fmt.Errorf("%w: failed to parse interface-id string '%s'", ErrInvalidValue, s)
	}

	var id [8]byte
	for i, p := range parts {
		if p == "" || len(p) > 4 {
			return Value{}, fmt.Errorf("%w: failed to parse interface-id string '%s'", ErrInvalidValue, s)
		}
		n, err := strconv.ParseUint(p, 16, 16)
		if err != nil {
			return Value{}, fmt.Errorf("%w: failed to parse interface-id string '%s'", ErrInvalidValue, s)
		}
		binary.BigEndian.PutUint16(id[i*2:], uint16(n))
	}

	return IfID(id), nil
}

// parseEthernet accepts a plain integer or six colon-separated hex octets
func parseEthernet(s string) (Value, error) {
	var mac [6]byte

	if n, err := strconv.ParseUint(s, 10, 48); err == nil {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], n)
		copy(mac[:], buf[2:])
		return Ethernet(mac), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return Value{}, fmt.Errorf("%w: failed to parse Ethernet address '%s'", ErrInvalidValue, s)
	}

	for i, p := range parts {
		if p == "" || len(p) > 2 {
			return Value{}, fmt.Errorf("%w: failed to parse Ethernet address '%s'", ErrInvalidValue, s)
		}
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return Value{}, fmt.Errorf("%w: failed to parse Ethernet address '%s'", ErrInvalidValue, s)
		}
		mac[i] = byte(n)
	}

	return Ethernet(mac), nil
}
