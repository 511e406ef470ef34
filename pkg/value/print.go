package value

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

const dateLayout = "Jan _2 2006 15:04:05 MST"

// Escape makes s printable. Control characters and invalid UTF-8 become
// octal escapes. When quote is set, the quote and backslash are escaped too.
func Escape(s []byte, quote byte) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for len(s) > 0 {
		c := s[0]

		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRune(s)
			if r != utf8.RuneError || size > 1 {
				sb.Write(s[:size])
				s = s[size:]
				continue
			}
			fmt.Fprintf(&sb, "\\%03o", c)
			s = s[1:]
			continue
		}

		switch {
		case quote != 0 && c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case quote != 0 && c == '\\':
			sb.WriteString(`\\`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
		s = s[1:]
	}

	return sb.String()
}

// Print renders the value as text. Integer values use their enum name
// when enums knows one. A non-zero quote wraps strings and dates in that
// character.
func (v Value) Print(enums EnumLookup, quote byte) string {
	wrap := func(s string) string {
		if quote == 0 {
			return s
		}
		return string(quote) + s + string(quote)
	}

	switch v.typ {
	case dictionary.TypeString:
		if quote == 0 {
			return string(v.data)
		}
		return wrap(Escape(v.data, quote))

	case dictionary.TypeOctets, dictionary.TypeABinary:
		return "0x" + hex.EncodeToString(v.data)

	case dictionary.TypeByte, dictionary.TypeShort, dictionary.TypeInteger:
		if enums != nil {
			if name, ok := enums.EnumName(uint32(v.num)); ok {
				return name
			}
		}
		return strconv.FormatUint(v.num, 10)

	case dictionary.TypeInteger64:
		return strconv.FormatUint(v.num, 10)

	case dictionary.TypeSigned:
		return strconv.FormatInt(int64(v.sign), 10)

	case dictionary.TypeDecimal:
		return strconv.FormatFloat(v.float, 'g', -1, 64)

	case dictionary.TypeBool:
		if v.num != 0 {
			return "yes"
		}
		return "no"

	case dictionary.TypeDate:
		return wrap(v.Time().Format(dateLayout))

	case dictionary.TypeIPv4Addr, dictionary.TypeIPv6Addr:
		return v.addr.String()

	case dictionary.TypeIPv4Prefix, dictionary.TypeIPv6Prefix:
		return v.addr.String() + "/" + strconv.Itoa(v.bits)

	case dictionary.TypeEthernet:
		parts := make([]string, 6)
		for i, b := range v.fixed[:6] {
			parts[i] = fmt.Sprintf("%02x", b)
		}
		return strings.Join(parts, ":")

	case dictionary.TypeIfID:
		return fmt.Sprintf("%x:%x:%x:%x",
			binary.BigEndian.Uint16(v.fixed[0:]), binary.BigEndian.Uint16(v.fixed[2:]),
			binary.BigEndian.Uint16(v.fixed[4:]), binary.BigEndian.Uint16(v.fixed[6:]))

	default:
		return ""
	}
}

// String implements fmt.Stringer
func (v Value) String() string {
	return v.Print(nil, 0)
}
