package value

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// Op is a comparison operator
type Op uint8

const (
	OpInvalid Op = iota
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var opNames = map[Op]string{
	OpEq: "==",
	OpNe: "!=",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// String returns the operator as written in text
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "?"
}

// ParseOp returns the operator for its text form
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return OpInvalid, false
}

// Compare orders two values of the same type. Byte strings compare by
// content first and then by length.
func Compare(a, b Value) (int, error) {
	if a.typ != b.typ {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, a.typ, b.typ)
	}

	switch a.typ {
	case dictionary.TypeString, dictionary.TypeOctets, dictionary.TypeABinary:
		n := min(len(a.data), len(b.data))
		if c := bytes.Compare(a.data[:n], b.data[:n]); c != 0 {
			return c, nil
		}
		return cmp.Compare(len(a.data), len(b.data)), nil

	case dictionary.TypeBool, dictionary.TypeByte, dictionary.TypeShort,
		dictionary.TypeInteger, dictionary.TypeInteger64, dictionary.TypeDate:
		return cmp.Compare(a.num, b.num), nil

	case dictionary.TypeSigned:
		return cmp.Compare(a.sign, b.sign), nil

	case dictionary.TypeDecimal:
		return cmp.Compare(a.float, b.float), nil

	case dictionary.TypeEthernet, dictionary.TypeIfID:
		return bytes.Compare(a.fixed[:], b.fixed[:]), nil

	case dictionary.TypeIPv4Addr, dictionary.TypeIPv6Addr:
		return a.addr.Compare(b.addr), nil

	case dictionary.TypeIPv4Prefix, dictionary.TypeIPv6Prefix:
		return bytes.Compare(a.Wire(), b.Wire()), nil

	default:
		return 0, fmt.Errorf("%w: cannot compare values of type %s", ErrInvalidValue, a.typ)
	}
}

// CompareOp evaluates "a op b". Addresses and prefixes of one family
// compare by containment: a < b holds when a lies strictly inside b.
func CompareOp(op Op, a, b Value) (bool, error) {
	if isNetwork(a.typ) && isNetwork(b.typ) {
		return compareNetworks(op, a, b)
	}

	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}

	return applyOp(op, c), nil
}

func applyOp(op Op, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

func isNetwork(t dictionary.Type) bool {
	switch t {
	case dictionary.TypeIPv4Addr, dictionary.TypeIPv4Prefix, dictionary.TypeIPv6Addr, dictionary.TypeIPv6Prefix:
		return true
	}
	return false
}

func compareNetworks(op Op, a, b Value) (bool, error) {
	if a.addr.Is4() != b.addr.Is4() {
		return false, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, a.typ, b.typ)
	}

	// Plain addresses keep their numeric order
	if a.typ == b.typ && (a.typ == dictionary.TypeIPv4Addr || a.typ == dictionary.TypeIPv6Addr) {
		return applyOp(op, a.addr.Compare(b.addr)), nil
	}

	ap, bp := a.Prefix(), b.Prefix()

	switch op {
	case OpEq:
		return ap == bp, nil
	case OpNe:
		return ap != bp, nil
	case OpLt:
		return ap.Bits() > bp.Bits() && bp.Contains(ap.Addr()), nil
	case OpLe:
		return ap.Bits() >= bp.Bits() && bp.Contains(ap.Addr()), nil
	case OpGt:
		return ap.Bits() < bp.Bits() && ap.Contains(bp.Addr()), nil
	case OpGe:
		return ap.Bits() <= bp.Bits() && ap.Contains(bp.Addr()), nil
	default:
		return false, nil
	}
}
