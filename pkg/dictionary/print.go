package dictionary

import (
	"fmt"
	"io"
	"strings"
)

func kindName(t Type) string {
	switch t {
	case TypeVSA:
		return "VSA"
	case TypeExtended:
		return "EXTENDED"
	case TypeTLV:
		return "TLV"
	case TypeEVS:
		return "EVS"
	case TypeVendor:
		return "VENDOR"
	case TypeLongExtended:
		return "LONG EXTENDED"
	case TypeStruct:
		return "STRUCT"
	default:
		return "ATTRIBUTE"
	}
}

// Dump writes a and all of its descendants to w, one line per attribute
func Dump(w io.Writer, a *Attribute) error {
	return dump(w, a, 0)
}

func dump(w io.Writer, a *Attribute, indent int) error {
	_, err := fmt.Fprintf(w, "%d%s%s %q vendor: %x (%d), num: %x (%d), type: %s, flags: %s\n",
		a.Depth, strings.Repeat("\t", indent), kindName(a.Type), a.Name,
		a.Vendor, a.Vendor, a.Attr, a.Attr, a.Type, a.Flags)
	if err != nil {
		return err
	}

	for _, c := range a.Children() {
		if err := dump(w, c, indent+1); err != nil {
			return err
		}
	}

	return nil
}

// Dump writes the whole dictionary tree to w
func (d *Dictionary) Dump(w io.Writer) error {
	return Dump(w, d.root)
}
