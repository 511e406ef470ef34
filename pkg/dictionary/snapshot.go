package dictionary

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// SnapshotVersion is the layout version written into snapshots
const SnapshotVersion = 1

// encMode is the CBOR encoder mode for dictionary snapshots.
// Deterministic so identical dictionaries produce identical images.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for dictionary snapshots.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

type snapshot struct {
	Version  int              `cbor:"1,keyasint"`
	ID       []byte           `cbor:"2,keyasint"`
	Protocol string           `cbor:"3,keyasint"`
	MaxAttr  uint32           `cbor:"4,keyasint"`
	Vendors  []snapshotVendor `cbor:"5,keyasint"`
	Attrs    []snapshotAttr   `cbor:"6,keyasint"`
	Enums    []snapshotEnum   `cbor:"7,keyasint"`
	Aliases  [][2]int         `cbor:"8,keyasint"`
}

type snapshotVendor struct {
	Vendor  Vendor `cbor:"1,keyasint"`
	Current bool   `cbor:"2,keyasint,omitempty"`
}

// snapshotAttr is a tree node in pre-order. Parent indexes Attrs, -1 is the root.
type snapshotAttr struct {
	Parent  int    `cbor:"1,keyasint"`
	Name    string `cbor:"2,keyasint"`
	Attr    uint32 `cbor:"3,keyasint"`
	Vendor  uint32 `cbor:"4,keyasint"`
	Type    Type   `cbor:"5,keyasint"`
	Flags   Flags  `cbor:"6,keyasint"`
	Indexed bool   `cbor:"7,keyasint,omitempty"`
}

type snapshotEnum struct {
	Attr      int    `cbor:"1,keyasint"`
	Name      string `cbor:"2,keyasint"`
	Value     uint32 `cbor:"3,keyasint"`
	Printable bool   `cbor:"4,keyasint,omitempty"`
}

// Snapshot encodes the fully loaded dictionary as CBOR. Dictionaries
// with pending VALUE fixups cannot be snapshotted.
func (d *Dictionary) Snapshot() ([]byte, error) {
	if len(d.fixups) > 0 {
		return nil, fmt.Errorf("%w: %d VALUEs have no ATTRIBUTE", ErrNotFound, len(d.fixups))
	}

	s := snapshot{
		Version:  SnapshotVersion,
		ID:       d.ID[:],
		Protocol: d.root.Name,
		MaxAttr:  d.maxAttr,
	}

	for _, v := range d.vendorsByName {
		s.Vendors = append(s.Vendors, snapshotVendor{
			Vendor:  *v,
			Current: d.vendorsByNumber[v.Number] == v,
		})
	}
	sortVendors(s.Vendors)

	index := make(map[*Attribute]int)

	var walk func(parent *Attribute, pi int)
	walk = func(parent *Attribute, pi int) {
		for _, c := range parent.Children() {
			index[c] = len(s.Attrs)
			s.Attrs = append(s.Attrs, snapshotAttr{
				Parent:  pi,
				Name:    c.Name,
				Attr:    c.Attr,
				Vendor:  c.Vendor,
				Type:    c.Type,
				Flags:   c.Flags,
				Indexed: d.byName[strings.ToLower(c.Name)] == c,
			})
			walk(c, index[c])
		}
	}
	walk(d.root, -1)

	d.Walk(func(a *Attribute) bool {
		for _, e := range d.Enums(a) {
			if e.Attr != a {
				continue
			}
			s.Enums = append(s.Enums, snapshotEnum{
				Attr:      index[a],
				Name:      e.Name,
				Value:     e.Value,
				Printable: d.enumsByValue[enumValueKey{attr: a, value: e.Value}] == e,
			})
		}
		return true
	})

	for alias, target := range d.enumAliases {
		ai, ok := index[alias]
		if !ok {
			continue
		}
		ti, ok := index[target]
		if !ok {
			continue
		}
		s.Aliases = append(s.Aliases, [2]int{ai, ti})
	}
	sortAliases(s.Aliases)

	data, err := encMode.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return data, nil
}

// WriteSnapshot writes the CBOR snapshot of d to w
func (d *Dictionary) WriteSnapshot(w io.Writer) error {
	data, err := d.Snapshot()
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// Restore rebuilds a dictionary from a CBOR snapshot
func Restore(data []byte, opts ...Option) (*Dictionary, error) {
	var s snapshot
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	id, err := uuid.FromBytes(s.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot id: %w", err)
	}

	d := New(s.Protocol, append([]Option{WithID(id)}, opts...)...)
	d.maxAttr = s.MaxAttr

	for _, sv := range s.Vendors {
		v := sv.Vendor
		d.vendorsByName[strings.ToLower(v.Name)] = &v
		if sv.Current {
			d.vendorsByNumber[v.Number] = &v
		}
	}

	attrs := make([]*Attribute, len(s.Attrs))
	for i, sa := range s.Attrs {
		parent := d.root
		if sa.Parent >= 0 {
			if sa.Parent >= i {
				return nil, fmt.Errorf("%w: snapshot attribute %s refers to a later parent", ErrInvalidOID, sa.Name)
			}
			parent = attrs[sa.Parent]
		}

		a := &Attribute{
			Name:   sa.Name,
			Attr:   sa.Attr,
			Vendor: sa.Vendor,
			Type:   sa.Type,
			Flags:  sa.Flags,
		}
		parent.addChild(a)
		attrs[i] = a

		if sa.Indexed {
			d.byName[strings.ToLower(a.Name)] = a
		}

		if a.Type == TypeComboIPAddr {
			for _, t := range []Type{TypeIPv4Addr, TypeIPv6Addr} {
				c := *a
				c.Type = t
				c.children = nil
				d.combo[comboKey{vendor: a.Vendor, attr: a.Attr, typ: t}] = &c
			}
		}
	}

	lookup := func(i int) (*Attribute, error) {
		if i < 0 || i >= len(attrs) {
			return nil, fmt.Errorf("%w: snapshot index %d out of range", ErrNotFound, i)
		}
		return attrs[i], nil
	}

	for _, se := range s.Enums {
		a, err := lookup(se.Attr)
		if err != nil {
			return nil, err
		}

		e := &Enum{Name: se.Name, Value: se.Value, Attr: a}
		d.enumsByName[enumNameKey{attr: a, name: strings.ToLower(e.Name)}] = e
		if se.Printable {
			d.enumsByValue[enumValueKey{attr: a, value: e.Value}] = e
		}
	}

	for _, pair := range s.Aliases {
		alias, err := lookup(pair[0])
		if err != nil {
			return nil, err
		}
		target, err := lookup(pair[1])
		if err != nil {
			return nil, err
		}
		d.enumAliases[alias] = target
	}

	d.logger.Debugf("restored dictionary %s (%s) with %d attributes", s.Protocol, id, len(attrs))

	return d, nil
}

// ReadSnapshot restores a dictionary from a CBOR snapshot read from r
func ReadSnapshot(r io.Reader, opts ...Option) (*Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return Restore(data, opts...)
}

func sortVendors(vs []snapshotVendor) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Vendor.Number != vs[j].Vendor.Number {
			return vs[i].Vendor.Number < vs[j].Vendor.Number
		}
		return vs[i].Vendor.Name < vs[j].Vendor.Name
	})
}

func sortAliases(pairs [][2]int) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0] < pairs[j][0]
	})
}
