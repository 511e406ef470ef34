package dictionary

import (
	"fmt"
	"sort"
	"strings"
)

// Enum is a named value of an attribute
type Enum struct {
	Name  string
	Value uint32
	Attr  *Attribute
}

type enumNameKey struct {
	attr *Attribute
	name string
}

type enumValueKey struct {
	attr  *Attribute
	value uint32
}

// fixup is a VALUE whose attribute had not been defined yet
type fixup struct {
	attrName string
	enum     *Enum
}

// checkEnumValue enforces the value range of the attribute type
func checkEnumValue(a *Attribute, value uint32) error {
	switch a.Type {
	case TypeByte:
		if value > 0xff {
			return fmt.Errorf("%w: ATTRIBUTEs of type 'byte' cannot have VALUEs larger than 255", ErrInvalidFlags)
		}
	case TypeShort:
		if value > 0xffff {
			return fmt.Errorf("%w: ATTRIBUTEs of type 'short' cannot have VALUEs larger than 65535", ErrInvalidFlags)
		}
	case TypeInteger, TypeString:
	default:
		return fmt.Errorf("%w: VALUEs cannot be defined for attributes of type '%s'", ErrInvalidType, a.Type)
	}
	return nil
}

// AddEnum binds a value name to an attribute. If the attribute is not yet
// defined, the value is kept until ResolveFixups runs.
func (d *Dictionary) AddEnum(attrName, name string, value uint32) error {
	if name == "" {
		return fmt.Errorf("%w: empty names are not permitted", ErrInvalidName)
	}
	if len(name) >= MaxNameLength {
		return fmt.Errorf("%w: value name too long", ErrInvalidName)
	}

	e := &Enum{
		Name:  name,
		Value: value,
	}

	// VALUE lines are usually grouped by ATTRIBUTE
	var da *Attribute
	if d.lastEnumAttr != nil && strings.EqualFold(d.lastEnumAttr.Name, attrName) {
		da = d.lastEnumAttr
	} else {
		da, _ = d.AttrByName(attrName)
		d.lastEnumAttr = da
	}

	if da == nil {
		d.fixups = append(d.fixups, fixup{attrName: attrName, enum: e})
		return nil
	}

	if err := checkEnumValue(da, value); err != nil {
		return err
	}

	e.Attr = da

	nameKey := enumNameKey{attr: da, name: strings.ToLower(name)}
	if old, ok := d.enumsByName[nameKey]; ok {
		// Identical redefinitions are common in vendor dictionaries
		if old.Value == value {
			return nil
		}
		return fmt.Errorf("%w: duplicate value name %s for attribute %s", ErrDuplicate, name, attrName)
	}

	d.enumsByName[nameKey] = e
	d.enumsByValue[enumValueKey{attr: da, value: value}] = e

	return nil
}

// AddEnumAlias makes lookups of values on alias use the values of target
func (d *Dictionary) AddEnumAlias(alias, target *Attribute) {
	d.enumAliases[alias] = target
}

// ResolveFixups binds every pending VALUE to its attribute. A VALUE whose
// attribute still does not exist is an error.
//
// Pending VALUEs are bound newest first, so among names sharing a number
// the last one read prints, as for VALUEs bound directly.
func (d *Dictionary) ResolveFixups() error {
	fixups := d.fixups
	d.fixups = nil

	for i := len(fixups) - 1; i >= 0; i-- {
		f := fixups[i]

		a, ok := d.AttrByName(f.attrName)
		if !ok {
			d.fixups = fixups[:i+1]
			return fmt.Errorf("%w: no ATTRIBUTE '%s' defined for VALUE '%s'", ErrNotFound, f.attrName, f.enum.Name)
		}

		if err := checkEnumValue(a, f.enum.Value); err != nil {
			d.fixups = fixups[:i+1]
			return fmt.Errorf("value %s of attribute %s: %w", f.enum.Name, a.Name, err)
		}

		f.enum.Attr = a
		d.enumsByName[enumNameKey{attr: a, name: strings.ToLower(f.enum.Name)}] = f.enum

		// Old names still parse, but the newest one prints
		if a.Parent.Flags.IsRoot || (a.Parent.Type == TypeVendor && a.Parent.Parent != nil && a.Parent.Parent.Type == TypeVSA) {
			key := enumValueKey{attr: a, value: f.enum.Value}
			if _, ok := d.enumsByValue[key]; !ok {
				d.enumsByValue[key] = f.enum
			}
		}

		d.logger.Debugf("resolved VALUE %s for ATTRIBUTE %s", f.enum.Name, a.Name)
	}

	return nil
}

// PendingFixups returns the number of VALUEs waiting for their attribute
func (d *Dictionary) PendingFixups() int {
	return len(d.fixups)
}

func (d *Dictionary) enumTarget(a *Attribute) *Attribute {
	if t, ok := d.enumAliases[a]; ok {
		return t
	}
	return a
}

// EnumByName returns the named value of an attribute, case-insensitively
func (d *Dictionary) EnumByName(a *Attribute, name string) (*Enum, bool) {
	if a == nil {
		return nil, false
	}
	e, ok := d.enumsByName[enumNameKey{attr: d.enumTarget(a), name: strings.ToLower(name)}]
	return e, ok
}

// EnumByValue returns the value definition for a number
func (d *Dictionary) EnumByValue(a *Attribute, value uint32) (*Enum, bool) {
	if a == nil {
		return nil, false
	}
	e, ok := d.enumsByValue[enumValueKey{attr: d.enumTarget(a), value: value}]
	return e, ok
}

// EnumName returns the name of a value, or an empty string
func (d *Dictionary) EnumName(a *Attribute, value uint32) string {
	if e, ok := d.EnumByValue(a, value); ok {
		return e.Name
	}
	return ""
}

// Enums returns every value of an attribute ordered by number
func (d *Dictionary) Enums(a *Attribute) []*Enum {
	target := d.enumTarget(a)

	var out []*Enum
	for k, e := range d.enumsByName {
		if k.attr == target {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].Name < out[j].Name
	})

	return out
}
