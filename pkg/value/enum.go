package value

import "github.com/vitalvas/radwire/pkg/dictionary"

// EnumLookup resolves named values of one attribute
type EnumLookup interface {
	EnumValue(name string) (uint32, bool)
	EnumName(value uint32) (string, bool)
}

type attrEnums struct {
	d *dictionary.Dictionary
	a *dictionary.Attribute
}

// Enums returns the named values of a in d. A nil dictionary or attribute
// yields a nil lookup.
func Enums(d *dictionary.Dictionary, a *dictionary.Attribute) EnumLookup {
	if d == nil || a == nil {
		return nil
	}
	return attrEnums{d: d, a: a}
}

func (e attrEnums) EnumValue(name string) (uint32, bool) {
	en, ok := e.d.EnumByName(e.a, name)
	if !ok {
		return 0, false
	}
	return en.Value, true
}

func (e attrEnums) EnumName(value uint32) (string, bool) {
	en, ok := e.d.EnumByValue(e.a, value)
	if !ok {
		return "", false
	}
	return en.Name, true
}
