package dictionary

import (
	"strconv"
	"strings"
)

// Encrypt identifies the obscuring scheme applied to an attribute value
type Encrypt uint8

const (
	EncryptNone Encrypt = iota
	EncryptUserPassword
	EncryptTunnelPassword
	EncryptAscendSecret
)

// String returns a human-readable name for the scheme
func (e Encrypt) String() string {
	switch e {
	case EncryptNone:
		return "none"
	case EncryptUserPassword:
		return "User-Password"
	case EncryptTunnelPassword:
		return "Tunnel-Password"
	case EncryptAscendSecret:
		return "Ascend-Secret"
	default:
		return "encrypt-" + strconv.Itoa(int(e))
	}
}

// Flags holds the per-attribute options that shape validation and encoding
type Flags struct {
	IsRoot    bool `yaml:"-" json:"-" cbor:"1,keyasint,omitempty"`
	IsUnknown bool `yaml:"-" json:"-" cbor:"2,keyasint,omitempty"`
	Internal  bool `yaml:"internal,omitempty" json:"internal,omitempty" cbor:"3,keyasint,omitempty"`
	HasTag    bool `yaml:"has_tag,omitempty" json:"has_tag,omitempty" cbor:"4,keyasint,omitempty"`
	Array     bool `yaml:"array,omitempty" json:"array,omitempty" cbor:"5,keyasint,omitempty"`
	HasValue  bool `yaml:"-" json:"-" cbor:"6,keyasint,omitempty"`
	Concat    bool `yaml:"concat,omitempty" json:"concat,omitempty" cbor:"7,keyasint,omitempty"`
	Virtual   bool `yaml:"virtual,omitempty" json:"virtual,omitempty" cbor:"8,keyasint,omitempty"`

	Encrypt Encrypt `yaml:"encrypt,omitempty" json:"encrypt,omitempty" cbor:"9,keyasint,omitempty"`

	// Length is the fixed value length for leaf types, or the width of
	// the length field for TLV and vendor nodes.
	Length uint8 `yaml:"length,omitempty" json:"length,omitempty" cbor:"10,keyasint,omitempty"`

	// TypeSize is the width of the type field of children (TLV and vendor nodes only).
	TypeSize uint8 `yaml:"type_size,omitempty" json:"type_size,omitempty" cbor:"11,keyasint,omitempty"`
}

// String renders the flags as a comma-separated list in dictionary order
func (f Flags) String() string {
	var parts []string

	add := func(set bool, name string) {
		if set {
			parts = append(parts, name)
		}
	}

	add(f.IsRoot, "is_root")
	add(f.IsUnknown, "is_unknown")
	add(f.Internal, "internal")
	add(f.HasTag, "has_tag")
	add(f.Array, "array")
	add(f.HasValue, "has_value")
	add(f.Concat, "concat")
	add(f.Virtual, "virtual")

	if f.Encrypt != EncryptNone {
		parts = append(parts, "encrypt="+strconv.Itoa(int(f.Encrypt)))
	}
	if f.Length != 0 {
		parts = append(parts, "length="+strconv.Itoa(int(f.Length)))
	}

	return strings.Join(parts, ",")
}
