package dictionary

import (
	"fmt"
	"sort"
	"strings"
)

// EncryptionType names an obscuring scheme in YAML and JSON definitions
type EncryptionType string

const (
	EncryptionNone           EncryptionType = ""
	EncryptionUserPassword   EncryptionType = "user-password"
	EncryptionTunnelPassword EncryptionType = "tunnel-password"
	EncryptionAscendSecret   EncryptionType = "ascend-secret"
)

// Encrypt converts the definition name into the flag value
func (e EncryptionType) Encrypt() (Encrypt, error) {
	switch EncryptionType(strings.ToLower(string(e))) {
	case EncryptionNone:
		return EncryptNone, nil
	case EncryptionUserPassword:
		return EncryptUserPassword, nil
	case EncryptionTunnelPassword:
		return EncryptTunnelPassword, nil
	case EncryptionAscendSecret:
		return EncryptAscendSecret, nil
	default:
		return EncryptNone, fmt.Errorf("%w: unknown encryption %q", ErrInvalidFlags, string(e))
	}
}

// AttributeDefinition defines an attribute in structured form. Children
// are the members of a tlv or struct attribute.
type AttributeDefinition struct {
	ID          uint32                 `yaml:"id" json:"id"`
	Name        string                 `yaml:"name" json:"name"`
	DataType    string                 `yaml:"data_type" json:"data_type"`
	Length      uint8                  `yaml:"length,omitempty" json:"length,omitempty"`
	Encryption  EncryptionType         `yaml:"encryption,omitempty" json:"encryption,omitempty"`
	HasTag      bool                   `yaml:"has_tag,omitempty" json:"has_tag,omitempty"`
	Array       bool                   `yaml:"array,omitempty" json:"array,omitempty"`
	Concat      bool                   `yaml:"concat,omitempty" json:"concat,omitempty"`
	Internal    bool                   `yaml:"internal,omitempty" json:"internal,omitempty"`
	Virtual     bool                   `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	Values      map[string]uint32      `yaml:"values,omitempty" json:"values,omitempty"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Children    []*AttributeDefinition `yaml:"children,omitempty" json:"children,omitempty"`
}

// VendorDefinition defines a vendor and its attributes
type VendorDefinition struct {
	ID          uint32                 `yaml:"id" json:"id"`
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Format      string                 `yaml:"format,omitempty" json:"format,omitempty"`
	Attributes  []*AttributeDefinition `yaml:"attributes" json:"attributes"`
}

// Definition is a complete structured dictionary
type Definition struct {
	Name        string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Attributes  []*AttributeDefinition `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Vendors     []*VendorDefinition    `yaml:"vendors,omitempty" json:"vendors,omitempty"`
}

// flags converts the definition options into attribute flags
func (ad *AttributeDefinition) flags() (Type, Flags, error) {
	typ, ok := ParseType(ad.DataType)
	if !ok {
		return TypeInvalid, Flags{}, fmt.Errorf("%w: unknown data type '%s'", ErrInvalidType, ad.DataType)
	}

	enc, err := ad.Encryption.Encrypt()
	if err != nil {
		return TypeInvalid, Flags{}, err
	}

	return typ, Flags{
		Internal: ad.Internal,
		HasTag:   ad.HasTag,
		Array:    ad.Array,
		Concat:   ad.Concat,
		Virtual:  ad.Virtual,
		Encrypt:  enc,
		Length:   ad.Length,
	}, nil
}

// AddDefinition adds vendors and attributes from a structured definition.
// Values are bound immediately, so they must follow their attribute.
func (d *Dictionary) AddDefinition(def *Definition) error {
	if def == nil {
		return nil
	}

	if err := d.AddStandardAttributes(def.Attributes); err != nil {
		return err
	}

	for _, v := range def.Vendors {
		if err := d.AddVendorDefinition(v); err != nil {
			return err
		}
	}

	return d.ResolveFixups()
}

// AddStandardAttributes adds attribute definitions below the root
func (d *Dictionary) AddStandardAttributes(attrs []*AttributeDefinition) error {
	for _, ad := range attrs {
		if err := d.addDefinition(d.root, ad); err != nil {
			return err
		}
	}
	return nil
}

// AddVendorDefinition registers the vendor and adds its attributes below
// the vendor's node in Vendor-Specific.
func (d *Dictionary) AddVendorDefinition(vd *VendorDefinition) error {
	if vd == nil {
		return nil
	}

	if err := d.AddVendor(vd.Name, vd.ID); err != nil {
		return err
	}

	typeSize, length := defaultFormat(vd.ID)
	var continuation bool
	if vd.Format != "" {
		var err error
		typeSize, length, continuation, err = ParseVendorFormat("format="+vd.Format, vd.ID)
		if err != nil {
			return fmt.Errorf("vendor %s: %w", vd.Name, err)
		}
	}

	if err := d.SetVendorFormat(vd.ID, typeSize, length, continuation); err != nil {
		return err
	}

	v, _ := d.VendorByNumber(vd.ID)
	parent, err := d.vendorNode(d.root, nil, v)
	if err != nil {
		return err
	}

	for _, ad := range vd.Attributes {
		if err := d.addDefinition(parent, ad); err != nil {
			return fmt.Errorf("vendor %s: %w", vd.Name, err)
		}
	}

	return nil
}

func (d *Dictionary) addDefinition(parent *Attribute, ad *AttributeDefinition) error {
	typ, flags, err := ad.flags()
	if err != nil {
		return attrError(ad.Name, err)
	}

	if err := d.AddAttribute(parent, ad.Name, int(ad.ID), typ, flags); err != nil {
		return err
	}

	a, ok := parent.ChildByNumber(ad.ID)
	if !ok {
		return attrError(ad.Name, fmt.Errorf("%w: attribute was not added", ErrNotFound))
	}

	// Map order is random, keep enum insertion stable
	names := make([]string, 0, len(ad.Values))
	for name := range ad.Values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := ad.Values[names[i]], ad.Values[names[j]]
		if vi != vj {
			return vi < vj
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if err := d.AddEnum(a.Name, name, ad.Values[name]); err != nil {
			return fmt.Errorf("attribute %s: %w", a.Name, err)
		}
	}

	for _, child := range ad.Children {
		if err := d.addDefinition(a, child); err != nil {
			return err
		}
	}

	return nil
}
