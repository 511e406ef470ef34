// Package dictionaries bundles the standard RADIUS attributes and a set of
// common vendor dictionaries.
package dictionaries

import (
	"embed"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// Protocol is the name of the root of the default dictionary
const Protocol = "RADIUS"

// RootFile is the entry point of the embedded dictionary files
const RootFile = "files/dictionary"

// Files holds the embedded vendor and extended attribute dictionaries
//
//go:embed files/*
var Files embed.FS

// NewDefault creates a dictionary pre-loaded with all standard RFC attributes and common vendor dictionaries.
// Currently includes:
//   - RFC 2865/2866/2868/2869 and later standard attributes
//   - RFC 6929 extended attributes
//   - Ascend, Juniper ERX, Juniper, USR and WiMAX vendor attributes
//   - WISPr and Mikrotik vendor attributes
//
// Returns an error if there are duplicate attribute names, which would indicate a programming error
// in the dictionary definitions.
//
// Example usage:
//
//	dict, err := dictionaries.NewDefault()
//	if err != nil {
//		return err
//	}
//	attr, ok := dict.AttrByName("User-Name")
func NewDefault(opts ...dictionary.Option) (*dictionary.Dictionary, error) {
	dict := dictionary.New(Protocol, opts...)

	if err := dict.AddStandardAttributes(StandardRFCAttributes); err != nil {
		return nil, err
	}

	if err := dict.ReadFS(Files, RootFile); err != nil {
		return nil, err
	}

	for _, vd := range VendorDefinitions {
		if err := dict.AddVendorDefinition(vd); err != nil {
			return nil, err
		}
	}

	if err := dict.ResolveFixups(); err != nil {
		return nil, err
	}

	return dict, nil
}

// VendorDefinitions lists the vendors defined in Go rather than in files
var VendorDefinitions = []*dictionary.VendorDefinition{
	WISPrVendorDefinition,
	MikrotikVendorDefinition,
}
