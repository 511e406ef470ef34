// Package radwire encodes RADIUS attributes against FreeRADIUS style
// dictionaries.
//
// The work is done by the packages below pkg/: dictionary loads and
// queries dictionaries, value holds typed attribute values, encoder turns
// attribute pairs into wire format and packet assembles and verifies whole
// packets. This package only offers shortcuts for the common case.
package radwire

import (
	"github.com/vitalvas/radwire/pkg/dictionaries"
	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/packet"
)

// NewDefault creates a dictionary pre-loaded with the standard RFC
// attributes and the bundled vendor dictionaries.
//
// Example usage:
//
//	dict, err := radwire.NewDefault()
//	if err != nil {
//		return err
//	}
//	pair, err := radwire.ParsePair(dict, "User-Name", "bob")
func NewDefault(opts ...dictionary.Option) (*dictionary.Dictionary, error) {
	return dictionaries.NewDefault(opts...)
}

// ParsePair builds an attribute pair from its name and unquoted text value
func ParsePair(d *dictionary.Dictionary, name, text string) (*encoder.Pair, error) {
	return encoder.ParsePair(d, name, text, 0)
}

// Encode builds a packet from pairs and returns its wire form
func Encode(code packet.Code, identifier uint8, secret []byte, pairs ...*encoder.Pair) ([]byte, error) {
	p := packet.New(code, identifier)
	p.Add(pairs...)
	return p.Encode(secret)
}
