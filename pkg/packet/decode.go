package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/dictionary"
)

var (
	// ErrMalformed is returned for encoded packets with an invalid structure
	ErrMalformed = errors.New("malformed packet")

	// ErrMissingMessageAuthenticator is returned when a required
	// Message-Authenticator is absent
	ErrMissingMessageAuthenticator = errors.New("missing Message-Authenticator")
)

// ValidationError reports which check an encoded packet failed
type ValidationError struct {
	Kind string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation error: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Attribute is one top-level attribute of an encoded packet
type Attribute struct {
	Type  uint8
	Value []byte
}

// VendorSpecific splits a Vendor-Specific attribute into the vendor PEN
// and the vendor data
func (a Attribute) VendorSpecific() (uint32, []byte, bool) {
	if a.Type != dictionary.AttrVendorSpecific || len(a.Value) < 4 {
		return 0, nil, false
	}
	return binary.BigEndian.Uint32(a.Value), a.Value[4:], true
}

// Header is the decoded header and attribute list of an encoded packet
type Header struct {
	Code          Code
	Identifier    uint8
	Length        uint16
	Authenticator crypto.Authenticator
	Attributes    []Attribute
}

// Find returns the first attribute of the given type
func (h *Header) Find(typ uint8) (Attribute, bool) {
	for _, a := range h.Attributes {
		if a.Type == typ {
			return a, true
		}
	}
	return Attribute{}, false
}

// FindAll returns every attribute of the given type
func (h *Header) FindAll(typ uint8) []Attribute {
	var attrs []Attribute
	for _, a := range h.Attributes {
		if a.Type == typ {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// Decode checks the structure of an encoded packet and splits it into its
// header and top-level attributes. Attribute values alias data.
func Decode(data []byte) (*Header, error) {
	if len(data) < HeaderLength {
		return nil, &ValidationError{"Structure", fmt.Errorf("%w: packet too short: %d bytes", ErrMalformed, len(data))}
	}
	if len(data) > MaxPacketLength {
		return nil, &ValidationError{"Structure", fmt.Errorf("%w: packet too large: %d bytes", ErrMalformed, len(data))}
	}

	length := binary.BigEndian.Uint16(data[2:4])
	if int(length) != len(data) {
		return nil, &ValidationError{"Length", fmt.Errorf("%w: declared %d, actual %d", ErrMalformed, length, len(data))}
	}

	h := &Header{
		Code:       Code(data[0]),
		Identifier: data[1],
		Length:     length,
	}
	copy(h.Authenticator[:], data[4:HeaderLength])

	if !h.Code.IsValid() {
		return nil, &ValidationError{"Structure", fmt.Errorf("%w: %d", ErrInvalidCode, data[0])}
	}

	for off := HeaderLength; off < len(data); {
		if off+attributeHeaderLength > len(data) {
			return nil, &ValidationError{"Attribute", fmt.Errorf("%w: incomplete attribute header at offset %d", ErrMalformed, off)}
		}

		n := int(data[off+1])
		if n < attributeHeaderLength {
			return nil, &ValidationError{"Attribute", fmt.Errorf("%w: invalid attribute length %d at offset %d", ErrMalformed, n, off)}
		}
		if off+n > len(data) {
			return nil, &ValidationError{"Attribute", fmt.Errorf("%w: attribute at offset %d overflows packet", ErrMalformed, off)}
		}

		h.Attributes = append(h.Attributes, Attribute{Type: data[off], Value: data[off+attributeHeaderLength : off+n]})
		off += n
	}

	return h, nil
}

// Verify checks an encoded packet: its structure, its authenticator and
// its Message-Authenticator when present. request is the authenticator of
// the request a reply answers and is ignored for requests. Access-Request
// and Status-Server authenticators are nonces and only checked to be
// non-zero.
func Verify(data, secret []byte, request *crypto.Authenticator, opts ...Option) (*Header, error) {
	o := newOptions(opts)

	h, err := Decode(data)
	if err != nil {
		return nil, err
	}

	// Authenticator the Message-Authenticator is keyed by
	var macAuth crypto.Authenticator

	switch {
	case h.Code.IsHashedRequest():
		if err := crypto.VerifyRequest(data, secret); err != nil {
			return nil, &ValidationError{"Authenticator", err}
		}

	case h.Code.IsRequest():
		if h.Authenticator.IsZero() {
			return nil, &ValidationError{"Authenticator", fmt.Errorf("%w: %s authenticator cannot be all zeros", crypto.ErrAuthenticatorMismatch, h.Code)}
		}
		macAuth = h.Authenticator

	default:
		if request == nil {
			return nil, &ValidationError{"Authenticator", ErrNoRequest}
		}
		if err := crypto.VerifyResponse(data, *request, secret); err != nil {
			return nil, &ValidationError{"Authenticator", err}
		}
		macAuth = *request
	}

	if crypto.FindMessageAuthenticator(data) < 0 {
		if o.requireMessageAuth || h.Code.RequiresMessageAuthenticator() {
			return nil, &ValidationError{"MessageAuthenticator", ErrMissingMessageAuthenticator}
		}
		return h, nil
	}

	if err := crypto.VerifyMessageAuthenticator(data, macAuth, secret); err != nil {
		return nil, &ValidationError{"MessageAuthenticator", err}
	}

	return h, nil
}
