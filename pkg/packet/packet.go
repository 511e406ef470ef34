// Package packet assembles RADIUS packets from attribute pairs and checks
// the integrity of encoded packets.
package packet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/encoder"
)

const (
	// HeaderLength is the length of the RADIUS packet header
	HeaderLength = crypto.HeaderLength

	// MaxPacketLength is the maximum allowed RADIUS packet length
	MaxPacketLength = encoder.MaxPacketLength

	attributeHeaderLength = 2

	attrEAPMessage = 79

	messageAuthenticatorAttrLength = attributeHeaderLength + crypto.MessageAuthenticatorLength
)

var (
	// ErrInvalidCode is returned for unknown packet codes
	ErrInvalidCode = errors.New("invalid packet code")

	// ErrNoRequest is returned when a reply is built or checked without the
	// authenticator of its request
	ErrNoRequest = errors.New("reply needs the request authenticator")

	// ErrPacketTooLarge is returned when the attributes do not fit in one packet
	ErrPacketTooLarge = errors.New("attributes do not fit in packet")
)

// Packet is a RADIUS packet built from attribute pairs
type Packet struct {
	Code       Code
	Identifier uint8

	// Authenticator is set by Encode. Access-Request and Status-Server
	// packets keep a non-zero value given by the caller.
	Authenticator crypto.Authenticator

	// Request is the authenticator of the request a reply answers
	Request *crypto.Authenticator

	Pairs []*encoder.Pair
}

// New creates a new RADIUS packet with the specified code and identifier
func New(code Code, identifier uint8) *Packet {
	return &Packet{
		Code:       code,
		Identifier: identifier,
	}
}

// NewReply creates a reply with the identifier and authenticator of request
func NewReply(request *Packet, code Code) *Packet {
	auth := request.Authenticator
	return &Packet{
		Code:       code,
		Identifier: request.Identifier,
		Request:    &auth,
	}
}

// Add appends pairs to the packet
func (p *Packet) Add(pairs ...*encoder.Pair) {
	p.Pairs = append(p.Pairs, pairs...)
}

// Encode encodes the packet: header, attributes, Message-Authenticator
// and the authenticator appropriate for the packet code. The final
// authenticator is stored in p.Authenticator.
func (p *Packet) Encode(secret []byte, opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	if !p.Code.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCode, p.Code)
	}

	// The authenticator in the header while attributes are encoded
	var header crypto.Authenticator

	switch {
	case p.Code.IsHashedRequest():
		// Hashed over sixteen zero octets

	case p.Code.IsRequest():
		header = p.Authenticator
		if header.IsZero() {
			r := o.rand
			if r == nil {
				r = rand.Reader
			}

			var err error
			header, err = crypto.ReadAuthenticator(r)
			if err != nil {
				return nil, err
			}
		}

	default:
		if p.Request == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoRequest, p.Code)
		}
		header = *p.Request
	}

	original := p.Request
	if p.Code.IsRequest() {
		original = &header
	}

	ctx := &encoder.Context{
		Secret:        secret,
		Code:          uint8(p.Code),
		Authenticator: header,
		Original:      original,
		Salts:         o.salts,
		Logger:        o.logger,
	}

	buf := make([]byte, MaxPacketLength)
	buf[0] = byte(p.Code)
	buf[1] = p.Identifier

	off := HeaderLength
	cur := encoder.NewCursor(p.Pairs)
	hasMessageAuth := false

	for pair := cur.Current(); pair != nil; pair = cur.Current() {
		if pair.Attr != nil && pair.Attr.Vendor == 0 && pair.Attr.Attr == crypto.MessageAuthenticatorType {
			hasMessageAuth = true
		}

		if len(buf)-off <= attributeHeaderLength {
			return nil, fmt.Errorf("%w: %d pairs left", ErrPacketTooLarge, len(cur.Remaining()))
		}

		n, err := encoder.EncodePair(buf[off:], cur, ctx)
		if err != nil {
			if errors.Is(err, encoder.ErrStructureTooLarge) {
				return nil, fmt.Errorf("%w: %w", ErrPacketTooLarge, err)
			}
			return nil, err
		}

		off += n
	}

	if !hasMessageAuth && (o.useMessageAuth || p.Code.RequiresMessageAuthenticator() || p.hasEAP()) {
		if len(buf)-off < messageAuthenticatorAttrLength {
			return nil, fmt.Errorf("%w: no room for Message-Authenticator", ErrPacketTooLarge)
		}
		buf[off] = crypto.MessageAuthenticatorType
		buf[off+1] = messageAuthenticatorAttrLength
		clear(buf[off+attributeHeaderLength : off+messageAuthenticatorAttrLength])
		off += messageAuthenticatorAttrLength
	}

	data := buf[:off]
	binary.BigEndian.PutUint16(data[2:4], uint16(off))
	copy(data[4:HeaderLength], header[:])

	if crypto.FindMessageAuthenticator(data) >= 0 {
		if err := crypto.SignMessageAuthenticator(data, header, secret); err != nil {
			return nil, err
		}
	}

	final := header
	switch {
	case p.Code.IsHashedRequest():
		auth, err := crypto.RequestAuthenticator(data, secret)
		if err != nil {
			return nil, err
		}
		final = auth

	case p.Code.IsResponse():
		auth, err := crypto.ResponseAuthenticator(data, header, secret)
		if err != nil {
			return nil, err
		}
		final = auth
	}

	copy(data[4:HeaderLength], final[:])
	p.Authenticator = final

	o.logger.Debugf("encoded %s id %d: %d octets", p.Code, p.Identifier, off)

	return data, nil
}

// hasEAP reports whether the packet carries EAP-Message, which requires a
// Message-Authenticator (RFC 3579 section 3.3)
func (p *Packet) hasEAP() bool {
	for _, pair := range p.Pairs {
		if pair.Attr != nil && pair.Attr.Vendor == 0 && pair.Attr.Attr == attrEAPMessage {
			return true
		}
	}
	return false
}

// String returns a multi-line description of the packet and its pairs
func (p *Packet) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s Id %d Authenticator %s\n", p.Code, p.Identifier, p.Authenticator)
	for _, pair := range p.Pairs {
		b.WriteString("\t")
		b.WriteString(pair.String())
		b.WriteString("\n")
	}

	return b.String()
}
