// Package crypto implements the RADIUS authenticators and the schemes used
// to obscure attribute values on the wire.
package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// AuthenticatorLength is the length of RADIUS authenticators in bytes
const AuthenticatorLength = 16

// HeaderLength is the length of the RADIUS packet header
const HeaderLength = 20

// authOffset is where the authenticator starts in the header
const authOffset = 4

var (
	// ErrInvalidAuthenticatorLength indicates an invalid authenticator length
	ErrInvalidAuthenticatorLength = errors.New("invalid authenticator length")
	// ErrAuthenticatorMismatch indicates authenticator validation failed
	ErrAuthenticatorMismatch = errors.New("authenticator validation failed")
	// ErrPacketTooShort indicates data shorter than a RADIUS header
	ErrPacketTooShort = errors.New("packet too short")
)

// Authenticator represents a 16-byte RADIUS authenticator
type Authenticator [AuthenticatorLength]byte

// GenerateRequestAuthenticator generates a random Request Authenticator
func GenerateRequestAuthenticator() (Authenticator, error) {
	return ReadAuthenticator(rand.Reader)
}

// ReadAuthenticator fills an authenticator from r
func ReadAuthenticator(r io.Reader) (Authenticator, error) {
	var auth Authenticator
	if _, err := io.ReadFull(r, auth[:]); err != nil {
		return auth, fmt.Errorf("failed to generate random authenticator: %w", err)
	}
	return auth, nil
}

// FromBytes creates an authenticator from a byte slice
func FromBytes(data []byte) (Authenticator, error) {
	var auth Authenticator
	if len(data) != AuthenticatorLength {
		return auth, fmt.Errorf("%w: must be exactly %d bytes, got %d", ErrInvalidAuthenticatorLength, AuthenticatorLength, len(data))
	}
	copy(auth[:], data)
	return auth, nil
}

// String returns a hex representation of the authenticator
func (a Authenticator) String() string {
	return fmt.Sprintf("%x", a[:])
}

// Equal compares two authenticators in constant time
func (a Authenticator) Equal(other Authenticator) bool {
	return hmac.Equal(a[:], other[:])
}

// IsZero returns true if the authenticator is all zeros
func (a Authenticator) IsZero() bool {
	return a.Equal(Authenticator{})
}

// packetDigest is MD5(Code + ID + Length + auth + Attributes + Secret)
// over an encoded packet, with auth standing in for the header field.
func packetDigest(packet []byte, auth Authenticator, secret []byte) (Authenticator, error) {
	if len(packet) < HeaderLength {
		return Authenticator{}, fmt.Errorf("%w: %d bytes", ErrPacketTooShort, len(packet))
	}

	h := md5.New()
	h.Write(packet[:authOffset])
	h.Write(auth[:])
	h.Write(packet[HeaderLength:])
	h.Write(secret)

	var result Authenticator
	copy(result[:], h.Sum(nil))
	return result, nil
}

// ResponseAuthenticator calculates the Response Authenticator of an encoded
// reply as defined in RFC 2865 section 3, using the authenticator of the
// request it answers.
func ResponseAuthenticator(packet []byte, request Authenticator, secret []byte) (Authenticator, error) {
	return packetDigest(packet, request, secret)
}

// RequestAuthenticator calculates the Request Authenticator of Accounting,
// CoA and Disconnect requests (RFC 2866, RFC 5176): the packet digest with
// sixteen zero octets in place of the authenticator.
func RequestAuthenticator(packet []byte, secret []byte) (Authenticator, error) {
	return packetDigest(packet, Authenticator{}, secret)
}

// VerifyResponse checks the authenticator carried by an encoded reply
func VerifyResponse(packet []byte, request Authenticator, secret []byte) error {
	expected, err := ResponseAuthenticator(packet, request, secret)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected[:], packet[authOffset:HeaderLength]) {
		return ErrAuthenticatorMismatch
	}
	return nil
}

// VerifyRequest checks the authenticator carried by an encoded Accounting,
// CoA or Disconnect request
func VerifyRequest(packet []byte, secret []byte) error {
	expected, err := RequestAuthenticator(packet, secret)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected[:], packet[authOffset:HeaderLength]) {
		return ErrAuthenticatorMismatch
	}
	return nil
}
