package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"fmt"
)

// Message-Authenticator as defined in RFC 3579 section 3.2

const (
	// MessageAuthenticatorType is the attribute number of Message-Authenticator
	MessageAuthenticatorType = 80

	// MessageAuthenticatorLength is the length of the Message-Authenticator value
	MessageAuthenticatorLength = 16
)

// FindMessageAuthenticator returns the offset of the Message-Authenticator
// value in an encoded packet, or -1.
func FindMessageAuthenticator(packet []byte) int {
	if len(packet) < HeaderLength {
		return -1
	}

	offset := HeaderLength
	for offset+2 <= len(packet) {
		attrType := packet[offset]
		attrLength := int(packet[offset+1])

		if attrLength < 2 || offset+attrLength > len(packet) {
			break
		}

		if attrType == MessageAuthenticatorType && attrLength == 2+MessageAuthenticatorLength {
			return offset + 2
		}

		offset += attrLength
	}

	return -1
}

// MessageAuthenticator calculates HMAC-MD5(secret, packet) with auth in
// the authenticator field and the Message-Authenticator value zeroed.
// Requests pass their own authenticator, replies the one of the request.
func MessageAuthenticator(packet []byte, auth Authenticator, secret []byte) ([MessageAuthenticatorLength]byte, error) {
	var result [MessageAuthenticatorLength]byte

	if len(packet) < HeaderLength {
		return result, fmt.Errorf("%w for Message-Authenticator calculation", ErrPacketTooShort)
	}

	offset := FindMessageAuthenticator(packet)
	if offset < 0 {
		return result, fmt.Errorf("Message-Authenticator not found in packet")
	}

	var zero [MessageAuthenticatorLength]byte

	mac := hmac.New(md5.New, secret)
	mac.Write(packet[:authOffset])
	mac.Write(auth[:])
	mac.Write(packet[HeaderLength:offset])
	mac.Write(zero[:])
	mac.Write(packet[offset+MessageAuthenticatorLength:])

	copy(result[:], mac.Sum(nil))
	return result, nil
}

// SignMessageAuthenticator fills in the Message-Authenticator value of an
// encoded packet in place
func SignMessageAuthenticator(packet []byte, auth Authenticator, secret []byte) error {
	sum, err := MessageAuthenticator(packet, auth, secret)
	if err != nil {
		return err
	}

	copy(packet[FindMessageAuthenticator(packet):], sum[:])
	return nil
}

// VerifyMessageAuthenticator checks the Message-Authenticator value of an
// encoded packet
func VerifyMessageAuthenticator(packet []byte, auth Authenticator, secret []byte) error {
	expected, err := MessageAuthenticator(packet, auth, secret)
	if err != nil {
		return err
	}

	offset := FindMessageAuthenticator(packet)
	if !hmac.Equal(expected[:], packet[offset:offset+MessageAuthenticatorLength]) {
		return ErrAuthenticatorMismatch
	}
	return nil
}
