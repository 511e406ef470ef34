package packet

import (
	"fmt"
	"strconv"
	"strings"
)

// Code represents a RADIUS packet code
type Code uint8

// RADIUS packet codes
const (
	// Access-Request packets (RFC 2865)
	CodeAccessRequest Code = 1
	// Access-Accept packets (RFC 2865)
	CodeAccessAccept Code = 2
	// Access-Reject packets (RFC 2865)
	CodeAccessReject Code = 3
	// Accounting-Request packets (RFC 2866)
	CodeAccountingRequest Code = 4
	// Accounting-Response packets (RFC 2866)
	CodeAccountingResponse Code = 5
	// Access-Challenge packets (RFC 2865)
	CodeAccessChallenge Code = 11
	// Status-Server packets (RFC 5997)
	CodeStatusServer Code = 12
	// Status-Client packets (RFC 5997)
	CodeStatusClient Code = 13
	// Disconnect-Request packets (RFC 5176)
	CodeDisconnectRequest Code = 40
	// Disconnect-ACK packets (RFC 5176)
	CodeDisconnectACK Code = 41
	// Disconnect-NAK packets (RFC 5176)
	CodeDisconnectNAK Code = 42
	// CoA-Request packets (RFC 5176)
	CodeCoARequest Code = 43
	// CoA-ACK packets (RFC 5176)
	CodeCoAAck Code = 44
	// CoA-NAK packets (RFC 5176)
	CodeCoANak Code = 45
	// Protocol-Error packets (RFC 7930)
	CodeProtocolError Code = 52
)

var codeNames = map[Code]string{
	CodeAccessRequest:      "Access-Request",
	CodeAccessAccept:       "Access-Accept",
	CodeAccessReject:       "Access-Reject",
	CodeAccountingRequest:  "Accounting-Request",
	CodeAccountingResponse: "Accounting-Response",
	CodeAccessChallenge:    "Access-Challenge",
	CodeStatusServer:       "Status-Server",
	CodeStatusClient:       "Status-Client",
	CodeDisconnectRequest:  "Disconnect-Request",
	CodeDisconnectACK:      "Disconnect-ACK",
	CodeDisconnectNAK:      "Disconnect-NAK",
	CodeCoARequest:         "CoA-Request",
	CodeCoAAck:             "CoA-ACK",
	CodeCoANak:             "CoA-NAK",
	CodeProtocolError:      "Protocol-Error",
}

// String returns the string representation of the packet code
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", c)
}

// ParseCode accepts a packet code name such as "CoA-Request", case
// insensitively, or its decimal number
func ParseCode(s string) (Code, error) {
	for c, name := range codeNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}

	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !Code(n).IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	return Code(n), nil
}

// IsValid checks if the packet code is known
func (c Code) IsValid() bool {
	_, ok := codeNames[c]
	return ok
}

// IsRequest returns true if the code represents a request packet
func (c Code) IsRequest() bool {
	switch c {
	case CodeAccessRequest, CodeAccountingRequest, CodeStatusServer,
		CodeDisconnectRequest, CodeCoARequest:
		return true
	default:
		return false
	}
}

// IsResponse returns true if the code represents a response packet
func (c Code) IsResponse() bool {
	return c.IsValid() && !c.IsRequest()
}

// IsHashedRequest returns true for requests whose authenticator is the
// MD5 digest of the packet rather than a random nonce
func (c Code) IsHashedRequest() bool {
	switch c {
	case CodeAccountingRequest, CodeDisconnectRequest, CodeCoARequest:
		return true
	default:
		return false
	}
}

// RequiresMessageAuthenticator returns true for packets that are invalid
// without a Message-Authenticator
func (c Code) RequiresMessageAuthenticator() bool {
	return c == CodeStatusServer
}

// ExpectedResponseCode returns the expected response codes for a request
func (c Code) ExpectedResponseCode() []Code {
	switch c {
	case CodeAccessRequest:
		return []Code{CodeAccessAccept, CodeAccessReject, CodeAccessChallenge}
	case CodeAccountingRequest:
		return []Code{CodeAccountingResponse}
	case CodeStatusServer:
		return []Code{CodeAccessAccept, CodeAccountingResponse}
	case CodeDisconnectRequest:
		return []Code{CodeDisconnectACK, CodeDisconnectNAK}
	case CodeCoARequest:
		return []Code{CodeCoAAck, CodeCoANak}
	default:
		return nil
	}
}
