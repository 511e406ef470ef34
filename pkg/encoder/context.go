package encoder

import (
	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/log"
)

// Packet codes whose Tunnel-Password is keyed by their own authenticator
const (
	codeAccountingRequest = 4
	codeDisconnectRequest = 40
	codeCoARequest        = 43
)

// Context carries the packet state needed to obscure password attributes.
// Encoding attributes flagged for encryption without a Context fails.
type Context struct {
	// Secret is the shared secret of the client/server pair
	Secret []byte

	// Code is the code of the packet being built
	Code uint8

	// Authenticator is the authenticator of the packet being built
	Authenticator crypto.Authenticator

	// Original is the request authenticator when building a reply
	Original *crypto.Authenticator

	// Salts generates Tunnel-Password salts; nil uses the process-wide generator
	Salts *crypto.SaltGenerator

	// Logger receives debug dumps of encoded headers; nil disables them
	Logger log.Logger
}

// tunnelAuthenticator selects the authenticator Tunnel-Password is keyed by
func (c *Context) tunnelAuthenticator() (crypto.Authenticator, bool) {
	switch c.Code {
	case codeAccountingRequest, codeDisconnectRequest, codeCoARequest:
		return c.Authenticator, true
	default:
		if c.Original == nil {
			return crypto.Authenticator{}, false
		}
		return *c.Original, true
	}
}

func (c *Context) salts() *crypto.SaltGenerator {
	if c.Salts != nil {
		return c.Salts
	}
	return crypto.DefaultSaltGenerator()
}
