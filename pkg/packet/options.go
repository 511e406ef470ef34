package packet

import (
	"io"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/log"
)

// Option configures how a packet is encoded or verified
type Option func(*options)

type options struct {
	logger             log.Logger
	rand               io.Reader
	salts              *crypto.SaltGenerator
	useMessageAuth     bool
	requireMessageAuth bool
}

func newOptions(opts []Option) *options {
	o := &options{logger: log.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger receiving encoder debug output
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRandom sets the source of Request Authenticators. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.rand = r
	}
}

// WithSaltGenerator sets the Tunnel-Password salt source
func WithSaltGenerator(g *crypto.SaltGenerator) Option {
	return func(o *options) {
		o.salts = g
	}
}

// WithUseMessageAuthenticator sets whether to add a Message-Authenticator
// to every encoded packet
func WithUseMessageAuthenticator(b bool) Option {
	return func(o *options) {
		o.useMessageAuth = b
	}
}

// WithRequireMessageAuthenticator sets whether Verify rejects packets
// without a Message-Authenticator
func WithRequireMessageAuthenticator(b bool) Option {
	return func(o *options) {
		o.requireMessageAuth = b
	}
}
