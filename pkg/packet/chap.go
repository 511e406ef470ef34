package packet

import (
	"crypto/rand"
	"fmt"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/value"
)

const (
	attrCHAPPassword  = 3
	attrCHAPChallenge = 60
)

// AddCHAPPassword adds a CHAP-Password for password. The hash covers the
// packet's CHAP-Challenge when it carries one, otherwise its authenticator,
// which is generated here when not yet set.
func (p *Packet) AddCHAPPassword(d *dictionary.Dictionary, ident byte, password []byte, opts ...Option) error {
	if p.Code != CodeAccessRequest {
		return fmt.Errorf("%w: CHAP-Password in %s", ErrInvalidCode, p.Code)
	}

	attr, ok := d.AttrByNumber(0, attrCHAPPassword)
	if !ok {
		return fmt.Errorf("%w: CHAP-Password", dictionary.ErrNotFound)
	}

	var challenge []byte
	for _, pair := range p.Pairs {
		if pair.Attr != nil && pair.Attr.Vendor == 0 && pair.Attr.Attr == attrCHAPChallenge {
			challenge = pair.Value.Bytes()
			break
		}
	}

	if len(challenge) == 0 && p.Authenticator.IsZero() {
		o := newOptions(opts)
		r := o.rand
		if r == nil {
			r = rand.Reader
		}

		auth, err := crypto.ReadAuthenticator(r)
		if err != nil {
			return err
		}
		p.Authenticator = auth
	}

	chap := crypto.EncodeCHAPPassword(ident, password, crypto.CHAPChallenge(challenge, p.Authenticator))
	p.Add(encoder.NewPair(attr, value.Octets(chap)))

	return nil
}
