package encoder

import (
	"fmt"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/dictionary"
)

// valueTypeMatches reports whether a value of type v may be encoded for
// an attribute of type attr
func valueTypeMatches(attr, v dictionary.Type) bool {
	if attr == v {
		return true
	}
	if attr == dictionary.TypeComboIPAddr {
		return v == dictionary.TypeIPv4Addr || v == dictionary.TypeIPv6Addr
	}
	return false
}

// encodeValue writes the data portion of the attribute at depth. TLV and
// struct attributes are dispatched to their encoders. A zero return means
// nothing was written and no header should be emitted.
func (e *encoder) encodeValue(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if da == nil {
		return 0, fmt.Errorf("%w: empty stack at depth %d", ErrInvalidStack, depth)
	}

	switch da.Type {
	case dictionary.TypeTLV:
		return e.encodeTLV(out, depth)

	case dictionary.TypeStruct:
		return e.encodeStruct(out, depth)
	}

	if e.at(depth+1) != nil {
		return 0, fmt.Errorf("%w: encoding value but not at top of stack", ErrInvalidStack)
	}

	p := e.cur.Current()
	if p.Attr != da {
		return 0, fmt.Errorf("%w: top of stack does not match pair attribute", ErrInvalidStack)
	}

	if da.Type.IsStructural() {
		return 0, fmt.Errorf("%w: called with structural type %s", ErrInvalidStack, da.Type)
	}

	switch da.Type {
	case dictionary.TypeString, dictionary.TypeOctets, dictionary.TypeIfID,
		dictionary.TypeIPv4Addr, dictionary.TypeIPv6Addr, dictionary.TypeIPv4Prefix,
		dictionary.TypeIPv6Prefix, dictionary.TypeABinary, dictionary.TypeEthernet,
		dictionary.TypeComboIPAddr, dictionary.TypeByte, dictionary.TypeShort,
		dictionary.TypeInteger, dictionary.TypeInteger64, dictionary.TypeDate,
		dictionary.TypeSigned:
	default:
		return 0, fmt.Errorf("%w: unknown attribute type %s", ErrInvalidStack, da.Type)
	}

	if !valueTypeMatches(da.Type, p.Value.Type()) {
		return 0, fmt.Errorf("%w: value of type %s for attribute %s of type %s",
			ErrInvalidStack, p.Value.Type(), da.Name, da.Type)
	}

	data := p.Value.Wire()

	// Fixed size octets are cut to their defined length
	if da.Type == dictionary.TypeOctets && da.Flags.Length != 0 && len(data) > int(da.Flags.Length) {
		data = data[:da.Flags.Length]
	}

	if len(data) == 0 {
		e.next()
		return 0, nil
	}

	if len(data) > len(out) {
		data = data[:len(out)]
	}

	if da.Flags.Encrypt != dictionary.EncryptNone && e.ctx == nil {
		return 0, ErrNoContext
	}

	var n int

	switch da.Flags.Encrypt {
	case dictionary.EncryptUserPassword:
		// The padded result must fit as well
		if (len(data)+0x0f)&^0x0f > len(out) {
			data = data[:len(out)&^0x0f]
			if len(data) == 0 {
				return 0, nil
			}
		}
		n = copy(out, crypto.EncodeUserPassword(data, e.ctx.Secret, e.ctx.Authenticator))

	case dictionary.EncryptTunnelPassword:
		tagLen := 0
		if da.Flags.HasTag {
			tagLen = 1
		}

		// Only a problem with several VSAs in one Vendor-Specific
		if len(out) < tunnelPasswordMinSpace+tagLen {
			return 0, nil
		}

		auth, ok := e.ctx.tunnelAuthenticator()
		if !ok {
			return 0, ErrNoContext
		}

		salt, err := e.ctx.salts().Next()
		if err != nil {
			return 0, err
		}

		enc, err := crypto.EncodeTunnelPassword(data, e.ctx.Secret, auth, salt, len(out)-tagLen)
		if err != nil {
			return 0, err
		}

		if tagLen != 0 {
			out[0] = TagNone
			if validTag(p.Tag) {
				out[0] = p.Tag
			}
		}
		n = tagLen + copy(out[tagLen:], enc)

	case dictionary.EncryptAscendSecret:
		if len(data) != crypto.AscendSecretLength {
			return 0, nil
		}
		enc, err := crypto.EncodeAscendSecret(data, e.ctx.Secret, e.ctx.Authenticator)
		if err != nil {
			return 0, err
		}
		n = copy(out, enc)

	default:
		if da.Flags.HasTag && validTag(p.Tag) {
			switch da.Type {
			case dictionary.TypeString:
				if len(data) > len(out)-1 {
					data = data[:len(out)-1]
				}
				out[0] = p.Tag
				n = 1 + copy(out[1:], data)
			case dictionary.TypeInteger:
				n = copy(out, data)
				out[0] = p.Tag
			default:
				n = copy(out, data)
			}
		} else {
			n = copy(out, data)
		}
	}

	e.next()

	return n, nil
}
