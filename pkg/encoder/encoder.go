// Package encoder writes attribute pairs as RADIUS wire attributes,
// following the nesting of the dictionary: plain RFC attributes, TLVs,
// structs, Vendor-Specific, WiMAX and the extended attribute spaces.
package encoder

import (
	"errors"
	"fmt"

	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/log"
)

const (
	// MaxAttrLength is the largest single wire attribute
	MaxAttrLength = 255

	// MaxPacketLength is the largest RADIUS packet
	MaxPacketLength = 4096

	attrMessageAuthenticator   = 80
	attrChargeableUserIdentity = 89
	messageAuthenticatorLength = 18
	continuationFlag           = 0x80
	extendedHeaderLength       = 3
	longExtendedHeaderLength   = 4
	evsHeaderLength            = 5
	wimaxHeaderLength          = 9
	wimaxVSALengthOffset       = 7
	wimaxContinuationOffset    = 8
	longExtendedFlagOffset     = 3
	minTLVSpace                = 5
	vendorSpecificHeaderLength = 6
	tunnelPasswordMinSpace     = 18
	rfcHeaderLength            = 2
	concatMaxChunk             = MaxAttrLength - rfcHeaderLength
)

var (
	// ErrStructureTooLarge is returned when nothing could be encoded into the buffer
	ErrStructureTooLarge = errors.New("nested attribute structure too large to encode")

	// ErrNoContext is returned when an encrypted attribute has no packet context
	ErrNoContext = errors.New("asked to encrypt attribute, but no packet context provided")

	// ErrInvalidStack is returned when the attribute hierarchy cannot be encoded
	ErrInvalidStack = errors.New("invalid attribute stack")

	// ErrBufferTooSmall is returned for output buffers of two octets or less
	ErrBufferTooSmall = errors.New("output buffer too small")
)

// errNoRoom aborts a fragmented encoding with no room for any data
var errNoRoom = errors.New("no room for fragments")

// encoder holds the state of one EncodePair call
type encoder struct {
	cur    *Cursor
	ctx    *Context
	logger log.Logger

	// stack is the path from below the root to the attribute of the current pair
	stack []*dictionary.Attribute
}

// EncodePair encodes the pair under the cursor, and any following pairs
// that share its enclosing TLV, struct or vendor, into out. It returns the
// number of octets written and advances the cursor past every pair it
// consumed.
//
// A return of zero with a nil error means the pair was skipped: it has no
// representation in a RADIUS packet or an empty value. When nothing could
// be written and the cursor did not move, ErrStructureTooLarge is returned.
// ctx may be nil when no pair needs encryption.
func EncodePair(out []byte, cur *Cursor, ctx *Context) (int, error) {
	if cur == nil {
		return 0, fmt.Errorf("%w: nil cursor", ErrInvalidStack)
	}
	if len(out) <= rfcHeaderLength {
		return 0, ErrBufferTooSmall
	}

	p := cur.Current()
	if p == nil {
		return 0, fmt.Errorf("%w: no pair to encode", ErrInvalidStack)
	}
	if p.Attr == nil {
		return 0, fmt.Errorf("%w: pair has no attribute", ErrInvalidStack)
	}

	a := p.Attr
	if a.Depth > dictionary.MaxStackDepth {
		return 0, fmt.Errorf("%w: attribute depth %d exceeds maximum nesting depth %d",
			ErrInvalidStack, a.Depth, dictionary.MaxStackDepth)
	}

	// Internal attributes cannot go into a RADIUS packet
	if a.Vendor == 0 && a.Attr > 0xff {
		cur.Next()
		return 0, nil
	}

	// Only CUI and Message-Authenticator may be empty
	if p.Value.Len() == 0 {
		if a.Vendor != 0 || (a.Attr != attrChargeableUserIdentity && a.Attr != attrMessageAuthenticator) {
			cur.Next()
			return 0, nil
		}
	}

	e := &encoder{cur: cur, ctx: ctx, logger: log.Discard()}
	if ctx != nil && ctx.Logger != nil {
		e.logger = ctx.Logger
	}

	// Each nested structure is at most one attribute long
	attrLen := min(len(out), MaxAttrLength)
	start := cur.Position()

	var (
		n   int
		err error
	)

	if a.Parent != nil && a.Parent.Flags.IsRoot && !a.Flags.Concat && a.Type != dictionary.TypeTLV {
		e.stack = []*dictionary.Attribute{a}
		n, err = e.encodeRFCHeader(out[:attrLen], 0)
	} else {
		e.rebuild()
		if len(e.stack) == 0 {
			return 0, fmt.Errorf("%w: attribute %s is not below a root", ErrInvalidStack, a.Name)
		}

		top := e.stack[0]
		switch top.Type {
		case dictionary.TypeVSA:
			if a.Vendor == dictionary.VendorWiMAX {
				// WiMAX fragments long values in its own VSA space
				n, err = e.encodeWiMAX(out, 0)
			} else {
				n, err = e.encodeVSA(out[:attrLen], 0)
			}

		case dictionary.TypeTLV:
			n, err = e.encodeTLV(out[:attrLen], 0)

		case dictionary.TypeExtended:
			n, err = e.encodeExtended(out[:attrLen], 0)

		case dictionary.TypeLongExtended:
			// Long extended values may span several attributes
			n, err = e.encodeExtended(out, 0)

		case dictionary.TypeInvalid, dictionary.TypeVendor, dictionary.TypeTimeval,
			dictionary.TypeDecimal, dictionary.TypeEVS:
			return 0, fmt.Errorf("%w: cannot encode attribute %s", ErrInvalidStack, a.Name)

		default:
			if top.Flags.Concat {
				n, err = e.encodeConcat(out, 0)
			} else {
				n, err = e.encodeRFCHeader(out[:attrLen], 0)
			}
		}
	}

	if errors.Is(err, errNoRoom) {
		cur.Seek(start)
		return 0, fmt.Errorf("%w: %s", ErrStructureTooLarge, a.Name)
	}
	if err != nil {
		return 0, err
	}

	if cur.Position() == start {
		return 0, fmt.Errorf("%w: %s", ErrStructureTooLarge, a.Name)
	}

	e.logger.Debugf("encoded %s: % x", a.Name, out[:n])

	return n, nil
}

// rebuild resets the stack to the attribute of the current pair
func (e *encoder) rebuild() {
	p := e.cur.Current()
	if p == nil || p.Attr == nil {
		e.stack = nil
		return
	}

	full := p.Attr.Stack()
	if len(full) > 0 && full[0] != nil && full[0].Flags.IsRoot {
		full = full[1:]
	}
	e.stack = full
}

// next consumes the current pair and rebuilds the stack for the following one
func (e *encoder) next() {
	e.cur.Next()
	e.rebuild()
}

// at returns the stack entry at depth, or nil past the leaf
func (e *encoder) at(depth int) *dictionary.Attribute {
	if depth < 0 || depth >= len(e.stack) {
		return nil
	}
	return e.stack[depth]
}

// sameBranch reports whether the cursor moved past p onto a pair that
// still lives below da at depth
func (e *encoder) sameBranch(p *Pair, da *dictionary.Attribute, depth int) bool {
	cur := e.cur.Current()
	if cur == nil || cur == p {
		return false
	}
	return e.at(depth) == da
}

// checkStandard accepts leaves and structs numbered 1..255
func (e *encoder) checkStandard(da *dictionary.Attribute) error {
	if da.Type.IsStructural() && da.Type != dictionary.TypeStruct {
		return fmt.Errorf("%w: expected leaf type, got %s", ErrInvalidStack, da.Type)
	}
	if (da.Vendor == 0 && da.Attr == 0) || da.Attr > 0xff {
		return fmt.Errorf("%w: called with non-standard attribute %d", ErrInvalidStack, da.Attr)
	}
	return nil
}

// encodeRFCHeader encodes an RFC attribute 1..255
func (e *encoder) encodeRFCHeader(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if err := e.checkStandard(da); err != nil {
		return 0, err
	}

	p := e.cur.Current()

	// Only CUI is allowed to have zero length
	if p.Value.Len() == 0 && p.Attr.Attr == attrChargeableUserIdentity {
		out[0] = attrChargeableUserIdentity
		out[1] = rfcHeaderLength
		e.next()
		return rfcHeaderLength, nil
	}

	// The packet layer signs the zeroed placeholder
	if p.Attr.Vendor == 0 && p.Attr.Attr == attrMessageAuthenticator {
		if len(out) < messageAuthenticatorLength {
			return 0, fmt.Errorf("%w: no room for Message-Authenticator", ErrStructureTooLarge)
		}
		out[0] = attrMessageAuthenticator
		out[1] = messageAuthenticatorLength
		clear(out[2:messageAuthenticatorLength])
		e.next()
		return messageAuthenticatorLength, nil
	}

	return e.encodeRFCHeaderInternal(out, depth)
}

// encodeRFCHeaderInternal writes a type/length header and the value
func (e *encoder) encodeRFCHeaderInternal(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if err := e.checkStandard(da); err != nil {
		return 0, err
	}

	if len(out) <= rfcHeaderLength {
		return 0, nil
	}

	out = out[:min(len(out), MaxAttrLength)]
	out[0] = byte(da.Attr)
	out[1] = rfcHeaderLength

	n, err := e.encodeValue(out[rfcHeaderLength:], depth)
	if err != nil || n <= 0 {
		return n, err
	}

	out[1] += byte(n)

	return int(out[1]), nil
}

// encodeConcat splits a long value over consecutive attributes of the same
// type. Data that does not fit the buffer is truncated.
func (e *encoder) encodeConcat(out []byte, depth int) (int, error) {
	da := e.at(depth)
	data := e.cur.Current().Value.Wire()

	off := 0
	for len(data) > 0 {
		if len(out)-off <= rfcHeaderLength {
			break
		}

		left := min(len(data), concatMaxChunk, len(out)-off-rfcHeaderLength)

		out[off] = byte(da.Attr)
		out[off+1] = byte(rfcHeaderLength + left)
		copy(out[off+rfcHeaderLength:], data[:left])

		off += rfcHeaderLength + left
		data = data[left:]
	}

	e.next()

	return off, nil
}
