package encoder

import (
	"fmt"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// encodeTLV writes a TLV header and as many children as fit
func (e *encoder) encodeTLV(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if da.Type != dictionary.TypeTLV {
		return 0, fmt.Errorf("%w: expected type tlv, got %s", ErrInvalidStack, da.Type)
	}
	if e.at(depth+1) == nil {
		return 0, fmt.Errorf("%w: can't encode empty TLV", ErrInvalidStack)
	}

	if len(out) < minTLVSpace {
		return 0, nil
	}

	out = out[:min(len(out), MaxAttrLength)]
	out[0] = byte(da.Attr)
	out[1] = rfcHeaderLength

	n, err := e.encodeTLVChildren(out[rfcHeaderLength:], depth)
	if err != nil || n <= 0 {
		return n, err
	}

	out[1] += byte(n)

	return int(out[1]), nil
}

// encodeTLVChildren writes consecutive children of the TLV at depth
// without a header of its own
func (e *encoder) encodeTLVChildren(out []byte, depth int) (int, error) {
	da := e.at(depth)
	p := e.cur.Current()
	off := 0

	for len(out)-off >= minTLVSpace {
		sub := out[off:min(len(out), off+MaxAttrLength)]

		child := e.at(depth + 1)
		if child == nil {
			return 0, fmt.Errorf("%w: can't encode empty TLV", ErrInvalidStack)
		}

		var (
			n   int
			err error
		)
		if child.Type == dictionary.TypeTLV {
			n, err = e.encodeTLV(sub, depth+1)
		} else {
			n, err = e.encodeRFCHeaderInternal(sub, depth+1)
		}
		if err != nil {
			return 0, err
		}
		if n <= 0 {
			// Keep the children already written, the rest goes in the next attribute
			break
		}

		off += n

		if !e.sameBranch(p, da, depth) {
			break
		}
		p = e.cur.Current()
	}

	return off, nil
}

// encodeStruct writes the members of a struct in order. Members with no
// pair are filled with zeros.
func (e *encoder) encodeStruct(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if da.Type != dictionary.TypeStruct {
		return 0, fmt.Errorf("%w: expected type struct, got %s", ErrInvalidStack, da.Type)
	}
	if e.at(depth+1) == nil {
		return 0, fmt.Errorf("%w: can't encode empty struct", ErrInvalidStack)
	}

	p := e.cur.Current()
	off := 0
	childNum := uint32(1)

	for off < len(out) {
		if p.Attr.Attr != childNum {
			missing, ok := da.ChildByNumber(childNum)
			if !ok {
				break
			}

			size := int(missing.Flags.Length)
			if size > len(out)-off {
				break
			}

			clear(out[off : off+size])
			off += size
			childNum++
			continue
		}

		n, err := e.encodeValue(out[off:], depth+1)
		if err != nil || n <= 0 {
			return n, err
		}

		off += n
		childNum++

		if !e.sameBranch(p, da, depth) {
			break
		}
		p = e.cur.Current()
	}

	return off, nil
}
