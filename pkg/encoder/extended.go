package encoder

import (
	"encoding/binary"
	"fmt"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// encodeExtended writes an Extended (RFC 6929 section 2.1) or Long
// Extended (section 2.2) attribute, with the optional EVS header
func (e *encoder) encodeExtended(out []byte, depth int) (int, error) {
	top := e.at(depth)
	if top.Type != dictionary.TypeExtended && top.Type != dictionary.TypeLongExtended {
		return 0, fmt.Errorf("%w: called for non-extended attribute type %s", ErrInvalidStack, top.Type)
	}

	long := top.Type == dictionary.TypeLongExtended
	if !long {
		out = out[:min(len(out), MaxAttrLength)]
	}

	depth++
	da := e.at(depth)
	if da == nil {
		return 0, fmt.Errorf("%w: extended attribute %s has no child", ErrInvalidStack, top.Name)
	}

	out[0] = byte(top.Attr)
	if long {
		if len(out) < longExtendedHeaderLength {
			return 0, nil
		}
		out[1] = longExtendedHeaderLength
		out[2] = byte(da.Attr)
		out[3] = 0
	} else {
		if len(out) < extendedHeaderLength {
			return 0, nil
		}
		out[1] = extendedHeaderLength
		out[2] = byte(da.Attr)
	}

	if da.Type == dictionary.TypeEVS {
		hdr := int(out[1])
		if len(out) < hdr+evsHeaderLength {
			return 0, nil
		}

		depth++
		dv := e.at(depth)
		depth++
		leaf := e.at(depth)
		if dv == nil || leaf == nil {
			return 0, fmt.Errorf("%w: EVS attribute %s has no vendor attribute", ErrInvalidStack, da.Name)
		}

		binary.BigEndian.PutUint32(out[hdr:], dv.Attr)
		out[hdr+4] = byte(leaf.Attr)
		out[1] += evsHeaderLength
	}

	hdr := int(out[1])

	var (
		n   int
		err error
	)
	if e.at(depth).Type == dictionary.TypeTLV {
		n, err = e.encodeTLVChildren(out[hdr:], depth)
	} else {
		n, err = e.encodeValue(out[hdr:], depth)
	}
	if err != nil || n <= 0 {
		return n, err
	}

	// Only long extended data can exceed one attribute; the "M" flag is
	// set on every fragment but the last
	if n > MaxAttrLength-hdr {
		return attrShift(out, longExtendedHeaderLength, n, longExtendedFlagOffset, 0)
	}

	out[1] += byte(n)

	return int(out[1]), nil
}

// attrShift splits the attribute at the start of buf, whose header is
// buf[1] octets long and followed by dataLen octets of data, into
// fragments of at most 255 octets. Every fragment after the first repeats
// the first hdrLen octets of the header. flagOffset locates the flag byte
// whose high bit marks a fragment with more to follow, and a non-zero
// vsaOffset locates a vendor length octet to maintain in each fragment.
//
// When the fragments do not fit in buf the data is cut to the complete
// fragments that do. errNoRoom is returned only when no data fits at all.
func attrShift(buf []byte, hdrLen, dataLen, flagOffset, vsaOffset int) (int, error) {
	first := int(buf[1])
	room := MaxAttrLength - first
	per := MaxAttrLength - hdrLen

	dataLen = min(dataLen, fragmentCapacity(len(buf), first, hdrLen))
	if dataLen <= 0 {
		return 0, fmt.Errorf("%w: %d octets available", errNoRoom, len(buf))
	}

	if dataLen <= room {
		buf[1] += byte(dataLen)
		if vsaOffset != 0 {
			buf[vsaOffset] += byte(dataLen)
		}
		return int(buf[1]), nil
	}

	data := make([]byte, dataLen)
	copy(data, buf[first:first+dataLen])

	hdr := make([]byte, hdrLen)
	copy(hdr, buf[:hdrLen])

	// First fragment keeps the full header
	buf[1] = MaxAttrLength
	if vsaOffset != 0 {
		buf[vsaOffset] += byte(room)
	}
	buf[flagOffset] |= continuationFlag
	data = data[room:]

	off := MaxAttrLength
	for len(data) > 0 {
		n := min(per, len(data))

		copy(buf[off:], hdr)
		buf[off+1] = byte(hdrLen + n)
		if vsaOffset != 0 {
			buf[off+vsaOffset] = byte(3 + n)
		}
		copy(buf[off+hdrLen:], data[:n])

		data = data[n:]
		if len(data) > 0 {
			buf[off+flagOffset] |= continuationFlag
		}

		off += hdrLen + n
	}

	return off, nil
}

// fragmentCapacity returns how many data octets fit in size octets when
// the first fragment has a first octet header and every later one hdrLen
func fragmentCapacity(size, first, hdrLen int) int {
	if size <= MaxAttrLength {
		return size - first
	}

	n := MaxAttrLength - first
	size -= MaxAttrLength

	for size > hdrLen {
		c := min(MaxAttrLength-hdrLen, size-hdrLen)
		n += c
		size -= hdrLen + c
	}

	return n
}
