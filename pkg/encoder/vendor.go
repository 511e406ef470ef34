package encoder

import (
	"encoding/binary"
	"fmt"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

// encodeVSA writes a Vendor-Specific attribute: type 26, length, the
// vendor PEN and the vendor attributes in the vendor's format
func (e *encoder) encodeVSA(out []byte, depth int) (int, error) {
	da := e.at(depth)
	if da.Type != dictionary.TypeVSA {
		return 0, fmt.Errorf("%w: expected type vsa, got %s", ErrInvalidStack, da.Type)
	}

	if len(out) < vendorSpecificHeaderLength {
		return 0, nil
	}

	dv := e.at(depth + 1)
	if dv == nil || dv.Type != dictionary.TypeVendor {
		return 0, fmt.Errorf("%w: expected vendor below Vendor-Specific", ErrInvalidStack)
	}

	out = out[:min(len(out), MaxAttrLength)]
	out[0] = dictionary.AttrVendorSpecific
	out[1] = vendorSpecificHeaderLength
	binary.BigEndian.PutUint32(out[2:], dv.Attr)

	n, err := e.encodeVendorAttr(out[vendorSpecificHeaderLength:], depth+1)
	if err != nil || n <= 0 {
		return n, err
	}

	out[1] += byte(n)

	e.logger.Debugf("vendor-specific header: %02x %02x %08x", out[0], out[1], dv.Attr)

	return int(out[1]), nil
}

// encodeVendorAttr writes one vendor attribute with the type and length
// field widths of the vendor at depth
func (e *encoder) encodeVendorAttr(out []byte, depth int) (int, error) {
	dv := e.at(depth)
	if dv.Type != dictionary.TypeVendor {
		return 0, fmt.Errorf("%w: expected vendor, got %s", ErrInvalidStack, dv.Type)
	}

	da := e.at(depth + 1)
	if da == nil {
		return 0, fmt.Errorf("%w: vendor %s has no attribute", ErrInvalidStack, dv.Name)
	}

	typeSize := int(dv.Flags.TypeSize)
	lengthSize := int(dv.Flags.Length)

	if da.Type != dictionary.TypeTLV && typeSize == 1 && lengthSize == 1 {
		return e.encodeRFCHeaderInternal(out, depth+1)
	}

	hdrLen := typeSize + lengthSize
	if len(out) <= hdrLen {
		return 0, nil
	}

	switch typeSize {
	case 4:
		// Attribute numbers are 24-bit
		out[0] = 0
		out[1] = byte(da.Attr >> 16)
		out[2] = byte(da.Attr >> 8)
		out[3] = byte(da.Attr)
	case 2:
		binary.BigEndian.PutUint16(out, uint16(da.Attr))
	case 1:
		out[0] = byte(da.Attr)
	default:
		return 0, fmt.Errorf("%w: vendor %s type size %d", ErrInvalidStack, dv.Name, typeSize)
	}

	switch lengthSize {
	case 0:
	case 1:
		out[typeSize] = byte(typeSize + 1)
	case 2:
		out[typeSize] = 0
		out[typeSize+1] = byte(typeSize + 2)
	default:
		return 0, fmt.Errorf("%w: vendor %s length size %d", ErrInvalidStack, dv.Name, lengthSize)
	}

	out = out[:min(len(out), MaxAttrLength)]

	var (
		n   int
		err error
	)
	if da.Type == dictionary.TypeTLV {
		// The vendor header already stands in for the TLV header
		n, err = e.encodeTLVChildren(out[hdrLen:], depth+1)
	} else {
		n, err = e.encodeValue(out[hdrLen:], depth+1)
	}
	if err != nil || n <= 0 {
		return n, err
	}

	if lengthSize != 0 {
		out[hdrLen-1] += byte(n)
	}

	return hdrLen + n, nil
}

// encodeWiMAX writes a WiMAX Vendor-Specific attribute. Values longer than
// one attribute are split over several, with the continuation flag set on
// all but the last.
func (e *encoder) encodeWiMAX(out []byte, depth int) (int, error) {
	if len(out) < wimaxHeaderLength {
		return 0, nil
	}

	if vsa := e.at(depth); vsa == nil || vsa.Attr != dictionary.AttrVendorSpecific {
		return 0, fmt.Errorf("%w: level 1 of the stack must be Vendor-Specific (26)", ErrInvalidStack)
	}
	if dv := e.at(depth + 1); dv == nil || dv.Attr != dictionary.VendorWiMAX {
		return 0, fmt.Errorf("%w: level 2 of the stack must be WiMAX vendor %d", ErrInvalidStack, dictionary.VendorWiMAX)
	}

	depth += 2
	da := e.at(depth)
	if da == nil {
		return 0, fmt.Errorf("%w: WiMAX vendor has no attribute", ErrInvalidStack)
	}

	out[0] = dictionary.AttrVendorSpecific
	out[1] = wimaxHeaderLength
	binary.BigEndian.PutUint32(out[2:], dictionary.VendorWiMAX)
	out[6] = byte(da.Attr)
	out[wimaxVSALengthOffset] = 3
	out[wimaxContinuationOffset] = 0

	var (
		n   int
		err error
	)
	if da.Type == dictionary.TypeTLV {
		n, err = e.encodeTLVChildren(out[wimaxHeaderLength:], depth)
	} else {
		n, err = e.encodeValue(out[wimaxHeaderLength:], depth)
	}
	if err != nil || n <= 0 {
		return n, err
	}

	if n > MaxAttrLength-int(out[1]) {
		return attrShift(out, wimaxHeaderLength, n, wimaxContinuationOffset, wimaxVSALengthOffset)
	}

	out[1] += byte(n)
	out[wimaxVSALengthOffset] += byte(n)

	return int(out[1]), nil
}
