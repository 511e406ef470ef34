package client

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vitalvas/radwire/pkg/packet"
)

// readPacket reads a single framed RADIUS packet from a TCP stream.
// Uses the Length field in bytes 2-3 for packet boundary detection.
func readPacket(r io.Reader) ([]byte, error) {
	header := make([]byte, packet.HeaderLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(header[2:4]))
	if length < packet.HeaderLength || length > packet.MaxPacketLength {
		return nil, fmt.Errorf("%w: invalid length %d in stream", packet.ErrMalformed, length)
	}

	if length == packet.HeaderLength {
		return header, nil
	}

	data := make([]byte, length)
	copy(data, header)
	if _, err := io.ReadFull(r, data[packet.HeaderLength:]); err != nil {
		return nil, err
	}

	return data, nil
}
