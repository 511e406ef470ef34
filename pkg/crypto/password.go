package crypto

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"io"
	"sync/atomic"
)

const (
	// UserPasswordMaxLength is the longest User-Password that can be obscured
	UserPasswordMaxLength = 128

	// AscendSecretLength is the length of an Ascend-Send-Secret value
	AscendSecretLength = 16

	// TunnelPasswordMaxSpace is the most octets a Tunnel-Password may occupy
	TunnelPasswordMaxSpace = 253

	blockLength = 16
)

// EncodeUserPassword obscures a User-Password value as described in
// RFC 2865 section 5.2. Input longer than 128 octets is truncated and the
// output is padded to a multiple of 16 octets, with at least one block.
func EncodeUserPassword(password, secret []byte, authenticator Authenticator) []byte {
	if len(password) > UserPasswordMaxLength {
		password = password[:UserPasswordMaxLength]
	}

	n := (len(password) + blockLength - 1) &^ (blockLength - 1)
	if n == 0 {
		n = blockLength
	}

	out := make([]byte, n)
	copy(out, password)

	prev := authenticator[:]
	for i := 0; i < n; i += blockLength {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		digest := h.Sum(nil)

		for j := 0; j < blockLength; j++ {
			out[i+j] ^= digest[j]
		}
		prev = out[i : i+blockLength]
	}

	return out
}

// DecodeUserPassword reverses EncodeUserPassword. Trailing zero padding is
// stripped.
func DecodeUserPassword(encoded, secret []byte, authenticator Authenticator) ([]byte, error) {
	if len(encoded) == 0 || len(encoded)%blockLength != 0 || len(encoded) > UserPasswordMaxLength {
		return nil, fmt.Errorf("invalid User-Password length %d", len(encoded))
	}

	out := make([]byte, len(encoded))
	prev := authenticator[:]
	for i := 0; i < len(encoded); i += blockLength {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		digest := h.Sum(nil)

		for j := 0; j < blockLength; j++ {
			out[i+j] = encoded[i+j] ^ digest[j]
		}
		prev = encoded[i : i+blockLength]
	}

	end := len(out)
	for end > 0 && out[end-1] == 0 {
		end--
	}

	return out[:end], nil
}

// SaltGenerator produces Tunnel-Password salts. The high bit of the first
// octet is set, the next four bits are a rolling counter and the rest is
// random, so salts within one packet differ.
type SaltGenerator struct {
	counter atomic.Uint32
	rand    io.Reader
}

// NewSaltGenerator returns a generator reading randomness from r.
// A nil reader uses crypto/rand.
func NewSaltGenerator(r io.Reader) *SaltGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &SaltGenerator{rand: r}
}

var defaultSalts = NewSaltGenerator(nil)

// DefaultSaltGenerator returns the process-wide generator
func DefaultSaltGenerator() *SaltGenerator {
	return defaultSalts
}

// Next returns a fresh salt
func (g *SaltGenerator) Next() ([2]byte, error) {
	var r [2]byte
	if _, err := io.ReadFull(g.rand, r[:]); err != nil {
		return r, fmt.Errorf("failed to generate salt: %w", err)
	}

	offset := byte(g.counter.Add(1) - 1)

	return [2]byte{0x80 | ((offset & 0x0f) << 3) | (r[0] & 0x07), r[1]}, nil
}

// EncodeTunnelPassword obscures a Tunnel-Password value as described in
// RFC 2868 section 3.5. freespace is the room left in the attribute and is
// capped at 253. The result is the salt followed by the encrypted length
// octet and password; it never exceeds freespace.
func EncodeTunnelPassword(password, secret []byte, authenticator Authenticator, salt [2]byte, freespace int) ([]byte, error) {
	if freespace > TunnelPasswordMaxSpace {
		freespace = TunnelPasswordMaxSpace
	}
	if freespace < 3 {
		return nil, fmt.Errorf("no room for Tunnel-Password: %d octets", freespace)
	}

	if len(password) > freespace-3 {
		password = password[:freespace-3]
	}

	encrypted := (len(password) + 1 + blockLength - 1) &^ (blockLength - 1)
	if encrypted > freespace-2 {
		encrypted = freespace - 2
	}

	out := make([]byte, 2+encrypted)
	out[0] = salt[0]
	out[1] = salt[1]
	out[2] = byte(len(password))
	copy(out[3:], password)

	for n := 0; n < encrypted; n += blockLength {
		h := md5.New()
		h.Write(secret)
		if n == 0 {
			h.Write(authenticator[:])
			h.Write(out[:2])
		} else {
			h.Write(out[2+n-blockLength : 2+n])
		}
		digest := h.Sum(nil)

		block := min(blockLength, encrypted-n)
		for i := 0; i < block; i++ {
			out[2+n+i] ^= digest[i]
		}
	}

	return out, nil
}

// EncodeAscendSecret obscures a 16 octet Ascend-Send-Secret value with
// MD5(authenticator + secret).
func EncodeAscendSecret(value, secret []byte, authenticator Authenticator) ([]byte, error) {
	if len(value) != AscendSecretLength {
		return nil, fmt.Errorf("Ascend secret must be exactly %d bytes, got %d", AscendSecretLength, len(value))
	}

	h := md5.New()
	h.Write(authenticator[:])
	h.Write(secret)
	digest := h.Sum(nil)

	for i := range digest {
		digest[i] ^= value[i]
	}

	return digest, nil
}
