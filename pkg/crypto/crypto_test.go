package crypto

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"layeh.com/radius"
)

var testAuth = Authenticator{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}

// buildPacket returns a header with the given authenticator and attributes
func buildPacket(code, id byte, auth Authenticator, attrs []byte) []byte {
	out := make([]byte, HeaderLength, HeaderLength+len(attrs))
	out[0] = code
	out[1] = id
	binary.BigEndian.PutUint16(out[2:], uint16(HeaderLength+len(attrs)))
	copy(out[4:], auth[:])
	return append(out, attrs...)
}

func TestGenerateRequestAuthenticator(t *testing.T) {
	auth1, err := GenerateRequestAuthenticator()
	require.NoError(t, err)

	auth2, err := GenerateRequestAuthenticator()
	require.NoError(t, err)

	// Should be different (extremely unlikely to be the same)
	assert.NotEqual(t, auth1, auth2)

	_, err = ReadAuthenticator(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestResponseAuthenticator(t *testing.T) {
	secret := []byte("secret")
	attrs := []byte{0x06, 0x06, 0x00, 0x00, 0x00, 0x01} // Service-Type = Login-User

	request := buildPacket(1, 123, testAuth, []byte{0x01, 0x05, 'b', 'o', 'b'})

	reply := buildPacket(2, 123, Authenticator{}, attrs)
	auth, err := ResponseAuthenticator(reply, testAuth, secret)
	require.NoError(t, err)
	copy(reply[4:], auth[:])

	assert.True(t, radius.IsAuthenticResponse(reply, request, secret))
	assert.NoError(t, VerifyResponse(reply, testAuth, secret))

	// The authenticator field of the input does not matter
	again, err := ResponseAuthenticator(reply, testAuth, secret)
	require.NoError(t, err)
	assert.Equal(t, auth, again)

	assert.ErrorIs(t, VerifyResponse(reply, testAuth, []byte("wrong")), ErrAuthenticatorMismatch)

	reply[len(reply)-1] ^= 0xff
	assert.ErrorIs(t, VerifyResponse(reply, testAuth, secret), ErrAuthenticatorMismatch)
}

func TestRequestAuthenticator(t *testing.T) {
	secret := []byte("secret")
	attrs := []byte{0x28, 0x06, 0x00, 0x00, 0x00, 0x01} // Acct-Status-Type = Start

	for _, code := range []byte{4, 40, 43} {
		pkt := buildPacket(code, 7, Authenticator{}, attrs)
		auth, err := RequestAuthenticator(pkt, secret)
		require.NoError(t, err)
		copy(pkt[4:], auth[:])

		assert.True(t, radius.IsAuthenticRequest(pkt, secret), "code %d", code)
		assert.NoError(t, VerifyRequest(pkt, secret))
		assert.ErrorIs(t, VerifyRequest(pkt, []byte("other")), ErrAuthenticatorMismatch)
	}
}

func TestAuthenticatorErrors(t *testing.T) {
	_, err := ResponseAuthenticator([]byte{1, 2, 3}, testAuth, nil)
	assert.ErrorIs(t, err, ErrPacketTooShort)

	_, err = RequestAuthenticator(nil, nil)
	assert.ErrorIs(t, err, ErrPacketTooShort)

	assert.ErrorIs(t, VerifyRequest(make([]byte, 4), nil), ErrPacketTooShort)
}

func TestAuthenticatorHelpers(t *testing.T) {
	zero := Authenticator{}
	assert.True(t, zero.IsZero())
	assert.False(t, testAuth.IsZero())

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", testAuth.String())
	assert.True(t, testAuth.Equal(testAuth))
	assert.False(t, testAuth.Equal(zero))

	auth, err := FromBytes(testAuth[:])
	require.NoError(t, err)
	assert.Equal(t, testAuth, auth)

	_, err = FromBytes([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidAuthenticatorLength)
}
