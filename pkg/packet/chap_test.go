package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/dictionary"
)

func newCHAPDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()

	d := newTestDictionary(t)
	require.NoError(t, d.ParseLine("ATTRIBUTE CHAP-Password 3 octets", nil, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE CHAP-Challenge 60 octets", nil, 0))

	return d
}

func TestAddCHAPPassword(t *testing.T) {
	d := newCHAPDictionary(t)

	t.Run("request authenticator", func(t *testing.T) {
		p := New(CodeAccessRequest, 1)
		require.NoError(t, p.AddCHAPPassword(d, 9, []byte("secret"), WithRandom(bytes.NewReader(bytes.Repeat([]byte{0x11}, 16)))))
		assert.False(t, p.Authenticator.IsZero())

		data, err := p.Encode(testSecret)
		require.NoError(t, err)

		h, err := Decode(data)
		require.NoError(t, err)

		attr, ok := h.Find(attrCHAPPassword)
		require.True(t, ok)
		assert.Equal(t, byte(9), attr.Value[0])
		assert.True(t, crypto.CheckCHAPPassword(attr.Value, []byte("secret"), h.Authenticator[:]))
	})

	t.Run("challenge attribute", func(t *testing.T) {
		p := New(CodeAccessRequest, 2)
		p.Add(mustPair(t, d, "CHAP-Challenge", "0x000102030405060708090a0b0c0d0e0f10"))
		require.NoError(t, p.AddCHAPPassword(d, 3, []byte("secret")))

		data, err := p.Encode(testSecret)
		require.NoError(t, err)

		h, err := Decode(data)
		require.NoError(t, err)

		challenge, ok := h.Find(attrCHAPChallenge)
		require.True(t, ok)
		attr, ok := h.Find(attrCHAPPassword)
		require.True(t, ok)

		assert.True(t, crypto.CheckCHAPPassword(attr.Value, []byte("secret"), challenge.Value))
		assert.False(t, crypto.CheckCHAPPassword(attr.Value, []byte("secret"), h.Authenticator[:]))
	})

	t.Run("not an access request", func(t *testing.T) {
		p := New(CodeAccountingRequest, 3)
		assert.ErrorIs(t, p.AddCHAPPassword(d, 1, []byte("x")), ErrInvalidCode)
	})

	t.Run("attribute missing", func(t *testing.T) {
		p := New(CodeAccessRequest, 4)
		assert.ErrorIs(t, p.AddCHAPPassword(newTestDictionary(t), 1, []byte("x")), dictionary.ErrNotFound)
	})
}
