package radwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radwire/pkg/packet"
)

func TestNewDefault(t *testing.T) {
	dict, err := NewDefault()
	require.NoError(t, err)

	attr, ok := dict.AttrByName("User-Name")
	require.True(t, ok)
	assert.Equal(t, uint32(1), attr.Attr)
}

func TestEncode(t *testing.T) {
	dict, err := NewDefault()
	require.NoError(t, err)

	name, err := ParsePair(dict, "User-Name", "bob")
	require.NoError(t, err)
	status, err := ParsePair(dict, "Acct-Status-Type", "Start")
	require.NoError(t, err)

	data, err := Encode(packet.CodeAccountingRequest, 1, []byte("secret"), name, status)
	require.NoError(t, err)

	h, err := packet.Verify(data, []byte("secret"), nil)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccountingRequest, h.Code)
	require.Len(t, h.Attributes, 2)
	assert.Equal(t, []byte("bob"), h.Attributes[0].Value)
	assert.Equal(t, []byte{0, 0, 0, 1}, h.Attributes[1].Value)

	_, err = ParsePair(dict, "No-Such-Attribute", "x")
	assert.Error(t, err)
}
