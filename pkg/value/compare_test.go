package value

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"equal strings", String("abc"), String("abc"), 0},
		{"content first", String("abd"), String("abcz"), 1},
		{"shorter prefix", Octets([]byte{1}), Octets([]byte{1, 0}), -1},
		{"integers", Integer(1), Integer(2), -1},
		{"signed", Signed(-1), Signed(1), -1},
		{"ether", Ethernet([6]byte{0, 0, 0, 0, 0, 2}), Ethernet([6]byte{0, 0, 0, 0, 0, 1}), 1},
		{
			"ipaddr numeric",
			must(t)(IPv4Addr(netip.MustParseAddr("10.0.0.2"))),
			must(t)(IPv4Addr(netip.MustParseAddr("9.255.255.255"))),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Compare(Integer(1), Short(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCompareOpNetworks(t *testing.T) {
	host := must(t)(IPv4Addr(netip.MustParseAddr("10.1.2.3")))
	net8 := must(t)(IPv4Prefix(netip.MustParsePrefix("10.0.0.0/8")))
	net16 := must(t)(IPv4Prefix(netip.MustParsePrefix("10.1.0.0/16")))
	other := must(t)(IPv4Prefix(netip.MustParsePrefix("192.168.0.0/16")))
	v6 := must(t)(IPv6Prefix(netip.MustParsePrefix("2001:db8::/32")))

	tests := []struct {
		name string
		op   Op
		a, b Value
		want bool
	}{
		{"host inside net", OpLt, host, net8, true},
		{"host inside or equal", OpLe, host, net16, true},
		{"net contains host", OpGt, net8, host, true},
		{"narrow inside wide", OpLt, net16, net8, true},
		{"wide not inside narrow", OpLt, net8, net16, false},
		{"disjoint", OpLt, host, other, false},
		{"equal prefixes", OpEq, net8, net8, true},
		{"different prefixes", OpNe, net8, net16, true},
		{"ge self", OpGe, net8, net8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareOp(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CompareOp(OpLt, host, v6)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCompareOpScalars(t *testing.T) {
	ok, err := CompareOp(OpGe, Integer(5), Integer(5))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CompareOp(OpInvalid, Integer(5), Integer(5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseOp(t *testing.T) {
	for _, s := range []string{"==", "!=", "<", "<=", ">", ">="} {
		op, ok := ParseOp(s)
		require.True(t, ok, s)
		assert.Equal(t, s, op.String())
	}

	_, ok := ParseOp("=~")
	assert.False(t, ok)
	assert.Equal(t, "?", OpInvalid.String())
}
