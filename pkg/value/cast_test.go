package value

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

func TestCast(t *testing.T) {
	v4 := must(t)(IPv4Addr(netip.MustParseAddr("10.0.0.1")))

	tests := []struct {
		name string
		dst  dictionary.Type
		in   Value
		want string
	}{
		{"string to integer", dictionary.TypeInteger, String("42"), "42"},
		{"integer to string", dictionary.TypeString, Integer(42), "42"},
		{"integer to octets", dictionary.TypeOctets, Integer(1), "0x00000001"},
		{"octets to short", dictionary.TypeShort, Octets([]byte{1, 0}), "256"},
		{"byte to short", dictionary.TypeShort, Byte(9), "9"},
		{"short to integer", dictionary.TypeInteger, Short(9), "9"},
		{"integer to integer64", dictionary.TypeInteger64, Integer(9), "9"},
		{"integer to signed", dictionary.TypeSigned, Integer(9), "9"},
		{"integer to date", dictionary.TypeDate, Integer(0), "Jan  1 1970 00:00:00 UTC"},
		{"ipaddr to integer", dictionary.TypeInteger, v4, "167772161"},
		{"integer to ipaddr", dictionary.TypeIPv4Addr, Integer(167772161), "10.0.0.1"},
		{"ipaddr to prefix", dictionary.TypeIPv4Prefix, v4, "10.0.0.1/32"},
		{"ipaddr to ipv6addr", dictionary.TypeIPv6Addr, v4, "::ffff:10.0.0.1"},
		{"ipaddr to ipv6prefix", dictionary.TypeIPv6Prefix, v4, "::ffff:10.0.0.1/128"},
		{
			"ipv4prefix to ipv6prefix",
			dictionary.TypeIPv6Prefix,
			must(t)(IPv4Prefix(netip.MustParsePrefix("10.0.0.0/8"))),
			"::ffff:10.0.0.0/104",
		},
		{
			"mapped ipv6prefix to ipv4prefix",
			dictionary.TypeIPv4Prefix,
			must(t)(IPv6Prefix(netip.MustParsePrefix("::ffff:10.0.0.0/104"))),
			"10.0.0.0/8",
		},
		{
			"mapped ipv6addr to ipaddr",
			dictionary.TypeIPv4Addr,
			must(t)(IPv6Addr(netip.MustParseAddr("::ffff:10.0.0.1"))),
			"10.0.0.1",
		},
		{"integer64 to ether", dictionary.TypeEthernet, Integer64(0x0102), "00:00:00:00:01:02"},
		{"ifid to integer64", dictionary.TypeInteger64, IfID([8]byte{7: 5}), "5"},
		{"same type copy", dictionary.TypeOctets, Octets([]byte{1}), "0x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.dst, tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.dst, got.Type())
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCastErrors(t *testing.T) {
	tests := []struct {
		name    string
		dst     dictionary.Type
		in      Value
		wantErr error
	}{
		{"empty", dictionary.TypeInteger, Value{}, ErrInvalidValue},
		{"narrowing", dictionary.TypeByte, Integer(1), ErrTypeMismatch},
		{"signed overflow", dictionary.TypeSigned, Integer(1 << 31), ErrOverflow},
		{"signed overflow from integer64", dictionary.TypeSigned, Integer64(1 << 40), ErrOverflow},
		{"octets wrong length", dictionary.TypeInteger, Octets([]byte{1}), ErrInvalidValue},
		{"ether overflow", dictionary.TypeEthernet, Integer64(1 << 50), ErrOverflow},
		{
			"unmapped ipv6",
			dictionary.TypeIPv4Addr,
			must(t)(IPv6Addr(netip.MustParseAddr("2001:db8::1"))),
			ErrInvalidValue,
		},
		{
			"wide prefix to ipaddr",
			dictionary.TypeIPv4Addr,
			must(t)(IPv4Prefix(netip.MustParsePrefix("10.0.0.0/8"))),
			ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cast(tt.dst, tt.in, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCastSameTypeDetaches(t *testing.T) {
	buf := []byte{1, 2}
	got, err := Cast(dictionary.TypeOctets, Octets(buf), nil)
	require.NoError(t, err)

	buf[0] = 9
	assert.Equal(t, []byte{1, 2}, got.Bytes())
}
