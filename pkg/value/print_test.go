package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		quote byte
		want  string
	}{
		{"plain", []byte("abc"), '"', "abc"},
		{"quote", []byte(`a"b`), '"', `a\"b`},
		{"backslash", []byte(`a\b`), '"', `a\\b`},
		{"backslash unquoted", []byte(`a\b`), 0, `a\b`},
		{"controls", []byte("\r\n\t\x01\x7f"), 0, `\r\n\t\001\177`},
		{"utf8", []byte("héllo"), '"', "héllo"},
		{"invalid utf8", []byte{0xff, 'a'}, 0, `\377a`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in, tt.quote))
		})
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name  string
		v     Value
		quote byte
		want  string
	}{
		{"string quoted", String("a\"b\n"), '"', `"a\"b\n"`},
		{"string raw", String("a\"b"), 0, `a"b`},
		{"octets", Octets([]byte{0xde, 0xad}), '"', "0xdead"},
		{"empty octets", Octets(nil), 0, "0x"},
		{"bool false", Bool(false), 0, "no"},
		{"date quoted", Date(time.Unix(0, 0)), '\'', "'Jan  1 1970 00:00:00 UTC'"},
		{"ifid", IfID([8]byte{0, 0, 0, 1, 0xab, 0xcd, 0, 0}), 0, "0:1:abcd:0"},
		{"ether", Ethernet([6]byte{0xaa, 0xbb, 0xcc, 0, 1, 2}), 0, "aa:bb:cc:00:01:02"},
		{"decimal", Decimal(0.25), 0, "0.25"},
		{"invalid", Value{}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Print(nil, tt.quote))
		})
	}
}
