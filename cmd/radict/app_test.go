package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radwire/pkg/dictionaries"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/packet"
	"github.com/vitalvas/radwire/pkg/server"
)

const testDictionary = `ATTRIBUTE	User-Name		1	string
ATTRIBUTE	User-Password		2	string	encrypt=1
ATTRIBUTE	Service-Type		6	integer
VALUE	Service-Type	Login-User	1
VALUE	Service-Type	Framed-User	2
ATTRIBUTE	Reply-Message		18	string
ATTRIBUTE	Vendor-Specific		26	vsa
ATTRIBUTE	Message-Authenticator	80	octets
`

const testDefinitions = `vendors:
  - id: 9
    name: Cisco
    attributes:
      - id: 1
        name: Cisco-AVPair
        data_type: string
`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = runCLI(t, "", "-log-level", "error", "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRunLoadBuiltIn(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-log-level", "error", "load")
	require.Equal(t, 0, code)

	assert.Contains(t, stdout, "Protocol:   RADIUS")
	assert.Contains(t, stdout, "Pending:    0")
}

func TestRunResolve(t *testing.T) {
	tests := []struct {
		name   string
		arg    string
		expect []string
	}{
		{"by name", "juniper-ctp-group", []string{"Juniper-CTP-Group", "Vendor: Juniper (2636)", "VALUE   Auditor = 4"}},
		{"by oid", "1", []string{"User-Name", "OID:    1", "Type:   string"}},
		{"tagged", "Tunnel-Password", []string{"Flags:  has_tag,encrypt=2"}},
		{"nested", "IPv6-6rd-Prefix", []string{"Parent: IPv6-6rd-Configuration"}},
		{"unknown", "Attr-250", []string{"Attr-250", "Type:   octets"}},
		{"vendor specific", "26", []string{"Vendor-Specific", "OID:    26", "Type:   vsa"}},
		{"vendor node", "26.14988", []string{"OID:    26.14988", "Type:   vendor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", "-log-level", "error", "resolve", tt.arg)
			require.Equal(t, 0, code, stderr)
			for _, s := range tt.expect {
				assert.Contains(t, stdout, s)
			}
		})
	}

	code, _, _ := runCLI(t, "", "-log-level", "error", "resolve")
	assert.Equal(t, 1, code)
}

func TestRunEncode(t *testing.T) {
	input := `# accounting start
User-Name = "bob"
Acct-Status-Type = Start
`
	code, stdout, stderr := runCLI(t, input, "-log-level", "error", "encode", "-code", "Accounting-Request", "-attrs")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "0105626f62"+"280600000001", strings.TrimSpace(stdout))
}

func TestRunEncodePacket(t *testing.T) {
	code, stdout, stderr := runCLI(t, "User-Name = bob\n", "-log-level", "error", "encode", "-code", "4", "-id", "9")
	require.Equal(t, 0, code, stderr)

	hexPacket := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(hexPacket, "04090019"), hexPacket)
	assert.True(t, strings.HasSuffix(hexPacket, "0105626f62"), hexPacket)
}

func TestRunEncodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
	}{
		{"unknown attribute", "No-Such-Attr = 1\n", nil},
		{"missing equals", "User-Name bob\n", nil},
		{"bad value", "Service-Type = Nonsense\n", nil},
		{"bad code", "User-Name = bob\n", []string{"-code", "Bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-log-level", "error", "encode"}, tt.args...)
			code, stdout, _ := runCLI(t, tt.input, args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
		})
	}
}

func TestRunDirAndDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dictionary", testDictionary)
	defs := writeFile(t, dir, "cisco.yaml", testDefinitions)

	code, stdout, stderr := runCLI(t, "", "-log-level", "error", "-dir", dir, "-definitions", defs, "resolve", "Cisco-AVPair")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Vendor: Cisco (9)")

	// Built-in vendors are not loaded from a directory
	code, _, _ = runCLI(t, "", "-log-level", "error", "-dir", dir, "resolve", "Juniper-CTP-Group")
	assert.Equal(t, 1, code)
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dictionary", testDictionary)
	cfg := writeFile(t, dir, "radict.yaml", "dir: "+dir+"\nlog_level: error\n")

	code, stdout, stderr := runCLI(t, "", "-config", cfg, "load")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Attributes: ")

	code, _, _ = runCLI(t, "", "-config", filepath.Join(dir, "missing.yaml"), "load")
	assert.Equal(t, 1, code)
}

func TestRunSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dictionary", testDictionary)
	snap := filepath.Join(dir, "dict.cbor")

	code, _, stderr := runCLI(t, "", "-log-level", "error", "-dir", dir, "snapshot", "write", snap)
	require.Equal(t, 0, code, stderr)
	require.FileExists(t, snap)

	code, stdout, stderr := runCLI(t, "", "-log-level", "error", "snapshot", "read", snap)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Protocol:   RADIUS")

	// The snapshot is used in place of the built-in dictionaries
	code, stdout, stderr = runCLI(t, "", "-log-level", "error", "-snapshot", snap, "resolve", "Service-Type")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "VALUE   Framed-User = 2")

	code, _, _ = runCLI(t, "", "-log-level", "error", "-snapshot", snap, "resolve", "Juniper-CTP-Group")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "", "-log-level", "error", "snapshot", "read")
	assert.Equal(t, 1, code)
}

// serveOnce answers requests with code and a Reply-Message
func serveOnce(t *testing.T, code packet.Code) string {
	t.Helper()

	d, err := dictionaries.NewDefault()
	require.NoError(t, err)

	welcome, err := encoder.ParsePair(d, "Reply-Message", "welcome", 0)
	require.NoError(t, err)

	s, err := server.New(server.Config{
		Clients: []server.Client{{Name: "test", Networks: []string{"127.0.0.1"}, Secret: "testing123"}},
		Handler: server.HandlerFunc(func(r *server.Request) (*packet.Packet, error) {
			return r.Reply(code, welcome), nil
		}),
	})
	require.NoError(t, err)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, conn) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return conn.LocalAddr().String()
}

func TestRunSend(t *testing.T) {
	addr := serveOnce(t, packet.CodeAccessAccept)

	input := "User-Name = bob\nUser-Password = secret\n"
	code, stdout, stderr := runCLI(t, input, "-log-level", "error", "send", "-server", addr, "-id", "3")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Received Access-Accept")
	assert.Contains(t, stdout, `Reply-Message = "welcome"`)
}

func TestRunSendReject(t *testing.T) {
	addr := serveOnce(t, packet.CodeAccessReject)

	code, stdout, _ := runCLI(t, "User-Name = bob\n", "-log-level", "error", "send", "-server", addr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Received Access-Reject")
}

func TestRunSendErrors(t *testing.T) {
	code, _, _ := runCLI(t, "User-Name = bob\n", "-log-level", "error", "send")
	assert.Equal(t, 1, code, "server is required")

	code, _, _ = runCLI(t, "", "-log-level", "error", "send", "-server", "127.0.0.1")
	assert.Equal(t, 1, code, "attributes are required")

	code, _, _ = runCLI(t, "User-Name = bob\n", "-log-level", "error", "send", "-server", "127.0.0.1", "-code", "Access-Accept")
	assert.Equal(t, 1, code, "replies cannot be sent")
}

func TestDefaultPort(t *testing.T) {
	assert.Equal(t, "1812", defaultPort(packet.CodeAccessRequest))
	assert.Equal(t, "1812", defaultPort(packet.CodeStatusServer))
	assert.Equal(t, "1813", defaultPort(packet.CodeAccountingRequest))
	assert.Equal(t, "3799", defaultPort(packet.CodeCoARequest))
	assert.Equal(t, "3799", defaultPort(packet.CodeDisconnectRequest))
}

func TestFormatAttribute(t *testing.T) {
	d, err := dictionaries.NewDefault()
	require.NoError(t, err)

	tests := []struct {
		name   string
		attr   packet.Attribute
		expect string
	}{
		{"string", packet.Attribute{Type: 1, Value: []byte("bob")}, `User-Name = "bob"`},
		{"enum", packet.Attribute{Type: 6, Value: []byte{0, 0, 0, 2}}, "Service-Type = Framed-User"},
		{"address", packet.Attribute{Type: 8, Value: []byte{10, 0, 0, 1}}, "Framed-IP-Address = 10.0.0.1"},
		{"tagged", packet.Attribute{Type: 64, Value: []byte{1, 0, 0, 3}}, "Tunnel-Type = L2TP"},
		{"vsa", packet.Attribute{Type: 26, Value: []byte{0, 0, 0, 9, 1, 3, 'x'}}, "Vendor-Specific = 0x00000009010378"},
		{"unknown", packet.Attribute{Type: 250, Value: []byte{0xab}}, "Attr-250 = 0xab"},
		{"malformed", packet.Attribute{Type: 8, Value: []byte{1}}, "Framed-IP-Address = 0x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, formatAttribute(d, tt.attr))
		})
	}
}
