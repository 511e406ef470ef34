package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAMLDefinition = `name: test
attributes:
  - id: 1
    name: User-Name
    data_type: string
  - id: 6
    name: Service-Type
    data_type: integer
    values:
      Login-User: 1
      Framed-User: 2
  - id: 26
    name: Vendor-Specific
    data_type: vsa
  - id: 69
    name: Tunnel-Password
    data_type: string
    has_tag: true
    encryption: tunnel-password
vendors:
  - id: 9
    name: Foo
    attributes:
      - id: 1
        name: Foo-TLV
        data_type: tlv
        children:
          - id: 1
            name: Foo-TLV-A
            data_type: string
          - id: 2
            name: Foo-TLV-B
            data_type: ipaddr
  - id: 4242
    name: Wide
    format: "2,2"
    attributes:
      - id: 300
        name: Wide-Attr
        data_type: integer
`

const testJSONDefinition = `{
  "vendors": [
    {
      "id": 9,
      "name": "Foo",
      "attributes": [
        {"id": 3, "name": "Foo-Int", "data_type": "integer", "values": {"Off": 0, "On": 1}}
      ]
    }
  ]
}`

func writeDefinition(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSourceYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeDefinition(t, dir, "radius.yaml", testYAMLDefinition)

	d, err := LoadSource(context.Background(), &FileSource{Path: path}, "RADIUS")
	require.NoError(t, err)

	st := mustAttr(t, d, "Service-Type")
	assert.Equal(t, "Framed-User", d.EnumName(st, 2))

	tp := mustAttr(t, d, "Tunnel-Password")
	assert.True(t, tp.Flags.HasTag)
	assert.Equal(t, EncryptTunnelPassword, tp.Flags.Encrypt)

	b := mustAttr(t, d, "Foo-TLV-B")
	assert.Equal(t, "26.9.1.2", PrintOID(nil, b))
	assert.Equal(t, TypeIPv4Addr, b.Type)

	v, ok := d.VendorByNumber(4242)
	require.True(t, ok)
	assert.Equal(t, uint8(2), v.TypeSize)
	assert.Equal(t, uint8(2), v.Length)
}

func TestFileSourceDirectoryMerge(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "a.yaml", testYAMLDefinition)
	writeDefinition(t, dir, "b.json", testJSONDefinition)
	writeDefinition(t, dir, "README.txt", "ignored")

	src := &FileSource{Dir: dir}
	def, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Close())

	require.Len(t, def.Vendors, 2)
	assert.Equal(t, "Foo", def.Vendors[0].Name)
	assert.Len(t, def.Vendors[0].Attributes, 2)

	d := New("RADIUS")
	require.NoError(t, d.AddDefinition(def))

	fooInt, ok := d.AttrByNumber(9, 3)
	require.True(t, ok)
	e, ok := d.EnumByName(fooInt, "on")
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Value)
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		src  *FileSource
	}{
		{"nothing to load", &FileSource{}},
		{"missing file", &FileSource{Path: filepath.Join(dir, "missing.yaml")}},
		{"bad yaml", &FileSource{Path: writeDefinition(t, dir, "bad.yaml", "attributes: [")}},
		{"bad json", &FileSource{Path: writeDefinition(t, dir, "bad.json", "{")}},
		{"unsupported format", &FileSource{Path: writeDefinition(t, dir, "x.yaml", "{}"), Format: "toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Load(context.Background())
			assert.Error(t, err)
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		path := writeDefinition(t, dir, "ok.yaml", testYAMLDefinition)
		_, err := (&FileSource{Path: path}).Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMergeConflicts(t *testing.T) {
	base := func() *Definition {
		return &Definition{
			Attributes: []*AttributeDefinition{
				{ID: 6, Name: "Service-Type", DataType: "integer", Values: map[string]uint32{"Login-User": 1}},
			},
			Vendors: []*VendorDefinition{{ID: 9, Name: "Foo", Format: "1,1"}},
		}
	}

	tests := []struct {
		name  string
		other *Definition
	}{
		{"vendor renamed", &Definition{Vendors: []*VendorDefinition{{ID: 9, Name: "Bar", Format: "1,1"}}}},
		{"vendor format", &Definition{Vendors: []*VendorDefinition{{ID: 9, Name: "Foo", Format: "2,2"}}}},
		{"attribute renamed", &Definition{Attributes: []*AttributeDefinition{{ID: 6, Name: "Other", DataType: "integer"}}}},
		{"attribute retyped", &Definition{Attributes: []*AttributeDefinition{{ID: 6, Name: "Service-Type", DataType: "string"}}}},
		{
			"value changed",
			&Definition{Attributes: []*AttributeDefinition{
				{ID: 6, Name: "Service-Type", DataType: "integer", Values: map[string]uint32{"Login-User": 5}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mergeDefinitions(base(), tt.other)
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}

	t.Run("compatible", func(t *testing.T) {
		target := base()
		err := mergeDefinitions(target, &Definition{Attributes: []*AttributeDefinition{
			{ID: 6, Name: "Service-Type", DataType: "INTEGER", Values: map[string]uint32{"Framed-User": 2}},
			{ID: 1, Name: "User-Name", DataType: "string"},
		}})
		require.NoError(t, err)
		assert.Len(t, target.Attributes, 2)
		assert.Equal(t, map[string]uint32{"Login-User": 1, "Framed-User": 2}, target.Attributes[0].Values)
	})
}

type staticSource struct {
	def    *Definition
	closed bool
}

func (s *staticSource) Load(context.Context) (*Definition, error) { return s.def, nil }

func (s *staticSource) Close() error {
	s.closed = true
	return nil
}

func TestMultiSource(t *testing.T) {
	a := &staticSource{def: &Definition{Attributes: []*AttributeDefinition{{ID: 1, Name: "User-Name", DataType: "string"}}}}
	b := &staticSource{def: &Definition{Attributes: []*AttributeDefinition{{ID: 4, Name: "NAS-IP-Address", DataType: "ipaddr"}}}}

	ms := &MultiSource{Sources: []Source{a, b}}
	d, err := LoadSource(context.Background(), ms, "RADIUS")
	require.NoError(t, err)

	_, ok := d.AttrByName("NAS-IP-Address")
	assert.True(t, ok)

	require.NoError(t, ms.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	_, err = (&MultiSource{}).Load(context.Background())
	assert.Error(t, err)
}

func TestDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		err  error
	}{
		{"unknown type", &Definition{Attributes: []*AttributeDefinition{{ID: 1, Name: "A", DataType: "widget"}}}, ErrInvalidType},
		{"unknown encryption", &Definition{Attributes: []*AttributeDefinition{{ID: 1, Name: "A", DataType: "string", Encryption: "rot13"}}}, ErrInvalidFlags},
		{"bad vendor format", &Definition{Vendors: []*VendorDefinition{{ID: 9, Name: "Foo", Format: "3,1"}}}, ErrSyntax},
		{
			"duplicate name",
			&Definition{Attributes: []*AttributeDefinition{
				{ID: 1, Name: "A", DataType: "string"},
				{ID: 2, Name: "A", DataType: "integer"},
			}},
			ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("RADIUS").AddDefinition(tt.def)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, New("RADIUS").AddDefinition(nil))
}

func TestEncryptionType(t *testing.T) {
	tests := []struct {
		in   EncryptionType
		want Encrypt
	}{
		{EncryptionNone, EncryptNone},
		{EncryptionUserPassword, EncryptUserPassword},
		{"Tunnel-Password", EncryptTunnelPassword},
		{EncryptionAscendSecret, EncryptAscendSecret},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := tt.in.Encrypt()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
