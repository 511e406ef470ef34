package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDictionary returns a dictionary with a few RFC attributes and
// vendor Foo (9) under Vendor-Specific.
func newTestDictionary(t *testing.T) *Dictionary {
	t.Helper()

	d := New("RADIUS")
	for _, line := range []string{
		"ATTRIBUTE User-Name 1 string",
		"ATTRIBUTE User-Password 2 string encrypt=1",
		"ATTRIBUTE Service-Type 6 integer",
		"ATTRIBUTE Vendor-Specific 26 vsa",
		"ATTRIBUTE Tunnel-Password 69 string has_tag,encrypt=2",
		"VENDOR Foo 9",
		"ATTRIBUTE Foo-TLV 26.9.1 tlv",
		"ATTRIBUTE Foo-TLV-A 26.9.1.1 string",
		"ATTRIBUTE Foo-TLV-B 26.9.1.2 integer",
		"ATTRIBUTE Foo-Int 26.9.3 integer",
	} {
		require.NoError(t, d.ParseLine(line, nil, 0), line)
	}

	return d
}

func vendorAttr(t *testing.T, d *Dictionary, pen uint32) *Attribute {
	t.Helper()

	vsa, ok := d.Root().ChildByNumber(AttrVendorSpecific)
	require.True(t, ok)

	v, ok := vsa.ChildByNumber(pen)
	require.True(t, ok)

	return v
}

func TestNew(t *testing.T) {
	d := New("RADIUS")

	root := d.Root()
	require.NotNil(t, root)
	assert.Equal(t, "RADIUS", root.Name)
	assert.True(t, root.IsRoot())
	assert.Equal(t, TypeTLV, root.Type)
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, uint8(1), root.Flags.TypeSize)
	assert.NotEqual(t, [16]byte{}, [16]byte(d.ID))
	assert.NotNil(t, d.Logger())
}

func TestValueAliasesStringAttribute(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.ParseLine("ATTRIBUTE Test-Attr 25 string", nil, 0))
	require.NoError(t, d.ParseLine("VALUE Test-Attr Foo 1", nil, 0))

	a, ok := d.AttrByName("Test-Attr")
	require.True(t, ok)

	e, ok := d.EnumByName(a, "Foo")
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Value)
	assert.Same(t, a, e.Attr)

	e, ok = d.EnumByName(a, "foo")
	require.True(t, ok)
	assert.Equal(t, "Foo", e.Name)

	assert.Equal(t, "Foo", d.EnumName(a, 1))
	assert.Equal(t, "", d.EnumName(a, 2))
}

func TestAttributeZeroRejected(t *testing.T) {
	d := New("RADIUS")

	err := d.ParseLine("ATTRIBUTE Bad 0 integer", nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, ok := d.AttrByName("Bad")
	assert.False(t, ok)
}

func TestAddAttributeValidation(t *testing.T) {
	tests := []struct {
		name string
		line string
		err  error
	}{
		{"plain integer", "ATTRIBUTE Plain 100 integer", nil},
		{"extended", "ATTRIBUTE Ext 241 extended", nil},
		{"extended below 241", "ATTRIBUTE Ext-Low 100 extended", ErrInvalidType},
		{"long extended", "ATTRIBUTE Long-Ext 245 long-extended", nil},
		{"evs under root", "ATTRIBUTE Evs 17 evs", ErrInvalidType},
		{"vendor under root", "ATTRIBUTE Vnd 18 vendor", ErrInvalidType},
		{"timeval not allowed", "ATTRIBUTE Tv 19 timeval", ErrInvalidType},
		{"combo ip without vsa", "ATTRIBUTE Combo 20 combo-ip", ErrInvalidType},
		{"unknown type", "ATTRIBUTE Unk 21 widget", ErrInvalidType},
		{"tag on integer", "ATTRIBUTE Tag-Int 22 integer has_tag", nil},
		{"tag on ipaddr", "ATTRIBUTE Tag-Ip 23 ipaddr has_tag", ErrInvalidFlags},
		{"tag with user password", "ATTRIBUTE Tag-Pw 24 string has_tag,encrypt=1", ErrInvalidFlags},
		{"concat octets", "ATTRIBUTE Cat 27 octets concat", nil},
		{"concat string", "ATTRIBUTE Cat-Str 28 string concat", ErrInvalidFlags},
		{"user password string", "ATTRIBUTE Pw 29 string encrypt=1", nil},
		{"user password integer", "ATTRIBUTE Pw-Int 30 integer encrypt=1", ErrInvalidFlags},
		{"user password octets without length", "ATTRIBUTE Pw-Oct 31 octets encrypt=1", ErrInvalidFlags},
		{"user password octets with length", "ATTRIBUTE Pw-Oct16 32 octets[16] encrypt=1", nil},
		{"ascend secret integer", "ATTRIBUTE Asc-Int 33 integer encrypt=3", ErrInvalidFlags},
		{"ascend secret string", "ATTRIBUTE Asc 34 string encrypt=3", nil},
		{"encrypt out of range", "ATTRIBUTE Enc-4 35 string encrypt=4", ErrInvalidFlags},
		{"octets zero length", "ATTRIBUTE Oct-0 36 octets[0]", ErrSyntax},
		{"octets too long", "ATTRIBUTE Oct-254 37 octets[254]", ErrSyntax},
		{"length on string", "ATTRIBUTE Len-Str 38 string", nil},
		{"invalid name", "ATTRIBUTE Bad!Name 39 integer", ErrInvalidName},
		{"reserved name", "ATTRIBUTE Attr-40 40 integer", ErrInvalidName},
		{"number too large", "ATTRIBUTE Big 300 integer", ErrInvalidNumber},
		{"unknown option", "ATTRIBUTE Opt 41 integer shiny", ErrSyntax},
		{"virtual protocol attribute", "ATTRIBUTE Virt 42 integer virtual", ErrInvalidFlags},
		{"too few fields", "ATTRIBUTE Short 43", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New("RADIUS")

			err := d.ParseLine(tt.line, nil, 0)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFixedLengthForced(t *testing.T) {
	d := New("RADIUS")

	tests := []struct {
		line   string
		name   string
		length uint8
	}{
		{"ATTRIBUTE A-Int 1 integer", "A-Int", 4},
		{"ATTRIBUTE A-Byte 2 byte", "A-Byte", 1},
		{"ATTRIBUTE A-Short 3 short", "A-Short", 2},
		{"ATTRIBUTE A-Ether 4 ether", "A-Ether", 6},
		{"ATTRIBUTE A-IPv6 5 ipv6addr", "A-IPv6", 16},
		{"ATTRIBUTE A-Int64 6 integer64", "A-Int64", 8},
		{"ATTRIBUTE A-String 7 string", "A-String", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, d.ParseLine(tt.line, nil, 0))

			a, ok := d.AttrByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.length, a.Flags.Length)
		})
	}
}

func TestAddAttributeDuplicates(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.ParseLine("ATTRIBUTE Dup 21 integer", nil, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE DUP 21 integer", nil, 0))
	assert.Len(t, d.Root().Bin(21), 1)

	err := d.ParseLine("ATTRIBUTE Dup 22 integer", nil, 0)
	assert.ErrorIs(t, err, ErrDuplicate)

	err = d.ParseLine("ATTRIBUTE Dup 21 string", nil, 0)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAddAttributeAutoNumber(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.AddAttribute(d.Root(), "Auto-One", AutoNumber, TypeString, Flags{}))
	require.NoError(t, d.AddAttribute(d.Root(), "Auto-Two", AutoNumber, TypeInteger, Flags{}))

	one, ok := d.AttrByName("Auto-One")
	require.True(t, ok)
	two, ok := d.AttrByName("Auto-Two")
	require.True(t, ok)

	assert.Equal(t, uint32(257), one.Attr)
	assert.Equal(t, uint32(258), two.Attr)
	assert.True(t, one.Flags.Internal)

	// Asking again for an existing name is a no-op
	require.NoError(t, d.AddAttribute(d.Root(), "Auto-One", AutoNumber, TypeString, Flags{}))
	three := d.AddAttribute(d.Root(), "Auto-Three", AutoNumber, TypeString, Flags{})
	require.NoError(t, three)

	a, ok := d.AttrByName("Auto-Three")
	require.True(t, ok)
	assert.Equal(t, uint32(259), a.Attr)

	// Explicit numbers move the counter forward
	require.NoError(t, d.ParseLine("ATTRIBUTE Server-Attr 3001 integer", nil, 0))
	require.NoError(t, d.AddAttribute(d.Root(), "Auto-Four", AutoNumber, TypeString, Flags{}))
	a, ok = d.AttrByName("Auto-Four")
	require.True(t, ok)
	assert.Equal(t, uint32(3002), a.Attr)
}

func TestServerAttributesAreInternal(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.ParseLine("ATTRIBUTE Server-Attr 3001 integer", nil, 0))
	a, ok := d.AttrByName("Server-Attr")
	require.True(t, ok)
	assert.True(t, a.Flags.Internal)

	require.NoError(t, d.ParseLine("ATTRIBUTE VMPS-Packet-Type 0x2b00 integer", nil, 0))
	a, ok = d.AttrByName("VMPS-Packet-Type")
	require.True(t, ok)
	assert.False(t, a.Flags.Internal)
	assert.Equal(t, uint32(0x2b00), a.Attr)
}

func TestSiblingOrdering(t *testing.T) {
	d := New("RADIUS")

	// All of these land in bin 1
	require.NoError(t, d.ParseLine("ATTRIBUTE Late 257 integer internal", nil, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE Nested 513 tlv internal", nil, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE First 1 string", nil, 0))

	var names []string
	for _, a := range d.Root().Bin(1) {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Nested", "First", "Late"}, names)

	parent := &Attribute{Name: "p", Type: TypeTLV}
	for _, a := range []*Attribute{
		{Name: "v9-a5", Vendor: 9, Attr: 5, Type: TypeInteger},
		{Name: "v0-a261", Vendor: 0, Attr: 261, Type: TypeInteger},
		{Name: "v0-a5", Vendor: 0, Attr: 5, Type: TypeInteger},
		{Name: "v9-tlv", Vendor: 9, Attr: 5, Type: TypeTLV},
		{Name: "v1-a5", Vendor: 1, Attr: 5, Type: TypeInteger},
		{Name: "v0-vsa", Vendor: 0, Attr: 517, Type: TypeVSA},
	} {
		parent.addChild(a)
	}

	names = names[:0]
	for _, a := range parent.Bin(5) {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"v0-vsa", "v9-tlv", "v0-a5", "v0-a261", "v1-a5", "v9-a5"}, names)

	// Every bin is sorted: structural first, then vendor, then number
	for _, chain := range [][]*Attribute{d.Root().Bin(1), parent.Bin(5)} {
		for i := 1; i < len(chain); i++ {
			prev, cur := chain[i-1], chain[i]
			if prev.Type.IsStructural() != cur.Type.IsStructural() {
				assert.True(t, prev.Type.IsStructural())
				continue
			}
			if prev.Vendor != cur.Vendor {
				assert.Less(t, prev.Vendor, cur.Vendor)
				continue
			}
			assert.LessOrEqual(t, prev.Attr, cur.Attr)
		}
	}
}

func TestDepthInvariant(t *testing.T) {
	d := newTestDictionary(t)

	count := 0
	d.Walk(func(a *Attribute) bool {
		count++
		require.NotNil(t, a.Parent)
		assert.Equal(t, a.Parent.Depth+1, a.Depth, a.Name)
		assert.NotPanics(t, func() { Verify(a) })
		return true
	})
	assert.Greater(t, count, 8)
}

func TestVendorPropagation(t *testing.T) {
	d := newTestDictionary(t)

	a, ok := d.AttrByName("Foo-TLV-B")
	require.True(t, ok)
	assert.Equal(t, uint32(9), a.Vendor)
	assert.Equal(t, 4, a.Depth)

	tlv, ok := d.AttrByName("Foo-TLV")
	require.True(t, ok)
	assert.Equal(t, uint8(1), tlv.Flags.TypeSize)
	assert.Equal(t, uint8(1), tlv.Flags.Length)

	byNum, ok := d.AttrByNumber(9, 3)
	require.True(t, ok)
	assert.Equal(t, "Foo-Int", byNum.Name)

	_, ok = d.AttrByNumber(9, 99)
	assert.False(t, ok)
	_, ok = d.AttrByNumber(77, 1)
	assert.False(t, ok)

	std, ok := d.AttrByNumber(0, 1)
	require.True(t, ok)
	assert.Equal(t, "User-Name", std.Name)
}

func TestVendorFlag(t *testing.T) {
	d := newTestDictionary(t)

	require.NoError(t, d.ParseLine("ATTRIBUTE Foo-Flagged 4 integer Foo", nil, 0))

	a, ok := d.AttrByNumber(9, 4)
	require.True(t, ok)
	assert.Equal(t, "Foo-Flagged", a.Name)
	assert.Equal(t, TypeVendor, a.Parent.Type)

	err := d.ParseLine("ATTRIBUTE Foo-Oid-Flagged 26.9.5 integer Foo", nil, 0)
	assert.ErrorIs(t, err, ErrSyntax)

	err = d.ParseLine("ATTRIBUTE Foo-Block-Flagged 6 integer Foo", vendorAttr(t, d, 9), 9)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestComboIPAddr(t *testing.T) {
	d := newTestDictionary(t)

	require.NoError(t, d.ParseLine("ATTRIBUTE Foo-Addr 7 combo-ip Foo", nil, 0))

	a, ok := d.AttrByName("Foo-Addr")
	require.True(t, ok)

	v4, ok := d.AttrByType(9, 7, TypeIPv4Addr)
	require.True(t, ok)
	assert.Equal(t, TypeIPv4Addr, v4.Type)
	assert.Same(t, a.Parent, v4.Parent)
	assert.Equal(t, a.Depth, v4.Depth)

	v6, ok := d.AttrByType(9, 7, TypeIPv6Addr)
	require.True(t, ok)
	assert.Equal(t, TypeIPv6Addr, v6.Type)
	assert.NotSame(t, v4, v6)

	_, ok = d.AttrByType(9, 7, TypeInteger)
	assert.False(t, ok)
}

func TestStructLength(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.ParseLine("ATTRIBUTE Rec 100 struct", nil, 0))
	rec, ok := d.AttrByName("Rec")
	require.True(t, ok)

	err := d.ParseLine("ATTRIBUTE Rec-Late 2 short", rec, 0)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	require.NoError(t, d.ParseLine("ATTRIBUTE Rec-Id 1 integer", rec, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE Rec-Port 2 short", rec, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE Rec-Tag 3 octets[3]", rec, 0))
	assert.Equal(t, uint8(9), rec.Flags.Length)

	err = d.ParseLine("ATTRIBUTE Rec-Name 4 string", rec, 0)
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.Equal(t, uint8(9), rec.Flags.Length)
}

func TestArrayFlag(t *testing.T) {
	d := newTestDictionary(t)

	err := d.ParseLine("ATTRIBUTE Foo-Array 8 ipaddr array", vendorAttr(t, d, 9), 9)
	assert.ErrorIs(t, err, ErrInvalidFlags)

	require.NoError(t, d.ParseLine("VENDOR FreeDHCP 34673", nil, 0))
	require.NoError(t, d.ParseLine("ATTRIBUTE DHCP-Dummy 26.34673.1 integer", nil, 0))

	require.NoError(t, d.ParseLine("ATTRIBUTE DHCP-Router 3 ipaddr array", vendorAttr(t, d, VendorFreeDHCP), VendorFreeDHCP))
	err = d.ParseLine("ATTRIBUTE DHCP-Bad 4 octets array", vendorAttr(t, d, VendorFreeDHCP), VendorFreeDHCP)
	assert.ErrorIs(t, err, ErrInvalidFlags)
}

func TestEnumValues(t *testing.T) {
	d := newTestDictionary(t)

	require.NoError(t, d.ParseLine("VALUE Service-Type Login-User 1", nil, 0))
	require.NoError(t, d.ParseLine("VALUE Service-Type Framed-User 2", nil, 0))
	require.NoError(t, d.ParseLine("VALUE Service-Type Framed-User 2", nil, 0))

	err := d.ParseLine("VALUE Service-Type Framed-User 3", nil, 0)
	assert.ErrorIs(t, err, ErrDuplicate)

	st, ok := d.AttrByName("Service-Type")
	require.True(t, ok)

	enums := d.Enums(st)
	require.Len(t, enums, 2)
	assert.Equal(t, "Login-User", enums[0].Name)
	assert.Equal(t, "Framed-User", enums[1].Name)

	e, ok := d.EnumByValue(st, 2)
	require.True(t, ok)
	assert.Equal(t, "Framed-User", e.Name)

	t.Run("byte range", func(t *testing.T) {
		require.NoError(t, d.ParseLine("ATTRIBUTE Small 50 byte", nil, 0))
		err := d.ParseLine("VALUE Small Too-Big 256", nil, 0)
		assert.ErrorIs(t, err, ErrInvalidFlags)
	})

	t.Run("not on ipaddr", func(t *testing.T) {
		require.NoError(t, d.ParseLine("ATTRIBUTE Addr 51 ipaddr", nil, 0))
		err := d.ParseLine("VALUE Addr Home 1", nil, 0)
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("alias", func(t *testing.T) {
		require.NoError(t, d.ParseLine("ATTRIBUTE Service-Type-Copy 52 integer", nil, 0))
		cp, ok := d.AttrByName("Service-Type-Copy")
		require.True(t, ok)

		d.AddEnumAlias(cp, st)
		e, ok := d.EnumByName(cp, "login-user")
		require.True(t, ok)
		assert.Equal(t, uint32(1), e.Value)
		assert.Equal(t, "Framed-User", d.EnumName(cp, 2))
	})
}

func TestEnumFixups(t *testing.T) {
	d := New("RADIUS")

	require.NoError(t, d.ParseLine("VALUE Later Early-One 1", nil, 0))
	require.NoError(t, d.ParseLine("VALUE Later Early-Two 2", nil, 0))
	assert.Equal(t, 2, d.PendingFixups())

	require.NoError(t, d.ParseLine("ATTRIBUTE Later 60 integer", nil, 0))
	require.NoError(t, d.ResolveFixups())
	assert.Equal(t, 0, d.PendingFixups())

	a, ok := d.AttrByName("Later")
	require.True(t, ok)
	e, ok := d.EnumByName(a, "Early-Two")
	require.True(t, ok)
	assert.Equal(t, uint32(2), e.Value)
	assert.Equal(t, "Early-One", d.EnumName(a, 1))

	t.Run("last read prints", func(t *testing.T) {
		d := New("RADIUS")

		require.NoError(t, d.ParseLine("VALUE Late Old-Name 7", nil, 0))
		require.NoError(t, d.ParseLine("VALUE Late New-Name 7", nil, 0))
		require.NoError(t, d.ParseLine("ATTRIBUTE Late 61 integer", nil, 0))
		require.NoError(t, d.ParseLine("ATTRIBUTE Direct 62 integer", nil, 0))
		require.NoError(t, d.ParseLine("VALUE Direct Old-Name 7", nil, 0))
		require.NoError(t, d.ParseLine("VALUE Direct New-Name 7", nil, 0))
		require.NoError(t, d.ResolveFixups())

		for _, name := range []string{"Late", "Direct"} {
			a, ok := d.AttrByName(name)
			require.True(t, ok)
			assert.Equal(t, "New-Name", d.EnumName(a, 7), name)

			e, ok := d.EnumByName(a, "old-name")
			require.True(t, ok, name)
			assert.Equal(t, uint32(7), e.Value)
		}
	})

	require.NoError(t, d.ParseLine("VALUE Never X 1", nil, 0))
	err := d.ResolveFixups()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, d.PendingFixups())
}

func TestValidName(t *testing.T) {
	assert.Equal(t, -1, ValidName("Foo-Bar_1.2:x"))
	assert.Equal(t, 3, ValidName("Foo Bar"))
	assert.Equal(t, 0, ValidName("!"))
}

func TestAttrByNamePrefix(t *testing.T) {
	d := newTestDictionary(t)

	a, rest, ok := d.AttrByNamePrefix("User-Name == 'bob'")
	require.True(t, ok)
	assert.Equal(t, "User-Name", a.Name)
	assert.Equal(t, " == 'bob'", rest)

	_, _, ok = d.AttrByNamePrefix("Nope-Name == 1")
	assert.False(t, ok)

	_, _, ok = d.AttrByNamePrefix("")
	assert.False(t, ok)
}

func TestWalkStops(t *testing.T) {
	d := newTestDictionary(t)

	seen := 0
	d.Walk(func(*Attribute) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}
