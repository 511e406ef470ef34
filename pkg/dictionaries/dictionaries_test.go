package dictionaries

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radwire/pkg/dictionary"
)

func TestStandardRFCAttributes(t *testing.T) {
	assert.NotEmpty(t, StandardRFCAttributes)

	idMap := make(map[uint32]*dictionary.AttributeDefinition)
	for _, attr := range StandardRFCAttributes {
		idMap[attr.ID] = attr
	}

	tests := []struct {
		id         uint32
		name       string
		dataType   string
		encryption dictionary.EncryptionType
		hasTag     bool
	}{
		{1, "User-Name", "string", dictionary.EncryptionNone, false},
		{2, "User-Password", "string", dictionary.EncryptionUserPassword, false},
		{4, "NAS-IP-Address", "ipaddr", dictionary.EncryptionNone, false},
		{8, "Framed-IP-Address", "ipaddr", dictionary.EncryptionNone, false},
		{26, "Vendor-Specific", "vsa", dictionary.EncryptionNone, false},
		{64, "Tunnel-Type", "integer", dictionary.EncryptionNone, true},
		{69, "Tunnel-Password", "string", dictionary.EncryptionTunnelPassword, true},
		{241, "Extended-Attribute-1", "extended", dictionary.EncryptionNone, false},
		{246, "Extended-Attribute-6", "long-extended", dictionary.EncryptionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr, ok := idMap[tt.id]
			require.True(t, ok)
			assert.Equal(t, tt.name, attr.Name)
			assert.Equal(t, tt.dataType, attr.DataType)
			assert.Equal(t, tt.encryption, attr.Encryption)
			assert.Equal(t, tt.hasTag, attr.HasTag)
		})
	}

	assert.True(t, idMap[79].Concat, "EAP-Message is split across attributes")
}

func TestMikrotikVendorDefinition(t *testing.T) {
	assert.Equal(t, uint32(14988), MikrotikVendorDefinition.ID)
	assert.Equal(t, "Mikrotik", MikrotikVendorDefinition.Name)
	assert.NotEmpty(t, MikrotikVendorDefinition.Attributes)

	attrMap := make(map[string]*dictionary.AttributeDefinition)
	for _, attr := range MikrotikVendorDefinition.Attributes {
		attrMap[attr.Name] = attr
	}

	rateLimit, ok := attrMap["Mikrotik-Rate-Limit"]
	require.True(t, ok)
	assert.Equal(t, uint32(8), rateLimit.ID)
	assert.Equal(t, "string", rateLimit.DataType)

	encAlgo, ok := attrMap["Mikrotik-Wireless-Enc-Algo"]
	require.True(t, ok)
	assert.Equal(t, uint32(2), encAlgo.Values["104-bit-WEP"])
}

func TestWISPrVendorDefinition(t *testing.T) {
	assert.Equal(t, uint32(14122), WISPrVendorDefinition.ID)
	assert.Equal(t, "WISPr", WISPrVendorDefinition.Name)

	attrMap := make(map[string]*dictionary.AttributeDefinition)
	for _, attr := range WISPrVendorDefinition.Attributes {
		attrMap[attr.Name] = attr
	}

	locationID, ok := attrMap["WISPr-Location-Id"]
	require.True(t, ok)
	assert.Equal(t, uint32(1), locationID.ID)
	assert.Equal(t, "string", locationID.DataType)

	bandwidthMinUp, ok := attrMap["WISPr-Bandwidth-Min-Up"]
	require.True(t, ok)
	assert.Equal(t, uint32(5), bandwidthMinUp.ID)
	assert.Equal(t, "integer", bandwidthMinUp.DataType)
}

func TestNoDuplicateAttributes(t *testing.T) {
	sets := map[string][]*dictionary.AttributeDefinition{
		"RFC": StandardRFCAttributes,
	}
	for _, vd := range VendorDefinitions {
		sets[vd.Name] = vd.Attributes
	}

	for name, attrs := range sets {
		t.Run(name, func(t *testing.T) {
			ids := make(map[uint32]string)
			names := make(map[string]uint32)

			for _, attr := range attrs {
				if existing, ok := ids[attr.ID]; ok {
					t.Errorf("duplicate attribute ID %d: %s and %s", attr.ID, existing, attr.Name)
				}
				ids[attr.ID] = attr.Name

				key := strings.ToLower(attr.Name)
				if existing, ok := names[key]; ok {
					t.Errorf("duplicate attribute name %s: %d and %d", attr.Name, existing, attr.ID)
				}
				names[key] = attr.ID
			}
		})
	}
}

func TestAllAttributesHaveValidDataTypes(t *testing.T) {
	var check func(attrs []*dictionary.AttributeDefinition)
	check = func(attrs []*dictionary.AttributeDefinition) {
		for _, attr := range attrs {
			_, ok := dictionary.ParseType(attr.DataType)
			assert.True(t, ok, "%s has unknown data type %q", attr.Name, attr.DataType)

			_, err := attr.Encryption.Encrypt()
			assert.NoError(t, err, attr.Name)

			check(attr.Children)
		}
	}

	check(StandardRFCAttributes)
	for _, vd := range VendorDefinitions {
		check(vd.Attributes)
	}
}

func TestEmbeddedFiles(t *testing.T) {
	entries, err := fs.ReadDir(Files, "files")
	require.NoError(t, err)

	root, err := fs.ReadFile(Files, RootFile)
	require.NoError(t, err)

	// Every vendor file is reachable from the root file
	for _, e := range entries {
		if e.Name() == "dictionary" {
			continue
		}
		assert.Contains(t, string(root), "$INCLUDE "+e.Name())
	}
}

func TestDictionaryIntegration(t *testing.T) {
	dict := dictionary.New(Protocol)
	require.NoError(t, dict.AddStandardAttributes(StandardRFCAttributes))

	// Vendor files need Vendor-Specific and the extended attributes first
	require.NoError(t, dict.ReadFS(Files, "files/dictionary.juniper"))
	require.NoError(t, dict.ResolveFixups())

	attr, ok := dict.AttrByName("Juniper-CTP-Group")
	require.True(t, ok)
	assert.Equal(t, "Auditor", dict.EnumName(attr, 4))

	// Adding the same vendor again is harmless
	require.NoError(t, dict.AddVendorDefinition(WISPrVendorDefinition))
	require.NoError(t, dict.AddVendorDefinition(WISPrVendorDefinition))

	wispr, ok := dict.AttrByNumber(14122, 4)
	require.True(t, ok)
	assert.Equal(t, "WISPr-Redirection-URL", wispr.Name)
}
