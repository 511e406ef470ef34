package dictionaries

import "github.com/vitalvas/radwire/pkg/dictionary"

// MikrotikVendorDefinition defines the Mikrotik vendor and its attributes
var MikrotikVendorDefinition = &dictionary.VendorDefinition{
	ID:          14988,
	Name:        "Mikrotik",
	Description: "Mikrotik RouterOS RADIUS attributes",
	Attributes: []*dictionary.AttributeDefinition{
		{ID: 1, Name: "Mikrotik-Recv-Limit", DataType: "integer"},
		{ID: 2, Name: "Mikrotik-Xmit-Limit", DataType: "integer"},
		{ID: 3, Name: "Mikrotik-Group", DataType: "string"},
		{ID: 4, Name: "Mikrotik-Wireless-Forward", DataType: "integer"},
		{ID: 5, Name: "Mikrotik-Wireless-Skip-Dot1x", DataType: "integer"},
		{
			ID:       6,
			Name:     "Mikrotik-Wireless-Enc-Algo",
			DataType: "integer",
			Values: map[string]uint32{
				"No-encryption": 0,
				"40-bit-WEP":    1,
				"104-bit-WEP":   2,
				"AES-CCM":       3,
				"TKIP":          4,
			},
		},
		{ID: 7, Name: "Mikrotik-Wireless-Enc-Key", DataType: "string"},
		{ID: 8, Name: "Mikrotik-Rate-Limit", DataType: "string"},
		{ID: 9, Name: "Mikrotik-Realm", DataType: "string"},
		{ID: 10, Name: "Mikrotik-Host-IP", DataType: "ipaddr"},
		{ID: 11, Name: "Mikrotik-Mark-Id", DataType: "string"},
		{ID: 12, Name: "Mikrotik-Advertise-URL", DataType: "string"},
		{ID: 13, Name: "Mikrotik-Advertise-Interval", DataType: "integer"},
		{ID: 14, Name: "Mikrotik-Recv-Limit-Gigawords", DataType: "integer"},
		{ID: 15, Name: "Mikrotik-Xmit-Limit-Gigawords", DataType: "integer"},
		{ID: 16, Name: "Mikrotik-Wireless-PSK", DataType: "string"},
		{ID: 17, Name: "Mikrotik-Total-Limit", DataType: "integer"},
		{ID: 18, Name: "Mikrotik-Total-Limit-Gigawords", DataType: "integer"},
		{ID: 19, Name: "Mikrotik-Address-List", DataType: "string"},
		{ID: 20, Name: "Mikrotik-Wireless-MPKey", DataType: "string"},
		{ID: 21, Name: "Mikrotik-Wireless-Comment", DataType: "string"},
		{ID: 22, Name: "Mikrotik-Delegated-IPv6-Pool", DataType: "string"},
		{ID: 23, Name: "Mikrotik-DHCP-Option-Set", DataType: "string"},
		{ID: 24, Name: "Mikrotik-DHCP-Option-Param-STR1", DataType: "string"},
		{ID: 25, Name: "Mikrotik-DHCP-Option-ParamSTR2", DataType: "string"},
		{ID: 26, Name: "Mikrotik-Wireless-VLANID", DataType: "integer"},
		{ID: 27, Name: "Mikrotik-Wireless-VLANID-Type", DataType: "integer"},
		{ID: 28, Name: "Mikrotik-Wireless-Minsignal", DataType: "string"},
		{ID: 29, Name: "Mikrotik-Wireless-Maxsignal", DataType: "string"},
	},
}
