package dictionaries

import "github.com/vitalvas/radwire/pkg/dictionary"

// WISPrVendorDefinition defines the WISPr vendor and its attributes
var WISPrVendorDefinition = &dictionary.VendorDefinition{
	ID:          14122,
	Name:        "WISPr",
	Description: "WISPr (Wireless Internet Service Provider roaming)",
	Attributes: []*dictionary.AttributeDefinition{
		{ID: 1, Name: "WISPr-Location-Id", DataType: "string"},
		{ID: 2, Name: "WISPr-Location-Name", DataType: "string"},
		{ID: 3, Name: "WISPr-Logoff-URL", DataType: "string"},
		{ID: 4, Name: "WISPr-Redirection-URL", DataType: "string"},
		{ID: 5, Name: "WISPr-Bandwidth-Min-Up", DataType: "integer"},
		{ID: 6, Name: "WISPr-Bandwidth-Min-Down", DataType: "integer"},
		{ID: 7, Name: "WISPr-Bandwidth-Max-Up", DataType: "integer"},
		{ID: 8, Name: "WISPr-Bandwidth-Max-Down", DataType: "integer"},
		{ID: 9, Name: "WISPr-Session-Terminate-Time", DataType: "string"},
	},
}
