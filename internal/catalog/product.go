// Package catalog turns raw offer documents into the per-service product
// catalogs served to the browsing frontend: it groups and filters SKUs,
// normalizes pricing terms into on-demand and reserved rates, and writes the
// catalog artifacts.
package catalog

// Product groups every purchasable variation sharing one instance type.
type Product struct {
	Type       string       `json:"type"`
	Variations []*Variation `json:"variations"`
}

// Variation is one SKU within a product group: the raw product attributes
// plus the normalized offers computed for it. Offers is fully populated
// before the owning Product is ever serialized.
type Variation struct {
	SKU           string            `json:"sku"`
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
	Offers        []Rate            `json:"offers"`
}
