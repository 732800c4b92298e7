package catalog

import (
	"sort"
	"strings"

	"github.com/pricepages/awscatalog/internal/pricelist"
)

// groupingAttribute is the product attribute products are grouped by. SKUs
// without it cannot be grouped and are dropped.
const groupingAttribute = "instanceType"

// computeInstanceFamily is the product family subject to the variant filter.
const computeInstanceFamily = "Compute Instance"

// Extract groups the offer document's products by instance type, excluding
// irrelevant compute-instance variants. SKUs are visited in sorted order so
// product and variation order is stable across runs; products appear in
// first-encounter order of their instance type.
func Extract(doc *pricelist.OfferDocument) []*Product {
	skus := make([]string, 0, len(doc.Products))
	for sku := range doc.Products {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	byType := make(map[string]*Product)
	// Non-nil so an empty catalog still serializes as [].
	products := []*Product{}

	for _, sku := range skus {
		raw := doc.Products[sku]
		instanceType := raw.Attributes[groupingAttribute]
		if instanceType == "" {
			continue
		}
		if excluded(raw) {
			continue
		}

		product, ok := byType[instanceType]
		if !ok {
			product = &Product{Type: instanceType}
			byType[instanceType] = product
			products = append(products, product)
		}

		product.Variations = append(product.Variations, &Variation{
			SKU:           sku,
			ProductFamily: raw.ProductFamily,
			Attributes:    raw.Attributes,
		})
	}

	return products
}

// excluded reports whether a compute-instance SKU is an irrelevant variant:
// anything that is not plain Linux, shared-tenancy, "Used" capacity with no
// pre-installed software. Other product families are never filtered.
func excluded(p pricelist.Product) bool {
	if p.ProductFamily != computeInstanceFamily {
		return false
	}
	attrs := p.Attributes
	return !strings.EqualFold(attrs["operatingSystem"], "linux") ||
		!strings.EqualFold(attrs["capacitystatus"], "used") ||
		!strings.EqualFold(attrs["tenancy"], "shared") ||
		!strings.EqualFold(attrs["preInstalledSw"], "na")
}
