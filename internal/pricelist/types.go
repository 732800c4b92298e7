// Package pricelist models the AWS Price List API document hierarchy: the
// global service index, the per-service region index, and the per-region
// offer document holding raw products and pricing terms.
package pricelist

import (
	"sort"
	"strconv"
)

// ServiceIndex is the top-level offers index. Offers maps a service code
// (e.g. "AmazonEC2") to the locations of that service's further indices.
type ServiceIndex struct {
	FormatVersion   string                  `json:"formatVersion"`
	Disclaimer      string                  `json:"disclaimer"`
	PublicationDate string                  `json:"publicationDate"`
	Offers          map[string]ServiceOffer `json:"offers"`
}

// ServiceOffer is one entry of the service index.
type ServiceOffer struct {
	OfferCode             string `json:"offerCode"`
	CurrentVersionURL     string `json:"currentVersionUrl"`
	CurrentRegionIndexURL string `json:"currentRegionIndexUrl"`
}

// RegionIndexURL returns the region index path for a service code. The
// second result is false when the service is not present in the index, which
// callers treat as "skip", not as an error.
func (i *ServiceIndex) RegionIndexURL(service string) (string, bool) {
	offer, ok := i.Offers[service]
	if !ok {
		return "", false
	}
	return offer.CurrentRegionIndexURL, true
}

// RegionIndex maps a region code to the location of its current offer
// document for one service.
type RegionIndex struct {
	FormatVersion   string                 `json:"formatVersion"`
	PublicationDate string                 `json:"publicationDate"`
	Regions         map[string]RegionOffer `json:"regions"`
}

// RegionOffer is one entry of a region index.
type RegionOffer struct {
	RegionCode        string `json:"regionCode"`
	CurrentVersionURL string `json:"currentVersionUrl"`
}

// OfferURL returns the current offer document path for a region code. The
// second result is false when the region is not present.
func (i *RegionIndex) OfferURL(region string) (string, bool) {
	offer, ok := i.Regions[region]
	if !ok {
		return "", false
	}
	return offer.CurrentVersionURL, true
}

// OfferDocument is the full price list for one (service, region) pair: the
// raw product catalog plus every pricing term, keyed by SKU.
type OfferDocument struct {
	FormatVersion   string             `json:"formatVersion"`
	Disclaimer      string             `json:"disclaimer"`
	OfferCode       string             `json:"offerCode"`
	Version         string             `json:"version"`
	PublicationDate string             `json:"publicationDate"`
	Products        map[string]Product `json:"products"`
	Terms           TermFamilies       `json:"terms"`
}

// Product is a raw product entry: one SKU with its family classification and
// free-form attribute map.
type Product struct {
	SKU           string            `json:"sku"`
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
}

// TermFamilies maps term family ("OnDemand", "Reserved", ...) to SKU to
// offer term code to Term.
type TermFamilies map[string]map[string]map[string]Term

// For collects every term indexed under sku across all term families. The
// result is ordered by family name, then offer term code, so the rates built
// from it are stable across runs. Each returned term carries its SKU and
// offer term code even when the source document omits them inline.
func (f TermFamilies) For(sku string) []Term {
	families := make([]string, 0, len(f))
	for name := range f {
		families = append(families, name)
	}
	sort.Strings(families)

	var out []Term
	for _, family := range families {
		byCode := f[family][sku]
		codes := make([]string, 0, len(byCode))
		for code := range byCode {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			term := byCode[code]
			if term.SKU == "" {
				term.SKU = sku
			}
			if term.OfferTermCode == "" {
				term.OfferTermCode = code
			}
			out = append(out, term)
		}
	}
	return out
}

// Term is one priced contract record referencing a single SKU.
type Term struct {
	OfferTermCode   string                    `json:"offerTermCode"`
	SKU             string                    `json:"sku"`
	EffectiveDate   string                    `json:"effectiveDate"`
	TermAttributes  TermAttributes            `json:"termAttributes"`
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
}

// Reserved reports whether the term carries a lease contract length. Terms
// without one are on-demand.
func (t Term) Reserved() bool {
	return t.TermAttributes.LeaseContractLength != ""
}

// Dimensions returns the term's price dimensions ordered by rate code.
func (t Term) Dimensions() []PriceDimension {
	codes := make([]string, 0, len(t.PriceDimensions))
	for code := range t.PriceDimensions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	dims := make([]PriceDimension, 0, len(codes))
	for _, code := range codes {
		dim := t.PriceDimensions[code]
		if dim.RateCode == "" {
			dim.RateCode = code
		}
		dims = append(dims, dim)
	}
	return dims
}

// TermAttributes carries the purchase terms of a reserved offering. All
// three fields are empty on on-demand terms.
type TermAttributes struct {
	LeaseContractLength string `json:"LeaseContractLength"`
	OfferingClass       string `json:"OfferingClass"`
	PurchaseOption      string `json:"PurchaseOption"`
}

// PriceDimension is one priced unit within a term. Unit is "Hrs" for
// recurring hourly charges and "Quantity" for one-time upfront charges.
type PriceDimension struct {
	RateCode     string            `json:"rateCode"`
	Description  string            `json:"description"`
	BeginRange   string            `json:"beginRange"`
	EndRange     string            `json:"endRange"`
	Unit         string            `json:"unit"`
	PricePerUnit map[string]string `json:"pricePerUnit"` // currency -> amount
	AppliesTo    []string          `json:"appliesTo"`
}

// USD returns the dimension's USD unit price, or 0 when the currency is
// absent or the amount does not parse.
func (d PriceDimension) USD() float64 {
	amount, ok := d.PricePerUnit["USD"]
	if !ok {
		return 0
	}
	price, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return price
}
