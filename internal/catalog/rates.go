package catalog

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricepages/awscatalog/internal/pricelist"
)

// hoursPerMonth is the amortization constant AWS billing uses.
const hoursPerMonth = 730

const (
	unitHours    = "hrs"
	unitQuantity = "quantity"
)

// MalformedTermError reports a reserved term carrying more than one upfront
// or more than one recurring price dimension. The rate model assumes at most
// one of each; silently picking one would corrupt the published price, so
// this aborts the run.
type MalformedTermError struct {
	ProductType  string
	VariationSKU string
	TermCode     string
	Dimension    string // "upfront" or "recurring"
	Count        int
}

func (e *MalformedTermError) Error() string {
	return fmt.Sprintf("%s => %s => %s: %d %s price dimensions, want at most 1",
		e.ProductType, e.VariationSKU, e.TermCode, e.Count, e.Dimension)
}

// RateEngine converts raw pricing terms into normalized rates.
type RateEngine struct {
	logger zerolog.Logger
}

// NewRateEngine creates a RateEngine. Unrecognized contract lengths and
// purchase options are logged through logger as data anomalies.
func NewRateEngine(logger zerolog.Logger) *RateEngine {
	return &RateEngine{logger: logger}
}

// AttachOffers populates the Offers list of every variation in product from
// the terms indexed under the variation's SKU, across all term families.
// Rates are appended in term visit order; no cross-term ranking is applied.
func (e *RateEngine) AttachOffers(product *Product, terms pricelist.TermFamilies) error {
	for _, variation := range product.Variations {
		variation.Offers = []Rate{}
		for _, term := range terms.For(variation.SKU) {
			rates, err := e.termRates(product, variation, term)
			if err != nil {
				return err
			}
			variation.Offers = append(variation.Offers, rates...)
		}
	}
	return nil
}

func (e *RateEngine) termRates(product *Product, variation *Variation, term pricelist.Term) ([]Rate, error) {
	if term.Reserved() {
		rate, err := e.reservedRate(product, variation, term)
		if err != nil {
			return nil, err
		}
		return []Rate{rate}, nil
	}
	return onDemandRates(term), nil
}

// onDemandRates emits one rate per hourly price dimension. The unit price is
// already USD per hour, so no scaling is applied.
func onDemandRates(term pricelist.Term) []Rate {
	var rates []Rate
	for _, dim := range term.Dimensions() {
		if !strings.EqualFold(dim.Unit, unitHours) {
			continue
		}
		price := dim.USD()
		rates = append(rates, OnDemandRate{
			Type:                 RateTypeOnDemand,
			SKUs:                 []string{dim.RateCode},
			TotalPricePerHour:    price,
			OnDemandPricePerHour: price,
		})
	}
	return rates
}

// reservedRate merges a reserved term's charges into a single rate. The
// term's price dimensions are partitioned into at most one upfront
// ("Quantity") and at most one recurring ("Hrs") charge; more of either is a
// MalformedTermError.
func (e *RateEngine) reservedRate(product *Product, variation *Variation, term pricelist.Term) (Rate, error) {
	var upfront, recurring []pricelist.PriceDimension
	for _, dim := range term.Dimensions() {
		switch strings.ToLower(dim.Unit) {
		case unitQuantity:
			upfront = append(upfront, dim)
		case unitHours:
			recurring = append(recurring, dim)
		}
	}

	if len(upfront) > 1 {
		return nil, &MalformedTermError{
			ProductType:  product.Type,
			VariationSKU: variation.SKU,
			TermCode:     term.OfferTermCode,
			Dimension:    "upfront",
			Count:        len(upfront),
		}
	}
	if len(recurring) > 1 {
		return nil, &MalformedTermError{
			ProductType:  product.Type,
			VariationSKU: variation.SKU,
			TermCode:     term.OfferTermCode,
			Dimension:    "recurring",
			Count:        len(recurring),
		}
	}

	attrs := term.TermAttributes
	lengthInHours := e.contractHours(attrs.LeaseContractLength, term.OfferTermCode)
	onDemandHours, reservedHours := e.splitHours(lengthInHours, attrs.PurchaseOption, term.OfferTermCode)

	var upfrontPrice, recurringPrice float64
	var skus []string
	if len(recurring) == 1 {
		recurringPrice = recurring[0].USD()
		skus = append(skus, recurring[0].RateCode)
	}
	if len(upfront) == 1 {
		upfrontPrice = upfront[0].USD()
		skus = append(skus, upfront[0].RateCode)
	}

	var totalOnDemand, totalReserved float64
	if upfrontPrice != 0 {
		totalReserved = upfrontPrice
	}
	if recurringPrice != 0 {
		totalOnDemand = recurringPrice * onDemandHours
	}

	// A degraded term can carry a charge against a zero-hour span (e.g. an
	// unrecognized contract length priced as 0 hours); the per-hour figure
	// stays 0 then, never Inf, so the catalog still serializes.
	var onDemandPerHour, reservedPerHour float64
	if totalOnDemand > 0 && onDemandHours > 0 {
		onDemandPerHour = totalOnDemand / onDemandHours
	}
	if totalReserved > 0 && reservedHours > 0 {
		reservedPerHour = totalReserved / reservedHours
	}

	return ReservedRate{
		Type: RateTypeReserved,
		SKUs: skus,

		TotalPriceOnDemand: totalOnDemand,
		TotalPriceReserved: totalReserved,
		TotalPrice:         totalOnDemand + totalReserved,

		OnDemandPricePerHour: onDemandPerHour,
		ReservedPricePerHour: reservedPerHour,
		TotalPricePerHour:    onDemandPerHour + reservedPerHour,

		OnDemandLengthInHours: onDemandHours,
		ReservedLengthInHours: reservedHours,

		PurchaseOption: attrs.PurchaseOption,
		ContractLength: attrs.LeaseContractLength,
		IsConvertible:  strings.EqualFold(attrs.OfferingClass, "convertible"),
	}, nil
}

// contractHours resolves a lease contract length to hours. An unrecognized
// length is a data anomaly: it is logged and treated as 0 hours so the run
// completes with a degenerate zero-priced rate instead of aborting.
func (e *RateEngine) contractHours(contractLength, termCode string) float64 {
	switch normalizeEnum(contractLength) {
	case "1yr":
		return 1 * 12 * hoursPerMonth
	case "2yr":
		return 2 * 12 * hoursPerMonth
	case "3yr":
		return 3 * 12 * hoursPerMonth
	default:
		e.logger.Error().
			Str("contract_length", contractLength).
			Str("term", termCode).
			Msg("unrecognized contract length, pricing as 0 hours")
		return 0
	}
}

// splitHours divides the contract length between on-demand-billed and
// reserved-billed hours based on the purchase option. An unrecognized option
// is logged and yields a (0, 0) split. The halves are not validated to sum
// to the full length.
func (e *RateEngine) splitHours(lengthInHours float64, purchaseOption, termCode string) (onDemand, reserved float64) {
	switch normalizeEnum(purchaseOption) {
	case "allupfront":
		return 0, lengthInHours
	case "partialupfront":
		return lengthInHours / 2, lengthInHours / 2
	case "noupfront":
		return lengthInHours, 0
	default:
		e.logger.Error().
			Str("purchase_option", purchaseOption).
			Str("term", termCode).
			Msg("unrecognized purchase option, pricing as 0 hours")
		return 0, 0
	}
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
