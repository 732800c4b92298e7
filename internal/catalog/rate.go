package catalog

// Rate is one normalized price offer attached to a variation. The two
// concrete variants carry different JSON shapes: on-demand rates are a bare
// hourly price, reserved rates add the amortization breakdown.
type Rate interface {
	// RateType returns "on-demand" or "reserved".
	RateType() string
}

// RateTypeOnDemand and RateTypeReserved are the two purchase models the
// engine normalizes to.
const (
	RateTypeOnDemand = "on-demand"
	RateTypeReserved = "reserved"
)

// OnDemandRate is the pay-as-you-go hourly price from a single "Hrs" price
// dimension. SKUs holds that dimension's rate code.
type OnDemandRate struct {
	Type                 string   `json:"type"`
	SKUs                 []string `json:"skus"`
	TotalPricePerHour    float64  `json:"totalPricePerHour"`
	OnDemandPricePerHour float64  `json:"onDemandPricePerHour"`
}

func (OnDemandRate) RateType() string { return RateTypeOnDemand }

// ReservedRate merges a reserved term's upfront ("Quantity") and recurring
// ("Hrs") charges into one record. The contract length is split between
// on-demand-billed and reserved-billed hours according to the purchase
// option, and each half is amortized to a per-hour figure.
type ReservedRate struct {
	Type string   `json:"type"`
	SKUs []string `json:"skus"`

	TotalPriceOnDemand float64 `json:"totalPriceOnDemand"`
	TotalPriceReserved float64 `json:"totalPriceReserved"`
	TotalPrice         float64 `json:"totalPrice"`

	OnDemandPricePerHour float64 `json:"onDemandPricePerHour"`
	ReservedPricePerHour float64 `json:"reservedPricePerHour"`
	TotalPricePerHour    float64 `json:"totalPricePerHour"`

	OnDemandLengthInHours float64 `json:"onDemandLengthInHours"`
	ReservedLengthInHours float64 `json:"reservedLengthInHours"`

	PurchaseOption string `json:"purchaseOption"`
	ContractLength string `json:"contractLength"`
	IsConvertible  bool   `json:"isConvertible"`
}

func (ReservedRate) RateType() string { return RateTypeReserved }
