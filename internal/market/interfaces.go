package market

import "time"

// Curve is a discount curve for one currency.
type Curve interface {
	Discount(t time.Time) (float64, error)
}

// EquityCurve additionally exposes historical/projected fixings and the
// currency the underlying trades in.
type EquityCurve interface {
	Curve
	Fixing(t time.Time) (float64, error)
	Currency() string
}

// Surface is a volatility surface, kept for interface completeness per
// spec.md §6 ("fxVol(pair) -> Surface (not used by core beyond the
// trade-level delta calc)"); supervisory vols used in aggregation are fixed
// constants (internal/saccr/option.go), not read from this surface.
type Surface interface {
	Vol(tenor float64, strike float64) (float64, error)
}

// Market is the pricing-market collaborator of spec.md §6.
type Market interface {
	// FXRate returns the spot rate to convert 1 unit of from into to.
	FXRate(from, to string) (float64, error)
	DiscountCurve(ccy string) (Curve, error)
	EquityCurve(name string) (EquityCurve, error)
	FXVol(pair string) (Surface, error)
}

// NameMapper collapses a raw commodity index/underlying name into its SIMM
// qualifier (e.g. "COMM-Brent" -> "Crude oil"), spec.md §6.
type NameMapper interface {
	Qualifier(commodityName string) (string, error)
}

// BucketMapper resolves the SIMM commodity bucket number for a qualifier.
type BucketMapper interface {
	Bucket(riskType, qualifier string) (string, error)
}

// ReferenceData supplies equity reference flags such as index membership.
type ReferenceData interface {
	EquityIsIndex(name string) (bool, error)
}

// Context bundles the valuation date, base currency, and every external
// collaborator the pipeline stages need, following §9's "global mutable
// state" design note: rather than a process-wide evaluation date and
// conventions registry, the pricing context is passed explicitly through
// every stage.
type Context struct {
	ValuationDate time.Time
	BaseCurrency  string

	Market        Market
	NameMapper    NameMapper
	BucketMapper  BucketMapper
	ReferenceData ReferenceData
}
