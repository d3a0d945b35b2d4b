package domain

// HedgingSetResult holds the Phase C add-on for one (netting set, asset
// class, hedging set) bucket.
type HedgingSetResult struct {
	Key    HedgingSetKey
	NPV    float64
	AddOn  float64
	IsBasis bool
}

// AssetClassResult holds the Phase D roll-up for one (netting set, asset
// class) bucket.
type AssetClassResult struct {
	Key         AssetClassKey
	NPV         float64
	AddOn       float64
	HedgingSets []HedgingSetResult
}

// NettingSetResult holds every quantity the aggregator computes for one
// netting set (spec.md §4.4, Phases A-E).
type NettingSetResult struct {
	ID NettingSetID

	GrossNPV float64 // sum of max(NPV,0) over trades, per Phase A
	NPV      float64 // sum of NPV over trades (net, can be negative)
	Collateral ResolvedCollateral

	RC         float64
	AddOn      float64 // addOn(ns), Phase D roll-up
	Multiplier float64
	PFE        float64
	EAD        float64
	RW         float64
	CC         float64

	AssetClasses []AssetClassResult

	// CounterpartyID is the counterparty used for the RW lookup (the first
	// counterparty encountered for this netting set, per spec.md §4.4).
	CounterpartyID CounterpartyID
}

// PortfolioResult is the S4 output for the whole portfolio.
type PortfolioResult struct {
	NettingSets   []NettingSetResult
	TotalCC       float64
}
