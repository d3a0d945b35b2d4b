// Package domain holds the SA-CCR core data model: identifiers, per-trade
// results, netting-set/collateral/counterparty stores, and aggregation
// results. The package is pure — no infrastructure dependencies.
package domain

import "strings"

// CounterpartyID identifies a legal counterparty.
type CounterpartyID string

// NettingSetID is a composite identifier. Equality and ordering use all four
// components: two ids with the same counterparty but different agreements
// are distinct, per spec.
type NettingSetID struct {
	Counterparty          CounterpartyID
	Agreement             string
	MasterAgreementType   string
	MasterAgreementSubtype string
}

// NewNettingSetID builds an id from a counterparty and an optional
// agreement/master-agreement pair.
func NewNettingSetID(cpty CounterpartyID, agreement, maType, maSubtype string) NettingSetID {
	return NettingSetID{
		Counterparty:           cpty,
		Agreement:              agreement,
		MasterAgreementType:    maType,
		MasterAgreementSubtype: maSubtype,
	}
}

// Equal reports whether two ids refer to the same netting set.
func (n NettingSetID) Equal(other NettingSetID) bool {
	return n.Counterparty == other.Counterparty &&
		n.Agreement == other.Agreement &&
		n.MasterAgreementType == other.MasterAgreementType &&
		n.MasterAgreementSubtype == other.MasterAgreementSubtype
}

// Less gives a deterministic total order over netting-set ids, used to keep
// the summary report's netting-set order reproducible across runs (the
// idempotence law of spec.md §8). Grounded on OREAnalytics' NettingSetDetails
// comparison operator, which orders lexicographically by the same four
// fields.
func (n NettingSetID) Less(other NettingSetID) bool {
	if n.Counterparty != other.Counterparty {
		return n.Counterparty < other.Counterparty
	}
	if n.Agreement != other.Agreement {
		return n.Agreement < other.Agreement
	}
	if n.MasterAgreementType != other.MasterAgreementType {
		return n.MasterAgreementType < other.MasterAgreementType
	}
	return n.MasterAgreementSubtype < other.MasterAgreementSubtype
}

// String renders a compact, stable representation used as a map key and in
// report rows.
func (n NettingSetID) String() string {
	parts := []string{string(n.Counterparty)}
	if n.Agreement != "" {
		parts = append(parts, n.Agreement)
	}
	if n.MasterAgreementType != "" {
		parts = append(parts, n.MasterAgreementType)
	}
	if n.MasterAgreementSubtype != "" {
		parts = append(parts, n.MasterAgreementSubtype)
	}
	return strings.Join(parts, "/")
}

// AssetClass is the closed set of SA-CCR asset classes.
type AssetClass string

const (
	AssetClassIR        AssetClass = "IR"
	AssetClassFX        AssetClass = "FX"
	AssetClassCredit    AssetClass = "Credit"
	AssetClassEquity    AssetClass = "Equity"
	AssetClassCommodity AssetClass = "Commodity"
	AssetClassNone      AssetClass = "None"
)

// HedgingSetKey identifies a (netting set, asset class, hedging set) bucket.
type HedgingSetKey struct {
	NettingSet NettingSetID
	AssetClass AssetClass
	HedgingSet string
}

// HedgingSubsetKey identifies a (netting set, asset class, hedging set,
// hedging subset) bucket — the finest granularity in the §3 key hierarchy.
type HedgingSubsetKey struct {
	NettingSet    NettingSetID
	AssetClass    AssetClass
	HedgingSet    string
	HedgingSubset string
}

// AssetClassKey identifies a (netting set, asset class) bucket.
type AssetClassKey struct {
	NettingSet NettingSetID
	AssetClass AssetClass
}
