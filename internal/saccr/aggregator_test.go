package saccr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/saccr-engine/internal/domain"
)

func oneNettingSetFixture(cptyID domain.CounterpartyID, rw float64) (*domain.NettingSetStore, *domain.CounterpartyStore, domain.NettingSetID) {
	id := domain.NewNettingSetID(cptyID, "", "", "")
	defs := domain.NewNettingSetStore()
	defs.Put(&domain.NettingSetDefinition{ID: id})

	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: cptyID, SACCRRW: rw})

	return defs, cptys, id
}

func notionalPtr(v float64) *float64 { return &v }

func TestAggregate_EmptyPortfolio(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	portfolio, npv, err := agg.Aggregate(defs, nil, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	require.Len(t, portfolio.NettingSets, 1)
	ns := portfolio.NettingSets[0]
	assert.Zero(t, ns.NPV)
	assert.Zero(t, ns.RC)
	assert.Zero(t, ns.AddOn)
	assert.Equal(t, 1.0, ns.Multiplier, "multiplier must default to 1 when addOn is zero")
	assert.Zero(t, ns.PFE)
	assert.Zero(t, ns.EAD)
	assert.Zero(t, ns.CC)
	assert.Zero(t, portfolio.TotalCC)
	assert.Zero(t, npv[id.String()])
}

func TestAggregate_RC_FloorsAtThresholdMinusNICA(t *testing.T) {
	// Uncollateralized netting set (no CSA): RC = max(NPV-C, max(TH+MTA-NICA,0)).
	// With no collateral and a positive threshold, RC must hit the TH floor,
	// not NPV, when NPV is below TH.
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{
		id.String(): {TH: 5_000_000, MTA: 0},
	}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassIR, HedgingSet: "USD", NPVBase: 1_000_000,
			Notional: notionalPtr(10_000_000), SD: notionalPtr(1), Delta: 1, MF: 1, M: 2},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	ns := portfolio.NettingSets[0]
	assert.Equal(t, 5_000_000.0, ns.RC, "RC must floor at TH+MTA-NICA when it exceeds NPV-C")
}

func TestAggregate_RC_NeverNegative(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	// Over-collateralized: VM exceeds NPV, and TH/MTA/NICA are all zero.
	collateral := map[string]domain.ResolvedCollateral{id.String(): {VM: 2_000_000}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: 1_000_000,
			Notional: notionalPtr(10_000_000), Delta: 1, MF: 1},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, portfolio.NettingSets[0].RC, 0.0)
}

func TestAggregate_MultiplierBounds(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: -50_000_000,
			Notional: notionalPtr(100_000_000), Delta: 1, MF: 1},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	ns := portfolio.NettingSets[0]
	assert.GreaterOrEqual(t, ns.Multiplier, 0.05)
	assert.LessOrEqual(t, ns.Multiplier, 1.0)
}

func TestAggregate_EAD_AlphaFormula(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 0.2)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: 1_000_000,
			Notional: notionalPtr(10_000_000), Delta: 1, MF: 1},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	ns := portfolio.NettingSets[0]
	assert.InDelta(t, 1.4*(ns.RC+ns.PFE), ns.EAD, 1e-9)
	assert.InDelta(t, ns.EAD*0.2, ns.CC, 1e-9)
}

func TestAggregate_FXHedgingSetAddOn_PlainSum(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: 0,
			Notional: notionalPtr(100), Delta: 1, MF: 1},
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: 0,
			Notional: notionalPtr(50), Delta: -1, MF: 1},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	// effective notionals: +100 and -50 -> linear sum 50 -> addOn = sfFX * |50|
	assert.InDelta(t, sfFX*50, portfolio.NettingSets[0].AddOn, 1e-9)
}

func TestAggregate_IRHedgingSetAddOn_BucketCorrelation(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	// One trade in each of the three IR maturity buckets, same hedging set.
	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassIR, HedgingSet: "USD", NPVBase: 0,
			Notional: notionalPtr(100), SD: notionalPtr(1), Delta: 1, MF: 1, M: 0.5},
		{NettingSet: id, AssetClass: domain.AssetClassIR, HedgingSet: "USD", NPVBase: 0,
			Notional: notionalPtr(100), SD: notionalPtr(1), Delta: 1, MF: 1, M: 3},
		{NettingSet: id, AssetClass: domain.AssetClassIR, HedgingSet: "USD", NPVBase: 0,
			Notional: notionalPtr(100), SD: notionalPtr(1), Delta: 1, MF: 1, M: 7},
	}

	portfolio, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	d1, d2, d3 := 100.0, 100.0, 100.0
	want := sfIR * math.Sqrt(d1*d1+d2*d2+d3*d3+1.4*(d1*d2+d2*d3)+0.6*d1*d3)
	assert.InDelta(t, want, portfolio.NettingSets[0].AddOn, 1e-9)
}

func TestAggregate_BasisHedgingSet_HalvesAddOn(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	hsKey := domain.HedgingSetKey{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD"}
	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassFX, HedgingSet: "EURUSD", NPVBase: 0,
			Notional: notionalPtr(100), Delta: 1, MF: 1},
	}

	plain, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	require.NoError(t, err)

	basis, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, map[domain.HedgingSetKey]bool{hsKey: true})
	require.NoError(t, err)

	assert.InDelta(t, plain.NettingSets[0].AddOn/2, basis.NettingSets[0].AddOn, 1e-9)
}

func TestAggregate_UnknownAssetClass_ReturnsError(t *testing.T) {
	defs, cptys, id := oneNettingSetFixture("CPTY1", 1.0)
	agg := NewAggregator(1.4)

	collateral := map[string]domain.ResolvedCollateral{id.String(): {}}
	nsCounterparty := map[string]domain.CounterpartyID{id.String(): "CPTY1"}

	trades := []*domain.TradeData{
		{NettingSet: id, AssetClass: domain.AssetClassCredit, HedgingSet: "X", NPVBase: 0,
			Notional: notionalPtr(100), Delta: 1, MF: 1},
	}

	_, _, err := agg.Aggregate(defs, trades, collateral, nsCounterparty, cptys, nil)
	assert.Error(t, err, "Credit has no supervisory add-on formula wired and must fail loudly")
}

func TestNetNPVByNettingSet_SumsToPortfolioTotal(t *testing.T) {
	defs, _, id := oneNettingSetFixture("CPTY1", 1.0)
	trades := []*domain.TradeData{
		{NettingSet: id, NPVBase: 10},
		{NettingSet: id, NPVBase: -3},
		{NettingSet: id, NPVBase: 7},
	}
	npv := NetNPVByNettingSet(defs, trades)
	assert.Equal(t, 14.0, npv[id.String()])
}
