package saccr

import (
	"math"

	"github.com/aristath/saccr-engine/internal/domain"
)

// Supervisory factors for Phase C's hedging-set add-on formulas, spec.md
// §4.4. Coincidentally equal in magnitude to the equity supervisory option
// volatilities of option.go, but a distinct constant used for a distinct
// formula.
const (
	sfIR             = 0.005
	sfFX             = 0.04
	sfCommodityPower = 0.4
	sfCommodityOther = 0.18
	sfEquityIndex    = 0.2
	sfEquitySingle   = 0.32
)

// Aggregator is S4: it runs the five aggregation phases of spec.md §4.4 over
// the classified trades and resolved collateral, producing RC, PFE,
// multiplier, EAD, RW, and CC for every netting set.
type Aggregator struct {
	Alpha float64
}

// NewAggregator constructs an aggregator with the regulatory multiplier α.
func NewAggregator(alpha float64) *Aggregator {
	return &Aggregator{Alpha: alpha}
}

type hedgingSetAccumulator struct {
	key        domain.HedgingSetKey
	npv        float64
	trades     []*domain.TradeData
	subsetSums map[string]float64 // effective notional by hedging subset
	dur1       float64            // IR: M < 1
	dur2       float64            // IR: 1 <= M <= 5
	dur3       float64            // IR: M > 5
	linearSum  float64            // FX: plain sum of effective notional
}

// NetNPVByNettingSet sums each netting set's classified trades' base-currency
// NPV, independent of collateral. S3 needs this as its VM fallback before
// Phase A runs the full aggregation, so the pipeline calls this first and
// feeds the result to CollateralResolver.Resolve.
func NetNPVByNettingSet(defs *domain.NettingSetStore, trades []*domain.TradeData) map[string]float64 {
	npv := make(map[string]float64)
	for _, id := range defs.OrderedIDs() {
		npv[id.String()] = 0
	}
	for _, td := range trades {
		npv[td.NettingSet.String()] += td.NPVBase
	}
	return npv
}

// Aggregate runs Phases A-E and returns the full portfolio result.
func (a *Aggregator) Aggregate(
	defs *domain.NettingSetStore,
	trades []*domain.TradeData,
	collateral map[string]domain.ResolvedCollateral,
	nsCounterparty map[string]domain.CounterpartyID,
	cptys *domain.CounterpartyStore,
	basisHedgingSets map[domain.HedgingSetKey]bool,
) (*domain.PortfolioResult, map[string]float64, error) {
	// Phase A.
	npv := make(map[string]float64)
	grossNPV := make(map[string]float64)
	hsAccum := make(map[domain.HedgingSetKey]*hedgingSetAccumulator)
	acKeys := make(map[domain.AssetClassKey][]domain.HedgingSetKey)
	hsKeysByNS := make(map[string][]domain.HedgingSetKey)

	for _, id := range defs.OrderedIDs() {
		npv[id.String()] = 0
		grossNPV[id.String()] = 0
	}

	for _, td := range trades {
		key := td.NettingSet.String()
		npv[key] += td.NPVBase
		if td.NPVBase > 0 {
			grossNPV[key] += td.NPVBase
		}

		hsKey := domain.HedgingSetKey{NettingSet: td.NettingSet, AssetClass: td.AssetClass, HedgingSet: td.HedgingSet}
		acKey := domain.AssetClassKey{NettingSet: td.NettingSet, AssetClass: td.AssetClass}

		acc, ok := hsAccum[hsKey]
		if !ok {
			acc = &hedgingSetAccumulator{key: hsKey, subsetSums: make(map[string]float64)}
			hsAccum[hsKey] = acc
			acKeys[acKey] = append(acKeys[acKey], hsKey)
			hsKeysByNS[key] = append(hsKeysByNS[key], hsKey)
		}
		acc.npv += td.NPVBase
		acc.trades = append(acc.trades, td)
	}

	// Phase B.
	rc := make(map[string]float64)
	collateralSum := make(map[string]float64)
	for _, id := range defs.OrderedIDs() {
		key := id.String()
		c := collateral[key]
		nica := c.IAH + c.IM
		cAmt := c.VM + nica
		collateralSum[key] = cAmt
		rc[key] = math.Max(npv[key]-cAmt, math.Max(c.TH+c.MTA-nica, 0))
	}

	// Phase C.
	hsAddOn := make(map[domain.HedgingSetKey]float64)
	for hsKey, acc := range hsAccum {
		var addOn float64
		switch hsKey.AssetClass {
		case domain.AssetClassIR:
			addOn = a.irHedgingSetAddOn(acc)
		case domain.AssetClassFX:
			addOn = a.fxHedgingSetAddOn(acc)
		case domain.AssetClassCommodity:
			addOn = a.commodityHedgingSetAddOn(acc)
		case domain.AssetClassEquity:
			addOn = a.equityHedgingSetAddOn(acc)
		default:
			return nil, nil, newPipelineError(KindAggregationError, hsKey.NettingSet.String(), "aggregate-hedging-set",
				"unknown asset class "+string(hsKey.AssetClass))
		}
		if basisHedgingSets[hsKey] {
			addOn *= 0.5
		}
		hsAddOn[hsKey] = addOn
	}

	// Phase D.
	acAddOn := make(map[domain.AssetClassKey]float64)
	acNPV := make(map[domain.AssetClassKey]float64)
	nsAddOn := make(map[string]float64)
	for acKey, hsKeys := range acKeys {
		var sum, npvSum float64
		for _, hsKey := range hsKeys {
			sum += hsAddOn[hsKey]
			npvSum += hsAccum[hsKey].npv
		}
		acAddOn[acKey] = sum
		acNPV[acKey] = npvSum
		nsAddOn[acKey.NettingSet.String()] += sum
	}

	// Phase E.
	portfolio := &domain.PortfolioResult{}
	for _, nsID := range defs.OrderedIDs() {
		key := nsID.String()
		A := nsAddOn[key]
		V := npv[key]
		C := collateralSum[key]

		var multiplier float64
		if A == 0 {
			multiplier = 1
		} else {
			multiplier = math.Min(1, 0.05+0.95*math.Exp((V-C)/(2*0.95*A)))
		}
		pfe := multiplier * A
		ead := a.Alpha * (rc[key] + pfe)

		cptyID := nsID.Counterparty
		if mapped, ok := nsCounterparty[key]; ok {
			cptyID = mapped
		}
		var rw float64
		if info := cptys.Get(cptyID); info != nil {
			rw = info.SACCRRW
		}
		cc := ead * rw
		portfolio.TotalCC += cc

		nsResult := domain.NettingSetResult{
			ID:             nsID,
			GrossNPV:       grossNPV[key],
			NPV:            V,
			Collateral:     collateral[key],
			RC:             rc[key],
			AddOn:          A,
			Multiplier:     multiplier,
			PFE:            pfe,
			EAD:            ead,
			RW:             rw,
			CC:             cc,
			CounterpartyID: cptyID,
		}

		seenAC := map[domain.AssetClass]bool{}
		for _, hsKey := range hsKeysByNS[key] {
			if seenAC[hsKey.AssetClass] {
				continue
			}
			seenAC[hsKey.AssetClass] = true
		}
		for ac := range seenAC {
			acKey := domain.AssetClassKey{NettingSet: nsID, AssetClass: ac}
			acResult := domain.AssetClassResult{Key: acKey, NPV: acNPV[acKey], AddOn: acAddOn[acKey]}
			for _, hsKey := range hsKeysByNS[key] {
				if hsKey.AssetClass != ac {
					continue
				}
				acResult.HedgingSets = append(acResult.HedgingSets, domain.HedgingSetResult{
					Key:     hsKey,
					NPV:     hsAccum[hsKey].npv,
					AddOn:   hsAddOn[hsKey],
					IsBasis: basisHedgingSets[hsKey],
				})
			}
			nsResult.AssetClasses = append(nsResult.AssetClasses, acResult)
		}

		portfolio.NettingSets = append(portfolio.NettingSets, nsResult)
	}

	return portfolio, npv, nil
}

func (a *Aggregator) irHedgingSetAddOn(acc *hedgingSetAccumulator) float64 {
	var d1, d2, d3 float64
	for _, td := range acc.trades {
		e := td.EffectiveNotional()
		switch {
		case td.M < 1:
			d1 += e
		case td.M <= 5:
			d2 += e
		default:
			d3 += e
		}
	}
	en := math.Sqrt(d1*d1 + d2*d2 + d3*d3 + 1.4*(d1*d2+d2*d3) + 0.6*d1*d3)
	return sfIR * en
}

func (a *Aggregator) fxHedgingSetAddOn(acc *hedgingSetAccumulator) float64 {
	var en float64
	for _, td := range acc.trades {
		en += td.EffectiveNotional()
	}
	return sfFX * math.Abs(en)
}

func (a *Aggregator) commodityHedgingSetAddOn(acc *hedgingSetAccumulator) float64 {
	subsetEN := make(map[string]float64)
	for _, td := range acc.trades {
		subsetEN[td.HedgingSubset] += td.EffectiveNotional()
	}
	const rho = 0.4
	var sumT, sumTSq float64
	for subset, en := range subsetEN {
		sf := sfCommodityOther
		if subset == "Power" {
			sf = sfCommodityPower
		}
		t := sf * en
		sumT += t
		sumTSq += t * t
	}
	return math.Sqrt(rho*rho*sumT*sumT + (1-rho*rho)*sumTSq)
}

func (a *Aggregator) equityHedgingSetAddOn(acc *hedgingSetAccumulator) float64 {
	type subsetInfo struct {
		en      float64
		isIndex bool
	}
	subsets := make(map[string]*subsetInfo)
	for _, td := range acc.trades {
		s, ok := subsets[td.HedgingSubset]
		if !ok {
			s = &subsetInfo{isIndex: td.IsEquityIndex}
			subsets[td.HedgingSubset] = s
		}
		s.en += td.EffectiveNotional()
	}

	var sumRhoT, sumOneMinusRhoSqTSq float64
	for _, s := range subsets {
		sf := sfEquitySingle
		rho := 0.5
		if s.isIndex {
			sf = sfEquityIndex
			rho = 0.8
		}
		t := sf * s.en
		sumRhoT += rho * t
		sumOneMinusRhoSqTSq += (1 - rho*rho) * t * t
	}
	return math.Sqrt(sumRhoT*sumRhoT + sumOneMinusRhoSqTSq)
}
