package saccr

import (
	"math"
	"time"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// minMaturityYears is the 10-business-day floor (≈2/52 years) applied to the
// unmargined maturity factor, spec.md §3/§4.2.
const minMaturityYears = 2.0 / 52.0

// largeNettingSetTradeCount is the threshold above which an uncleared
// netting set's MPR is forced to 4 weeks, spec.md §4.2.
const largeNettingSetTradeCount = 5000

// NPVOverride is an optional external (npv, currency) pair that replaces a
// trade's own NPV, spec.md §4.2 ("external trade-NPV table").
type NPVOverride struct {
	NPV      float64
	Currency string
}

// ClassificationResult is the S2 output: the per-trade records plus the
// basis-hedging-set marker set the aggregator needs for the halving rule.
type ClassificationResult struct {
	Trades           []*domain.TradeData
	Diagnostics      []domain.Diagnostic
	BasisHedgingSets map[domain.HedgingSetKey]bool
}

// TradeClassifier is S2.
type TradeClassifier struct {
	Context        *market.Context
	NettingSets    *domain.NettingSetStore
	Counterparties *domain.CounterpartyStore
	NPVOverrides   map[string]NPVOverride

	// NettingSetCounterparty is the S1 first-counterparty-per-netting-set
	// map (ValidationResult.NettingSetCounterparty); it drives the >5000
	// trade MPR override's clearing-CP check.
	NettingSetCounterparty map[string]domain.CounterpartyID
}

// NewTradeClassifier constructs a classifier bound to a pricing context and
// the (already validated) netting-set and counterparty stores.
func NewTradeClassifier(ctx *market.Context, nettingSets *domain.NettingSetStore, cptys *domain.CounterpartyStore, nsCounterparty map[string]domain.CounterpartyID) *TradeClassifier {
	return &TradeClassifier{
		Context:                ctx,
		NettingSets:            nettingSets,
		Counterparties:         cptys,
		NPVOverrides:           map[string]NPVOverride{},
		NettingSetCounterparty: nsCounterparty,
	}
}

// Classify processes every trade in input order, per spec.md §4.2.
func (c *TradeClassifier) Classify(trades []market.Trade) *ClassificationResult {
	res := &ClassificationResult{BasisHedgingSets: map[domain.HedgingSetKey]bool{}}
	emit := func(d domain.Diagnostic) { res.Diagnostics = append(res.Diagnostics, d) }

	// Pre-count trades per netting set: the >5000-trade MPR override of
	// spec.md §4.2 must be known before any trade in that netting set is
	// classified, so it cannot be derived incrementally. Kept as a local
	// map rather than mutating domain.NettingSetDefinition — that store is
	// an S1 output Classify must treat as immutable (spec.md §5), and a
	// shared-pointer counter would keep growing across repeated Run calls
	// on the same stores, breaking the idempotence law of spec.md §8.
	tradeCounts := make(map[string]int)
	for _, t := range trades {
		tradeCounts[t.NettingSetID().String()]++
	}

	for _, t := range trades {
		if !domain.SupportedTradeTypes[t.Type()] {
			emit(domain.NewDiagnostic(domain.SeverityWarning, string(KindTradeUnsupported), t.ID(), "classify-trade",
				"trade type not supported; trade skipped"))
			continue
		}

		td, diags, err := c.classifyOne(t, res.BasisHedgingSets, tradeCounts)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if err != nil {
			if pe, ok := err.(*PipelineError); ok && pe.Kind == KindDeltaError {
				emit(domain.NewDiagnostic(domain.SeverityError, string(KindDeltaError), t.ID(), "compute-delta", pe.Detail))
				continue
			}
			emit(domain.NewDiagnostic(domain.SeverityError, "TradeClassifierError", t.ID(), "classify-trade", err.Error()))
			continue
		}
		res.Trades = append(res.Trades, td)
	}

	return res
}

func (c *TradeClassifier) classifyOne(t market.Trade, basisSets map[domain.HedgingSetKey]bool, tradeCounts map[string]int) (*domain.TradeData, []domain.Diagnostic, error) {
	var diags []domain.Diagnostic

	td := &domain.TradeData{
		ID:           t.ID(),
		Type:         t.Type(),
		NettingSet:   t.NettingSetID(),
		Counterparty: t.CounterpartyID(),
	}

	npv, ccy, err := c.resolveNPV(t)
	if err != nil {
		diags = append(diags, domain.NewDiagnostic(domain.SeverityWarning, string(KindNotionalError), t.ID(), "resolve-npv", err.Error()))
	} else {
		base, convErr := c.toBase(npv, ccy)
		if convErr != nil {
			diags = append(diags, domain.NewDiagnostic(domain.SeverityWarning, string(KindNotionalError), t.ID(), "convert-npv", convErr.Error()))
		} else {
			td.NPVBase = base
		}
	}

	td.AssetClass = c.assetClass(t)

	td.M = yearFracToBaseNow(c.Context, t.MaturityDate())
	if td.M < 0 {
		td.M = 0
	}

	if td.AssetClass == domain.AssetClassIR || td.AssetClass == domain.AssetClassCredit {
		s, e := c.startEnd(t)
		td.S, td.E = s, e
		td.SD = supervisoryDuration(s, e)
	}

	if opt, ok := t.OptionData(); ok {
		if latest, found := opt.LatestExercise(); found {
			td.T = yearFracToBaseNow(c.Context, latest)
		} else {
			td.T = math.NaN()
		}
	} else if t.Type() == domain.TradeTypeTotalReturnSwap {
		td.T = math.NaN()
	} else {
		td.T = math.NaN()
	}

	hs, subset, isBasis, err := c.hedgingSet(t, td)
	if err != nil {
		return nil, diags, err
	}
	td.HedgingSet = hs
	td.HedgingSubset = subset
	key := domain.HedgingSetKey{NettingSet: td.NettingSet, AssetClass: td.AssetClass, HedgingSet: hs}
	if isBasis {
		basisSets[key] = true
	}

	def := c.NettingSets.Get(td.NettingSet)
	td.MF = c.maturityFactor(td, def, tradeCounts[td.NettingSet.String()])

	notional, err := c.currentNotional(t, td)
	if err != nil {
		diags = append(diags, domain.NewDiagnostic(domain.SeverityWarning, string(KindNotionalError), t.ID(), "resolve-notional", err.Error()))
		td.Notional = nil
	} else {
		td.Notional = &notional
	}

	delta, err := c.delta(t, td)
	if err != nil {
		return nil, diags, err
	}
	td.Delta = delta

	// CommoditySwap sign override, spec.md §9: a negative signed notional
	// (only possible for a float-float same-underlying basis swap) is
	// replaced by its absolute value and the delta forced to its sign.
	if t.Type() == domain.TradeTypeCommoditySwap && td.Notional != nil && *td.Notional < 0 {
		abs := -*td.Notional
		td.Notional = &abs
		td.Delta = -1
	}

	return td, diags, nil
}

func (c *TradeClassifier) resolveNPV(t market.Trade) (float64, string, error) {
	if ov, ok := c.NPVOverrides[t.ID()]; ok {
		return ov.NPV, ov.Currency, nil
	}
	npv, ccy := t.NPV()
	return npv, ccy, nil
}

func (c *TradeClassifier) toBase(amount float64, ccy string) (float64, error) {
	if ccy == c.Context.BaseCurrency {
		return amount, nil
	}
	fx, err := c.Context.Market.FXRate(ccy, c.Context.BaseCurrency)
	if err != nil {
		return 0, err
	}
	return amount * fx, nil
}

// assetClass maps the trade type to its asset class, with the
// Swap/Swaption-to-FX reclassification rule of spec.md §4.2.
func (c *TradeClassifier) assetClass(t market.Trade) domain.AssetClass {
	switch t.Type() {
	case domain.TradeTypeSwap, domain.TradeTypeSwaption:
		if multiCurrency(t) {
			return domain.AssetClassFX
		}
		return domain.AssetClassIR
	case domain.TradeTypeFxForward, domain.TradeTypeFxOption, domain.TradeTypeFxBarrierOption, domain.TradeTypeFxTouchOption:
		return domain.AssetClassFX
	case domain.TradeTypeCommodityForward, domain.TradeTypeCommoditySwap:
		return domain.AssetClassCommodity
	case domain.TradeTypeEquityOption, domain.TradeTypeTotalReturnSwap:
		return domain.AssetClassEquity
	default:
		return domain.AssetClassNone
	}
}

func multiCurrency(t market.Trade) bool {
	seen := map[string]bool{}
	for _, l := range t.Legs() {
		seen[l.Currency] = true
	}
	return len(seen) >= 2
}

// startEnd computes S and E per spec.md §4.2: S is the year fraction to the
// earliest leg-first-flow date still in the future (0 if already started),
// E is the year fraction to the latest leg-last-flow date (0 if matured).
func (c *TradeClassifier) startEnd(t market.Trade) (s, e float64) {
	var earliestFirst, latestLast time.Time
	haveFirst, haveLast := false, false
	for _, l := range t.Legs() {
		if d, ok := l.FirstFlowDate(); ok {
			if !haveFirst || d.Before(earliestFirst) {
				earliestFirst = d
				haveFirst = true
			}
		}
		if d, ok := l.LastFlowDate(); ok {
			if !haveLast || d.After(latestLast) {
				latestLast = d
				haveLast = true
			}
		}
	}
	if haveFirst && earliestFirst.After(c.Context.ValuationDate) {
		s = yearFracToBaseNow(c.Context, earliestFirst)
	}
	if haveLast && latestLast.After(c.Context.ValuationDate) {
		e = yearFracToBaseNow(c.Context, latestLast)
	}
	return s, e
}

// supervisoryDuration computes SD = (exp(-0.05S) - exp(-0.05E)) / 0.05.
func supervisoryDuration(s, e float64) *float64 {
	sd := (math.Exp(-0.05*s) - math.Exp(-0.05*e)) / 0.05
	return &sd
}

// maturityFactor implements spec.md §4.2's MF formula, including the
// >5000-trade uncleared-counterparty MPR override. tradeCount is this
// netting set's trade count for the current Classify call (see the local
// tradeCounts map built in Classify).
func (c *TradeClassifier) maturityFactor(td *domain.TradeData, def *domain.NettingSetDefinition, tradeCount int) float64 {
	if def == nil || !def.CSAActive {
		m := td.M
		if m < minMaturityYears {
			m = minMaturityYears
		}
		if m > 1 {
			m = 1
		}
		return math.Sqrt(m)
	}

	weeks := def.MPOR
	if tradeCount > largeNettingSetTradeCount {
		cpty := c.Counterparties.Get(c.nettingSetCounterparty(td.NettingSet))
		if cpty == nil || !cpty.IsClearingCP {
			weeks = 4
		}
	}
	return 1.5 * math.Sqrt(float64(weeks)/52.0)
}

func (c *TradeClassifier) nettingSetCounterparty(id domain.NettingSetID) domain.CounterpartyID {
	if cpty, ok := c.NettingSetCounterparty[id.String()]; ok {
		return cpty
	}
	return id.Counterparty
}

// hedgingSet dispatches to the per-asset-class hedging set/subset
// derivation and reports whether the resulting set is a basis hedging set.
func (c *TradeClassifier) hedgingSet(t market.Trade, td *domain.TradeData) (hs, subset string, isBasis bool, err error) {
	switch td.AssetClass {
	case domain.AssetClassFX:
		hs, err = fxHedgingSet(t)
		return hs, "", false, err
	case domain.AssetClassIR:
		return c.irHedgingSet(t)
	case domain.AssetClassCommodity:
		return c.commodityHedgingSetAndSubset(t)
	case domain.AssetClassEquity:
		hs, subset, isBasis, err = c.equityHedgingSetAndSubset(t)
		if err == nil {
			if isIdx, idxErr := c.Context.ReferenceData.EquityIsIndex(subset); idxErr == nil {
				td.IsEquityIndex = isIdx
			}
		}
		return hs, subset, isBasis, err
	default:
		return "", "", false, newPipelineError(KindAggregationError, t.ID(), "derive-hedging-set",
			"unsupported asset class "+string(td.AssetClass))
	}
}

// firstRiskFactor implements spec.md §4.2's normalisation rule, grounded on
// SACCR::getFirstRiskFactor.
func firstRiskFactor(assetClass domain.AssetClass, hs, subset string) (string, error) {
	switch assetClass {
	case domain.AssetClassFX:
		if len(hs) < 3 {
			return hs, nil
		}
		return hs[:3], nil
	case domain.AssetClassIR:
		return "", nil
	case domain.AssetClassEquity, domain.AssetClassCommodity:
		if containsSlash(hs) {
			return hs, nil
		}
		return subset, nil
	default:
		return "", newPipelineError(KindDeltaError, "", "first-risk-factor", "unsupported asset class")
	}
}

func containsSlash(s string) bool {
	for _, r := range s {
		if r == '/' {
			return true
		}
	}
	return false
}

// delta dispatches to the per-type supervisory delta computation.
func (c *TradeClassifier) delta(t market.Trade, td *domain.TradeData) (float64, error) {
	frf, err := firstRiskFactor(td.AssetClass, td.HedgingSet, td.HedgingSubset)
	if err != nil {
		return 0, err
	}

	switch t.Type() {
	case domain.TradeTypeSwap:
		if td.AssetClass == domain.AssetClassFX {
			return fxSwapDelta(t, frf)
		}
		return irSwapDelta(t)
	case domain.TradeTypeSwaption:
		return c.swaptionDelta(t, td)
	case domain.TradeTypeFxForward:
		return fxForwardDelta(t, frf)
	case domain.TradeTypeFxOption, domain.TradeTypeFxBarrierOption, domain.TradeTypeFxTouchOption:
		return c.fxOptionDelta(t, td, frf)
	case domain.TradeTypeEquityOption:
		return c.equityOptionDelta(t, td)
	case domain.TradeTypeTotalReturnSwap:
		return c.trsDelta(t, td)
	case domain.TradeTypeCommodityForward:
		return commodityForwardDelta(t)
	case domain.TradeTypeCommoditySwap:
		return commoditySwapDelta(t, frf)
	default:
		return 0, newPipelineError(KindDeltaError, t.ID(), "compute-delta", "unsupported trade type "+string(t.Type()))
	}
}

// currentNotional dispatches to the per-type adjusted-notional derivation.
func (c *TradeClassifier) currentNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	switch t.Type() {
	case domain.TradeTypeFxForward, domain.TradeTypeFxOption, domain.TradeTypeFxBarrierOption:
		return c.fxNotional(t)
	case domain.TradeTypeFxTouchOption:
		return c.fxTouchNotional(t)
	case domain.TradeTypeEquityOption:
		return c.equityOptionNotional(t, td)
	case domain.TradeTypeTotalReturnSwap:
		return c.trsNotional(t, td)
	case domain.TradeTypeCommodityForward:
		return c.commodityForwardNotional(t, td)
	case domain.TradeTypeCommoditySwap:
		return c.commoditySwapNotional(t, td)
	default:
		return c.genericNotional(t, td)
	}
}

// genericNotional implements the "otherwise (including IR)" branch of
// spec.md §4.2: per leg, time-weighted average notional; take the max
// across legs, skipping base-currency legs for FX classification.
func (c *TradeClassifier) genericNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	var max float64
	found := false
	for _, l := range t.Legs() {
		if td.AssetClass == domain.AssetClassFX && l.Currency == c.Context.BaseCurrency {
			continue
		}
		v, err := legAverageNotionalBase(c.Context, l)
		if err != nil {
			return 0, err
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max, nil
}
