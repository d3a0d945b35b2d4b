package saccr

import (
	"sort"
	"strings"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// irHedgingSet implements spec.md §4.2's IR branch: currency alone, unless
// the trade carries inflation underlyings (→ "<CCY>-BASIS-IBOR-INFLATION")
// or exactly two IR indices (→ "USD-BASIS-BMA" or "<CCY>-BASIS-<t1>-<t2>").
// Grounded on the IR branch of SACCR::getHedgingSet.
func (c *TradeClassifier) irHedgingSet(t market.Trade) (hs, subset string, isBasis bool, err error) {
	ccy := ""
	if legs := t.Legs(); len(legs) > 0 {
		ccy = legs[0].Currency
	}

	irIdx := t.Underlyings("IR")
	infIdx := t.Underlyings("INF")

	switch {
	case len(infIdx) > 0:
		return ccy + "-BASIS-IBOR-INFLATION", "", true, nil
	case len(irIdx) == 2:
		hasSifma := false
		for _, idx := range irIdx {
			if idx == "USD-SIFMA" {
				hasSifma = true
			}
		}
		if hasSifma {
			return "USD-BASIS-BMA", "", true, nil
		}
		tenors := make([]string, 0, 2)
		for _, idx := range irIdx {
			if i := strings.LastIndex(idx, "-"); i >= 0 {
				tenors = append(tenors, idx[i:])
			} else {
				tenors = append(tenors, idx)
			}
		}
		sort.Strings(tenors)
		return ccy + "-BASIS" + tenors[0] + tenors[1], "", true, nil
	default:
		return ccy, "", false, nil
	}
}

// irSwapDelta takes its sign from the floating leg's payer flag, per
// spec.md §4.2.
func irSwapDelta(t market.Trade) (float64, error) {
	for _, l := range t.Legs() {
		if isFloatingLeg(l) {
			if l.Payer {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, newPipelineError(KindDeltaError, t.ID(), "compute-ir-swap-delta", "no floating leg found")
}

// isFloatingLeg treats a leg as floating when any cashflow carries a
// Fixing; fixed legs never populate this field.
func isFloatingLeg(l market.Leg) bool {
	for _, cf := range l.Cashflows {
		if cf.Fixing != nil {
			return true
		}
	}
	return false
}

// swaptionDelta implements spec.md §4.2's IR swaption branch. Cross-currency
// and IR basis swaptions are rejected as DeltaError, per the intentional
// guard documented in spec.md §9.
func (c *TradeClassifier) swaptionDelta(t market.Trade, td *domain.TradeData) (float64, error) {
	if td.AssetClass != domain.AssetClassIR {
		return 0, newPipelineError(KindDeltaError, t.ID(), "compute-swaption-delta", "cross-currency swaptions are not supported")
	}
	if strings.Contains(td.HedgingSet, "-BASIS") {
		return 0, newPipelineError(KindDeltaError, t.ID(), "compute-swaption-delta", "IR basis swaptions are not supported")
	}
	if opt, ok := t.OptionData(); ok && opt.Style == domain.OptionStyleBermudan {
		return 0, newPipelineError(KindDeltaError, t.ID(), "compute-swaption-delta", "Bermudan swaptions are not supported")
	}

	k, ok := t.AdditionalResult("strike")
	if !ok {
		return 0, newPipelineError(KindDeltaError, t.ID(), "extract-strike", "no strike additional result")
	}
	p, ok := t.AdditionalResult("atmForward")
	if !ok {
		p, ok = t.AdditionalResult("forward")
	}
	if !ok {
		return 0, newPipelineError(KindDeltaError, t.ID(), "extract-forward", "no atmForward/forward additional result")
	}
	td.Strike = k
	td.Price1 = p

	callPut, boughtSold := optionTypeSigns(t, false)
	return optionDelta(callPut, boughtSold, p, k, td.T, supervisoryVolIR)
}
