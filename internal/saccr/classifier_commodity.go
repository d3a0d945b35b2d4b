package saccr

import (
	"sort"
	"strings"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// commodityHedgingSetAndSubset implements spec.md §4.2's commodity branch:
// single underlying resolves bucket/qualifier through the SIMM mappers;
// two underlyings form a basis hedging set named from the raw (prefixed)
// index names, with subset "Power" if either leg maps to Power. Grounded on
// the Commodity branch of SACCR::getHedgingSet.
func (c *TradeClassifier) commodityHedgingSetAndSubset(t market.Trade) (hs, subset string, isBasis bool, err error) {
	indices := append([]string(nil), t.Underlyings("COM")...)
	sort.Strings(indices)

	switch len(indices) {
	case 1:
		hs, err = commodityHedgingSet(c.Context.NameMapper, c.Context.BucketMapper, indices[0])
		if err != nil {
			return "", "", false, err
		}
		subset, err = commodityHedgingSubset(c.Context.NameMapper, indices[0])
		return hs, subset, false, err
	case 2:
		names := make([]string, len(indices))
		for i, idx := range indices {
			names[i] = commodityName(idx, true)
		}
		hs = strings.Join(names, "/")

		power := false
		for _, idx := range indices {
			s, err := commodityHedgingSubset(c.Context.NameMapper, idx)
			if err != nil {
				return "", "", false, err
			}
			if s == "Power" {
				power = true
				break
			}
		}
		if power {
			subset = "Power"
		}
		return hs, subset, true, nil
	default:
		return "", "", false, newPipelineError(KindDeltaError, t.ID(), "derive-commodity-hedging-set",
			"expected one or two commodity underlyings")
	}
}

func commodityForwardDelta(t market.Trade) (float64, error) {
	opt, ok := t.OptionData()
	if ok && !opt.IsLong {
		return -1, nil
	}
	return 1, nil
}

// commoditySwapDelta implements spec.md §4.2: the floating leg matching the
// first underlying for a float-float basis swap, otherwise the sole
// floating leg; sign from the payer flag.
func commoditySwapDelta(t market.Trade, firstRiskFactor string) (float64, error) {
	legs := t.Legs()
	isBasis := strings.Contains(firstRiskFactor, "/")
	tokens := strings.SplitN(firstRiskFactor, "/", 2)

	for i, l := range legs {
		if !isFloatingLeg(l) {
			continue
		}
		if isBasis {
			name := commodityLegUnderlying(t, i)
			if name != tokens[0] {
				continue
			}
		}
		if l.Payer {
			return -1, nil
		}
		return 1, nil
	}
	return 0, newPipelineError(KindDeltaError, t.ID(), "compute-commodity-swap-delta", "no qualifying floating leg found")
}

// commodityLegUnderlying resolves which of a trade's COM underlyings
// corresponds to leg index i; with only one or two underlyings and legs in
// the same order, the index lines up directly.
func commodityLegUnderlying(t market.Trade, legIdx int) string {
	underlyings := t.Underlyings("COM")
	if legIdx < len(underlyings) {
		return underlyings[legIdx]
	}
	if len(underlyings) > 0 {
		return underlyings[0]
	}
	return ""
}

func (c *TradeClassifier) commodityForwardNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	legs := t.Legs()
	if len(legs) == 0 || len(legs[0].Cashflows) == 0 {
		return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-commodity-forward-notional", "no cashflow found")
	}
	cf := legs[0].Cashflows[0]
	fx, err := c.Context.Market.FXRate(legs[0].Currency, c.Context.BaseCurrency)
	if err != nil {
		return 0, err
	}
	notional := cf.Notional * fx
	if cf.Quantity != nil && *cf.Quantity != 0 {
		td.Price1 = notional / *cf.Quantity
	}
	return notional, nil
}

func (c *TradeClassifier) commoditySwapNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	frf, err := firstRiskFactor(domain.AssetClassCommodity, td.HedgingSet, td.HedgingSubset)
	if err != nil {
		return 0, err
	}
	isBasis := strings.Contains(frf, "/")
	tokens := strings.SplitN(frf, "/", 2)

	var sum float64
	have := false
	for i, l := range t.Legs() {
		if !isFloatingLeg(l) {
			continue
		}
		name := commodityLegUnderlying(t, i)
		if !isBasis && name != frf {
			continue
		}
		multiplier := 1.0
		if l.Payer {
			multiplier = -1
		}
		if isBasis {
			if (name == tokens[0] && l.Payer) || (len(tokens) > 1 && name == tokens[1] && !l.Payer) {
				multiplier *= -1
			}
		}
		legNotional, err := legAverageNotionalBase(c.Context, l)
		if err != nil {
			return 0, err
		}
		sum += legNotional * multiplier
		have = true
	}
	if !have {
		return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-commodity-swap-notional", "no qualifying floating leg found")
	}
	return sum, nil
}
