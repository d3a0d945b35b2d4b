package saccr

import (
	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// equityHedgingSetAndSubset implements spec.md §4.2's equity branch: the
// single underlying's name is both the hedging set and the subset; the
// reference-data collaborator flags index membership. Grounded on the
// Equity branch of SACCR::getHedgingSet.
func (c *TradeClassifier) equityHedgingSetAndSubset(t market.Trade) (hs, subset string, isBasis bool, err error) {
	names := t.Underlyings("EQ")
	if len(names) != 1 {
		return "", "", false, newPipelineError(KindDeltaError, t.ID(), "derive-equity-hedging-set",
			"exactly one equity underlying is supported")
	}
	return names[0], names[0], false, nil
}

func (c *TradeClassifier) equityOptionDelta(t market.Trade, td *domain.TradeData) (float64, error) {
	sigma := supervisoryVolEquitySingle
	if td.IsEquityIndex {
		sigma = supervisoryVolEquityIndex
	}

	k, ok := t.AdditionalResult("strike")
	if !ok {
		return 0, newPipelineError(KindDeltaError, t.ID(), "extract-strike", "no strike additional result")
	}
	p, err := c.equitySpotBase(t)
	if err != nil {
		return 0, err
	}
	td.Strike = k
	td.Price1 = p

	callPut, boughtSold := optionTypeSigns(t, false)
	return optionDelta(callPut, boughtSold, p, k, td.T, sigma)
}

// trsDelta implements spec.md §4.2's TRS branch: sign from the return leg's
// payer flag, additionally multiplied by the underlying option's delta when
// the underlying is an equity option position.
func (c *TradeClassifier) trsDelta(t market.Trade, td *domain.TradeData) (float64, error) {
	delta := 1.0
	returnLegPays := false
	for _, l := range t.Legs() {
		returnLegPays = l.Payer
		break
	}
	if returnLegPays {
		delta = -1
	}

	if opt, ok := t.OptionData(); ok {
		sigma := supervisoryVolEquitySingle
		if td.IsEquityIndex {
			sigma = supervisoryVolEquityIndex
		}
		k, okK := t.AdditionalResult("strike")
		if !okK {
			return 0, newPipelineError(KindDeltaError, t.ID(), "extract-strike", "no strike additional result")
		}
		p, err := c.equitySpotBase(t)
		if err != nil {
			return 0, err
		}
		td.Strike = k
		td.Price1 = p

		callPut := 1.0
		if !opt.IsCall {
			callPut = -1
		}
		boughtSold := 1.0
		if !opt.IsLong {
			boughtSold = -1
		}
		optDelta, err := optionDelta(callPut, boughtSold, p, k, td.T, sigma)
		if err != nil {
			return 0, err
		}
		delta *= optDelta
	}
	return delta, nil
}

func (c *TradeClassifier) equitySpotBase(t market.Trade) (float64, error) {
	names := t.Underlyings("EQ")
	if len(names) == 0 {
		return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-equity-spot", "no equity underlying")
	}
	curve, err := c.Context.Market.EquityCurve(names[0])
	if err != nil {
		return 0, err
	}
	spot, err := curve.Fixing(c.Context.ValuationDate)
	if err != nil {
		return 0, err
	}
	fx, err := c.Context.Market.FXRate(curve.Currency(), c.Context.BaseCurrency)
	if err != nil {
		return 0, err
	}
	return spot * fx, nil
}

func (c *TradeClassifier) equityOptionNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	legs := t.Legs()
	if len(legs) == 0 || len(legs[0].Cashflows) == 0 || legs[0].Cashflows[0].Quantity == nil {
		return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-equity-option-notional", "no quantity cashflow found")
	}
	quantity := *legs[0].Cashflows[0].Quantity
	spot, err := c.equitySpotBase(t)
	if err != nil {
		return 0, err
	}
	td.Price1 = spot
	return quantity * spot, nil
}

func (c *TradeClassifier) trsNotional(t market.Trade, td *domain.TradeData) (float64, error) {
	legs := t.Legs()
	if len(legs) == 0 || len(legs[0].Cashflows) == 0 || legs[0].Cashflows[0].Quantity == nil {
		return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-trs-notional", "no quantity cashflow found")
	}
	quantity := *legs[0].Cashflows[0].Quantity
	spot, err := c.equitySpotBase(t)
	if err != nil {
		return 0, err
	}
	td.Price1 = spot
	return quantity * spot, nil
}
