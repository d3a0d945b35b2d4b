package saccr

import (
	"sort"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// fxLegCurrencies returns the two distinct currencies referenced by an FX
// trade's legs, for Swap/FxForward/FxSwap-style two-leg trades.
func fxLegCurrencies(t market.Trade) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range t.Legs() {
		if !seen[l.Currency] {
			seen[l.Currency] = true
			out = append(out, l.Currency)
		}
	}
	return out
}

// fxBoughtSoldCurrencies identifies the bought (received, Payer=false) and
// sold (paid, Payer=true) currency for an FX option/forward modelled as two
// legs — one payer, one receiver.
func fxBoughtSoldCurrencies(t market.Trade) (bought, sold string) {
	for _, l := range t.Legs() {
		if l.Payer {
			sold = l.Currency
		} else {
			bought = l.Currency
		}
	}
	return bought, sold
}

// fxHedgingSet builds the lexicographically-sorted, two-distinct-currency
// pair string (spec.md §4.2). Grounded on the FX branch of
// SACCR::getHedgingSet.
func fxHedgingSet(t market.Trade) (string, error) {
	currencies := fxLegCurrencies(t)
	if len(currencies) != 2 {
		return "", newPipelineError(KindDeltaError, t.ID(), "derive-fx-hedging-set",
			"expected exactly two underlying currencies")
	}
	sort.Strings(currencies)
	return currencies[0] + currencies[1], nil
}

func fxSwapDelta(t market.Trade, firstRiskFactor string) (float64, error) {
	for _, l := range t.Legs() {
		if l.Currency == firstRiskFactor {
			if l.Payer {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, newPipelineError(KindDeltaError, t.ID(), "compute-fx-swap-delta", "no leg in the first risk-factor currency")
}

func fxForwardDelta(t market.Trade, firstRiskFactor string) (float64, error) {
	bought, _ := fxBoughtSoldCurrencies(t)
	if bought == firstRiskFactor {
		return 1, nil
	}
	return -1, nil
}

// fxOptionDelta implements the flip-to-canonical-orientation and Φ
// evaluation of spec.md §4.2 for FxOption/FxBarrierOption/FxTouchOption.
func (c *TradeClassifier) fxOptionDelta(t market.Trade, td *domain.TradeData, firstRiskFactor string) (float64, error) {
	origBought, origSold := fxBoughtSoldCurrencies(t)
	flip := firstRiskFactor != origBought
	bought, sold := origBought, origSold
	if flip {
		bought, sold = origSold, origBought
	}

	k, err := fxStrike(t, flip)
	if err != nil {
		return 0, err
	}

	var p float64
	if t.Type() == domain.TradeTypeFxBarrierOption || t.Type() == domain.TradeTypeFxTouchOption {
		p, err = fxBarrierLevel(t, flip)
	} else {
		p, err = c.fxForwardPrice(t, bought, sold)
	}
	if err != nil {
		return 0, err
	}

	callPut, boughtSold := optionTypeSigns(t, flip)
	td.Strike = k
	td.Price1 = p

	return optionDelta(callPut, boughtSold, p, k, td.T, supervisoryVolFX)
}

// fxForwardPrice computes the forward FX rate boughtCcy/soldCcy at the
// trade's maturity from discount curves and spot, per spec.md §4.2's
// `disc_bought_near/far · disc_sold_far/near · FX(boughtCcy/soldCcy)`.
func (c *TradeClassifier) fxForwardPrice(t market.Trade, bought, sold string) (float64, error) {
	discBought, err := c.Context.Market.DiscountCurve(bought)
	if err != nil {
		return 0, err
	}
	discSold, err := c.Context.Market.DiscountCurve(sold)
	if err != nil {
		return 0, err
	}
	dbNear, err := discBought.Discount(c.Context.ValuationDate)
	if err != nil {
		return 0, err
	}
	dbFar, err := discBought.Discount(t.MaturityDate())
	if err != nil {
		return 0, err
	}
	dsNear, err := discSold.Discount(c.Context.ValuationDate)
	if err != nil {
		return 0, err
	}
	dsFar, err := discSold.Discount(t.MaturityDate())
	if err != nil {
		return 0, err
	}
	spot, err := c.Context.Market.FXRate(bought, sold)
	if err != nil {
		return 0, err
	}
	return dbNear / dbFar * dsFar / dsNear * spot, nil
}

// fxStrike extracts K from the trade's additional results, flipping to 1/K
// when the trade was flipped to the canonical orientation (so K is always
// expressed as boughtCcy-per-soldCcy in the canonical direction).
func fxStrike(t market.Trade, flip bool) (float64, error) {
	k, ok := t.AdditionalResult("strike")
	if !ok {
		return 0, newPipelineError(KindDeltaError, t.ID(), "extract-strike", "no strike additional result")
	}
	if flip {
		if k == 0 {
			return 0, newPipelineError(KindDeltaError, t.ID(), "extract-strike", "strike is zero")
		}
		return 1 / k, nil
	}
	return k, nil
}

// fxBarrierLevel extracts P for FxBarrierOption/FxTouchOption from the
// "barrier-levels" additional result, flipping to 1/level when the trade was
// reoriented to its canonical direction, mirroring fxStrike's treatment of K.
func fxBarrierLevel(t market.Trade, flip bool) (float64, error) {
	level, ok := t.AdditionalResult("barrier-levels")
	if !ok {
		return 0, newPipelineError(KindDeltaError, t.ID(), "extract-barrier-level", "no barrier-levels additional result")
	}
	if flip {
		if level == 0 {
			return 0, newPipelineError(KindDeltaError, t.ID(), "extract-barrier-level", "barrier level is zero")
		}
		return 1 / level, nil
	}
	return level, nil
}

// optionTypeSigns returns (callPut, boughtSold) signs, flipping callPut when
// the trade was flipped to its canonical orientation.
func optionTypeSigns(t market.Trade, flip bool) (callPut, boughtSold float64) {
	opt, ok := t.OptionData()
	if !ok {
		return 1, 1
	}
	callPut = 1
	if !opt.IsCall {
		callPut = -1
	}
	if flip {
		callPut = -callPut
	}
	boughtSold = 1
	if !opt.IsLong {
		boughtSold = -1
	}
	return callPut, boughtSold
}

func (c *TradeClassifier) fxNotional(t market.Trade) (float64, error) {
	bought, sold := fxBoughtSoldCurrencies(t)
	boughtAmount, soldAmount := fxLegAmount(t, bought), fxLegAmount(t, sold)

	var boughtNotional, soldNotional float64
	if bought != c.Context.BaseCurrency {
		fx, err := c.Context.Market.FXRate(bought, c.Context.BaseCurrency)
		if err != nil {
			return 0, err
		}
		boughtNotional = abs(boughtAmount) * fx
	}
	if sold != c.Context.BaseCurrency {
		fx, err := c.Context.Market.FXRate(sold, c.Context.BaseCurrency)
		if err != nil {
			return 0, err
		}
		soldNotional = abs(soldAmount) * fx
	}
	if boughtNotional > soldNotional {
		return boughtNotional, nil
	}
	return soldNotional, nil
}

func fxLegAmount(t market.Trade, ccy string) float64 {
	for _, l := range t.Legs() {
		if l.Currency == ccy {
			var total float64
			for _, cf := range l.Cashflows {
				total += cf.Notional
			}
			return total
		}
	}
	return 0
}

func (c *TradeClassifier) fxTouchNotional(t market.Trade) (float64, error) {
	for _, l := range t.Legs() {
		fx, err := c.Context.Market.FXRate(l.Currency, c.Context.BaseCurrency)
		if err != nil {
			return 0, err
		}
		var payoff float64
		for _, cf := range l.Cashflows {
			payoff += cf.Notional
		}
		return payoff * fx, nil
	}
	return 0, newPipelineError(KindNotionalError, t.ID(), "resolve-fx-touch-notional", "no payoff leg")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
