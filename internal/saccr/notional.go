package saccr

import (
	"time"

	"github.com/aristath/saccr-engine/internal/market"
)

// legAverageNotionalBase computes the time-weighted average coupon notional
// for one leg, converted to base currency: each future cashflow contributes
// notional·yearFrac(max(valuationDate, accrualStart), accrualEnd), divided by
// the sum of year fractions. A cashflow whose accrual has fully elapsed
// (AccrualEnd not after the valuation date) is skipped.
//
// Cashflows that carry Quantity/Gearing/Spread/Fixing (commodity-indexed
// coupons) compute their coupon notional as gearing·quantity·(fixing+spread)
// instead of reading Cashflow.Notional directly, mirroring
// SACCR::getLegAverageNotional's CommodityIndexedCashFlow branch.
//
// Grounded on SACCR::getLegAverageNotional (saccr.cpp).
func legAverageNotionalBase(ctx *market.Context, leg market.Leg) (float64, error) {
	var weighted, totalWeight float64
	for _, cf := range leg.Cashflows {
		if !cf.AccrualEnd.After(ctx.ValuationDate) {
			continue
		}
		start := cf.AccrualStart
		if ctx.ValuationDate.After(start) {
			start = ctx.ValuationDate
		}
		yf := yearFracActActISDA(start, cf.AccrualEnd)
		if yf <= 0 {
			yf = 1
		}

		notional := cf.Notional
		if cf.Quantity != nil {
			gearing := 1.0
			if cf.Gearing != nil {
				gearing = *cf.Gearing
			}
			spread := 0.0
			if cf.Spread != nil {
				spread = *cf.Spread
			}
			fixing := 0.0
			if cf.Fixing != nil {
				fixing = *cf.Fixing
			}
			notional = gearing * (*cf.Quantity) * (fixing + spread)
		}

		weighted += notional * yf
		totalWeight += yf
	}
	if totalWeight == 0 {
		return 0, nil
	}

	avg := weighted / totalWeight
	fx, err := ctx.Market.FXRate(leg.Currency, ctx.BaseCurrency)
	if err != nil {
		return 0, err
	}
	return avg * fx, nil
}

// yearFracToBaseNow is a helper used by S/E/M derivation: the ACT/ACT ISDA
// year fraction from the valuation date to t, floored at 0.
func yearFracToBaseNow(ctx *market.Context, t time.Time) float64 {
	return yearFracActActISDA(ctx.ValuationDate, t)
}
