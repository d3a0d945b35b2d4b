package saccr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

func twoLegFxTrade(ccyA string, payerA bool, ccyB string, payerB bool) market.Trade {
	return &market.StaticTrade{
		TradeID: "FX1",
		TradeLegs: []market.Leg{
			{Currency: ccyA, Payer: payerA, Cashflows: []market.Cashflow{{Notional: 1_000_000}}},
			{Currency: ccyB, Payer: payerB, Cashflows: []market.Cashflow{{Notional: 1_100_000}}},
		},
	}
}

// Invariant 7 (spec.md §8): the FX hedging set key is always the two
// currencies joined in lexicographic order, regardless of which leg is
// bought or sold or the order the legs appear in.
func TestFxHedgingSet_IsLexicographicallyOrderedRegardlessOfLegOrder(t *testing.T) {
	usdFirst := twoLegFxTrade("USD", true, "EUR", false)
	eurFirst := twoLegFxTrade("EUR", false, "USD", true)

	hsA, err := fxHedgingSet(usdFirst)
	require.NoError(t, err)
	hsB, err := fxHedgingSet(eurFirst)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", hsA)
	assert.Equal(t, hsA, hsB, "leg order must not affect the hedging set key")
}

func TestFxHedgingSet_ErrorsWhenNotExactlyTwoCurrencies(t *testing.T) {
	singleCcy := &market.StaticTrade{
		TradeLegs: []market.Leg{
			{Currency: "USD", Cashflows: []market.Cashflow{{Notional: 1}}},
			{Currency: "USD", Payer: true, Cashflows: []market.Cashflow{{Notional: 1}}},
		},
	}
	_, err := fxHedgingSet(singleCcy)
	assert.Error(t, err)
}

// Invariant 8 (spec.md §8): the sign of a forward's delta always reflects
// whether the trade is long or short the first risk-factor currency,
// independent of which currency is listed first among the legs.
func TestFxForwardDelta_SignMatchesFirstRiskFactorDirection(t *testing.T) {
	buyEUR := twoLegFxTrade("EUR", false, "USD", true) // bought EUR, sold USD
	sellEUR := twoLegFxTrade("EUR", true, "USD", false) // sold EUR, bought USD

	dBuy, err := fxForwardDelta(buyEUR, "EUR")
	require.NoError(t, err)
	dSell, err := fxForwardDelta(sellEUR, "EUR")
	require.NoError(t, err)

	assert.Equal(t, 1.0, dBuy)
	assert.Equal(t, -1.0, dSell)
	assert.Equal(t, -dBuy, dSell)
}

func TestFxSwapDelta_SignFlipsWithPayerReceiver(t *testing.T) {
	payFirst := twoLegFxTrade("EUR", true, "USD", false)
	receiveFirst := twoLegFxTrade("EUR", false, "USD", true)

	dPay, err := fxSwapDelta(payFirst, "EUR")
	require.NoError(t, err)
	dReceive, err := fxSwapDelta(receiveFirst, "EUR")
	require.NoError(t, err)

	assert.Equal(t, -1.0, dPay)
	assert.Equal(t, 1.0, dReceive)
}

func TestFxSwapDelta_ErrorsWhenRiskFactorAbsent(t *testing.T) {
	trade := twoLegFxTrade("EUR", true, "USD", false)
	_, err := fxSwapDelta(trade, "GBP")
	assert.Error(t, err)
}

func TestOptionTypeSigns_FlipsCallPutOnOrientationFlip(t *testing.T) {
	opt := market.OptionData{IsCall: true, IsLong: true}
	trade := &market.StaticTrade{Option: &opt}

	callPut, boughtSold := optionTypeSigns(trade, false)
	assert.Equal(t, 1.0, callPut)
	assert.Equal(t, 1.0, boughtSold)

	flippedCallPut, flippedBoughtSold := optionTypeSigns(trade, true)
	assert.Equal(t, -1.0, flippedCallPut, "callPut sign must flip when the trade is reoriented")
	assert.Equal(t, 1.0, flippedBoughtSold, "boughtSold is a trade-level fact and must not flip")
}

func TestOptionTypeSigns_DefaultsToLongCallWhenNoOptionData(t *testing.T) {
	trade := &market.StaticTrade{}
	callPut, boughtSold := optionTypeSigns(trade, false)
	assert.Equal(t, 1.0, callPut)
	assert.Equal(t, 1.0, boughtSold)
}

func TestFxNotional_TakesMaxOfBoughtAndSoldLegsInBase(t *testing.T) {
	m := market.NewInMemoryMarket()
	m.SetFXRate("EUR", "USD", 1.1)
	ctx := &market.Context{BaseCurrency: "USD", Market: m}
	c := &TradeClassifier{Context: ctx}

	trade := twoLegFxTrade("EUR", false, "USD", true) // bought 1,000,000 EUR, sold 1,100,000 USD
	n, err := c.fxNotional(trade)
	require.NoError(t, err)

	// boughtNotional = 1,000,000 * 1.1 = 1,100,000; soldNotional = 0 (the USD leg is the base currency).
	assert.InDelta(t, 1_100_000, n, 1e-9)
}

func TestFxStrike_FlipsToReciprocal(t *testing.T) {
	trade := &market.StaticTrade{AdditionalResults: map[string]float64{"strike": 1.25}}

	k, err := fxStrike(trade, false)
	require.NoError(t, err)
	assert.Equal(t, 1.25, k)

	kFlipped, err := fxStrike(trade, true)
	require.NoError(t, err)
	assert.InDelta(t, 1/1.25, kFlipped, 1e-12)
}

func TestFxStrike_ZeroStrikeOnFlipIsAnError(t *testing.T) {
	trade := &market.StaticTrade{AdditionalResults: map[string]float64{"strike": 0}}
	_, err := fxStrike(trade, true)
	assert.Error(t, err)
}

func TestFxBarrierLevel_FlipsToReciprocal(t *testing.T) {
	trade := &market.StaticTrade{AdditionalResults: map[string]float64{"barrier-levels": 1.4}}

	p, err := fxBarrierLevel(trade, false)
	require.NoError(t, err)
	assert.Equal(t, 1.4, p)

	pFlipped, err := fxBarrierLevel(trade, true)
	require.NoError(t, err)
	assert.InDelta(t, 1/1.4, pFlipped, 1e-12)
}

func TestFxBarrierLevel_MissingAdditionalResultIsAnError(t *testing.T) {
	trade := &market.StaticTrade{}
	_, err := fxBarrierLevel(trade, false)
	assert.Error(t, err)
}

var _ = domain.AssetClassFX // keep domain import in case of future extension
