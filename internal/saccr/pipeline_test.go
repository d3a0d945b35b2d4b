package saccr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

func newPipelineFixture(baseCcy string) (*market.InMemoryMarket, *domain.NettingSetStore, *domain.CounterpartyStore, domain.NettingSetID) {
	m := market.NewInMemoryMarket()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: false})

	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CPTY1", SACCRRW: 1.0})

	return m, nettingSets, cptys, nsID
}

// Seed scenario A (spec.md §8): single 10Y EUR payer IRS, notional 100M EUR,
// no CSA, NPV=0. Expect delta=-1, SD≈7.8693, MF=1, addOn(hs)≈3.9347M,
// RC=0, multiplier=1, EAD≈5.509M.
func TestPipeline_SeedScenarioA_TenYearPayerIRS(t *testing.T) {
	valuationDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityDate := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	m, nettingSets, cptys, nsID := newPipelineFixture("EUR")

	fixedLeg := market.Leg{
		Currency: "EUR", Payer: false,
		Cashflows: []market.Cashflow{{AccrualStart: valuationDate, AccrualEnd: maturityDate, Notional: 100_000_000}},
	}
	fixing := 0.0
	floatLeg := market.Leg{
		Currency: "EUR", Payer: true,
		Cashflows: []market.Cashflow{{AccrualStart: valuationDate, AccrualEnd: maturityDate, Notional: 100_000_000, Fixing: &fixing}},
	}

	trade := &market.StaticTrade{
		TradeID: "IRS1", TradeType: domain.TradeTypeSwap,
		NettingSet: nsID, Counterparty: "CPTY1",
		TradeLegs:   []market.Leg{fixedLeg, floatLeg},
		Maturity:    maturityDate,
		NPVAmount:   0,
		NPVCurrency: "EUR",
	}

	ctx := &market.Context{ValuationDate: valuationDate, BaseCurrency: "EUR", Market: m}
	pipeline := NewPipeline(ctx, NewDefaults("EUR"))

	result, err := pipeline.Run(PipelineInput{
		Trades:         []market.Trade{trade},
		NettingSets:    nettingSets,
		UserBalances:   domain.NewCollateralBalanceStore(),
		CalcBalances:   domain.NewCollateralBalanceStore(),
		Counterparties: cptys,
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	td := result.Trades[0]
	assert.Equal(t, -1.0, td.Delta)
	require.NotNil(t, td.SD)
	assert.InDelta(t, 7.8693, *td.SD, 1e-3)
	assert.InDelta(t, 1.0, td.MF, 1e-9)

	ns := result.Portfolio.NettingSets[0]
	assert.InDelta(t, 0, ns.RC, 1e-6)
	assert.InDelta(t, 3_934_693, ns.AddOn, 2000)
	assert.Equal(t, 1.0, ns.Multiplier)
	assert.InDelta(t, 5_508_570, ns.EAD, 3000)
}

// Seed scenario C (spec.md §8): two offsetting FxForward trades in the same
// EURUSD hedging set must net to a zero hedging-set add-on.
func TestPipeline_SeedScenarioC_OffsettingFxForwardsNetToZeroAddOn(t *testing.T) {
	valuationDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityDate := valuationDate.AddDate(0, 6, 0)

	m, nettingSets, cptys, nsID := newPipelineFixture("USD")
	m.SetFXRate("EUR", "USD", 1.1)

	buyEURsellUSD := &market.StaticTrade{
		TradeID: "FWD1", TradeType: domain.TradeTypeFxForward,
		NettingSet: nsID, Counterparty: "CPTY1", Maturity: maturityDate,
		NPVAmount: 0, NPVCurrency: "USD",
		TradeLegs: []market.Leg{
			{Currency: "EUR", Payer: false, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 1_000_000}}},
			{Currency: "USD", Payer: true, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 1_100_000}}},
		},
	}
	sellEURbuyUSD := &market.StaticTrade{
		TradeID: "FWD2", TradeType: domain.TradeTypeFxForward,
		NettingSet: nsID, Counterparty: "CPTY1", Maturity: maturityDate,
		NPVAmount: 0, NPVCurrency: "USD",
		TradeLegs: []market.Leg{
			{Currency: "USD", Payer: false, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 1_100_000}}},
			{Currency: "EUR", Payer: true, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 1_000_000}}},
		},
	}

	ctx := &market.Context{ValuationDate: valuationDate, BaseCurrency: "USD", Market: m}
	pipeline := NewPipeline(ctx, NewDefaults("USD"))

	result, err := pipeline.Run(PipelineInput{
		Trades:         []market.Trade{buyEURsellUSD, sellEURbuyUSD},
		NettingSets:    nettingSets,
		UserBalances:   domain.NewCollateralBalanceStore(),
		CalcBalances:   domain.NewCollateralBalanceStore(),
		Counterparties: cptys,
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, 1.0, result.Trades[0].Delta)
	assert.Equal(t, -1.0, result.Trades[1].Delta)
	assert.InDelta(t, 0, result.Portfolio.NettingSets[0].AddOn, 1e-6)
}

// Boundary case (spec.md §8): a matured, unmargined trade floors MF at
// sqrt(2/52) instead of going to zero.
func TestPipeline_MaturedTrade_MFFloorsAtTenBusinessDays(t *testing.T) {
	valuationDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	maturityDate := valuationDate.AddDate(0, -1, 0) // already matured

	m, nettingSets, cptys, nsID := newPipelineFixture("EUR")

	fixedLeg := market.Leg{Currency: "EUR", Payer: false,
		Cashflows: []market.Cashflow{{AccrualStart: maturityDate.AddDate(-1, 0, 0), AccrualEnd: maturityDate, Notional: 10_000_000}}}
	fixing := 0.0
	floatLeg := market.Leg{Currency: "EUR", Payer: true,
		Cashflows: []market.Cashflow{{AccrualStart: maturityDate.AddDate(-1, 0, 0), AccrualEnd: maturityDate, Notional: 10_000_000, Fixing: &fixing}}}

	trade := &market.StaticTrade{
		TradeID: "MATURED1", TradeType: domain.TradeTypeSwap,
		NettingSet: nsID, Counterparty: "CPTY1",
		TradeLegs:   []market.Leg{fixedLeg, floatLeg},
		Maturity:    maturityDate,
		NPVAmount:   0,
		NPVCurrency: "EUR",
	}

	ctx := &market.Context{ValuationDate: valuationDate, BaseCurrency: "EUR", Market: m}
	pipeline := NewPipeline(ctx, NewDefaults("EUR"))

	result, err := pipeline.Run(PipelineInput{
		Trades:         []market.Trade{trade},
		NettingSets:    nettingSets,
		UserBalances:   domain.NewCollateralBalanceStore(),
		CalcBalances:   domain.NewCollateralBalanceStore(),
		Counterparties: cptys,
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	assert.Equal(t, 0.0, result.Trades[0].M, "a matured trade's M must floor at zero, not go negative")
	assert.InDelta(t, math.Sqrt(2.0/52.0), result.Trades[0].MF, 1e-9)
}

// Invariant 5 (spec.md §8): the sum of per-netting-set NPV must equal the
// portfolio total NPV computed directly from the input trades.
func TestPipeline_Invariant_NettingSetNPVSumsToPortfolioTotal(t *testing.T) {
	valuationDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityDate := valuationDate.AddDate(1, 0, 0)

	m, nettingSets, cptys, nsID := newPipelineFixture("USD")

	trades := []market.Trade{
		&market.StaticTrade{TradeID: "T1", TradeType: domain.TradeTypeFxForward, NettingSet: nsID, Counterparty: "CPTY1",
			Maturity: maturityDate, NPVAmount: 123_456, NPVCurrency: "USD",
			TradeLegs: []market.Leg{
				{Currency: "USD", Payer: false, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 1_000_000}}},
				{Currency: "EUR", Payer: true, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 900_000}}},
			}},
		&market.StaticTrade{TradeID: "T2", TradeType: domain.TradeTypeFxForward, NettingSet: nsID, Counterparty: "CPTY1",
			Maturity: maturityDate, NPVAmount: -45_678, NPVCurrency: "USD",
			TradeLegs: []market.Leg{
				{Currency: "USD", Payer: false, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 500_000}}},
				{Currency: "EUR", Payer: true, Cashflows: []market.Cashflow{{AccrualEnd: maturityDate, Notional: 450_000}}},
			}},
	}
	m.SetFXRate("EUR", "USD", 1.1)

	ctx := &market.Context{ValuationDate: valuationDate, BaseCurrency: "USD", Market: m}
	pipeline := NewPipeline(ctx, NewDefaults("USD"))

	result, err := pipeline.Run(PipelineInput{
		Trades:         trades,
		NettingSets:    nettingSets,
		UserBalances:   domain.NewCollateralBalanceStore(),
		CalcBalances:   domain.NewCollateralBalanceStore(),
		Counterparties: cptys,
	})
	require.NoError(t, err)

	var wantTotal float64
	for _, td := range result.Trades {
		wantTotal += td.NPVBase
	}

	assert.InDelta(t, wantTotal, result.Portfolio.NettingSets[0].NPV, 1e-9)
	assert.InDelta(t, 123_456-45_678, result.Portfolio.NettingSets[0].NPV, 1e-9)
}

func TestPipeline_EmptyPortfolio(t *testing.T) {
	m, nettingSets, cptys, _ := newPipelineFixture("USD")
	ctx := &market.Context{ValuationDate: time.Now(), BaseCurrency: "USD", Market: m}
	pipeline := NewPipeline(ctx, NewDefaults("USD"))

	result, err := pipeline.Run(PipelineInput{
		NettingSets:    nettingSets,
		UserBalances:   domain.NewCollateralBalanceStore(),
		CalcBalances:   domain.NewCollateralBalanceStore(),
		Counterparties: cptys,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Zero(t, result.Portfolio.TotalCC)
	require.Len(t, result.Portfolio.NettingSets, 1)
	assert.Equal(t, 1.0, result.Portfolio.NettingSets[0].Multiplier)
}
