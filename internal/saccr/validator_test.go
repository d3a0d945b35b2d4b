package saccr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

func newValidator() *Validator {
	return NewValidator(NewDefaults("USD"))
}

func tradeFor(nsID domain.NettingSetID, cpty domain.CounterpartyID) market.Trade {
	return &market.StaticTrade{
		TradeID:      "T1",
		NettingSet:   nsID,
		Counterparty: cpty,
	}
}

func TestValidate_MissingNettingSetIsDefaulted(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CPTY1")}
	nettingSets := domain.NewNettingSetStore()
	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	assert.True(t, nettingSets.Has(nsID))
	def := nettingSets.Get(nsID)
	assert.True(t, def.CSAActive, "the default Bilateral netting set is CSA-active, per the original's full CSA-details constructor")
	assert.True(t, def.CalculateIM)
	assert.True(t, def.CalculateVM)
	assert.NotEmpty(t, res.Diagnostics)
}

func TestValidate_CSAActiveNoBalance_SynthesizesDefault(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CPTY1")}
	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "USD"})
	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CPTY1", SACCRRW: 1.0})

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	assert.True(t, res.DefaultedIM[nsID.String()])
	assert.True(t, res.DefaultedVM[nsID.String()])
	require.True(t, userBalances.Has(nsID))
}

func TestValidate_CalculateVMFalseNoVM_SubstitutesDefault(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CPTY1")}
	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "EUR", CalculateVM: false})
	userBalances := domain.NewCollateralBalanceStore()
	im := 10.0
	userBalances.Put(nsID, &domain.CollateralBalance{Currency: "EUR", IM: &im})
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CPTY1", SACCRRW: 1.0})

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	bal := userBalances.Get(nsID)
	require.NotNil(t, bal.VM, "VM must be substituted when calculate-VM is false and none was supplied")
	assert.True(t, res.DefaultedVM[nsID.String()])
}

func TestValidate_ClearingCounterparty_ForcesIMZero(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CCP1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CCP1")}
	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "USD"})
	im := 500.0
	userBalances := domain.NewCollateralBalanceStore()
	userBalances.Put(nsID, &domain.CollateralBalance{Currency: "USD", IM: &im})
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CCP1", IsClearingCP: true, SACCRRW: 0.02})

	_, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	assert.Equal(t, 0.0, *userBalances.Get(nsID).IM, "a clearing counterparty's IM must be forced to zero")
}

func TestValidate_RiskWeightOutsideRange_Warns(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CPTY1")}
	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID})
	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CPTY1", SACCRRW: 2.5})

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	found := false
	for _, d := range res.Diagnostics {
		if d.Action == "validate-risk-weight" {
			found = true
		}
	}
	assert.True(t, found, "an out-of-range risk weight must raise a diagnostic, not be clamped silently")
	assert.Equal(t, 2.5, cptys.Get("CPTY1").SACCRRW, "the out-of-range value is still used, per spec")
}

func TestValidate_MultipleCounterpartiesForOneNettingSet_Warns(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{
		tradeFor(nsID, "CPTY1"),
		tradeFor(nsID, "CPTY2"),
	}
	nettingSets := domain.NewNettingSetStore()
	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	assert.Equal(t, domain.CounterpartyID("CPTY1"), res.NettingSetCounterparty[nsID.String()], "first-seen counterparty wins")

	found := false
	for _, d := range res.Diagnostics {
		if d.Action == "resolve-netting-set-counterparty" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_DuplicateCollateralBalances_Warns(t *testing.T) {
	v := newValidator()
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")

	trades := []market.Trade{tradeFor(nsID, "CPTY1")}
	nettingSets := domain.NewNettingSetStore()
	nettingSets.Put(&domain.NettingSetDefinition{ID: nsID})
	userBalances := domain.NewCollateralBalanceStore()
	userBalances.Add(nsID, &domain.CollateralBalance{Currency: "USD"})
	userBalances.Add(nsID, &domain.CollateralBalance{Currency: "EUR"})
	calcBalances := domain.NewCollateralBalanceStore()
	cptys := domain.NewCounterpartyStore()
	cptys.Put(&domain.CounterpartyInfo{ID: "CPTY1", SACCRRW: 1.0})

	res, err := v.Validate(trades, nettingSets, userBalances, calcBalances, cptys)
	require.NoError(t, err)

	found := false
	for _, d := range res.Diagnostics {
		if d.Action == "merge-collateral-balances" {
			found = true
		}
	}
	assert.True(t, found)
}
