package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/saccr-engine/internal/domain"
)

func identityConvert(amount float64, _ string) (float64, error) { return amount, nil }

func TestBackfillCollateralBalances_FillsMissingIMAndVM(t *testing.T) {
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")
	defs := domain.NewNettingSetStore()
	defs.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "USD"})

	userBalances := domain.NewCollateralBalanceStore()
	userBalances.Put(nsID, &domain.CollateralBalance{Currency: "USD"}) // IM, VM both nil
	calcBalances := domain.NewCollateralBalanceStore()

	resolved := map[string]domain.ResolvedCollateral{nsID.String(): {IM: 100, VM: 50}}

	err := BackfillCollateralBalances(defs, userBalances, calcBalances, resolved, identityConvert)
	require.NoError(t, err)

	bal := userBalances.Get(nsID)
	require.NotNil(t, bal.IM)
	require.NotNil(t, bal.VM)
	assert.Equal(t, 100.0, *bal.IM)
	assert.Equal(t, 50.0, *bal.VM)
}

func TestBackfillCollateralBalances_IsIdempotent(t *testing.T) {
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")
	defs := domain.NewNettingSetStore()
	defs.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "USD"})

	userBalances := domain.NewCollateralBalanceStore()
	userBalances.Put(nsID, &domain.CollateralBalance{Currency: "USD"})
	calcBalances := domain.NewCollateralBalanceStore()

	resolved := map[string]domain.ResolvedCollateral{nsID.String(): {IM: 100, VM: 50}}

	require.NoError(t, BackfillCollateralBalances(defs, userBalances, calcBalances, resolved, identityConvert))
	firstIM, firstVM := *userBalances.Get(nsID).IM, *userBalances.Get(nsID).VM

	// Running again with a different resolved snapshot must not overwrite an
	// already-backfilled balance with a user entry present.
	resolved[nsID.String()] = domain.ResolvedCollateral{IM: 999, VM: 999}
	require.NoError(t, BackfillCollateralBalances(defs, userBalances, calcBalances, resolved, identityConvert))

	assert.Equal(t, firstIM, *userBalances.Get(nsID).IM)
	assert.Equal(t, firstVM, *userBalances.Get(nsID).VM)
}

func TestBackfillCollateralBalances_SkipsNonCSANettingSets(t *testing.T) {
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")
	defs := domain.NewNettingSetStore()
	defs.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: false})

	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	resolved := map[string]domain.ResolvedCollateral{nsID.String(): {IM: 100, VM: 50}}

	require.NoError(t, BackfillCollateralBalances(defs, userBalances, calcBalances, resolved, identityConvert))
	assert.False(t, userBalances.Has(nsID))
}

func TestBackfillCollateralBalances_NoUserBalance_UsesCalculated(t *testing.T) {
	nsID := domain.NewNettingSetID("CPTY1", "", "", "")
	defs := domain.NewNettingSetStore()
	defs.Put(&domain.NettingSetDefinition{ID: nsID, CSAActive: true, CSACurrency: "USD"})

	userBalances := domain.NewCollateralBalanceStore()
	calcBalances := domain.NewCollateralBalanceStore()
	im := 42.0
	calcBalances.Put(nsID, &domain.CollateralBalance{Currency: "EUR", IM: &im})

	resolved := map[string]domain.ResolvedCollateral{nsID.String(): {IM: 100, VM: 50}}

	require.NoError(t, BackfillCollateralBalances(defs, userBalances, calcBalances, resolved, identityConvert))

	bal := userBalances.Get(nsID)
	require.NotNil(t, bal)
	assert.Equal(t, "EUR", bal.Currency)
	require.NotNil(t, bal.IM)
	assert.Equal(t, 42.0, *bal.IM, "a calculated IM must be carried through verbatim, not re-resolved")
}
