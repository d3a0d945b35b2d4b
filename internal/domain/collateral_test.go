package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollateralBalanceStore_Add_FirstEntryWins(t *testing.T) {
	store := NewCollateralBalanceStore()
	id := NewNettingSetID("CPTY1", "", "", "")

	first := &CollateralBalance{Currency: "USD", IM: floatPtr(100)}
	second := &CollateralBalance{Currency: "EUR", IM: floatPtr(200)}

	store.Add(id, first)
	store.Add(id, second)

	require.True(t, store.Has(id))
	assert.Same(t, first, store.Get(id))
	assert.Equal(t, 2, store.Count(id))
	assert.Equal(t, 1, store.Len())
}

func TestCollateralBalanceStore_Put_Overwrites(t *testing.T) {
	store := NewCollateralBalanceStore()
	id := NewNettingSetID("CPTY1", "", "", "")

	store.Put(id, &CollateralBalance{Currency: "USD", IM: floatPtr(100)})
	store.Put(id, &CollateralBalance{Currency: "EUR", IM: floatPtr(200)})

	got := store.Get(id)
	require.NotNil(t, got)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, 0, store.Count(id), "Put must not affect the duplicate counter")
}

func TestCollateralBalanceStore_OrderedIDs_FirstSeenOrder(t *testing.T) {
	store := NewCollateralBalanceStore()
	idA := NewNettingSetID("AAA", "", "", "")
	idB := NewNettingSetID("BBB", "", "", "")

	store.Add(idB, &CollateralBalance{Currency: "USD"})
	store.Add(idA, &CollateralBalance{Currency: "USD"})
	store.Add(idB, &CollateralBalance{Currency: "EUR"}) // duplicate, discarded

	assert.Equal(t, []NettingSetID{idB, idA}, store.OrderedIDs())
}

func TestCollateralBalance_Clone_DeepCopies(t *testing.T) {
	orig := &CollateralBalance{Currency: "USD", IM: floatPtr(100), VM: floatPtr(50)}
	clone := orig.Clone()

	require.NotNil(t, clone)
	*clone.IM = 999
	assert.Equal(t, 100.0, *orig.IM, "mutating the clone must not affect the original")
}

func TestCollateralBalance_Clone_Nil(t *testing.T) {
	var b *CollateralBalance
	assert.Nil(t, b.Clone())
}

func floatPtr(v float64) *float64 { return &v }
