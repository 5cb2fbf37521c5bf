package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/allocation/store"
)

func TestMemory_LoadSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	owner := allocation.Owner{Kind: allocation.OwnerFixedCost, ID: "fc-1"}
	period := allocation.NewPeriod(2025, 3)

	m.Create(owner, "Office rent", allocation.NewSet(decimal.NewFromInt(1000), period))

	set, err := m.LoadSet(ctx, owner)
	require.NoError(t, err)
	set = allocation.AddRecord(set, "bu-001", allocation.Percentage)
	require.NoError(t, m.SaveSet(ctx, owner, set))

	// Mutating the caller's copy must not leak into the store.
	set.Records[0].RecipientID = "bu-999"

	loaded, err := m.LoadSet(ctx, owner)
	require.NoError(t, err)
	require.Len(t, loaded.Records, 1)
	assert.Equal(t, allocation.RecipientID("bu-001"), loaded.Records[0].RecipientID)
}

func TestMemory_MissingOwner(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	owner := allocation.Owner{Kind: allocation.OwnerEmployee, ID: "emp-404"}

	_, err := m.LoadSet(ctx, owner)
	assert.ErrorIs(t, err, allocation.ErrNotFound)
	assert.ErrorIs(t, m.SaveSet(ctx, owner, allocation.Set{}), allocation.ErrNotFound)

	m.Create(owner, "Ana", allocation.Set{})
	m.Delete(owner)
	_, err = m.LoadSet(ctx, owner)
	assert.True(t, allocation.IsNotFound(err))
}

func TestMemory_ListSetsFiltersByPeriod(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	march := allocation.NewPeriod(2025, 3)

	m.Create(allocation.Owner{Kind: allocation.OwnerFixedCost, ID: "b"}, "B", allocation.NewSet(decimal.Zero, march))
	m.Create(allocation.Owner{Kind: allocation.OwnerFixedCost, ID: "a"}, "A", allocation.NewSet(decimal.Zero, march))
	m.Create(allocation.Owner{Kind: allocation.OwnerEmployee, ID: "c"}, "C", allocation.NewSet(decimal.Zero, march.Next()))

	sets, err := m.ListSets(ctx, march)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "A", sets[0].Name)
	assert.Equal(t, "B", sets[1].Name)
}
