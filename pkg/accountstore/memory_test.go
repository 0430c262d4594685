package accountstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/finvault/ledger/pkg/accountstore"
	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, store accountstore.Store, balance int64) *account.Account {
	t.Helper()
	a, err := account.New().WithOwner(uuid.New()).WithBalance(balance).Build()
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), a))
	return a
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := accountstore.NewMemoryStore()
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestMemoryStore_ApplyDelta_Credit(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 0)

	got, err := store.ApplyDelta(context.Background(), a.ID, money.MustParse("25.00", "USD"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Balance.Amount())
	assert.Equal(t, int64(1), got.Version)
}

func TestMemoryStore_ApplyDelta_InsufficientFunds(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 1000)

	_, err := store.ApplyDelta(context.Background(), a.ID, money.MustParse("-50.00", "USD"), 0)
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)

	// Balance untouched after the failed debit.
	got, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Balance.Amount())
	assert.Equal(t, int64(0), got.Version)
}

func TestMemoryStore_ApplyDelta_VersionConflict(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 1000)

	_, err := store.ApplyDelta(context.Background(), a.ID, money.MustParse("1.00", "USD"), 0)
	require.NoError(t, err)

	// Replaying the old version must conflict.
	_, err = store.ApplyDelta(context.Background(), a.ID, money.MustParse("1.00", "USD"), 0)
	assert.ErrorIs(t, err, account.ErrVersionConflict)
}

func TestMemoryStore_ApplyDelta_NotActive(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 0)

	_, err := store.SetStatus(context.Background(), a.ID, account.StatusFrozen)
	require.NoError(t, err)

	_, err = store.ApplyDelta(context.Background(), a.ID, money.MustParse("1.00", "USD"), 0)
	assert.ErrorIs(t, err, account.ErrNotActive)
}

func TestMemoryStore_SetStatus_CloseRequiresZeroBalance(t *testing.T) {
	store := accountstore.NewMemoryStore()
	funded := seedAccount(t, store, 500)

	_, err := store.SetStatus(context.Background(), funded.ID, account.StatusClosed)
	assert.ErrorIs(t, err, account.ErrCloseNonZeroBalance)

	empty := seedAccount(t, store, 0)
	got, err := store.SetStatus(context.Background(), empty.ID, account.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, account.StatusClosed, got.Status)

	// Closed is terminal.
	_, err = store.SetStatus(context.Background(), empty.ID, account.StatusActive)
	assert.ErrorIs(t, err, account.ErrInvalidTransition)
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 1000)

	snap, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	snap.Version = 99

	got, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Version)
}

func TestMemoryStore_ConcurrentCAS_NoLostUpdate(t *testing.T) {
	store := accountstore.NewMemoryStore()
	a := seedAccount(t, store, 0)
	ctx := context.Background()
	delta := money.MustParse("1.00", "USD")

	const writers = 20
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				cur, err := store.Get(ctx, a.ID)
				if !assert.NoError(t, err) {
					return
				}
				_, err = store.ApplyDelta(ctx, a.ID, delta, cur.Version)
				if err == nil {
					return
				}
				if !assert.ErrorIs(t, err, account.ErrVersionConflict) {
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers*100), got.Balance.Amount())
	assert.Equal(t, int64(writers), got.Version)
}
