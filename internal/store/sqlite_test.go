package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lumapay/provision/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func sampleAccount() domain.Account {
	return domain.Account{
		FirstName:    "Chandler",
		LastName:     "Bing",
		Email:        "cbing@x.com",
		ProviderType: domain.ProviderStripe,
		ProviderID:   "cus_123",
	}
}

func TestSQLiteStore_InsertAssignsID(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	saved, err := store.Save(ctx, sampleAccount())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.True(t, saved.Provisioned())
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := store.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Email, got.Email)
	assert.Equal(t, "cus_123", got.ProviderID)
	assert.Equal(t, domain.ProviderStripe, got.ProviderType)
}

func TestSQLiteStore_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.Save(ctx, sampleAccount())
	require.NoError(t, err)

	_, err = store.Save(ctx, sampleAccount())
	require.Error(t, err)

	assert.True(t, domain.IsConflict(err), "expected a store conflict, got %v", err)
	assert.False(t, domain.IsRetryable(err), "uniqueness conflicts must not be retried")
}

func TestSQLiteStore_UpdateExisting(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	saved, err := store.Save(ctx, sampleAccount())
	require.NoError(t, err)

	saved.FirstName = "Joey"
	updated, err := store.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	got, err := store.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Joey", got.FirstName)
	assert.Equal(t, "Bing", got.LastName)
}

func TestSQLiteStore_UpdateMissingAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	ghost := sampleAccount()
	ghost.ID = uuid.New()

	_, err := store.Save(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_GetByEmail(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saved, err := store.Save(ctx, sampleAccount())
	require.NoError(t, err)

	got, err := store.GetByEmail(ctx, "cbing@x.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	first := sampleAccount()
	second := sampleAccount()
	second.Email = "jtribbiani@x.com"
	second.FirstName = "Joey"

	_, err = store.Save(ctx, first)
	require.NoError(t, err)
	_, err = store.Save(ctx, second)
	require.NoError(t, err)

	accounts, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
