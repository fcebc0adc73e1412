package connections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenguard/lumenguard/internal/testutil"
)

func TestPostgresBlacklistRoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresBlacklist(db)

	require.NoError(t, store.Add(ctx, &BlacklistEntry{
		Address:  scammer,
		Category: "phishing",
		Reason:   "seed phrase phishing site",
	}))

	got, err := store.Get(ctx, scammer)
	require.NoError(t, err)
	assert.Equal(t, "phishing", got.Category)
	assert.True(t, got.Active)
	assert.False(t, got.AddedAt.IsZero())

	// Re-adding updates in place.
	require.NoError(t, store.Add(ctx, &BlacklistEntry{Address: scammer, Category: "theft", Reason: "updated"}))
	got, err = store.Get(ctx, scammer)
	require.NoError(t, err)
	assert.Equal(t, "theft", got.Category)

	hits, err := store.CheckMany(ctx, []string{scammer, "GUNLISTED"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits, scammer)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Deactivate(ctx, scammer))
	_, err = store.Get(ctx, scammer)
	assert.ErrorIs(t, err, ErrNotBlacklisted)
	assert.ErrorIs(t, store.Deactivate(ctx, scammer), ErrNotBlacklisted)
}

func TestPostgresReportsRoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresReports(db)

	require.NoError(t, store.Create(ctx, &ScamReport{
		ID:          "rep-1",
		Address:     scammer,
		Category:    "ponzi",
		Description: "guaranteed returns scheme",
		Reporter:    "GWITNESS",
	}))

	// Unverified reports never match scans.
	hits, err := store.CheckManyVerified(ctx, []string{scammer})
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, store.Verify(ctx, "rep-1"))
	assert.ErrorIs(t, store.Verify(ctx, "missing"), ErrReportNotFound)

	hits, err = store.CheckManyVerified(ctx, []string{scammer})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.True(t, hits[scammer].Verified)

	reports, err := store.ListByAddress(ctx, scammer)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "guaranteed returns scheme", reports[0].Description)
}
