package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
	"github.com/relayhq/points-engine/store/sqlite"
	"github.com/relayhq/points-engine/withdraw"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// SESSION STORE
// =============================================================================

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN an empty store
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, points.ErrNoSession)

	// WHEN a session is saved
	created := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	sess := &session.Session{
		Token: "tok-abc",
		User: points.UserAccount{
			ID:          "user-1",
			Name:        "Ama",
			PhoneNumber: "+233201234567",
			CreatedAt:   created,
		},
	}
	require.NoError(t, store.Save(ctx, sess))

	// THEN it loads back intact
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", got.Token)
	assert.Equal(t, "user-1", got.User.ID)
	assert.Equal(t, "Ama", got.User.Name)
	assert.Equal(t, "+233201234567", got.User.PhoneNumber)
	assert.False(t, got.User.IsAdmin)
	assert.True(t, got.User.CreatedAt.Equal(created))
}

func TestSessionStore_NewLoginReplacesOld(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, &session.Session{
		Token: "tok-1",
		User:  points.UserAccount{ID: "user-1", Name: "Ama", CreatedAt: time.Now().UTC()},
	}))
	require.NoError(t, store.Save(ctx, &session.Session{
		Token: "tok-2",
		User:  points.UserAccount{ID: "admin-1", Name: "Kofi", IsAdmin: true, CreatedAt: time.Now().UTC()},
	}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, "admin-1", got.User.ID)
	assert.True(t, got.User.IsAdmin)
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, &session.Session{
		Token: "tok",
		User:  points.UserAccount{ID: "user-1", CreatedAt: time.Now().UTC()},
	}))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, points.ErrNoSession)

	// Clearing again is a no-op.
	require.NoError(t, store.Clear(ctx))
}

// =============================================================================
// ATTEMPT JOURNAL
// =============================================================================

func TestAttemptJournal_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	attempts := []withdraw.Attempt{
		{
			ID:              "att-1",
			UserID:          "user-1",
			PointsRequested: 15,
			PhoneNumber:     "+233201234567",
			Outcome:         withdraw.OutcomeRejected,
			Reason:          "below_minimum_points",
			CreatedAt:       base,
		},
		{
			ID:              "att-2",
			UserID:          "user-1",
			PointsRequested: 25,
			PhoneNumber:     "+233201234567",
			Outcome:         withdraw.OutcomeSubmitted,
			PaymentID:       "pay-9",
			CreatedAt:       base.Add(time.Hour),
		},
		{
			ID:              "att-3",
			UserID:          "user-2",
			PointsRequested: 40,
			PhoneNumber:     "+233209999999",
			Outcome:         withdraw.OutcomeFailed,
			Reason:          "withdrawal request failed: connection refused",
			CreatedAt:       base.Add(2 * time.Hour),
		},
	}
	for _, a := range attempts {
		require.NoError(t, store.Record(ctx, a))
	}

	// Scoped to the user, newest first.
	got, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "att-2", got[0].ID)
	assert.Equal(t, withdraw.OutcomeSubmitted, got[0].Outcome)
	assert.Equal(t, "pay-9", got[0].PaymentID)
	assert.Empty(t, got[0].Reason)
	assert.Equal(t, "att-1", got[1].ID)
	assert.Equal(t, "below_minimum_points", got[1].Reason)
	assert.Empty(t, got[1].PaymentID)

	// Unknown user has no attempts.
	got, err = store.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttemptJournal_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a := withdraw.Attempt{
		ID:              "att-1",
		UserID:          "user-1",
		PointsRequested: 25,
		PhoneNumber:     "x",
		Outcome:         withdraw.OutcomeSubmitted,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.Record(ctx, a))
	assert.Error(t, store.Record(ctx, a))
}
