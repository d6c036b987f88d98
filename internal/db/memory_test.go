package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musa-backend-go/internal/models"
)

func TestMemoryAccessCodeReservation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccessCodeRepository()

	first := &models.AccessCode{ID: "c1", Code: "MUSA1234", IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))

	// Same text under a different ID is refused.
	dup := &models.AccessCode{ID: "c2", Code: "MUSA1234", IsActive: true, CreatedAt: time.Now()}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrCodeTaken)

	found, err := repo.GetByCode(ctx, "MUSA1234")
	require.NoError(t, err)
	assert.Equal(t, "c1", found.ID)
}

func TestMemoryTokenRedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDeviceTokenRepository()

	token := &models.DeviceApprovalToken{
		ID: "t1", DeviceID: "d1", UserID: "u1", Token: "abc123",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	// Many concurrent redeemers; exactly one wins.
	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	usedErrs := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Redeem(ctx, "abc123")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrTokenUsed):
				usedErrs++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, usedErrs)

	stored, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, stored.Used)
}

func TestMemoryInviteStatusCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInviteRepository()

	invite := &models.HouseholdInvite{
		ID: "i1", HouseholdID: "hh-1", Email: "guest@example.com",
		Status: models.InvitePending, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, invite))

	require.NoError(t, repo.UpdateStatus(ctx, "i1", models.InvitePending, models.InviteAccepted))

	// A second transition from pending fails: the expected status is stale.
	err := repo.UpdateStatus(ctx, "i1", models.InvitePending, models.InviteRejected)
	assert.ErrorIs(t, err, ErrStaleStatus)

	stored, err := repo.GetByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, models.InviteAccepted, stored.Status)
}

func TestMemoryRepositoriesReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHouseholdRepository()

	household := &models.Household{
		ID: "hh-1", Name: "The Does", HeadID: "u1",
		Members: map[string]bool{"u1": true},
	}
	require.NoError(t, repo.Create(ctx, household))

	// Mutating a read result must not leak back into the store.
	got, err := repo.GetByID(ctx, "hh-1")
	require.NoError(t, err)
	got.Members["intruder"] = true

	fresh, err := repo.GetByID(ctx, "hh-1")
	require.NoError(t, err)
	assert.False(t, fresh.IsMember("intruder"))
}

func TestMemoryGuardActivityStats(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGuardActivityRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []struct {
		granted bool
		at      time.Time
	}{
		{true, base},
		{true, base.Add(time.Minute)},
		{false, base.Add(2 * time.Minute)},
		{true, base.Add(-25 * time.Hour)}, // outside the window
	}
	for i, e := range entries {
		require.NoError(t, repo.Append(ctx, &models.GuardActivity{
			ID: string(rune('a' + i)), GuardID: "g1", Granted: e.granted, Timestamp: e.at,
		}))
	}

	stats, err := repo.StatsSince(ctx, "g1", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GrantedToday)
	assert.Equal(t, 1, stats.DeniedToday)

	recent, err := repo.ListByGuard(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first.
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
}
