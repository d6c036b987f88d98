package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musa-backend-go/internal/models"
)

func newEstateFixture(t *testing.T) (*estateService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	svc := NewEstateService(repos.estates, repos.users, testLogger()).(*estateService)
	return svc, repos
}

func TestCreateEstate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEstateFixture(t)

	estate, err := svc.CreateEstate(ctx, "admin-1", "  Palm Grove ")
	require.NoError(t, err)
	assert.Equal(t, "Palm Grove", estate.Name)
	assert.False(t, estate.IsLocked)
	assert.Equal(t, "admin-1", estate.CreatedBy)

	t.Run("duplicate name is a conflict regardless of case", func(t *testing.T) {
		_, err := svc.CreateEstate(ctx, "admin-1", "palm grove")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("empty name is refused", func(t *testing.T) {
		_, err := svc.CreateEstate(ctx, "admin-1", "  ")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestSetEstateLock(t *testing.T) {
	ctx := context.Background()
	svc, repos := newEstateFixture(t)
	seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")

	estate, err := svc.CreateEstate(ctx, "admin-1", "Palm Grove")
	require.NoError(t, err)

	t.Run("admin locks and unlocks", func(t *testing.T) {
		locked, err := svc.SetLock(ctx, estate.ID, true, "admin-1")
		require.NoError(t, err)
		assert.True(t, locked.IsLocked)

		// Setting the same state again is a no-op.
		again, err := svc.SetLock(ctx, estate.ID, true, "admin-1")
		require.NoError(t, err)
		assert.True(t, again.IsLocked)

		unlocked, err := svc.SetLock(ctx, estate.ID, false, "admin-1")
		require.NoError(t, err)
		assert.False(t, unlocked.IsLocked)
	})

	t.Run("estate admin of the same estate is refused", func(t *testing.T) {
		seedApprovedUser(repos, "ea-own", "ea-own@example.com", models.RoleEstateAdmin, estate.ID)
		_, err := svc.SetLock(ctx, estate.ID, true, "ea-own")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("estate admin of another estate is refused", func(t *testing.T) {
		seedApprovedUser(repos, "ea-other", "ea@example.com", models.RoleEstateAdmin, "some-other-estate")
		_, err := svc.SetLock(ctx, estate.ID, true, "ea-other")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("delegated approver is refused", func(t *testing.T) {
		seedApprovedUser(repos, "del-1", "del@example.com", models.RoleResident, estate.ID)
		delegate, err := repos.users.GetByID(ctx, "del-1")
		require.NoError(t, err)
		delegate.CanApproveUsers = true
		require.NoError(t, repos.users.Update(ctx, delegate))

		_, err = svc.SetLock(ctx, estate.ID, true, "del-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown estate", func(t *testing.T) {
		_, err := svc.SetLock(ctx, "missing", true, "admin-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
