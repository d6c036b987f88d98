package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musa-backend-go/internal/models"
)

func newUserFixture(t *testing.T) (*userService, *testRepos, *recordingNotifier) {
	t.Helper()
	repos := newTestRepos()
	notifier := &recordingNotifier{}
	security := NewSecurityService(repos.securityLogs, nopEventPublisher{}, testLogger())
	svc := NewUserService(repos.users, repos.estates, security, notifier, testLogger()).(*userService)

	_ = repos.estates.Create(context.Background(), &models.Estate{
		ID: "estate-1", Name: "Palm Grove", CreatedAt: time.Now().UTC(),
	})
	return svc, repos, notifier
}

func TestInitializeProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending resident", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)

		user, created, err := svc.InitializeProfile(ctx, "uid-1", "Jane@Example.com", models.RegisterRequest{
			DisplayName: "Jane Doe",
			Role:        models.RoleResident,
			EstateID:    "estate-1",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.StatusPending, user.Status)
		assert.Equal(t, "jane@example.com", user.Email)
	})

	t.Run("omitted role defaults to resident", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)

		user, created, err := svc.InitializeProfile(ctx, "uid-1", "jane@example.com", models.RegisterRequest{})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.RoleResident, user.Role)
	})

	t.Run("repeat call returns the existing profile", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)

		_, created, err := svc.InitializeProfile(ctx, "uid-1", "jane@example.com", models.RegisterRequest{Role: models.RoleResident})
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := svc.InitializeProfile(ctx, "uid-1", "jane@example.com", models.RegisterRequest{Role: models.RoleGuard, EstateID: "estate-1"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, models.RoleResident, again.Role)
	})

	t.Run("self-registration as admin is refused", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, _, err := svc.InitializeProfile(ctx, "uid-1", "x@example.com", models.RegisterRequest{Role: models.RoleAdmin})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("guard without estate is refused", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, _, err := svc.InitializeProfile(ctx, "uid-1", "g@example.com", models.RegisterRequest{Role: models.RoleGuard})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown estate is refused", func(t *testing.T) {
		svc, _, _ := newUserFixture(t)
		_, _, err := svc.InitializeProfile(ctx, "uid-1", "x@example.com", models.RegisterRequest{Role: models.RoleResident, EstateID: "nope"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestApproveUser(t *testing.T) {
	ctx := context.Background()

	seedPending := func(t *testing.T, svc *userService, uid string) {
		t.Helper()
		_, _, err := svc.InitializeProfile(ctx, uid, uid+"@example.com", models.RegisterRequest{Role: models.RoleResident, EstateID: "estate-1"})
		require.NoError(t, err)
	}

	t.Run("admin approves a pending user", func(t *testing.T) {
		svc, repos, notifier := newUserFixture(t)
		seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
		seedPending(t, svc, "uid-1")

		user, err := svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "admin-1", true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, user.Status)
		assert.Equal(t, "estate-1", user.EstateID)
		assert.True(t, user.IsHouseholdHead)
		assert.Equal(t, "admin-1", user.ApprovedBy)
		assert.Contains(t, notifier.sent, "approved:uid-1@example.com")

		logs, err := repos.securityLogs.ListRecentByUser(ctx, "uid-1", 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EventUserApproved, logs[0].Event)
	})

	t.Run("head-of-household flag only sticks to residents", func(t *testing.T) {
		svc, repos, _ := newUserFixture(t)
		seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
		_, _, err := svc.InitializeProfile(ctx, "guard-1", "guard-1@example.com", models.RegisterRequest{Role: models.RoleGuard, EstateID: "estate-1"})
		require.NoError(t, err)

		user, err := svc.ApproveUserWithEstate(ctx, "guard-1", "estate-1", "admin-1", true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, user.Status)
		assert.False(t, user.IsHouseholdHead)
	})

	t.Run("estate admin approves only into own estate", func(t *testing.T) {
		svc, repos, _ := newUserFixture(t)
		_ = repos.estates.Create(ctx, &models.Estate{ID: "estate-2", Name: "Other Grove", CreatedAt: time.Now().UTC()})
		seedApprovedUser(repos, "ea-1", "ea@example.com", models.RoleEstateAdmin, "estate-1")
		seedPending(t, svc, "uid-1")

		_, err := svc.ApproveUserWithEstate(ctx, "uid-1", "estate-2", "ea-1", false)
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "ea-1", false)
		assert.NoError(t, err)
	})

	t.Run("locked estate refuses approvals", func(t *testing.T) {
		svc, repos, _ := newUserFixture(t)
		seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
		seedPending(t, svc, "uid-1")

		estate, err := repos.estates.GetByID(ctx, "estate-1")
		require.NoError(t, err)
		estate.IsLocked = true
		require.NoError(t, repos.estates.Update(ctx, estate))

		_, err = svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "admin-1", false)
		assert.ErrorIs(t, err, ErrEstateLocked)
	})

	t.Run("non-pending user is a conflict", func(t *testing.T) {
		svc, repos, _ := newUserFixture(t)
		seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
		seedPending(t, svc, "uid-1")

		_, err := svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "admin-1", false)
		require.NoError(t, err)
		_, err = svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "admin-1", false)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("resident cannot approve", func(t *testing.T) {
		svc, repos, _ := newUserFixture(t)
		seedApprovedUser(repos, "res-1", "res@example.com", models.RoleResident, "estate-1")
		seedPending(t, svc, "uid-1")

		_, err := svc.ApproveUserWithEstate(ctx, "uid-1", "estate-1", "res-1", false)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRejectUser(t *testing.T) {
	ctx := context.Background()
	svc, repos, notifier := newUserFixture(t)
	seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
	_, _, err := svc.InitializeProfile(ctx, "uid-1", "uid-1@example.com", models.RegisterRequest{Role: models.RoleResident, EstateID: "estate-1"})
	require.NoError(t, err)

	t.Run("empty reason is refused", func(t *testing.T) {
		_, err := svc.RejectUser(ctx, "uid-1", "admin-1", "  ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejection records the reason and mails the user", func(t *testing.T) {
		user, err := svc.RejectUser(ctx, "uid-1", "admin-1", "No record of tenancy")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, user.Status)
		assert.Equal(t, "No record of tenancy", user.RejectionReason)
		assert.Contains(t, notifier.sent, "rejected:uid-1@example.com")
	})
}

func TestBatchApprove(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newUserFixture(t)
	seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")

	for _, uid := range []string{"uid-1", "uid-2"} {
		_, _, err := svc.InitializeProfile(ctx, uid, uid+"@example.com", models.RegisterRequest{Role: models.RoleResident, EstateID: "estate-1"})
		require.NoError(t, err)
	}
	// uid-3 is already approved, so it fails inside the batch.
	seedApprovedUser(repos, "uid-3", "uid-3@example.com", models.RoleResident, "estate-1")

	result := svc.BatchApprove(ctx, []string{"uid-1", "uid-2", "uid-3", "ghost"}, "estate-1", "admin-1")

	assert.ElementsMatch(t, []string{"uid-1", "uid-2"}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, "uid-3")
	assert.Contains(t, result.Failed, "ghost")

	// The successes stuck despite the failures.
	for _, uid := range []string{"uid-1", "uid-2"} {
		user, err := repos.users.GetByID(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, user.Status)
	}
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newUserFixture(t)
	_ = repos.estates.Create(ctx, &models.Estate{ID: "estate-2", Name: "Other", CreatedAt: time.Now().UTC()})
	seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
	seedApprovedUser(repos, "ea-1", "ea@example.com", models.RoleEstateAdmin, "estate-1")

	for uid, estate := range map[string]string{"p1": "estate-1", "p2": "estate-2", "p3": ""} {
		_, _, err := svc.InitializeProfile(ctx, uid, uid+"@example.com", models.RegisterRequest{Role: models.RoleResident, EstateID: estate})
		require.NoError(t, err)
	}

	all, err := svc.ListPending(ctx, "admin-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scoped, err := svc.ListPending(ctx, "ea-1")
	require.NoError(t, err)
	// Own estate plus the estate-less registrant.
	assert.Len(t, scoped, 2)

	seedApprovedUser(repos, "res-1", "res@example.com", models.RoleResident, "estate-1")
	_, err = svc.ListPending(ctx, "res-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newUserFixture(t)
	seedApprovedUser(repos, "admin-1", "admin@example.com", models.RoleAdmin, "")
	seedApprovedUser(repos, "res-1", "res@example.com", models.RoleResident, "estate-1")

	t.Run("non-admin cannot change roles", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, "res-1", models.RoleGuard, "estate-1", "res-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("estate-scoped role needs an estate", func(t *testing.T) {
		seedApprovedUser(repos, "res-2", "res2@example.com", models.RoleResident, "")
		_, err := svc.ChangeRole(ctx, "res-2", models.RoleGuard, "", "admin-1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("promotion to guard binds the estate", func(t *testing.T) {
		user, err := svc.ChangeRole(ctx, "res-1", models.RoleGuard, "estate-1", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleGuard, user.Role)
		assert.Equal(t, "estate-1", user.EstateID)

		logs, err := repos.securityLogs.ListRecentByUser(ctx, "res-1", 10)
		require.NoError(t, err)
		require.NotEmpty(t, logs)
		assert.Equal(t, models.EventUserRoleChanged, logs[0].Event)
	})

	t.Run("promotion to admin drops the estate binding", func(t *testing.T) {
		user, err := svc.ChangeRole(ctx, "res-1", models.RoleAdmin, "", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.Empty(t, user.EstateID)
	})
}
