package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musa-backend-go/internal/models"
)

func newAccessCodeFixture(t *testing.T) (*accessCodeService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	svc := NewAccessCodeService(repos.codes, repos.households, repos.users, repos.guardActivity, testLogger(), 8).(*accessCodeService)
	return svc, repos
}

func seedResidentWithHousehold(repos *testRepos) *models.User {
	resident := seedApprovedUser(repos, "res-1", "resident@example.com", models.RoleResident, "estate-1")
	seedHousehold(repos, "hh-1", "The Does", resident.ID)
	resident.HouseholdID = "hh-1"
	return resident
}

func TestAccessCodeCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues an active code with QR payload", func(t *testing.T) {
		svc, repos := newAccessCodeFixture(t)
		seedResidentWithHousehold(repos)

		code, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Plumber visit"})
		require.NoError(t, err)

		assert.Len(t, code.Code, 8)
		assert.True(t, code.IsActive)
		assert.Equal(t, "hh-1", code.HouseholdID)
		assert.Equal(t, 0, code.UsageCount)
		assert.Nil(t, code.ExpiresAt)
		assert.True(t, strings.HasPrefix(code.QRCode, "data:image/png;base64,"))

		// Excluded glyphs never appear in generated codes.
		assert.NotContains(t, code.Code, "0")
		assert.NotContains(t, code.Code, "O")
		assert.NotContains(t, code.Code, "I")
	})

	t.Run("rejects empty description", func(t *testing.T) {
		svc, repos := newAccessCodeFixture(t)
		seedResidentWithHousehold(repos)

		_, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "   "})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		svc, repos := newAccessCodeFixture(t)
		seedResidentWithHousehold(repos)

		past := time.Now().UTC().Add(-time.Hour)
		_, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Late", ExpiresAt: &past})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects resident without household", func(t *testing.T) {
		svc, repos := newAccessCodeFixture(t)
		seedApprovedUser(repos, "loner", "loner@example.com", models.RoleResident, "estate-1")

		_, err := svc.Create(ctx, "loner", models.CreateAccessCodeRequest{Description: "Visit"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("two codes never share text", func(t *testing.T) {
		svc, repos := newAccessCodeFixture(t)
		seedResidentWithHousehold(repos)

		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			code, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Visitor"})
			require.NoError(t, err)
			assert.False(t, seen[code.Code], "code text %q issued twice", code.Code)
			seen[code.Code] = true
		}
	})
}

func TestAccessCodeVerify(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*accessCodeService, *testRepos, *models.AccessCode) {
		t.Helper()
		svc, repos := newAccessCodeFixture(t)
		seedResidentWithHousehold(repos)
		seedApprovedUser(repos, "guard-1", "guard@example.com", models.RoleGuard, "estate-1")
		code, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Visitor"})
		require.NoError(t, err)
		return svc, repos, code
	}

	t.Run("grants a valid code and counts the use", func(t *testing.T) {
		svc, repos, code := setup(t)

		result, err := svc.Verify(ctx, "guard-1", code.Code)
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Equal(t, "Access granted", result.Message)
		assert.Equal(t, code.ID, result.AccessCodeID)
		assert.Contains(t, result.DestinationAddress, "12 Palm Street")

		stored, err := repos.codes.GetByID(ctx, code.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.UsageCount)

		activity, err := repos.guardActivity.ListByGuard(ctx, "guard-1", 10)
		require.NoError(t, err)
		require.Len(t, activity, 1)
		assert.True(t, activity[0].Granted)
		assert.Equal(t, "estate-1", activity[0].EstateID)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		svc, _, code := setup(t)

		result, err := svc.Verify(ctx, "guard-1", "  "+strings.ToLower(code.Code)+" ")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})

	t.Run("denies an unknown code", func(t *testing.T) {
		svc, repos, _ := setup(t)

		result, err := svc.Verify(ctx, "guard-1", "ZZZZ9999")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.Equal(t, "Invalid code", result.Message)

		activity, err := repos.guardActivity.ListByGuard(ctx, "guard-1", 10)
		require.NoError(t, err)
		require.Len(t, activity, 1)
		assert.False(t, activity[0].Granted)
	})

	t.Run("denies a deactivated code without counting a use", func(t *testing.T) {
		svc, repos, code := setup(t)
		require.NoError(t, svc.Deactivate(ctx, code.ID, "res-1"))

		result, err := svc.Verify(ctx, "guard-1", code.Code)
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.Equal(t, "Code has been deactivated", result.Message)

		stored, err := repos.codes.GetByID(ctx, code.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.UsageCount)
	})

	t.Run("denies an expired code", func(t *testing.T) {
		svc, repos, _ := setup(t)

		expires := time.Now().UTC().Add(30 * time.Minute)
		expired := &models.AccessCode{
			ID:          "code-exp",
			Code:        "EXPD1234",
			ResidentID:  "res-1",
			HouseholdID: "hh-1",
			Description: "Old visit",
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
			ExpiresAt:   &expires,
		}
		require.NoError(t, repos.codes.Create(ctx, expired))

		// Pin the clock one hour past the code's expiry.
		svc.now = fixedClock(expires.Add(time.Hour))

		result, err := svc.Verify(ctx, "guard-1", "EXPD1234")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.Equal(t, "Code has expired", result.Message)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Verify(ctx, "guard-1", "   ")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAccessCodeDeactivate(t *testing.T) {
	ctx := context.Background()
	svc, repos := newAccessCodeFixture(t)
	seedResidentWithHousehold(repos)
	seedApprovedUser(repos, "res-2", "other@example.com", models.RoleResident, "estate-1")

	code, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Visitor"})
	require.NoError(t, err)

	t.Run("non-owner cannot deactivate", func(t *testing.T) {
		err := svc.Deactivate(ctx, code.ID, "res-2")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("owner deactivates, repeat is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, code.ID, "res-1"))
		require.NoError(t, svc.Deactivate(ctx, code.ID, "res-1"))

		stored, err := repos.codes.GetByID(ctx, code.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})

	t.Run("unknown code", func(t *testing.T) {
		err := svc.Deactivate(ctx, "missing", "res-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGuardStats(t *testing.T) {
	ctx := context.Background()
	svc, repos := newAccessCodeFixture(t)
	seedResidentWithHousehold(repos)
	seedApprovedUser(repos, "guard-1", "guard@example.com", models.RoleGuard, "estate-1")

	code, err := svc.Create(ctx, "res-1", models.CreateAccessCodeRequest{Description: "Visitor"})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "guard-1", code.Code)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "guard-1", code.Code)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "guard-1", "NOPE1234")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "guard-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GrantedToday)
	assert.Equal(t, 1, stats.DeniedToday)

	// Another guard's counters stay empty.
	seedApprovedUser(repos, "guard-2", "guard2@example.com", models.RoleGuard, "estate-1")
	stats2, err := svc.Stats(ctx, "guard-2")
	require.NoError(t, err)
	assert.Zero(t, stats2.GrantedToday)
	assert.Zero(t, stats2.DeniedToday)
}
