package db

import (
	"context"
	"errors"
	"time"

	"musa-backend-go/internal/models"
)

// ErrNotFound is returned when a record does not exist at the requested path.
var ErrNotFound = errors.New("record not found")

// ErrCodeTaken is returned when an access code's text is already reserved by
// another code. The service layer retries generation on this error.
var ErrCodeTaken = errors.New("access code text already in use")

// ErrTokenUsed is returned by DeviceTokenRepository.Redeem when the token's
// used latch was already set. Redemption is atomic, so exactly one of any
// number of concurrent redeemers succeeds.
var ErrTokenUsed = errors.New("approval token already used")

// ErrStaleStatus is returned by InviteRepository.UpdateStatus when the invite
// was no longer in the expected status at write time.
var ErrStaleStatus = errors.New("invite status changed concurrently")

// UserRepository stores user profiles keyed by Firebase Auth UID.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error)
}

// EstateRepository stores estates.
type EstateRepository interface {
	Create(ctx context.Context, estate *models.Estate) error
	GetByID(ctx context.Context, estateID string) (*models.Estate, error)
	List(ctx context.Context) ([]*models.Estate, error)
	Update(ctx context.Context, estate *models.Estate) error
}

// HouseholdRepository stores households.
type HouseholdRepository interface {
	Create(ctx context.Context, household *models.Household) error
	GetByID(ctx context.Context, householdID string) (*models.Household, error)
	Update(ctx context.Context, household *models.Household) error
}

// AccessCodeRepository stores visitor codes. Create reserves the code text in
// a secondary index atomically and fails with ErrCodeTaken on collision, so
// no two codes ever share the same text. IncrementUsage is atomic.
type AccessCodeRepository interface {
	Create(ctx context.Context, code *models.AccessCode) error
	GetByID(ctx context.Context, codeID string) (*models.AccessCode, error)
	GetByCode(ctx context.Context, codeText string) (*models.AccessCode, error)
	ListByResident(ctx context.Context, residentID string) ([]*models.AccessCode, error)
	IncrementUsage(ctx context.Context, codeID string) (int, error)
	Deactivate(ctx context.Context, codeID string) error
}

// InviteRepository stores household invitations plus a secondary index by
// normalized email. UpdateStatus is a compare-and-swap on the status field.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.HouseholdInvite) error
	GetByID(ctx context.Context, inviteID string) (*models.HouseholdInvite, error)
	ListByEmail(ctx context.Context, normalizedEmail string) ([]*models.HouseholdInvite, error)
	ListByHousehold(ctx context.Context, householdID string) ([]*models.HouseholdInvite, error)
	UpdateStatus(ctx context.Context, inviteID string, from, to models.InviteStatus) error
}

// DeviceRepository stores recognized devices plus a per-user index.
type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	GetByID(ctx context.Context, deviceID string) (*models.Device, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Device, error)
	Update(ctx context.Context, device *models.Device) error
	TouchLastUsed(ctx context.Context, deviceID string, at time.Time) error
}

// DeviceTokenRepository stores one-time device approval tokens, keyed by the
// token text. Redeem flips the used latch atomically and returns the token
// record; a second redemption of the same token fails with ErrTokenUsed.
type DeviceTokenRepository interface {
	Create(ctx context.Context, token *models.DeviceApprovalToken) error
	Get(ctx context.Context, tokenText string) (*models.DeviceApprovalToken, error)
	Redeem(ctx context.Context, tokenText string) (*models.DeviceApprovalToken, error)
}

// SecurityLogRepository appends to the security audit trail.
type SecurityLogRepository interface {
	Append(ctx context.Context, entry *models.SecurityLog) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*models.SecurityLog, error)
}

// GuardActivityRepository appends and reads gate verification attempts.
type GuardActivityRepository interface {
	Append(ctx context.Context, entry *models.GuardActivity) error
	ListByGuard(ctx context.Context, guardID string, limit int) ([]*models.GuardActivity, error)
	StatsSince(ctx context.Context, guardID string, since time.Time) (*models.GuardStats, error)
}
