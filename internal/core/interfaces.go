package core

import (
	"context"
	"time"

	"musa-backend-go/internal/models"
)

// UserService owns user profiles and the approval workflows.
type UserService interface {
	// InitializeProfile creates the pending profile at first sign-in, or
	// returns the existing one. The bool reports whether a profile was created.
	InitializeProfile(ctx context.Context, uid, email string, req models.RegisterRequest) (*models.User, bool, error)
	GetByID(ctx context.Context, uid string) (*models.User, error)
	// ListPending returns pending users visible to the approver: all of them
	// for an admin, only the approver's estate for an estate admin.
	ListPending(ctx context.Context, approverID string) ([]*models.User, error)
	ApproveUserWithEstate(ctx context.Context, uid, estateID, approverID string, isHouseholdHead bool) (*models.User, error)
	RejectUser(ctx context.Context, uid, approverID, reason string) (*models.User, error)
	BatchApprove(ctx context.Context, uids []string, estateID, approverID string) *BatchResult
	BatchReject(ctx context.Context, uids []string, approverID, reason string) *BatchResult
	ChangeRole(ctx context.Context, uid string, newRole models.Role, estateID, adminID string) (*models.User, error)
}

// BatchResult reports a best-effort batch operation item by item. Nothing is
// rolled back; callers see exactly which UIDs failed and why.
type BatchResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// EstateService owns the estate registry.
type EstateService interface {
	CreateEstate(ctx context.Context, adminID, name string) (*models.Estate, error)
	ListEstates(ctx context.Context) ([]*models.Estate, error)
	SetLock(ctx context.Context, estateID string, locked bool, adminID string) (*models.Estate, error)
}

// HouseholdService owns households and their membership.
type HouseholdService interface {
	CreateHousehold(ctx context.Context, residentID string, req models.CreateHouseholdRequest) (*models.Household, error)
	GetByID(ctx context.Context, householdID, requestingUserID string) (*models.Household, error)
	UpdateAddress(ctx context.Context, householdID, requestingUserID string, req models.UpdateAddressRequest) (*models.Household, error)
	RemoveMember(ctx context.Context, householdID, requestingUserID, memberID string) error
	ListMembers(ctx context.Context, householdID, requestingUserID string) ([]*models.User, error)
}

// InviteService owns household join invitations.
type InviteService interface {
	CreateInvite(ctx context.Context, householdID, invitedBy, email string) (*models.HouseholdInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID, userEmail string) (*models.Household, error)
	RejectInvite(ctx context.Context, inviteID, userID, userEmail string) error
	GetPendingInvitationsByEmail(ctx context.Context, email string) ([]*models.HouseholdInvite, error)
}

// AccessCodeService owns visitor code issuance, verification, and the guard
// activity trail fed by verification attempts.
type AccessCodeService interface {
	Create(ctx context.Context, residentID string, req models.CreateAccessCodeRequest) (*models.AccessCode, error)
	Verify(ctx context.Context, guardID, codeText string) (*models.VerificationResult, error)
	Deactivate(ctx context.Context, codeID, requestingUserID string) error
	ListByResident(ctx context.Context, residentID string) ([]*models.AccessCode, error)
	RecentActivity(ctx context.Context, guardID string, limit int) ([]*models.GuardActivity, error)
	Stats(ctx context.Context, guardID string) (*models.GuardStats, error)
}

// DeviceCheckResult is what a fingerprint check-in returns.
type DeviceCheckResult struct {
	Device        *models.Device `json:"device"`
	IsNew         bool           `json:"isNew"`
	NeedsApproval bool           `json:"needsApproval"`
}

// DeviceService owns device recognition and the approval-token flow.
type DeviceService interface {
	GetOrCreateDevice(ctx context.Context, userID, fingerprint, userAgent, platform, ip string) (*DeviceCheckResult, error)
	IsDeviceAuthorized(ctx context.Context, userID, fingerprint string) (bool, error)
	// CreateApprovalToken issues a one-time token and emails its approval
	// link to the device owner. The raw token is returned for the caller's
	// response only in test/dev flows; production clients receive it by mail.
	CreateApprovalToken(ctx context.Context, deviceID, userID string) (string, error)
	ApproveDeviceWithToken(ctx context.Context, token string) (*models.Device, error)
	RevokeDevice(ctx context.Context, deviceID, revokedBy string) error
	ListDevices(ctx context.Context, userID string) ([]*models.Device, error)
}

// SecurityService appends to the audit trail and fans events out.
type SecurityService interface {
	LogEvent(ctx context.Context, event, userID, deviceID, ip string, details map[string]interface{})
	RecentByUser(ctx context.Context, userID string, limit int) ([]*models.SecurityLog, error)
}

// Notifier is the outbound email side channel. All sends are best-effort;
// implementations must not be required for any state transition to succeed.
type Notifier interface {
	SendUserApproved(ctx context.Context, to, displayName, estateName string) error
	SendUserRejected(ctx context.Context, to, displayName, reason string) error
	SendHouseholdInvitation(ctx context.Context, to, householdName, link string) error
	SendDeviceApproval(ctx context.Context, to, link, userAgent string) error
}

// Clock lets tests pin time for expiry-boundary checks. Services default to
// UTC wall time.
type Clock func() time.Time
