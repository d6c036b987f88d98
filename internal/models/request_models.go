package models

import "time"

// RegisterRequest is the body for POST /users/initialize, sent by the client
// after the first Firebase sign-in to create the pending profile. An omitted
// role defaults to resident.
type RegisterRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Role        Role   `json:"role,omitempty"`
	EstateID    string `json:"estateId,omitempty"`
}

// ApproveUserRequest is the body for approving a single pending user.
type ApproveUserRequest struct {
	EstateID        string `json:"estateId" binding:"required"`
	IsHouseholdHead bool   `json:"isHouseholdHead,omitempty"`
}

// RejectUserRequest is the body for rejecting a single pending user.
type RejectUserRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// BatchApproveRequest approves several pending users against one estate.
type BatchApproveRequest struct {
	UserIDs  []string `json:"userIds" binding:"required"`
	EstateID string   `json:"estateId" binding:"required"`
}

// BatchRejectRequest rejects several pending users with one shared reason.
type BatchRejectRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
	Reason  string   `json:"reason" binding:"required"`
}

// ChangeRoleRequest is the body for the admin-only role change endpoint.
// EstateID is required when the new role is estate_admin or guard.
type ChangeRoleRequest struct {
	Role     Role   `json:"role" binding:"required"`
	EstateID string `json:"estateId,omitempty"`
}

// CreateEstateRequest is the body for creating an estate.
type CreateEstateRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetEstateLockRequest toggles the approval lock on an estate. A pointer is
// used so that an explicit false is distinguishable from a missing field.
type SetEstateLockRequest struct {
	IsLocked *bool `json:"isLocked" binding:"required"`
}

// CreateHouseholdRequest is the body for a resident creating their household.
type CreateHouseholdRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// UpdateAddressRequest replaces the household address. Pointers distinguish
// "clear this field" from "leave it alone".
type UpdateAddressRequest struct {
	Address      *string `json:"address,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	PostalCode   *string `json:"postalCode,omitempty"`
	Country      *string `json:"country,omitempty"`
}

// CreateInviteRequest is the body for a household head inviting a member.
type CreateInviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateAccessCodeRequest is the body for a resident issuing a visitor code.
// A nil ExpiresAt means the code never expires.
type CreateAccessCodeRequest struct {
	Description string     `json:"description" binding:"required"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// VerifyCodeRequest is the body for the guard-side verification endpoint.
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// DeviceCheckRequest is the fingerprint check-in sent at login.
type DeviceCheckRequest struct {
	Fingerprint string `json:"fingerprint" binding:"required"`
	UserAgent   string `json:"userAgent,omitempty"`
	Platform    string `json:"platform,omitempty"`
}
