package models

import "time"

// DeviceStatus is the authorization state of a recognized device.
// pending -> authorized via token redemption, pending/authorized -> revoked
// by explicit action. Nothing leaves revoked; re-authorizing a revoked device
// requires a fresh device row and token cycle.
type DeviceStatus string

const (
	DevicePending    DeviceStatus = "pending"
	DeviceAuthorized DeviceStatus = "authorized"
	DeviceRevoked    DeviceStatus = "revoked"
)

// Device is one browser/device fingerprint seen for a user. A user has at
// most one device row per distinct fingerprint.
type Device struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	HouseholdID string       `json:"householdId,omitempty"`
	EstateID    string       `json:"estateId,omitempty"`
	Fingerprint string       `json:"fingerprint"`
	UserAgent   string       `json:"userAgent,omitempty"`
	Platform    string       `json:"platform,omitempty"`
	Status      DeviceStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ApprovedAt  *time.Time   `json:"approvedAt,omitempty"`
	ApprovedBy  string       `json:"approvedBy,omitempty"`
	LastUsed    time.Time    `json:"lastUsed"`
	IPAddress   string       `json:"ipAddress,omitempty"`
}

// DeviceApprovalToken is an emailed one-time token that flips its device from
// pending to authorized. Used is a one-way latch: redemption is atomic, so a
// token can be redeemed exactly once even under concurrent requests.
type DeviceApprovalToken struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
}

// Expired reports whether the token's expiry has passed. The token is
// redeemable strictly before ExpiresAt.
func (t *DeviceApprovalToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
