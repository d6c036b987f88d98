package models

import "time"

// AccessCode is a time-boxed visitor code issued by a resident and verified
// by guards at the gate. Codes are multi-use: verification increments
// UsageCount but does not deactivate the code. Deactivation is a one-way
// transition; codes are never physically deleted.
type AccessCode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"` // short alphanumeric, unique among all codes
	ResidentID  string     `json:"residentId"`
	HouseholdID string     `json:"householdId"`
	EstateID    string     `json:"estateId,omitempty"`
	Description string     `json:"description"`
	QRCode      string     `json:"qrCode,omitempty"` // data URL encoding Code
	IsActive    bool       `json:"isActive"`
	UsageCount  int        `json:"usageCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"` // nil means the code never expires
}

// Expired reports whether the code's expiry has passed. A code without an
// expiry never expires. A code is usable strictly before its expiry; at the
// exact expiry instant it is already expired.
func (a *AccessCode) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Usable reports whether a guard-side verification of this code should
// succeed at the given instant.
func (a *AccessCode) Usable(now time.Time) bool {
	return a.IsActive && !a.Expired(now)
}

// VerificationResult is what a guard sees after submitting a code, whether
// typed manually or scanned from the QR payload.
type VerificationResult struct {
	IsValid            bool       `json:"isValid"`
	Message            string     `json:"message"`
	Household          *Household `json:"household,omitempty"`
	DestinationAddress string     `json:"destinationAddress,omitempty"`
	AccessCodeID       string     `json:"accessCodeId,omitempty"`
}
