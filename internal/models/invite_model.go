package models

import "time"

// InviteStatus is the lifecycle state of a household invitation.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// HouseholdInvite is a join invitation issued by a household head to an
// email address. Expiry is enforced at read time; there is no background
// sweeper, an invite simply stops matching once ExpiresAt passes.
type HouseholdInvite struct {
	ID          string       `json:"id"`
	HouseholdID string       `json:"householdId"`
	InvitedBy   string       `json:"invitedBy"`
	Email       string       `json:"email"` // stored normalized (lower case)
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// Expired reports whether the invite's expiry has passed. The invite is
// acceptable strictly before ExpiresAt; at the exact instant it is expired.
func (i *HouseholdInvite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Open reports whether the invite is still pending and unexpired, i.e. it
// counts against the one-active-invite-per-(household,email) rule and can
// still be accepted.
func (i *HouseholdInvite) Open(now time.Time) bool {
	return i.Status == InvitePending && !i.Expired(now)
}
