package models

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies what a user is allowed to do in the system.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleEstateAdmin Role = "estate_admin"
	RoleGuard       Role = "guard"
	RoleResident    Role = "resident"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEstateAdmin, RoleGuard, RoleResident:
		return true
	}
	return false
}

// RequiresEstate reports whether a user with this role must be bound to an estate.
// Estate admins and guards operate within exactly one estate; platform admins
// operate across all of them and must not carry an estate binding.
func (r Role) RequiresEstate() bool {
	return r == RoleEstateAdmin || r == RoleGuard
}

// UserStatus is the approval state of a user account.
type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusRejected UserStatus = "rejected"
)

// User represents a user profile keyed by the Firebase Auth UID.
// The record is created at first sign-in with StatusPending and is moved to
// approved/rejected by an approver.
type User struct {
	ID              string     `json:"id"` // Firebase Auth UID
	Email           string     `json:"email"`
	DisplayName     string     `json:"displayName,omitempty"`
	Role            Role       `json:"role"`
	Status          UserStatus `json:"status"`
	EstateID        string     `json:"estateId,omitempty"`
	HouseholdID     string     `json:"householdId,omitempty"`
	IsHouseholdHead bool       `json:"isHouseholdHead,omitempty"`
	CanApproveUsers bool       `json:"canApproveUsers,omitempty"`
	CanAssignHoH    bool       `json:"canAssignHoH,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// Validate enforces the role/estate shape of a user record. The estate binding
// is conditionally meaningful depending on the role, so every write path goes
// through this single check instead of each caller re-deriving the rules:
//   - estate_admin and guard must carry an estate
//   - admin must not
//   - resident may carry one (picked up at registration, kept on role changes)
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user ID cannot be empty")
	}
	if u.Email == "" {
		return errors.New("user email cannot be empty")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	if u.Role.RequiresEstate() && u.EstateID == "" {
		return fmt.Errorf("role %q requires an estate assignment", u.Role)
	}
	if u.Role == RoleAdmin && u.EstateID != "" {
		return errors.New("role \"admin\" must not carry an estate assignment")
	}
	return nil
}

// CanApprove reports whether the user may approve or reject pending users in
// the given estate. Admins may approve anywhere; estate admins only within
// their own estate. The CanApproveUsers flag grants the same scoped power to
// delegated users.
func (u *User) CanApprove(estateID string) bool {
	if u.Status != StatusApproved {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	if u.Role == RoleEstateAdmin || u.CanApproveUsers {
		return u.EstateID != "" && u.EstateID == estateID
	}
	return false
}
