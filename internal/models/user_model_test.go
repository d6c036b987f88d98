package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	base := func() User {
		return User{ID: "uid-1", Email: "u@example.com", Role: RoleResident, Status: StatusPending}
	}

	t.Run("resident with or without estate is valid", func(t *testing.T) {
		u := base()
		assert.NoError(t, u.Validate())
		u.EstateID = "estate-1"
		assert.NoError(t, u.Validate())
	})

	t.Run("guard and estate_admin need an estate", func(t *testing.T) {
		for _, role := range []Role{RoleGuard, RoleEstateAdmin} {
			u := base()
			u.Role = role
			assert.Error(t, u.Validate(), "role %s without estate", role)
			u.EstateID = "estate-1"
			assert.NoError(t, u.Validate())
		}
	})

	t.Run("admin must not carry an estate", func(t *testing.T) {
		u := base()
		u.Role = RoleAdmin
		assert.NoError(t, u.Validate())
		u.EstateID = "estate-1"
		assert.Error(t, u.Validate())
	})

	t.Run("unknown role and missing identity fields", func(t *testing.T) {
		u := base()
		u.Role = "superuser"
		assert.Error(t, u.Validate())

		u = base()
		u.ID = ""
		assert.Error(t, u.Validate())

		u = base()
		u.Email = ""
		assert.Error(t, u.Validate())
	})
}

func TestUserCanApprove(t *testing.T) {
	t.Run("admin approves anywhere once approved", func(t *testing.T) {
		u := User{Role: RoleAdmin, Status: StatusApproved}
		assert.True(t, u.CanApprove("any-estate"))

		u.Status = StatusPending
		assert.False(t, u.CanApprove("any-estate"))
	})

	t.Run("estate admin is scoped to own estate", func(t *testing.T) {
		u := User{Role: RoleEstateAdmin, Status: StatusApproved, EstateID: "estate-1"}
		assert.True(t, u.CanApprove("estate-1"))
		assert.False(t, u.CanApprove("estate-2"))
	})

	t.Run("delegated approver flag grants scoped power", func(t *testing.T) {
		u := User{Role: RoleResident, Status: StatusApproved, EstateID: "estate-1", CanApproveUsers: true}
		assert.True(t, u.CanApprove("estate-1"))
		assert.False(t, u.CanApprove("estate-2"))
	})

	t.Run("plain resident and guard cannot approve", func(t *testing.T) {
		for _, role := range []Role{RoleResident, RoleGuard} {
			u := User{Role: role, Status: StatusApproved, EstateID: "estate-1"}
			assert.False(t, u.CanApprove("estate-1"))
		}
	})
}

func TestHouseholdDisplayAddress(t *testing.T) {
	h := Household{
		Address:    "12 Palm Street",
		City:       " Lekki ",
		PostalCode: "",
		Country:    "Nigeria",
	}
	assert.Equal(t, "12 Palm Street, Lekki, Nigeria", h.DisplayAddress())

	empty := Household{}
	assert.Equal(t, "", empty.DisplayAddress())
}
