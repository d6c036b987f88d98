package models

import (
	"strings"
	"time"
)

// Household is a named group of residents with one head-of-household.
// HeadID is always a key in Members; only the head may invite or remove
// members or edit the address.
type Household struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	HeadID       string          `json:"headId"`
	Members      map[string]bool `json:"members"` // uid -> true
	Address      string          `json:"address,omitempty"`
	AddressLine2 string          `json:"addressLine2,omitempty"`
	City         string          `json:"city,omitempty"`
	State        string          `json:"state,omitempty"`
	PostalCode   string          `json:"postalCode,omitempty"`
	Country      string          `json:"country,omitempty"`
	EstateID     string          `json:"estateId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// IsMember reports whether the given user belongs to the household.
func (h *Household) IsMember(uid string) bool {
	return h.Members[uid]
}

// DisplayAddress renders the address fields as a single line suitable for
// showing a guard at the gate. Empty components are skipped.
func (h *Household) DisplayAddress() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{h.Address, h.AddressLine2, h.City, h.State, h.PostalCode, h.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
