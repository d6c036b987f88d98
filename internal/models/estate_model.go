package models

import "time"

// Estate represents a gated community. Users, households, and access codes
// are scoped to an estate. A locked estate rejects new user approvals; it
// does not retroactively invalidate codes already issued within it.
type Estate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsLocked  bool      `json:"isLocked"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
