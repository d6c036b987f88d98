package models

import "time"

// Security event names. The security log is the sole audit trail for
// security-relevant transitions; there is no separate audit subsystem.
const (
	EventDeviceAuthStarted      = "DEVICE_AUTH_STARTED"
	EventDeviceAuthRateLimit    = "DEVICE_AUTH_RATE_LIMIT"
	EventDeviceAuthTokenExpired = "DEVICE_AUTH_TOKEN_EXPIRED"
	EventDeviceAuthApproved     = "DEVICE_AUTH_APPROVED"
	EventDeviceAuthRevoked      = "DEVICE_AUTH_REVOKED"
	EventUserApproved           = "USER_APPROVED"
	EventUserRejected           = "USER_REJECTED"
	EventUserRoleChanged        = "USER_ROLE_CHANGED"
)

// SecurityLog is an append-only record of a security-relevant event.
type SecurityLog struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	UserID    string                 `json:"userId"`
	DeviceID  string                 `json:"deviceId,omitempty"`
	IPAddress string                 `json:"ipAddress,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// GuardActivity is an append-only record of one verification attempt at a
// gate, granted or denied. It backs the guard dashboard's recent-activity
// list and daily statistics.
type GuardActivity struct {
	ID           string    `json:"id"`
	GuardID      string    `json:"guardId"`
	EstateID     string    `json:"estateId,omitempty"`
	CodeText     string    `json:"codeText"`
	AccessCodeID string    `json:"accessCodeId,omitempty"`
	Granted      bool      `json:"granted"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// GuardStats summarizes a guard's verification activity for one day.
type GuardStats struct {
	GrantedToday int `json:"grantedToday"`
	DeniedToday  int `json:"deniedToday"`
}
