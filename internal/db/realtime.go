package db

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	rtdb "firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"musa-backend-go/internal/config"
)

// Database path roots. Kept in one place so repositories and security rules
// stay in agreement.
const (
	usersPath          = "users"
	estatesPath        = "estates"
	householdsPath     = "households"
	invitesPath        = "householdInvites"
	invitesByEmailPath = "invitesByEmail"
	devicesPath        = "devices"
	devicesByUserPath  = "devicesByUser"
	deviceTokensPath   = "deviceApprovalTokens"
	securityLogsPath   = "securityLogs"
	accessCodesPath    = "accessCodes"
	accessCodeIndex    = "accessCodeIndex"
	guardActivityPath  = "guardActivity"
)

// Clients bundles the initialized Firebase Admin SDK clients. They are
// constructed once at startup and injected into whatever needs them; there
// are no package-level handles.
type Clients struct {
	Auth *auth.Client
	DB   *rtdb.Client
}

// NewClients initializes the Firebase Admin SDK and returns the Auth and
// Realtime Database clients. Credentials come from a service account file, a
// base64-encoded service account JSON, or Application Default Credentials,
// in that order of preference.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	if cfg == nil {
		return nil, fmt.Errorf("db.NewClients: config cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case cfg.GoogleApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleApplicationCredentials))
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		// Fall through to Application Default Credentials (GCE, Cloud Run, ...).
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.FirebaseProjectID,
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Database: %w", err)
	}

	return &Clients{Auth: authClient, DB: dbClient}, nil
}
