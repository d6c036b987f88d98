package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/models"
	"musa-backend-go/internal/qr"
)

// maxCodeAttempts bounds collision retries during code generation. With an
// 8-character code over a 33-character alphabet a collision is already
// vanishingly rare; five misses in a row means something is wrong upstream.
const maxCodeAttempts = 5

// Guard-facing verification messages. The UI shows these verbatim.
const (
	msgInvalidCode     = "Invalid code"
	msgCodeDeactivated = "Code has been deactivated"
	msgCodeExpired     = "Code has expired"
	msgAccessGranted   = "Access granted"
)

type accessCodeService struct {
	codes      db.AccessCodeRepository
	households db.HouseholdRepository
	users      db.UserRepository
	activity   db.GuardActivityRepository
	logger     *zap.Logger
	codeLength int
	now        Clock
}

// NewAccessCodeService creates the access code engine.
func NewAccessCodeService(
	codes db.AccessCodeRepository,
	households db.HouseholdRepository,
	users db.UserRepository,
	activity db.GuardActivityRepository,
	logger *zap.Logger,
	codeLength int,
) AccessCodeService {
	return &accessCodeService{
		codes:      codes,
		households: households,
		users:      users,
		activity:   activity,
		logger:     logger,
		codeLength: codeLength,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new visitor code for the resident's household.
func (s *accessCodeService) Create(ctx context.Context, residentID string, req models.CreateAccessCodeRequest) (*models.AccessCode, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
	}

	resident, err := s.users.GetByID(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resident %q: %w", residentID, err)
	}
	if resident.HouseholdID == "" {
		return nil, fmt.Errorf("%w: resident has no household", ErrValidation)
	}

	household, err := s.households.GetByID(ctx, resident.HouseholdID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: household %q", ErrNotFound, resident.HouseholdID)
		}
		return nil, err
	}
	if !household.IsMember(residentID) {
		return nil, fmt.Errorf("%w: user %q is not a member of household %q", ErrUnauthorized, residentID, household.ID)
	}

	code := &models.AccessCode{
		ID:          uuid.NewString(),
		ResidentID:  residentID,
		HouseholdID: household.ID,
		EstateID:    household.EstateID,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		UsageCount:  0,
		CreatedAt:   s.now(),
		ExpiresAt:   req.ExpiresAt,
	}

	// Generate-and-reserve loop: the repository reserves the text in the
	// code index atomically, so a collision surfaces as ErrCodeTaken and we
	// simply draw again. The QR payload is rendered before the write so the
	// persisted record is complete from the start.
	for attempt := 0; ; attempt++ {
		text, err := generateCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		dataURL, err := qr.DataURL(text)
		if err != nil {
			return nil, err
		}
		code.Code = text
		code.QRCode = dataURL

		err = s.codes.Create(ctx, code)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrCodeTaken) {
			return nil, err
		}
		if attempt+1 >= maxCodeAttempts {
			return nil, fmt.Errorf("%w: could not find a free code after %d attempts", ErrConflict, maxCodeAttempts)
		}
	}

	return code, nil
}

// Verify checks a code a guard submitted at the gate. It fails closed: any
// state short of active-and-unexpired denies access with a specific message.
// Every attempt, granted or denied, lands in the guard activity trail.
// Estate lock status is deliberately not consulted here; locking an estate
// gates new user approvals, it does not retroactively void issued codes.
func (s *accessCodeService) Verify(ctx context.Context, guardID, codeText string) (*models.VerificationResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(codeText))
	if normalized == "" {
		return nil, fmt.Errorf("%w: code cannot be empty", ErrValidation)
	}

	code, err := s.codes.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return s.deny(ctx, guardID, normalized, "", msgInvalidCode), nil
		}
		return nil, fmt.Errorf("failed to look up code %q: %w", normalized, err)
	}

	if !code.IsActive {
		return s.deny(ctx, guardID, normalized, code.ID, msgCodeDeactivated), nil
	}
	if code.Expired(s.now()) {
		return s.deny(ctx, guardID, normalized, code.ID, msgCodeExpired), nil
	}

	if _, err := s.codes.IncrementUsage(ctx, code.ID); err != nil {
		return nil, fmt.Errorf("failed to record usage of code %q: %w", code.ID, err)
	}

	result := &models.VerificationResult{
		IsValid:      true,
		Message:      msgAccessGranted,
		AccessCodeID: code.ID,
	}

	household, err := s.households.GetByID(ctx, code.HouseholdID)
	if err != nil {
		// Access is already granted; a missing household only costs the
		// guard the destination address display.
		s.logger.Warn("verified code but could not resolve household",
			zap.String("accessCodeId", code.ID),
			zap.String("householdId", code.HouseholdID),
			zap.Error(err))
	} else {
		result.Household = household
		result.DestinationAddress = household.DisplayAddress()
	}

	s.appendActivity(ctx, guardID, normalized, code.ID, true, msgAccessGranted)
	return result, nil
}

// Deactivate retires a code permanently. Only the issuing resident may do
// this. Deactivating an already-inactive code is a no-op, not an error.
func (s *accessCodeService) Deactivate(ctx context.Context, codeID, requestingUserID string) error {
	code, err := s.codes.GetByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: access code %q", ErrNotFound, codeID)
		}
		return err
	}
	if code.ResidentID != requestingUserID {
		return fmt.Errorf("%w: user %q does not own access code %q", ErrUnauthorized, requestingUserID, codeID)
	}
	if !code.IsActive {
		return nil
	}
	return s.codes.Deactivate(ctx, codeID)
}

func (s *accessCodeService) ListByResident(ctx context.Context, residentID string) ([]*models.AccessCode, error) {
	return s.codes.ListByResident(ctx, residentID)
}

func (s *accessCodeService) RecentActivity(ctx context.Context, guardID string, limit int) ([]*models.GuardActivity, error) {
	return s.activity.ListByGuard(ctx, guardID, limit)
}

// Stats counts today's granted and denied verifications for the guard, with
// "today" starting at UTC midnight.
func (s *accessCodeService) Stats(ctx context.Context, guardID string) (*models.GuardStats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.activity.StatsSince(ctx, guardID, midnight)
}

func (s *accessCodeService) deny(ctx context.Context, guardID, codeText, accessCodeID, message string) *models.VerificationResult {
	s.appendActivity(ctx, guardID, codeText, accessCodeID, false, message)
	return &models.VerificationResult{IsValid: false, Message: message, AccessCodeID: accessCodeID}
}

// appendActivity records the attempt best-effort. The guard already has
// their answer; losing a trail entry is log-worthy but not fatal.
func (s *accessCodeService) appendActivity(ctx context.Context, guardID, codeText, accessCodeID string, granted bool, message string) {
	entry := &models.GuardActivity{
		ID:           uuid.NewString(),
		GuardID:      guardID,
		CodeText:     codeText,
		AccessCodeID: accessCodeID,
		Granted:      granted,
		Message:      message,
		Timestamp:    s.now(),
	}
	if guard, err := s.users.GetByID(ctx, guardID); err == nil {
		entry.EstateID = guard.EstateID
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append guard activity",
			zap.String("guardId", guardID),
			zap.String("code", codeText),
			zap.Error(err))
	}
}
