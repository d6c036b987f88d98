package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/models"
	"musa-backend-go/internal/ratelimit"
)

type deviceService struct {
	devices  db.DeviceRepository
	tokens   db.DeviceTokenRepository
	users    db.UserRepository
	security SecurityService
	limiter  ratelimit.Limiter
	notifier Notifier
	logger   *zap.Logger

	tokenTTL  time.Duration
	clientURL string
	now       Clock
}

// NewDeviceService creates the device authorization flow.
func NewDeviceService(
	devices db.DeviceRepository,
	tokens db.DeviceTokenRepository,
	users db.UserRepository,
	security SecurityService,
	limiter ratelimit.Limiter,
	notifier Notifier,
	logger *zap.Logger,
	tokenTTL time.Duration,
	clientURL string,
) DeviceService {
	return &deviceService{
		devices:   devices,
		tokens:    tokens,
		users:     users,
		security:  security,
		limiter:   limiter,
		notifier:  notifier,
		logger:    logger,
		tokenTTL:  tokenTTL,
		clientURL: clientURL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateDevice recognizes a returning device by fingerprint or registers
// a new one in pending status. New devices need the emailed approval step
// before they count as authorized.
func (s *deviceService) GetOrCreateDevice(ctx context.Context, userID, fingerprint, userAgent, platform, ip string) (*DeviceCheckResult, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("%w: device fingerprint cannot be empty", ErrValidation)
	}

	known, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices for user %q: %w", userID, err)
	}
	for _, device := range known {
		if device.Fingerprint == fingerprint {
			if err := s.devices.TouchLastUsed(ctx, device.ID, s.now()); err != nil {
				s.logger.Warn("failed to refresh device lastUsed",
					zap.String("deviceId", device.ID), zap.Error(err))
			}
			return &DeviceCheckResult{
				Device:        device,
				IsNew:         false,
				NeedsApproval: device.Status == models.DevicePending,
			}, nil
		}
	}

	device := &models.Device{
		ID:          uuid.NewString(),
		UserID:      userID,
		Fingerprint: fingerprint,
		UserAgent:   userAgent,
		Platform:    platform,
		Status:      models.DevicePending,
		CreatedAt:   s.now(),
		LastUsed:    s.now(),
		IPAddress:   ip,
	}
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		device.HouseholdID = user.HouseholdID
		device.EstateID = user.EstateID
	}

	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to register device for user %q: %w", userID, err)
	}

	s.security.LogEvent(ctx, models.EventDeviceAuthStarted, userID, device.ID, ip, map[string]interface{}{
		"userAgent": userAgent,
		"platform":  platform,
	})

	return &DeviceCheckResult{Device: device, IsNew: true, NeedsApproval: true}, nil
}

// IsDeviceAuthorized is a pure read: true only if a device with this
// fingerprint exists for the user and has been authorized.
func (s *deviceService) IsDeviceAuthorized(ctx context.Context, userID, fingerprint string) (bool, error) {
	known, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list devices for user %q: %w", userID, err)
	}
	for _, device := range known {
		if device.Fingerprint == fingerprint && device.Status == models.DeviceAuthorized {
			return true, nil
		}
	}
	return false, nil
}

// CreateApprovalToken issues a fresh one-time token for the device and mails
// its approval link to the owner. Issuance is rate limited per user so a
// stolen session cannot flood the mailbox.
func (s *deviceService) CreateApprovalToken(ctx context.Context, deviceID, userID string) (string, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: device %q", ErrNotFound, deviceID)
		}
		return "", err
	}
	if device.UserID != userID {
		return "", fmt.Errorf("%w: device %q does not belong to user %q", ErrUnauthorized, deviceID, userID)
	}

	allowed, err := s.limiter.Allow(ctx, "device-approval:"+userID)
	if err != nil {
		return "", fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		s.security.LogEvent(ctx, models.EventDeviceAuthRateLimit, userID, deviceID, device.IPAddress, nil)
		return "", fmt.Errorf("%w: too many device approval requests, try again later", ErrRateLimited)
	}

	raw, err := generateToken()
	if err != nil {
		return "", err
	}
	token := &models.DeviceApprovalToken{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		UserID:    userID,
		Token:     raw,
		CreatedAt: s.now(),
		ExpiresAt: s.now().Add(s.tokenTTL),
		Used:      false,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store approval token: %w", err)
	}

	link := fmt.Sprintf("%s/device/approve?token=%s", s.clientURL, raw)
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		if mailErr := s.notifier.SendDeviceApproval(ctx, user.Email, link, device.UserAgent); mailErr != nil {
			s.logger.Warn("failed to send device approval email",
				zap.String("userId", userID), zap.Error(mailErr))
		}
	} else {
		s.logger.Warn("could not load user for device approval email",
			zap.String("userId", userID), zap.Error(err))
	}

	return raw, nil
}

// ApproveDeviceWithToken redeems a token from the emailed link. Redemption
// is atomic at the repository, so of two concurrent calls with the same
// token exactly one flips the device to authorized; the other gets a
// conflict error.
func (s *deviceService) ApproveDeviceWithToken(ctx context.Context, tokenText string) (*models.Device, error) {
	token, err := s.tokens.Get(ctx, tokenText)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired approval token", ErrNotFound)
		}
		return nil, err
	}
	if token.Expired(s.now()) {
		s.security.LogEvent(ctx, models.EventDeviceAuthTokenExpired, token.UserID, token.DeviceID, "", nil)
		return nil, fmt.Errorf("%w: approval token has expired", ErrExpired)
	}
	if token.Used {
		return nil, fmt.Errorf("%w: approval token already used", ErrConflict)
	}

	redeemed, err := s.tokens.Redeem(ctx, tokenText)
	if err != nil {
		if errors.Is(err, db.ErrTokenUsed) {
			return nil, fmt.Errorf("%w: approval token already used", ErrConflict)
		}
		return nil, err
	}

	device, err := s.devices.GetByID(ctx, redeemed.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device %q for approval: %w", redeemed.DeviceID, err)
	}

	approvedAt := s.now()
	device.Status = models.DeviceAuthorized
	device.ApprovedAt = &approvedAt
	device.ApprovedBy = redeemed.UserID // self-approval model: the link goes to the account owner
	if err := s.devices.Update(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to authorize device %q: %w", device.ID, err)
	}

	s.security.LogEvent(ctx, models.EventDeviceAuthApproved, redeemed.UserID, device.ID, device.IPAddress, nil)
	return device, nil
}

// RevokeDevice is unconditional: it works from both pending and authorized,
// and nothing leaves the revoked state.
func (s *deviceService) RevokeDevice(ctx context.Context, deviceID, revokedBy string) error {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: device %q", ErrNotFound, deviceID)
		}
		return err
	}
	if device.UserID != revokedBy {
		actor, err := s.users.GetByID(ctx, revokedBy)
		if err != nil || actor.Role != models.RoleAdmin {
			return fmt.Errorf("%w: device %q does not belong to user %q", ErrUnauthorized, deviceID, revokedBy)
		}
	}
	device.Status = models.DeviceRevoked
	if err := s.devices.Update(ctx, device); err != nil {
		return fmt.Errorf("failed to revoke device %q: %w", deviceID, err)
	}
	s.security.LogEvent(ctx, models.EventDeviceAuthRevoked, revokedBy, deviceID, device.IPAddress, map[string]interface{}{
		"deviceOwner": device.UserID,
	})
	return nil
}

func (s *deviceService) ListDevices(ctx context.Context, userID string) ([]*models.Device, error) {
	return s.devices.ListByUser(ctx, userID)
}
