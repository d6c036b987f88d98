package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbDeviceRepository struct {
	client *rtdb.Client
}

// NewDeviceRepository creates a Realtime Database backed DeviceRepository.
func NewDeviceRepository(client *rtdb.Client) DeviceRepository {
	return &rtdbDeviceRepository{client: client}
}

func (r *rtdbDeviceRepository) deviceRef(deviceID string) *rtdb.Ref {
	return r.client.NewRef(devicesPath).Child(deviceID)
}

func (r *rtdbDeviceRepository) Create(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		return errors.New("device ID cannot be empty for Create")
	}
	if err := r.deviceRef(device.ID).Set(ctx, device); err != nil {
		return fmt.Errorf("failed to create device %q: %w", device.ID, err)
	}
	if err := r.client.NewRef(devicesByUserPath).Child(device.UserID).Child(device.ID).Set(ctx, true); err != nil {
		return fmt.Errorf("failed to index device %q for user %q: %w", device.ID, device.UserID, err)
	}
	return nil
}

func (r *rtdbDeviceRepository) GetByID(ctx context.Context, deviceID string) (*models.Device, error) {
	if deviceID == "" {
		return nil, errors.New("deviceID cannot be empty for GetByID")
	}
	var device models.Device
	if err := r.deviceRef(deviceID).Get(ctx, &device); err != nil {
		return nil, fmt.Errorf("failed to get device %q: %w", deviceID, err)
	}
	if device.ID == "" {
		return nil, fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}
	return &device, nil
}

func (r *rtdbDeviceRepository) ListByUser(ctx context.Context, userID string) ([]*models.Device, error) {
	var ids map[string]bool
	if err := r.client.NewRef(devicesByUserPath).Child(userID).Get(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to read device index for user %q: %w", userID, err)
	}
	devices := make([]*models.Device, 0, len(ids))
	for id := range ids {
		device, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func (r *rtdbDeviceRepository) Update(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		return errors.New("device ID cannot be empty for Update")
	}
	if err := r.deviceRef(device.ID).Set(ctx, device); err != nil {
		return fmt.Errorf("failed to update device %q: %w", device.ID, err)
	}
	return nil
}

func (r *rtdbDeviceRepository) TouchLastUsed(ctx context.Context, deviceID string, at time.Time) error {
	if err := r.deviceRef(deviceID).Update(ctx, map[string]interface{}{"lastUsed": at}); err != nil {
		return fmt.Errorf("failed to touch device %q: %w", deviceID, err)
	}
	return nil
}

type rtdbDeviceTokenRepository struct {
	client *rtdb.Client
}

// NewDeviceTokenRepository creates a Realtime Database backed DeviceTokenRepository.
// Tokens are keyed by their text so that the emailed link resolves in one read.
func NewDeviceTokenRepository(client *rtdb.Client) DeviceTokenRepository {
	return &rtdbDeviceTokenRepository{client: client}
}

func (r *rtdbDeviceTokenRepository) tokenRef(tokenText string) *rtdb.Ref {
	return r.client.NewRef(deviceTokensPath).Child(tokenText)
}

func (r *rtdbDeviceTokenRepository) Create(ctx context.Context, token *models.DeviceApprovalToken) error {
	if token.Token == "" {
		return errors.New("token text cannot be empty for Create")
	}
	if err := r.tokenRef(token.Token).Set(ctx, token); err != nil {
		return fmt.Errorf("failed to create approval token: %w", err)
	}
	return nil
}

func (r *rtdbDeviceTokenRepository) Get(ctx context.Context, tokenText string) (*models.DeviceApprovalToken, error) {
	if tokenText == "" {
		return nil, errors.New("tokenText cannot be empty for Get")
	}
	var token models.DeviceApprovalToken
	if err := r.tokenRef(tokenText).Get(ctx, &token); err != nil {
		return nil, fmt.Errorf("failed to get approval token: %w", err)
	}
	if token.ID == "" {
		return nil, fmt.Errorf("approval token: %w", ErrNotFound)
	}
	return &token, nil
}

// Redeem sets the used latch in a transaction. Two concurrent redeemers
// cannot both observe used=false; the loser gets ErrTokenUsed.
func (r *rtdbDeviceTokenRepository) Redeem(ctx context.Context, tokenText string) (*models.DeviceApprovalToken, error) {
	token, err := r.Get(ctx, tokenText)
	if err != nil {
		return nil, err
	}
	err = r.tokenRef(tokenText).Child("used").Transaction(ctx, func(tn rtdb.TransactionNode) (interface{}, error) {
		var used bool
		if err := tn.Unmarshal(&used); err != nil {
			return nil, err
		}
		if used {
			return nil, ErrTokenUsed
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenUsed) {
			return nil, ErrTokenUsed
		}
		return nil, fmt.Errorf("failed to redeem approval token: %w", err)
	}
	token.Used = true
	return token, nil
}
