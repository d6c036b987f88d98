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
)

type estateService struct {
	estates db.EstateRepository
	users   db.UserRepository
	logger  *zap.Logger
	now     Clock
}

// NewEstateService creates the estate registry service.
func NewEstateService(estates db.EstateRepository, users db.UserRepository, logger *zap.Logger) EstateService {
	return &estateService{
		estates: estates,
		users:   users,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *estateService) CreateEstate(ctx context.Context, adminID, name string) (*models.Estate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: estate name cannot be empty", ErrValidation)
	}

	existing, err := s.estates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list estates: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, name) {
			return nil, fmt.Errorf("%w: an estate named %q already exists", ErrConflict, name)
		}
	}

	estate := &models.Estate{
		ID:        uuid.NewString(),
		Name:      name,
		IsLocked:  false,
		CreatedAt: s.now(),
		CreatedBy: adminID,
	}
	if err := s.estates.Create(ctx, estate); err != nil {
		return nil, fmt.Errorf("failed to create estate %q: %w", name, err)
	}
	return estate, nil
}

// ListEstates is unauthenticated-friendly: registration needs the estate list
// before the caller has an approved profile.
func (s *estateService) ListEstates(ctx context.Context) ([]*models.Estate, error) {
	return s.estates.List(ctx)
}

// SetLock toggles the approval lock. Only a platform admin may toggle it;
// estate admins administer approvals within the lock, they do not control it.
// Locking only gates new user approvals; already-approved users and issued
// codes are unaffected.
func (s *estateService) SetLock(ctx context.Context, estateID string, locked bool, adminID string) (*models.Estate, error) {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, adminID)
		}
		return nil, err
	}
	if admin.Role != models.RoleAdmin || admin.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: user %q may not lock estate %q", ErrUnauthorized, adminID, estateID)
	}

	estate, err := s.estates.GetByID(ctx, estateID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: estate %q", ErrNotFound, estateID)
		}
		return nil, err
	}
	if estate.IsLocked == locked {
		return estate, nil
	}

	estate.IsLocked = locked
	if err := s.estates.Update(ctx, estate); err != nil {
		return nil, fmt.Errorf("failed to update lock on estate %q: %w", estateID, err)
	}
	s.logger.Info("estate lock changed",
		zap.String("estateId", estateID),
		zap.Bool("isLocked", locked),
		zap.String("changedBy", adminID))
	return estate, nil
}
