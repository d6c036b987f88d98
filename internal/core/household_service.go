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

type householdService struct {
	households db.HouseholdRepository
	users      db.UserRepository
	logger     *zap.Logger
	now        Clock
}

// NewHouseholdService creates the household membership service.
func NewHouseholdService(households db.HouseholdRepository, users db.UserRepository, logger *zap.Logger) HouseholdService {
	return &householdService{
		households: households,
		users:      users,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateHousehold creates a household with the resident as head and sole
// member, and links the resident's profile to it.
func (s *householdService) CreateHousehold(ctx context.Context, residentID string, req models.CreateHouseholdRequest) (*models.Household, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: household name cannot be empty", ErrValidation)
	}

	resident, err := s.users.GetByID(ctx, residentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, residentID)
		}
		return nil, err
	}
	if resident.HouseholdID != "" {
		return nil, fmt.Errorf("%w: user %q already belongs to a household", ErrConflict, residentID)
	}

	household := &models.Household{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		HeadID:       residentID,
		Members:      map[string]bool{residentID: true},
		Address:      strings.TrimSpace(req.Address),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      strings.TrimSpace(req.Country),
		EstateID:     resident.EstateID,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if err := s.households.Create(ctx, household); err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}

	resident.HouseholdID = household.ID
	resident.IsHouseholdHead = true
	if err := s.users.Update(ctx, resident); err != nil {
		return nil, fmt.Errorf("failed to link user %q to household %q: %w", residentID, household.ID, err)
	}
	return household, nil
}

// GetByID returns the household, members-only.
func (s *householdService) GetByID(ctx context.Context, householdID, requestingUserID string) (*models.Household, error) {
	household, err := s.load(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if !household.IsMember(requestingUserID) {
		return nil, fmt.Errorf("%w: user %q is not a member of household %q", ErrUnauthorized, requestingUserID, householdID)
	}
	return household, nil
}

// UpdateAddress replaces address fields. Head-only. Nil fields are untouched,
// empty strings clear.
func (s *householdService) UpdateAddress(ctx context.Context, householdID, requestingUserID string, req models.UpdateAddressRequest) (*models.Household, error) {
	household, err := s.load(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if household.HeadID != requestingUserID {
		return nil, fmt.Errorf("%w: only the head of household may edit the address", ErrUnauthorized)
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&household.Address, req.Address)
	apply(&household.AddressLine2, req.AddressLine2)
	apply(&household.City, req.City)
	apply(&household.State, req.State)
	apply(&household.PostalCode, req.PostalCode)
	apply(&household.Country, req.Country)
	household.UpdatedAt = s.now()

	if err := s.households.Update(ctx, household); err != nil {
		return nil, fmt.Errorf("failed to update household %q: %w", householdID, err)
	}
	return household, nil
}

// RemoveMember drops a member. Head-only, and the head cannot remove
// themselves; the household always keeps its head.
func (s *householdService) RemoveMember(ctx context.Context, householdID, requestingUserID, memberID string) error {
	household, err := s.load(ctx, householdID)
	if err != nil {
		return err
	}
	if household.HeadID != requestingUserID {
		return fmt.Errorf("%w: only the head of household may remove members", ErrUnauthorized)
	}
	if memberID == household.HeadID {
		return fmt.Errorf("%w: the head of household cannot be removed", ErrValidation)
	}
	if !household.IsMember(memberID) {
		return fmt.Errorf("%w: user %q is not a member of household %q", ErrNotFound, memberID, householdID)
	}

	delete(household.Members, memberID)
	household.UpdatedAt = s.now()
	if err := s.households.Update(ctx, household); err != nil {
		return fmt.Errorf("failed to update household %q: %w", householdID, err)
	}

	member, err := s.users.GetByID(ctx, memberID)
	if err != nil {
		// Membership is already gone; a dangling profile link is log-worthy
		// and self-heals on the next profile write.
		s.logger.Warn("removed member but could not unlink profile",
			zap.String("householdId", householdID), zap.String("memberId", memberID), zap.Error(err))
		return nil
	}
	if member.HouseholdID == householdID {
		member.HouseholdID = ""
		member.IsHouseholdHead = false
		if err := s.users.Update(ctx, member); err != nil {
			s.logger.Warn("removed member but could not unlink profile",
				zap.String("householdId", householdID), zap.String("memberId", memberID), zap.Error(err))
		}
	}
	return nil
}

// ListMembers resolves the household's member UIDs to full profiles,
// members-only. Profiles that fail to load are skipped rather than failing
// the whole listing.
func (s *householdService) ListMembers(ctx context.Context, householdID, requestingUserID string) ([]*models.User, error) {
	household, err := s.GetByID(ctx, householdID, requestingUserID)
	if err != nil {
		return nil, err
	}

	members := make([]*models.User, 0, len(household.Members))
	for uid := range household.Members {
		user, err := s.users.GetByID(ctx, uid)
		if err != nil {
			s.logger.Warn("could not resolve household member",
				zap.String("householdId", householdID), zap.String("memberId", uid), zap.Error(err))
			continue
		}
		members = append(members, user)
	}
	return members, nil
}

func (s *householdService) load(ctx context.Context, householdID string) (*models.Household, error) {
	household, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: household %q", ErrNotFound, householdID)
		}
		return nil, err
	}
	return household, nil
}
