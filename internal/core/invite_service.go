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

type inviteService struct {
	invites    db.InviteRepository
	households db.HouseholdRepository
	users      db.UserRepository
	notifier   Notifier
	logger     *zap.Logger

	inviteTTL time.Duration
	clientURL string
	now       Clock
}

// NewInviteService creates the household invitation flow.
func NewInviteService(
	invites db.InviteRepository,
	households db.HouseholdRepository,
	users db.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
	inviteTTL time.Duration,
	clientURL string,
) InviteService {
	return &inviteService{
		invites:    invites,
		households: households,
		users:      users,
		notifier:   notifier,
		logger:     logger,
		inviteTTL:  inviteTTL,
		clientURL:  clientURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// normalizeEmail is the canonical form invites are stored and matched under.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateInvite issues a join invitation to an email address. Only the head of
// household may invite, and at most one open invite per (household, email)
// may exist at a time.
func (s *inviteService) CreateInvite(ctx context.Context, householdID, invitedBy, email string) (*models.HouseholdInvite, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	household, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: household %q", ErrNotFound, householdID)
		}
		return nil, err
	}
	if household.HeadID != invitedBy {
		return nil, fmt.Errorf("%w: only the head of household may invite members", ErrUnauthorized)
	}

	existing, err := s.invites.ListByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invites for %q: %w", normalized, err)
	}
	for _, inv := range existing {
		if inv.HouseholdID == householdID && inv.Open(s.now()) {
			return nil, fmt.Errorf("%w: an open invitation for %q to this household already exists", ErrConflict, normalized)
		}
	}

	invite := &models.HouseholdInvite{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		InvitedBy:   invitedBy,
		Email:       normalized,
		Status:      models.InvitePending,
		CreatedAt:   s.now(),
		ExpiresAt:   s.now().Add(s.inviteTTL),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	link := fmt.Sprintf("%s/invites", s.clientURL)
	if err := s.notifier.SendHouseholdInvitation(ctx, normalized, household.Name, link); err != nil {
		s.logger.Warn("failed to send invitation email",
			zap.String("inviteId", invite.ID), zap.Error(err))
	}

	return invite, nil
}

// AcceptInvite moves a pending invite to accepted and joins the user to the
// household. The status flip is a compare-and-swap, so of two concurrent
// accepts exactly one proceeds; the membership and profile writes after the
// flip are idempotent and safe to repeat if a retry lands here again.
func (s *inviteService) AcceptInvite(ctx context.Context, inviteID, userID, userEmail string) (*models.Household, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation %q", ErrNotFound, inviteID)
		}
		return nil, err
	}
	if invite.Email != normalizeEmail(userEmail) {
		return nil, fmt.Errorf("%w: invitation %q was not addressed to this account", ErrUnauthorized, inviteID)
	}
	switch invite.Status {
	case models.InviteAccepted:
		return nil, fmt.Errorf("%w: invitation already accepted", ErrConflict)
	case models.InviteRejected:
		return nil, fmt.Errorf("%w: invitation was rejected", ErrConflict)
	}
	if invite.Expired(s.now()) {
		return nil, fmt.Errorf("%w: invitation has expired", ErrExpired)
	}

	if err := s.invites.UpdateStatus(ctx, inviteID, models.InvitePending, models.InviteAccepted); err != nil {
		if errors.Is(err, db.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: invitation is no longer pending", ErrConflict)
		}
		return nil, err
	}

	household, err := s.households.GetByID(ctx, invite.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load household %q after accept: %w", invite.HouseholdID, err)
	}
	if !household.IsMember(userID) {
		if household.Members == nil {
			household.Members = make(map[string]bool)
		}
		household.Members[userID] = true
		household.UpdatedAt = s.now()
		if err := s.households.Update(ctx, household); err != nil {
			return nil, fmt.Errorf("failed to add user %q to household %q: %w", userID, household.ID, err)
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q after accept: %w", userID, err)
	}
	if user.HouseholdID != household.ID {
		user.HouseholdID = household.ID
		if household.EstateID != "" {
			user.EstateID = household.EstateID
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link user %q to household %q: %w", userID, household.ID, err)
		}
	}

	return household, nil
}

// RejectInvite declines a pending invitation addressed to the caller.
func (s *inviteService) RejectInvite(ctx context.Context, inviteID, userID, userEmail string) error {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: invitation %q", ErrNotFound, inviteID)
		}
		return err
	}
	if invite.Email != normalizeEmail(userEmail) {
		return fmt.Errorf("%w: invitation %q was not addressed to this account", ErrUnauthorized, inviteID)
	}
	if invite.Status != models.InvitePending {
		return fmt.Errorf("%w: invitation is no longer pending", ErrConflict)
	}
	if invite.Expired(s.now()) {
		return fmt.Errorf("%w: invitation has expired", ErrExpired)
	}

	if err := s.invites.UpdateStatus(ctx, inviteID, models.InvitePending, models.InviteRejected); err != nil {
		if errors.Is(err, db.ErrStaleStatus) {
			return fmt.Errorf("%w: invitation is no longer pending", ErrConflict)
		}
		return err
	}
	return nil
}

// GetPendingInvitationsByEmail returns the open invites addressed to the
// email. Expired or closed invites are filtered out at read time.
func (s *inviteService) GetPendingInvitationsByEmail(ctx context.Context, email string) ([]*models.HouseholdInvite, error) {
	all, err := s.invites.ListByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	open := make([]*models.HouseholdInvite, 0, len(all))
	for _, inv := range all {
		if inv.Open(s.now()) {
			open = append(open, inv)
		}
	}
	return open, nil
}
