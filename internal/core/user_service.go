package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/models"
)

type userService struct {
	users    db.UserRepository
	estates  db.EstateRepository
	security SecurityService
	notifier Notifier
	logger   *zap.Logger
	now      Clock
}

// NewUserService creates the user profile and approval workflows.
func NewUserService(
	users db.UserRepository,
	estates db.EstateRepository,
	security SecurityService,
	notifier Notifier,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:    users,
		estates:  estates,
		security: security,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InitializeProfile creates the pending profile at first sign-in. Repeated
// calls return the existing record untouched, so the client can call this on
// every login without side effects.
func (s *userService) InitializeProfile(ctx context.Context, uid, email string, req models.RegisterRequest) (*models.User, bool, error) {
	existing, err := s.users.GetByID(ctx, uid)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user %q: %w", uid, err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleResident
	}
	// Self-registration never grants platform admin; admins are seeded out of
	// band or promoted by an existing admin through ChangeRole.
	if role == models.RoleAdmin {
		return nil, false, fmt.Errorf("%w: cannot self-register as admin", ErrValidation)
	}

	user := &models.User{
		ID:          uid,
		Email:       normalizeEmail(email),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
		Status:      models.StatusPending,
		EstateID:    req.EstateID,
		CreatedAt:   s.now(),
	}
	if err := user.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if user.EstateID != "" {
		if _, err := s.estates.GetByID(ctx, user.EstateID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, false, fmt.Errorf("%w: estate %q", ErrNotFound, user.EstateID)
			}
			return nil, false, err
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create profile for %q: %w", uid, err)
	}
	return user, true, nil
}

func (s *userService) GetByID(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, uid)
		}
		return nil, err
	}
	return user, nil
}

// ListPending returns pending users scoped to what the approver may act on:
// everything for an admin, only their own estate for estate-scoped approvers.
func (s *userService) ListPending(ctx context.Context, approverID string) ([]*models.User, error) {
	approver, err := s.GetByID(ctx, approverID)
	if err != nil {
		return nil, err
	}

	pending, err := s.users.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	if approver.Role == models.RoleAdmin {
		return pending, nil
	}
	if approver.Role != models.RoleEstateAdmin && !approver.CanApproveUsers {
		return nil, fmt.Errorf("%w: user %q may not review pending users", ErrUnauthorized, approverID)
	}

	scoped := make([]*models.User, 0, len(pending))
	for _, u := range pending {
		// Users who registered without picking an estate are visible to every
		// estate admin; whoever approves them assigns the estate.
		if u.EstateID == "" || u.EstateID == approver.EstateID {
			scoped = append(scoped, u)
		}
	}
	return scoped, nil
}

// ApproveUserWithEstate moves a pending user to approved, binding them to the
// estate in the same write. A locked estate refuses new approvals.
func (s *userService) ApproveUserWithEstate(ctx context.Context, uid, estateID, approverID string, isHouseholdHead bool) (*models.User, error) {
	approver, err := s.GetByID(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if !approver.CanApprove(estateID) {
		return nil, fmt.Errorf("%w: user %q may not approve into estate %q", ErrUnauthorized, approverID, estateID)
	}

	estate, err := s.estates.GetByID(ctx, estateID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: estate %q", ErrNotFound, estateID)
		}
		return nil, err
	}
	if estate.IsLocked {
		return nil, fmt.Errorf("%w: estate %q", ErrEstateLocked, estateID)
	}

	user, err := s.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: user %q is %s, not pending", ErrConflict, uid, user.Status)
	}

	approvedAt := s.now()
	user.Status = models.StatusApproved
	user.ApprovedAt = &approvedAt
	user.ApprovedBy = approverID
	// Head-of-household only makes sense for residents; the flag is ignored
	// for guards, estate admins, and admins.
	if user.Role == models.RoleResident {
		user.IsHouseholdHead = isHouseholdHead
	}
	if user.Role != models.RoleAdmin {
		user.EstateID = estateID
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to approve user %q: %w", uid, err)
	}

	s.security.LogEvent(ctx, models.EventUserApproved, uid, "", "", map[string]interface{}{
		"approvedBy": approverID,
		"estateId":   estateID,
	})
	if err := s.notifier.SendUserApproved(ctx, user.Email, user.DisplayName, estate.Name); err != nil {
		s.logger.Warn("failed to send approval email", zap.String("userId", uid), zap.Error(err))
	}
	return user, nil
}

// RejectUser moves a pending user to rejected with a recorded reason.
func (s *userService) RejectUser(ctx context.Context, uid, approverID, reason string) (*models.User, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason cannot be empty", ErrValidation)
	}

	approver, err := s.GetByID(ctx, approverID)
	if err != nil {
		return nil, err
	}
	user, err := s.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	// Rejection is scoped the same way approval is, against the estate the
	// pending user registered under (or any estate the approver controls when
	// the user did not pick one).
	scope := user.EstateID
	if scope == "" {
		scope = approver.EstateID
	}
	if !approver.CanApprove(scope) {
		return nil, fmt.Errorf("%w: user %q may not reject user %q", ErrUnauthorized, approverID, uid)
	}
	if user.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: user %q is %s, not pending", ErrConflict, uid, user.Status)
	}

	rejectedAt := s.now()
	user.Status = models.StatusRejected
	user.RejectedAt = &rejectedAt
	user.RejectedBy = approverID
	user.RejectionReason = strings.TrimSpace(reason)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to reject user %q: %w", uid, err)
	}

	s.security.LogEvent(ctx, models.EventUserRejected, uid, "", "", map[string]interface{}{
		"rejectedBy": approverID,
		"reason":     user.RejectionReason,
	})
	if err := s.notifier.SendUserRejected(ctx, user.Email, user.DisplayName, user.RejectionReason); err != nil {
		s.logger.Warn("failed to send rejection email", zap.String("userId", uid), zap.Error(err))
	}
	return user, nil
}

// BatchApprove approves each UID independently and reports per-item outcomes.
// A failure on one user never rolls back or stops the others.
func (s *userService) BatchApprove(ctx context.Context, uids []string, estateID, approverID string) *BatchResult {
	result := &BatchResult{Succeeded: make([]string, 0, len(uids)), Failed: make(map[string]string)}
	for _, uid := range uids {
		if _, err := s.ApproveUserWithEstate(ctx, uid, estateID, approverID, false); err != nil {
			result.Failed[uid] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, uid)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}

// BatchReject rejects each UID independently with one shared reason.
func (s *userService) BatchReject(ctx context.Context, uids []string, approverID, reason string) *BatchResult {
	result := &BatchResult{Succeeded: make([]string, 0, len(uids)), Failed: make(map[string]string)}
	for _, uid := range uids {
		if _, err := s.RejectUser(ctx, uid, approverID, reason); err != nil {
			result.Failed[uid] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, uid)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}

// ChangeRole is admin-only. The estate binding is reshaped to fit the new
// role: estate-scoped roles must name an estate, the admin role must not.
func (s *userService) ChangeRole(ctx context.Context, uid string, newRole models.Role, estateID, adminID string) (*models.User, error) {
	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.Role != models.RoleAdmin || admin.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: only an admin may change roles", ErrUnauthorized)
	}
	if !newRole.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, newRole)
	}

	user, err := s.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	oldRole := user.Role

	user.Role = newRole
	switch {
	case newRole == models.RoleAdmin:
		user.EstateID = ""
	case estateID != "":
		if _, err := s.estates.GetByID(ctx, estateID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("%w: estate %q", ErrNotFound, estateID)
			}
			return nil, err
		}
		user.EstateID = estateID
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to change role of user %q: %w", uid, err)
	}

	s.security.LogEvent(ctx, models.EventUserRoleChanged, uid, "", "", map[string]interface{}{
		"changedBy": adminID,
		"from":      string(oldRole),
		"to":        string(newRole),
	})
	return user, nil
}
