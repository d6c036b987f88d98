package db

import (
	"context"
	"errors"
	"fmt"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbInviteRepository struct {
	client *rtdb.Client
}

// NewInviteRepository creates a Realtime Database backed InviteRepository.
func NewInviteRepository(client *rtdb.Client) InviteRepository {
	return &rtdbInviteRepository{client: client}
}

func (r *rtdbInviteRepository) inviteRef(inviteID string) *rtdb.Ref {
	return r.client.NewRef(invitesPath).Child(inviteID)
}

// Create writes the invite and its entry in the email index. The index lets
// a signed-in user find invites addressed to them without scanning all
// invites. Email index keys are the normalized address with dots replaced,
// since RTDB keys cannot contain '.'.
func (r *rtdbInviteRepository) Create(ctx context.Context, invite *models.HouseholdInvite) error {
	if invite.ID == "" {
		return errors.New("invite ID cannot be empty for Create")
	}
	if err := r.inviteRef(invite.ID).Set(ctx, invite); err != nil {
		return fmt.Errorf("failed to create invite %q: %w", invite.ID, err)
	}
	indexKey := emailIndexKey(invite.Email)
	if err := r.client.NewRef(invitesByEmailPath).Child(indexKey).Child(invite.ID).Set(ctx, true); err != nil {
		return fmt.Errorf("failed to index invite %q by email: %w", invite.ID, err)
	}
	return nil
}

func (r *rtdbInviteRepository) GetByID(ctx context.Context, inviteID string) (*models.HouseholdInvite, error) {
	if inviteID == "" {
		return nil, errors.New("inviteID cannot be empty for GetByID")
	}
	var invite models.HouseholdInvite
	if err := r.inviteRef(inviteID).Get(ctx, &invite); err != nil {
		return nil, fmt.Errorf("failed to get invite %q: %w", inviteID, err)
	}
	if invite.ID == "" {
		return nil, fmt.Errorf("invite %q: %w", inviteID, ErrNotFound)
	}
	return &invite, nil
}

func (r *rtdbInviteRepository) ListByEmail(ctx context.Context, normalizedEmail string) ([]*models.HouseholdInvite, error) {
	var ids map[string]bool
	indexKey := emailIndexKey(normalizedEmail)
	if err := r.client.NewRef(invitesByEmailPath).Child(indexKey).Get(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to read invite index for %q: %w", normalizedEmail, err)
	}
	invites := make([]*models.HouseholdInvite, 0, len(ids))
	for id := range ids {
		invite, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // index entry outlived the invite
			}
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

func (r *rtdbInviteRepository) ListByHousehold(ctx context.Context, householdID string) ([]*models.HouseholdInvite, error) {
	nodes, err := r.client.NewRef(invitesPath).
		OrderByChild("householdId").
		EqualTo(householdID).
		GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for household %q: %w", householdID, err)
	}
	invites := make([]*models.HouseholdInvite, 0, len(nodes))
	for _, node := range nodes {
		var invite models.HouseholdInvite
		if err := node.Unmarshal(&invite); err != nil {
			return nil, fmt.Errorf("failed to decode invite %q: %w", node.Key(), err)
		}
		invites = append(invites, &invite)
	}
	return invites, nil
}

// UpdateStatus flips the invite status only if it still holds the expected
// value. The transaction makes accept/reject a compare-and-swap: of two
// concurrent acceptances, exactly one wins.
func (r *rtdbInviteRepository) UpdateStatus(ctx context.Context, inviteID string, from, to models.InviteStatus) error {
	err := r.inviteRef(inviteID).Child("status").Transaction(ctx, func(tn rtdb.TransactionNode) (interface{}, error) {
		var current string
		if err := tn.Unmarshal(&current); err != nil {
			return nil, err
		}
		if current != string(from) {
			return nil, fmt.Errorf("%w: expected %q, found %q", ErrStaleStatus, from, current)
		}
		return string(to), nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return err
		}
		return fmt.Errorf("failed to update status of invite %q: %w", inviteID, err)
	}
	return nil
}

// emailIndexKey makes a normalized email safe for use as an RTDB key.
func emailIndexKey(email string) string {
	key := make([]rune, 0, len(email))
	for _, c := range email {
		switch c {
		case '.', '#', '$', '[', ']', '/':
			key = append(key, ',')
		default:
			key = append(key, c)
		}
	}
	return string(key)
}
