package db

import (
	"context"
	"errors"
	"fmt"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

// rtdbUserRepository implements UserRepository against the Realtime Database.
type rtdbUserRepository struct {
	client *rtdb.Client
}

// NewUserRepository creates a Realtime Database backed UserRepository.
func NewUserRepository(client *rtdb.Client) UserRepository {
	return &rtdbUserRepository{client: client}
}

func (r *rtdbUserRepository) ref(uid string) *rtdb.Ref {
	return r.client.NewRef(usersPath).Child(uid)
}

func (r *rtdbUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create")
	}
	// First-write-wins: a profile may already exist if two clients race the
	// initialize call after sign-up. Creating over an existing record would
	// silently reset approval state, so check first.
	existing, err := r.GetByID(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user %q already exists", user.ID)
	}
	if err := r.ref(user.ID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.ID, err)
	}
	return nil
}

func (r *rtdbUserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID")
	}
	var user models.User
	if err := r.ref(uid).Get(ctx, &user); err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", uid, err)
	}
	// A missing path unmarshals to the zero value rather than erroring.
	if user.ID == "" {
		return nil, fmt.Errorf("user %q: %w", uid, ErrNotFound)
	}
	return &user, nil
}

func (r *rtdbUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update")
	}
	if err := r.ref(user.ID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to update user %q: %w", user.ID, err)
	}
	return nil
}

func (r *rtdbUserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error) {
	nodes, err := r.client.NewRef(usersPath).
		OrderByChild("status").
		EqualTo(string(status)).
		GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with status %q: %w", status, err)
	}
	users := make([]*models.User, 0, len(nodes))
	for _, node := range nodes {
		var user models.User
		if err := node.Unmarshal(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user %q: %w", node.Key(), err)
		}
		users = append(users, &user)
	}
	return users, nil
}
