package db

import (
	"context"
	"errors"
	"fmt"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbHouseholdRepository struct {
	client *rtdb.Client
}

// NewHouseholdRepository creates a Realtime Database backed HouseholdRepository.
func NewHouseholdRepository(client *rtdb.Client) HouseholdRepository {
	return &rtdbHouseholdRepository{client: client}
}

func (r *rtdbHouseholdRepository) Create(ctx context.Context, household *models.Household) error {
	if household.ID == "" {
		return errors.New("household ID cannot be empty for Create")
	}
	if err := r.client.NewRef(householdsPath).Child(household.ID).Set(ctx, household); err != nil {
		return fmt.Errorf("failed to create household %q: %w", household.ID, err)
	}
	return nil
}

func (r *rtdbHouseholdRepository) GetByID(ctx context.Context, householdID string) (*models.Household, error) {
	if householdID == "" {
		return nil, errors.New("householdID cannot be empty for GetByID")
	}
	var household models.Household
	if err := r.client.NewRef(householdsPath).Child(householdID).Get(ctx, &household); err != nil {
		return nil, fmt.Errorf("failed to get household %q: %w", householdID, err)
	}
	if household.ID == "" {
		return nil, fmt.Errorf("household %q: %w", householdID, ErrNotFound)
	}
	return &household, nil
}

func (r *rtdbHouseholdRepository) Update(ctx context.Context, household *models.Household) error {
	if household.ID == "" {
		return errors.New("household ID cannot be empty for Update")
	}
	if err := r.client.NewRef(householdsPath).Child(household.ID).Set(ctx, household); err != nil {
		return fmt.Errorf("failed to update household %q: %w", household.ID, err)
	}
	return nil
}
