package db

import (
	"context"
	"errors"
	"fmt"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbEstateRepository struct {
	client *rtdb.Client
}

// NewEstateRepository creates a Realtime Database backed EstateRepository.
func NewEstateRepository(client *rtdb.Client) EstateRepository {
	return &rtdbEstateRepository{client: client}
}

func (r *rtdbEstateRepository) Create(ctx context.Context, estate *models.Estate) error {
	if estate.ID == "" {
		return errors.New("estate ID cannot be empty for Create")
	}
	if err := r.client.NewRef(estatesPath).Child(estate.ID).Set(ctx, estate); err != nil {
		return fmt.Errorf("failed to create estate %q: %w", estate.ID, err)
	}
	return nil
}

func (r *rtdbEstateRepository) GetByID(ctx context.Context, estateID string) (*models.Estate, error) {
	if estateID == "" {
		return nil, errors.New("estateID cannot be empty for GetByID")
	}
	var estate models.Estate
	if err := r.client.NewRef(estatesPath).Child(estateID).Get(ctx, &estate); err != nil {
		return nil, fmt.Errorf("failed to get estate %q: %w", estateID, err)
	}
	if estate.ID == "" {
		return nil, fmt.Errorf("estate %q: %w", estateID, ErrNotFound)
	}
	return &estate, nil
}

func (r *rtdbEstateRepository) List(ctx context.Context) ([]*models.Estate, error) {
	var raw map[string]*models.Estate
	if err := r.client.NewRef(estatesPath).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to list estates: %w", err)
	}
	estates := make([]*models.Estate, 0, len(raw))
	for _, estate := range raw {
		estates = append(estates, estate)
	}
	return estates, nil
}

func (r *rtdbEstateRepository) Update(ctx context.Context, estate *models.Estate) error {
	if estate.ID == "" {
		return errors.New("estate ID cannot be empty for Update")
	}
	if err := r.client.NewRef(estatesPath).Child(estate.ID).Set(ctx, estate); err != nil {
		return fmt.Errorf("failed to update estate %q: %w", estate.ID, err)
	}
	return nil
}
