package db

import (
	"context"
	"errors"
	"fmt"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbAccessCodeRepository struct {
	client *rtdb.Client
}

// NewAccessCodeRepository creates a Realtime Database backed AccessCodeRepository.
func NewAccessCodeRepository(client *rtdb.Client) AccessCodeRepository {
	return &rtdbAccessCodeRepository{client: client}
}

func (r *rtdbAccessCodeRepository) codeRef(codeID string) *rtdb.Ref {
	return r.client.NewRef(accessCodesPath).Child(codeID)
}

func (r *rtdbAccessCodeRepository) indexRef(codeText string) *rtdb.Ref {
	return r.client.NewRef(accessCodeIndex).Child(codeText)
}

// Create reserves the code text in accessCodeIndex inside a transaction, then
// writes the code record. The transaction is what makes code text unique:
// two concurrent creates with the same text cannot both see an empty slot.
func (r *rtdbAccessCodeRepository) Create(ctx context.Context, code *models.AccessCode) error {
	if code.ID == "" || code.Code == "" {
		return errors.New("access code ID and text cannot be empty for Create")
	}

	err := r.indexRef(code.Code).Transaction(ctx, func(tn rtdb.TransactionNode) (interface{}, error) {
		var existing string
		if err := tn.Unmarshal(&existing); err != nil {
			return nil, err
		}
		if existing != "" && existing != code.ID {
			return nil, ErrCodeTaken
		}
		return code.ID, nil
	})
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return fmt.Errorf("code %q: %w", code.Code, ErrCodeTaken)
		}
		return fmt.Errorf("failed to reserve code %q: %w", code.Code, err)
	}

	if err := r.codeRef(code.ID).Set(ctx, code); err != nil {
		// Free the reservation so the text can be reused; a dangling index
		// entry would otherwise block the code text forever.
		_ = r.indexRef(code.Code).Delete(ctx)
		return fmt.Errorf("failed to write access code %q: %w", code.ID, err)
	}
	return nil
}

func (r *rtdbAccessCodeRepository) GetByID(ctx context.Context, codeID string) (*models.AccessCode, error) {
	if codeID == "" {
		return nil, errors.New("codeID cannot be empty for GetByID")
	}
	var code models.AccessCode
	if err := r.codeRef(codeID).Get(ctx, &code); err != nil {
		return nil, fmt.Errorf("failed to get access code %q: %w", codeID, err)
	}
	if code.ID == "" {
		return nil, fmt.Errorf("access code %q: %w", codeID, ErrNotFound)
	}
	return &code, nil
}

func (r *rtdbAccessCodeRepository) GetByCode(ctx context.Context, codeText string) (*models.AccessCode, error) {
	if codeText == "" {
		return nil, errors.New("codeText cannot be empty for GetByCode")
	}
	var codeID string
	if err := r.indexRef(codeText).Get(ctx, &codeID); err != nil {
		return nil, fmt.Errorf("failed to look up code %q: %w", codeText, err)
	}
	if codeID == "" {
		return nil, fmt.Errorf("code %q: %w", codeText, ErrNotFound)
	}
	return r.GetByID(ctx, codeID)
}

func (r *rtdbAccessCodeRepository) ListByResident(ctx context.Context, residentID string) ([]*models.AccessCode, error) {
	nodes, err := r.client.NewRef(accessCodesPath).
		OrderByChild("residentId").
		EqualTo(residentID).
		GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list access codes for resident %q: %w", residentID, err)
	}
	codes := make([]*models.AccessCode, 0, len(nodes))
	for _, node := range nodes {
		var code models.AccessCode
		if err := node.Unmarshal(&code); err != nil {
			return nil, fmt.Errorf("failed to decode access code %q: %w", node.Key(), err)
		}
		codes = append(codes, &code)
	}
	return codes, nil
}

// IncrementUsage bumps the usage counter in a transaction and returns the new
// count. Concurrent verifications each get a distinct count.
func (r *rtdbAccessCodeRepository) IncrementUsage(ctx context.Context, codeID string) (int, error) {
	var newCount int
	err := r.codeRef(codeID).Child("usageCount").Transaction(ctx, func(tn rtdb.TransactionNode) (interface{}, error) {
		var current int
		if err := tn.Unmarshal(&current); err != nil {
			return nil, err
		}
		newCount = current + 1
		return newCount, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage for access code %q: %w", codeID, err)
	}
	return newCount, nil
}

func (r *rtdbAccessCodeRepository) Deactivate(ctx context.Context, codeID string) error {
	if codeID == "" {
		return errors.New("codeID cannot be empty for Deactivate")
	}
	if err := r.codeRef(codeID).Update(ctx, map[string]interface{}{"isActive": false}); err != nil {
		return fmt.Errorf("failed to deactivate access code %q: %w", codeID, err)
	}
	return nil
}
