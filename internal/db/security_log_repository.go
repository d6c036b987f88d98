package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	rtdb "firebase.google.com/go/v4/db"

	"musa-backend-go/internal/models"
)

type rtdbSecurityLogRepository struct {
	client *rtdb.Client
}

// NewSecurityLogRepository creates a Realtime Database backed SecurityLogRepository.
func NewSecurityLogRepository(client *rtdb.Client) SecurityLogRepository {
	return &rtdbSecurityLogRepository{client: client}
}

func (r *rtdbSecurityLogRepository) Append(ctx context.Context, entry *models.SecurityLog) error {
	if entry.ID == "" {
		return errors.New("security log entry ID cannot be empty")
	}
	if err := r.client.NewRef(securityLogsPath).Child(entry.ID).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to append security log %q: %w", entry.Event, err)
	}
	return nil
}

func (r *rtdbSecurityLogRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*models.SecurityLog, error) {
	nodes, err := r.client.NewRef(securityLogsPath).
		OrderByChild("userId").
		EqualTo(userID).
		GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list security logs for user %q: %w", userID, err)
	}
	entries := make([]*models.SecurityLog, 0, len(nodes))
	for _, node := range nodes {
		var entry models.SecurityLog
		if err := node.Unmarshal(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode security log %q: %w", node.Key(), err)
		}
		entries = append(entries, &entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type rtdbGuardActivityRepository struct {
	client *rtdb.Client
}

// NewGuardActivityRepository creates a Realtime Database backed GuardActivityRepository.
func NewGuardActivityRepository(client *rtdb.Client) GuardActivityRepository {
	return &rtdbGuardActivityRepository{client: client}
}

func (r *rtdbGuardActivityRepository) Append(ctx context.Context, entry *models.GuardActivity) error {
	if entry.ID == "" {
		return errors.New("guard activity entry ID cannot be empty")
	}
	if err := r.client.NewRef(guardActivityPath).Child(entry.ID).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to append guard activity: %w", err)
	}
	return nil
}

func (r *rtdbGuardActivityRepository) listByGuard(ctx context.Context, guardID string) ([]*models.GuardActivity, error) {
	nodes, err := r.client.NewRef(guardActivityPath).
		OrderByChild("guardId").
		EqualTo(guardID).
		GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guard activity for %q: %w", guardID, err)
	}
	entries := make([]*models.GuardActivity, 0, len(nodes))
	for _, node := range nodes {
		var entry models.GuardActivity
		if err := node.Unmarshal(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode guard activity %q: %w", node.Key(), err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *rtdbGuardActivityRepository) ListByGuard(ctx context.Context, guardID string, limit int) ([]*models.GuardActivity, error) {
	entries, err := r.listByGuard(ctx, guardID)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *rtdbGuardActivityRepository) StatsSince(ctx context.Context, guardID string, since time.Time) (*models.GuardStats, error) {
	entries, err := r.listByGuard(ctx, guardID)
	if err != nil {
		return nil, err
	}
	stats := &models.GuardStats{}
	for _, entry := range entries {
		if entry.Timestamp.Before(since) {
			continue
		}
		if entry.Granted {
			stats.GrantedToday++
		} else {
			stats.DeniedToday++
		}
	}
	return stats, nil
}
