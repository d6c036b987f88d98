package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/events"
	"musa-backend-go/internal/models"
)

type securityService struct {
	logs      db.SecurityLogRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       Clock
}

// NewSecurityService creates the audit trail writer. Entries go to the
// security log and, best-effort, out on the event queue.
func NewSecurityService(logs db.SecurityLogRepository, publisher events.Publisher, logger *zap.Logger) SecurityService {
	return &securityService{
		logs:      logs,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent appends to the trail. It deliberately returns nothing: audit
// logging never fails the operation being audited, a lost entry is logged
// and the caller moves on.
func (s *securityService) LogEvent(ctx context.Context, event, userID, deviceID, ip string, details map[string]interface{}) {
	entry := &models.SecurityLog{
		ID:        uuid.NewString(),
		Event:     event,
		UserID:    userID,
		DeviceID:  deviceID,
		IPAddress: ip,
		Details:   details,
		Timestamp: s.now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append security log entry",
			zap.String("event", event),
			zap.String("userId", userID),
			zap.Error(err))
	}
	if err := s.publisher.Publish(event, entry); err != nil {
		s.logger.Warn("failed to publish security event",
			zap.String("event", event),
			zap.Error(err))
	}
}

func (s *securityService) RecentByUser(ctx context.Context, userID string, limit int) ([]*models.SecurityLog, error) {
	return s.logs.ListRecentByUser(ctx, userID, limit)
}
