package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/models"
)

// Shared fixtures for the service tests. Repositories come from the in-memory
// implementations in internal/db; the side-channel collaborators (mail, rate
// limiting, event publishing) are recorded here so tests can assert on them.

type testRepos struct {
	users         *db.MemoryUserRepository
	estates       *db.MemoryEstateRepository
	households    *db.MemoryHouseholdRepository
	codes         *db.MemoryAccessCodeRepository
	invites       *db.MemoryInviteRepository
	devices       *db.MemoryDeviceRepository
	tokens        *db.MemoryDeviceTokenRepository
	securityLogs  *db.MemorySecurityLogRepository
	guardActivity *db.MemoryGuardActivityRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:         db.NewMemoryUserRepository(),
		estates:       db.NewMemoryEstateRepository(),
		households:    db.NewMemoryHouseholdRepository(),
		codes:         db.NewMemoryAccessCodeRepository(),
		invites:       db.NewMemoryInviteRepository(),
		devices:       db.NewMemoryDeviceRepository(),
		tokens:        db.NewMemoryDeviceTokenRepository(),
		securityLogs:  db.NewMemorySecurityLogRepository(),
		guardActivity: db.NewMemoryGuardActivityRepository(),
	}
}

// recordingNotifier captures outbound mail instead of sending it.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string // "kind:to"
	links []string
}

func (n *recordingNotifier) record(kind, to, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind+":"+to)
	if link != "" {
		n.links = append(n.links, link)
	}
}

func (n *recordingNotifier) SendUserApproved(_ context.Context, to, _, _ string) error {
	n.record("approved", to, "")
	return nil
}

func (n *recordingNotifier) SendUserRejected(_ context.Context, to, _, _ string) error {
	n.record("rejected", to, "")
	return nil
}

func (n *recordingNotifier) SendHouseholdInvitation(_ context.Context, to, _, link string) error {
	n.record("invitation", to, link)
	return nil
}

func (n *recordingNotifier) SendDeviceApproval(_ context.Context, to, link, _ string) error {
	n.record("device", to, link)
	return nil
}

// stubLimiter answers a scripted sequence of allow/deny decisions.
type stubLimiter struct {
	mu      sync.Mutex
	answers []bool
}

func (l *stubLimiter) Allow(_ context.Context, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.answers) == 0 {
		return true, nil
	}
	answer := l.answers[0]
	l.answers = l.answers[1:]
	return answer, nil
}

// nopEventPublisher drops events; the security log repository still records them.
type nopEventPublisher struct{}

func (nopEventPublisher) Publish(string, interface{}) error { return nil }
func (nopEventPublisher) Close() error                      { return nil }

func testLogger() *zap.Logger { return zap.NewNop() }

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// seedApprovedUser creates an approved user directly in the repository.
func seedApprovedUser(repos *testRepos, uid, email string, role models.Role, estateID string) *models.User {
	user := &models.User{
		ID:        uid,
		Email:     email,
		Role:      role,
		Status:    models.StatusApproved,
		EstateID:  estateID,
		CreatedAt: time.Now().UTC(),
	}
	_ = repos.users.Create(context.Background(), user)
	return user
}

// seedHousehold creates a household with the given head and members and links
// their user records.
func seedHousehold(repos *testRepos, id, name, headID string, memberIDs ...string) *models.Household {
	members := map[string]bool{headID: true}
	for _, m := range memberIDs {
		members[m] = true
	}
	household := &models.Household{
		ID:        id,
		Name:      name,
		HeadID:    headID,
		Members:   members,
		Address:   "12 Palm Street",
		City:      "Lekki",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_ = repos.households.Create(context.Background(), household)
	for uid := range members {
		if user, err := repos.users.GetByID(context.Background(), uid); err == nil {
			user.HouseholdID = id
			user.IsHouseholdHead = uid == headID
			_ = repos.users.Update(context.Background(), user)
		}
	}
	return household
}
