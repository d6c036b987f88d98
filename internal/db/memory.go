package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"musa-backend-go/internal/models"
)

// In-memory repository implementations. They back the service tests and the
// local development mode, and honour the same atomicity contracts as the
// Realtime Database implementations (mutexes in place of transactions).

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %q already exists", user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, uid string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[uid]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", uid, ErrNotFound)
	}
	return &user, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %q: %w", user.ID, ErrNotFound)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) ListByStatus(_ context.Context, status models.UserStatus) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.User
	for _, user := range r.users {
		if user.Status == status {
			u := user
			out = append(out, &u)
		}
	}
	return out, nil
}

type MemoryEstateRepository struct {
	mu      sync.RWMutex
	estates map[string]models.Estate
}

func NewMemoryEstateRepository() *MemoryEstateRepository {
	return &MemoryEstateRepository{estates: make(map[string]models.Estate)}
}

func (r *MemoryEstateRepository) Create(_ context.Context, estate *models.Estate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.estates[estate.ID] = *estate
	return nil
}

func (r *MemoryEstateRepository) GetByID(_ context.Context, estateID string) (*models.Estate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	estate, ok := r.estates[estateID]
	if !ok {
		return nil, fmt.Errorf("estate %q: %w", estateID, ErrNotFound)
	}
	return &estate, nil
}

func (r *MemoryEstateRepository) List(_ context.Context) ([]*models.Estate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Estate, 0, len(r.estates))
	for _, estate := range r.estates {
		e := estate
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryEstateRepository) Update(_ context.Context, estate *models.Estate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.estates[estate.ID]; !ok {
		return fmt.Errorf("estate %q: %w", estate.ID, ErrNotFound)
	}
	r.estates[estate.ID] = *estate
	return nil
}

type MemoryHouseholdRepository struct {
	mu         sync.RWMutex
	households map[string]models.Household
}

func NewMemoryHouseholdRepository() *MemoryHouseholdRepository {
	return &MemoryHouseholdRepository{households: make(map[string]models.Household)}
}

func copyHousehold(h models.Household) models.Household {
	members := make(map[string]bool, len(h.Members))
	for k, v := range h.Members {
		members[k] = v
	}
	h.Members = members
	return h
}

func (r *MemoryHouseholdRepository) Create(_ context.Context, household *models.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.households[household.ID] = copyHousehold(*household)
	return nil
}

func (r *MemoryHouseholdRepository) GetByID(_ context.Context, householdID string) (*models.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	household, ok := r.households[householdID]
	if !ok {
		return nil, fmt.Errorf("household %q: %w", householdID, ErrNotFound)
	}
	h := copyHousehold(household)
	return &h, nil
}

func (r *MemoryHouseholdRepository) Update(_ context.Context, household *models.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.households[household.ID]; !ok {
		return fmt.Errorf("household %q: %w", household.ID, ErrNotFound)
	}
	r.households[household.ID] = copyHousehold(*household)
	return nil
}

type MemoryAccessCodeRepository struct {
	mu     sync.Mutex
	codes  map[string]models.AccessCode // by ID
	byText map[string]string            // code text -> ID
}

func NewMemoryAccessCodeRepository() *MemoryAccessCodeRepository {
	return &MemoryAccessCodeRepository{
		codes:  make(map[string]models.AccessCode),
		byText: make(map[string]string),
	}
}

func (r *MemoryAccessCodeRepository) Create(_ context.Context, code *models.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byText[code.Code]; taken {
		return fmt.Errorf("code %q: %w", code.Code, ErrCodeTaken)
	}
	r.byText[code.Code] = code.ID
	r.codes[code.ID] = *code
	return nil
}

func (r *MemoryAccessCodeRepository) GetByID(_ context.Context, codeID string) (*models.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[codeID]
	if !ok {
		return nil, fmt.Errorf("access code %q: %w", codeID, ErrNotFound)
	}
	return &code, nil
}

func (r *MemoryAccessCodeRepository) GetByCode(_ context.Context, codeText string) (*models.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byText[codeText]
	if !ok {
		return nil, fmt.Errorf("code %q: %w", codeText, ErrNotFound)
	}
	code := r.codes[id]
	return &code, nil
}

func (r *MemoryAccessCodeRepository) ListByResident(_ context.Context, residentID string) ([]*models.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AccessCode
	for _, code := range r.codes {
		if code.ResidentID == residentID {
			c := code
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryAccessCodeRepository) IncrementUsage(_ context.Context, codeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[codeID]
	if !ok {
		return 0, fmt.Errorf("access code %q: %w", codeID, ErrNotFound)
	}
	code.UsageCount++
	r.codes[codeID] = code
	return code.UsageCount, nil
}

func (r *MemoryAccessCodeRepository) Deactivate(_ context.Context, codeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[codeID]
	if !ok {
		return fmt.Errorf("access code %q: %w", codeID, ErrNotFound)
	}
	code.IsActive = false
	r.codes[codeID] = code
	return nil
}

type MemoryInviteRepository struct {
	mu      sync.Mutex
	invites map[string]models.HouseholdInvite
}

func NewMemoryInviteRepository() *MemoryInviteRepository {
	return &MemoryInviteRepository{invites: make(map[string]models.HouseholdInvite)}
}

func (r *MemoryInviteRepository) Create(_ context.Context, invite *models.HouseholdInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invites[invite.ID] = *invite
	return nil
}

func (r *MemoryInviteRepository) GetByID(_ context.Context, inviteID string) (*models.HouseholdInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[inviteID]
	if !ok {
		return nil, fmt.Errorf("invite %q: %w", inviteID, ErrNotFound)
	}
	return &invite, nil
}

func (r *MemoryInviteRepository) ListByEmail(_ context.Context, normalizedEmail string) ([]*models.HouseholdInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.HouseholdInvite
	for _, invite := range r.invites {
		if strings.EqualFold(invite.Email, normalizedEmail) {
			i := invite
			out = append(out, &i)
		}
	}
	return out, nil
}

func (r *MemoryInviteRepository) ListByHousehold(_ context.Context, householdID string) ([]*models.HouseholdInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.HouseholdInvite
	for _, invite := range r.invites {
		if invite.HouseholdID == householdID {
			i := invite
			out = append(out, &i)
		}
	}
	return out, nil
}

func (r *MemoryInviteRepository) UpdateStatus(_ context.Context, inviteID string, from, to models.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[inviteID]
	if !ok {
		return fmt.Errorf("invite %q: %w", inviteID, ErrNotFound)
	}
	if invite.Status != from {
		return fmt.Errorf("%w: expected %q, found %q", ErrStaleStatus, from, invite.Status)
	}
	invite.Status = to
	r.invites[inviteID] = invite
	return nil
}

type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]models.Device
}

func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{devices: make(map[string]models.Device)}
}

func (r *MemoryDeviceRepository) Create(_ context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.ID] = *device
	return nil
}

func (r *MemoryDeviceRepository) GetByID(_ context.Context, deviceID string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}
	return &device, nil
}

func (r *MemoryDeviceRepository) ListByUser(_ context.Context, userID string) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Device
	for _, device := range r.devices {
		if device.UserID == userID {
			d := device
			out = append(out, &d)
		}
	}
	return out, nil
}

func (r *MemoryDeviceRepository) Update(_ context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.ID]; !ok {
		return fmt.Errorf("device %q: %w", device.ID, ErrNotFound)
	}
	r.devices[device.ID] = *device
	return nil
}

func (r *MemoryDeviceRepository) TouchLastUsed(_ context.Context, deviceID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}
	device.LastUsed = at
	r.devices[deviceID] = device
	return nil
}

type MemoryDeviceTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]models.DeviceApprovalToken // by token text
}

func NewMemoryDeviceTokenRepository() *MemoryDeviceTokenRepository {
	return &MemoryDeviceTokenRepository{tokens: make(map[string]models.DeviceApprovalToken)}
}

func (r *MemoryDeviceTokenRepository) Create(_ context.Context, token *models.DeviceApprovalToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = *token
	return nil
}

func (r *MemoryDeviceTokenRepository) Get(_ context.Context, tokenText string) (*models.DeviceApprovalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenText]
	if !ok {
		return nil, fmt.Errorf("approval token: %w", ErrNotFound)
	}
	return &token, nil
}

// Redeem holds the lock across the check and the flip, mirroring the
// transaction in the Realtime Database implementation.
func (r *MemoryDeviceTokenRepository) Redeem(_ context.Context, tokenText string) (*models.DeviceApprovalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenText]
	if !ok {
		return nil, fmt.Errorf("approval token: %w", ErrNotFound)
	}
	if token.Used {
		return nil, ErrTokenUsed
	}
	token.Used = true
	r.tokens[tokenText] = token
	return &token, nil
}

type MemorySecurityLogRepository struct {
	mu      sync.Mutex
	entries []models.SecurityLog
}

func NewMemorySecurityLogRepository() *MemorySecurityLogRepository {
	return &MemorySecurityLogRepository{}
}

func (r *MemorySecurityLogRepository) Append(_ context.Context, entry *models.SecurityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemorySecurityLogRepository) ListRecentByUser(_ context.Context, userID string, limit int) ([]*models.SecurityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SecurityLog
	for i := range r.entries {
		if r.entries[i].UserID == userID {
			e := r.entries[i]
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemoryGuardActivityRepository struct {
	mu      sync.Mutex
	entries []models.GuardActivity
}

func NewMemoryGuardActivityRepository() *MemoryGuardActivityRepository {
	return &MemoryGuardActivityRepository{}
}

func (r *MemoryGuardActivityRepository) Append(_ context.Context, entry *models.GuardActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryGuardActivityRepository) ListByGuard(_ context.Context, guardID string, limit int) ([]*models.GuardActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GuardActivity
	for i := range r.entries {
		if r.entries[i].GuardID == guardID {
			e := r.entries[i]
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryGuardActivityRepository) StatsSince(_ context.Context, guardID string, since time.Time) (*models.GuardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.GuardStats{}
	for i := range r.entries {
		entry := &r.entries[i]
		if entry.GuardID != guardID || entry.Timestamp.Before(since) {
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
