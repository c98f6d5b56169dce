package store

import (
	"context"
	"sync"

	"alertcast/internal/alert/models"
)

// MemoryAlertStore implements AlertStore over mutex-guarded maps. Suitable
// for a single process; use the Postgres store for anything shared.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[int64]*models.Alert
	nextID int64
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{
		alerts: make(map[int64]*models.Alert),
		nextID: 1,
	}
}

func (s *MemoryAlertStore) Create(_ context.Context, alert *models.Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *alert
	stored.ID = s.nextID
	s.nextID++
	s.alerts[stored.ID] = &stored
	return stored.ID, nil
}

func (s *MemoryAlertStore) Get(_ context.Context, id int64) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *alert
	return &copied, nil
}

func (s *MemoryAlertStore) List(_ context.Context) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Alert, 0, len(s.alerts))
	for id := int64(1); id < s.nextID; id++ {
		if alert, ok := s.alerts[id]; ok {
			copied := *alert
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *MemoryAlertStore) ListByCategory(ctx context.Context, category models.Category) ([]*models.Alert, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, alert := range all {
		if alert.Category == category {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (s *MemoryAlertStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts), nil
}

func (s *MemoryAlertStore) CompleteDistribution(_ context.Context, id int64, totalEligible uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return ErrNotFound
	}
	if alert.DistributionCompleted {
		return ErrInvalidState
	}
	alert.DistributionCompleted = true
	alert.TotalEligible = &totalEligible
	return nil
}

func (s *MemoryAlertStore) SetImpactScore(_ context.Context, id int64, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.ImpactScore = &score
	return nil
}

func (s *MemoryAlertStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.Active = false
	return nil
}

// MemoryInteractionStore tracks views and acknowledgments in memory. The
// mutex serializes duplicate acknowledgments so exactly one wins.
type MemoryInteractionStore struct {
	mu    sync.Mutex
	views map[int64]uint64
	acks  map[int64]map[string]struct{}
}

func NewMemoryInteractionStore() *MemoryInteractionStore {
	return &MemoryInteractionStore{
		views: make(map[int64]uint64),
		acks:  make(map[int64]map[string]struct{}),
	}
}

func (s *MemoryInteractionStore) RecordView(_ context.Context, alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[alertID]++
	return nil
}

func (s *MemoryInteractionStore) Acknowledge(_ context.Context, alertID int64, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.acks[alertID]
	if users == nil {
		users = make(map[string]struct{})
		s.acks[alertID] = users
	}
	if _, ok := users[user]; ok {
		return ErrAlreadyExists
	}
	users[user] = struct{}{}
	return nil
}

func (s *MemoryInteractionStore) HasAcknowledged(_ context.Context, alertID int64, user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.acks[alertID][user]
	return ok, nil
}

func (s *MemoryInteractionStore) Counts(_ context.Context, alertID int64) (uint64, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[alertID], uint64(len(s.acks[alertID])), nil
}

// MemoryPreferenceStore keeps one preference record per user.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]*models.UserPreference
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{prefs: make(map[string]*models.UserPreference)}
}

func (s *MemoryPreferenceStore) Set(_ context.Context, pref *models.UserPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *pref
	copied.SubscribedCategories = append([]models.Category(nil), pref.SubscribedCategories...)
	s.prefs[pref.User] = &copied
	return nil
}

func (s *MemoryPreferenceStore) Get(_ context.Context, user string) (*models.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.prefs[user]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *pref
	copied.SubscribedCategories = append([]models.Category(nil), pref.SubscribedCategories...)
	return &copied, nil
}

// MemoryTierStore records admin-assigned tiers.
type MemoryTierStore struct {
	mu    sync.RWMutex
	tiers map[string]models.Tier
}

func NewMemoryTierStore() *MemoryTierStore {
	return &MemoryTierStore{tiers: make(map[string]models.Tier)}
}

func (s *MemoryTierStore) Set(_ context.Context, user string, tier models.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[user] = tier
	return nil
}

func (s *MemoryTierStore) Get(_ context.Context, user string) (models.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tier, ok := s.tiers[user]
	if !ok {
		return "", ErrNotFound
	}
	return tier, nil
}

// MemoryAdminStore holds the admin principal with CAS transfer semantics.
type MemoryAdminStore struct {
	mu    sync.RWMutex
	admin string
}

// NewMemoryAdminStore seeds the store with the deployment-time owner.
func NewMemoryAdminStore(initial string) *MemoryAdminStore {
	return &MemoryAdminStore{admin: initial}
}

func (s *MemoryAdminStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, nil
}

func (s *MemoryAdminStore) Transfer(_ context.Context, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.admin != current {
		return ErrInvalidState
	}
	s.admin = next
	return nil
}
