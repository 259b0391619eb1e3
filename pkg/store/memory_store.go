package store

import (
	"sort"
	"sync"
	"time"

	"sorriai/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs engine tests and local
// development without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	email      map[string]string // email -> user ID
	onboarding map[string]domain.Onboarding
	scripts    map[string]domain.Script
	order      []string // script insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		email:      make(map[string]string),
		onboarding: make(map[string]domain.Onboarding),
		scripts:    make(map[string]domain.Script),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) UpdateUserFields(id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	applyUserFields(&u, fields)
	m.users[id] = u
	return nil
}

func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) SaveOnboarding(o domain.Onboarding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onboarding[o.UserID] = o
	return nil
}

func (m *MemoryStore) GetOnboarding(userID string) (domain.Onboarding, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.onboarding[userID]
	return o, ok, nil
}

func (m *MemoryStore) CreateScripts(scripts []domain.Script) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range scripts {
		if _, exists := m.scripts[s.ID]; !exists {
			m.order = append(m.order, s.ID)
		}
		m.scripts[s.ID] = s
	}
	return nil
}

func (m *MemoryStore) GetScript(id string) (domain.Script, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[id]
	return s, ok, nil
}

func (m *MemoryStore) ListScriptsByOwner(ownerID string) ([]domain.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Script, 0)
	for _, id := range m.order {
		if s, ok := m.scripts[id]; ok && s.OwnerID == ownerID {
			res = append(res, s)
		}
	}
	// status_order ascending, insertion order breaks ties
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].StatusOrder < res[j].StatusOrder
	})
	return res, nil
}

func (m *MemoryStore) ListScriptsByStatus(status domain.ScriptStatus) ([]domain.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Script, 0)
	for _, id := range m.order {
		if s, ok := m.scripts[id]; ok && s.Status == status {
			res = append(res, s)
		}
	}
	switch status {
	case domain.StatusEditing:
		sort.SliceStable(res, func(i, j int) bool {
			a, b := res[i].ExpectedDeliveryAt, res[j].ExpectedDeliveryAt
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return a.Before(*b)
		})
	case domain.StatusPublished:
		sort.SliceStable(res, func(i, j int) bool {
			a, b := res[i].EditingCompletedAt, res[j].EditingCompletedAt
			if a == nil || b == nil {
				return a != nil
			}
			return a.After(*b)
		})
	}
	return res, nil
}

func (m *MemoryStore) ListScriptTitlesByOwner(ownerID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	titles := make([]string, 0)
	for _, id := range m.order {
		if s, ok := m.scripts[id]; ok && s.OwnerID == ownerID {
			titles = append(titles, s.Title)
		}
	}
	return titles, nil
}

func (m *MemoryStore) UpdateScriptFields(id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scripts[id]
	if !ok {
		return nil
	}
	applyScriptFields(&s, fields)
	m.scripts[id] = s
	return nil
}

func (m *MemoryStore) NextStatusOrder(ownerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	next := 0
	for _, s := range m.scripts {
		if s.OwnerID == ownerID && s.StatusOrder >= next {
			next = s.StatusOrder + 1
		}
	}
	return next, nil
}

func (m *MemoryStore) SubmitForEditing(scriptID, ownerID string, fields map[string]any, editLimit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[ownerID]
	if !ok || u.VideoEditsThisMonth >= editLimit {
		return ErrQuotaExhausted
	}
	s, ok := m.scripts[scriptID]
	if !ok || s.OwnerID != ownerID || s.Status != domain.StatusRecorded {
		return ErrStatusConflict
	}
	u.VideoEditsThisMonth++
	u.UpdatedAt = time.Now().UTC()
	applyScriptFields(&s, fields)
	m.users[ownerID] = u
	m.scripts[scriptID] = s
	return nil
}

// applyScriptFields interprets the same column-keyed partial updates the
// GORM store passes to Updates.
func applyScriptFields(s *domain.Script, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "status":
			s.Status = domain.ScriptStatus(asString(value))
		case "status_order":
			if n, ok := value.(int); ok {
				s.StatusOrder = n
			}
		case "content_generated":
			if b, ok := value.(bool); ok {
				s.ContentGenerated = b
			}
		case "title":
			s.Title = asString(value)
		case "content":
			s.Content = asString(value)
		case "hook":
			s.Hook = asString(value)
		case "description":
			s.Description = asString(value)
		case "original_content":
			s.OriginalContent = asStringPtr(value)
		case "original_hook":
			s.OriginalHook = asStringPtr(value)
		case "original_description":
			s.OriginalDescription = asStringPtr(value)
		case "raw_video_url":
			s.RawVideoURL = asString(value)
		case "edited_video_url":
			s.EditedVideoURL = asString(value)
		case "editing_notes":
			s.EditingNotes = asString(value)
		case "expected_delivery_at":
			s.ExpectedDeliveryAt = asTimePtr(value)
		case "recorded_at":
			s.RecordedAt = asTimePtr(value)
		case "editing_started_at":
			s.EditingStartedAt = asTimePtr(value)
		case "editing_completed_at":
			s.EditingCompletedAt = asTimePtr(value)
		case "updated_at":
			if t := asTimePtr(value); t != nil {
				s.UpdatedAt = *t
			}
		}
	}
}

func applyUserFields(u *domain.User, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "plan":
			u.Plan = domain.Plan(asString(value))
		case "full_name":
			u.FullName = asString(value)
		case "email":
			u.Email = asString(value)
		case "onboarding_completed":
			if b, ok := value.(bool); ok {
				u.OnboardingCompleted = b
			}
		case "onboarding_completed_at":
			u.OnboardingCompletedAt = asTimePtr(value)
		case "video_edits_this_month":
			if n, ok := value.(int); ok {
				u.VideoEditsThisMonth = n
			}
		case "video_edits_reset_at":
			u.VideoEditsResetAt = asTimePtr(value)
		case "profile_photo_key":
			u.ProfilePhotoKey = asString(value)
		case "profile_photo_count":
			if n, ok := value.(int); ok {
				u.ProfilePhotoCount = n
			}
		case "profile_photo_at":
			u.ProfilePhotoAt = asTimePtr(value)
		case "stripe_customer_id":
			u.StripeCustomerID = asString(value)
		case "stripe_subscription_id":
			u.StripeSubscriptionID = asString(value)
		case "subscription_status":
			u.SubscriptionStatus = asString(value)
		case "updated_at":
			if t := asTimePtr(value); t != nil {
				u.UpdatedAt = *t
			}
		}
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

func asStringPtr(value any) *string {
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		return v
	default:
		return nil
	}
}

func asTimePtr(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}
