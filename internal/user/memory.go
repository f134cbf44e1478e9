package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps users in process for local runs and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[u.Email]; exists {
		return ErrEmailAlreadyUsed
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryRepository) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	m.users[id] = u
	return nil
}

func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]*User, int, error) {
	m.mu.RLock()
	var matched []*User
	for _, u := range m.users {
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		if filter.DisplayName != "" && !strings.Contains(strings.ToLower(u.DisplayName), strings.ToLower(filter.DisplayName)) {
			continue
		}
		if filter.Role != "" && string(u.Role) != filter.Role {
			continue
		}
		if filter.Status != "" && string(u.Status) != filter.Status {
			continue
		}
		c := u
		matched = append(matched, &c)
	}
	m.mu.RUnlock()

	asc := strings.EqualFold(filter.SortOrder, "asc")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var ka, kb string
		switch filter.SortBy {
		case "email":
			ka, kb = a.Email, b.Email
		case "display_name":
			ka, kb = a.DisplayName, b.DisplayName
		case "role":
			ka, kb = string(a.Role), string(b.Role)
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if asc {
					return a.CreatedAt.Before(b.CreatedAt)
				}
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		if ka == kb {
			ka, kb = a.ID, b.ID
		}
		if asc {
			return ka < kb
		}
		return ka > kb
	})

	total := len(matched)
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return []*User{}, total, nil
	}
	end := min(start+size, total)
	return matched[start:end], total, nil
}

func (m *MemoryRepository) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.DisplayName = u.DisplayName
	cur.Role = u.Role
	cur.Status = u.Status
	m.users[u.ID] = cur
	return nil
}
