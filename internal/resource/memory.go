package resource

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps resources in process for local runs and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Resource
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Resource)}
}

func (m *MemoryRepository) Create(_ context.Context, res *Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	m.items[res.ID] = *res
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]*Resource, int, error) {
	m.mu.RLock()
	search := strings.ToLower(filter.Search)
	var matched []*Resource
	for _, res := range m.items {
		if filter.Category != "" && res.Category != filter.Category {
			continue
		}
		if filter.Status != "" && string(res.Status) != filter.Status {
			continue
		}
		if filter.MinCapacity > 0 && (res.Capacity == nil || *res.Capacity < filter.MinCapacity) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(res.Name), search) &&
			(res.Description == nil || !strings.Contains(strings.ToLower(*res.Description), search)) {
			continue
		}
		r := res
		matched = append(matched, &r)
	}
	m.mu.RUnlock()

	asc := strings.EqualFold(filter.SortOrder, "asc")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch filter.SortBy {
		case "name":
			if a.Name == b.Name {
				return a.ID < b.ID
			}
			less = a.Name < b.Name
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
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
		return []*Resource{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MemoryRepository) Update(_ context.Context, res *Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[res.ID]; !ok {
		return ErrNotFound
	}
	res.UpdatedAt = time.Now().UTC()
	m.items[res.ID] = *res
	return nil
}
