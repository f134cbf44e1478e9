package review

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps reviews in process for local runs and tests. Like the
// database it allows one review per reviewer and resource.
type MemoryStore struct {
	mu      sync.RWMutex
	reviews map[string]Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reviews: make(map[string]Review)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Create(_ context.Context, r *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.ResourceID == r.ResourceID && existing.ReviewerID == r.ReviewerID {
			return ErrAlreadyReviewed
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	m.reviews[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) List(_ context.Context, filter Filter) ([]*Review, int, error) {
	m.mu.RLock()
	var matched []*Review
	for _, r := range m.reviews {
		if filter.ResourceID != "" && r.ResourceID != filter.ResourceID {
			continue
		}
		if filter.ReviewerID != "" && r.ReviewerID != filter.ReviewerID {
			continue
		}
		if filter.FlaggedOnly && !r.IsFlagged {
			continue
		}
		if !filter.IncludeHidden && r.IsHidden {
			continue
		}
		c := r
		matched = append(matched, &c)
	}
	m.mu.RUnlock()

	asc := strings.EqualFold(filter.SortOrder, "asc")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch filter.SortBy {
		case "rating":
			less, equal = a.Rating < b.Rating, a.Rating == b.Rating
		case "updated_at":
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			less = a.ID < b.ID
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
		return []*Review{}, total, nil
	}
	return matched[start:min(start+size, total)], total, nil
}

func (m *MemoryStore) SetHidden(_ context.Context, id string, hidden bool, notes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return ErrNotFound
	}
	r.IsHidden = hidden
	r.ModerationNotes = notes
	if !hidden {
		r.IsFlagged = false
		r.FlaggedBy = nil
	}
	r.UpdatedAt = time.Now().UTC()
	m.reviews[id] = r
	return nil
}

func (m *MemoryStore) SetFlagged(_ context.Context, id, flaggedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return ErrNotFound
	}
	r.IsFlagged = true
	r.FlaggedBy = &flaggedBy
	r.UpdatedAt = time.Now().UTC()
	m.reviews[id] = r
	return nil
}

func (m *MemoryStore) Summary(_ context.Context, resourceID string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Summary{ResourceID: resourceID}
	sum := 0
	for _, r := range m.reviews {
		if r.ResourceID == resourceID && !r.IsHidden {
			sum += r.Rating
			s.Count++
		}
	}
	if s.Count > 0 {
		s.AverageRating = math.Round(float64(sum)/float64(s.Count)*100) / 100
	}
	return s, nil
}
