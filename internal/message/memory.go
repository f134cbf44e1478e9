package message

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps messages in process for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string]Message)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages[m.ID] = *m
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// newerFirst orders by creation time, then id, descending.
func newerFirst(a, b *Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *MemoryStore) ListThreads(_ context.Context, userID string, page, pageSize int) ([]*Thread, int, error) {
	s.mu.RLock()
	latest := make(map[string]*Message)
	unread := make(map[string]int)
	for _, m := range s.messages {
		if !m.Involves(userID) {
			continue
		}
		m := m
		if cur, ok := latest[m.ThreadID]; !ok || newerFirst(&m, cur) {
			latest[m.ThreadID] = &m
		}
		if m.ReceiverID == userID && !m.IsRead {
			unread[m.ThreadID]++
		}
	}
	s.mu.RUnlock()

	threads := make([]*Thread, 0, len(latest))
	for id, m := range latest {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		threads = append(threads, &Thread{
			ThreadID:      id,
			OtherUserID:   other,
			LatestMessage: m.Content,
			LatestAt:      m.CreatedAt,
			UnreadCount:   unread[id],
			BookingID:     m.BookingID,
			ResourceID:    m.ResourceID,
		})
	}
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].LatestAt.Equal(threads[j].LatestAt) {
			return threads[i].ThreadID < threads[j].ThreadID
		}
		return threads[i].LatestAt.After(threads[j].LatestAt)
	})
	return paginate(threads, page, pageSize), len(threads), nil
}

func (s *MemoryStore) ListThread(_ context.Context, filter ThreadFilter) ([]*Message, int, error) {
	s.mu.RLock()
	var matched []*Message
	for _, m := range s.messages {
		if m.ThreadID != filter.ThreadID {
			continue
		}
		if filter.ParticipantID != "" && !m.Involves(filter.ParticipantID) {
			continue
		}
		m := m
		matched = append(matched, &m)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[j], matched[i]) })
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if !m.IsRead {
		m.IsRead = true
		m.ReadAt = &at
		s.messages[id] = m
	}
	return nil
}

func (s *MemoryStore) MarkThreadRead(_ context.Context, threadID, receiverID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.messages {
		if m.ThreadID == threadID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &at
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Search(_ context.Context, userID, term string, limit int) ([]*Message, error) {
	needle := strings.ToLower(term)
	s.mu.RLock()
	var matched []*Message
	for _, m := range s.messages {
		if m.Involves(userID) && strings.Contains(strings.ToLower(m.Content), needle) {
			m := m
			matched = append(matched, &m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[i], matched[j]) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
