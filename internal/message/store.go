package message

import (
	"context"
	"time"
)

// Store persists messages.
type Store interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// ListThreads returns userID's threads, most recent activity first.
	ListThreads(ctx context.Context, userID string, page, pageSize int) ([]*Thread, int, error)
	// ListThread returns a thread's messages oldest first.
	ListThread(ctx context.Context, filter ThreadFilter) ([]*Message, int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	// MarkThreadRead marks every unread message addressed to receiverID in
	// the thread and returns how many changed.
	MarkThreadRead(ctx context.Context, threadID, receiverID string, at time.Time) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// Search matches content case-insensitively among userID's messages,
	// newest first.
	Search(ctx context.Context, userID, term string, limit int) ([]*Message, error)
	Delete(ctx context.Context, id string) error
}
