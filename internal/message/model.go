package message

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "message not found")
	ErrThreadNotFound    = apperror.New(http.StatusNotFound, "thread not found")
	ErrRecipientNotFound = apperror.New(http.StatusNotFound, "recipient not found")
	ErrRecipientInactive = apperror.New(http.StatusUnprocessableEntity, "cannot message an inactive user")
	ErrContextNotFound   = apperror.New(http.StatusNotFound, "linked booking or resource not found")
)

const (
	MaxContentLength   = 5000
	MinSearchLength    = 2
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// Message is one note from a sender to a receiver. Messages about the same
// booking or resource, or between the same two users, share a thread.
type Message struct {
	ID         string
	ThreadID   string
	SenderID   string
	ReceiverID string
	BookingID  *string
	ResourceID *string
	Content    string
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// Involves reports whether userID sent or received m.
func (m *Message) Involves(userID string) bool {
	return userID != "" && (m.SenderID == userID || m.ReceiverID == userID)
}

// Thread is the inbox view of a conversation from one user's side.
type Thread struct {
	ThreadID      string
	OtherUserID   string
	LatestMessage string
	LatestAt      time.Time
	UnreadCount   int
	BookingID     *string
	ResourceID    *string
}

// ThreadFilter selects the messages of one thread. An empty ParticipantID
// returns every message in the thread.
type ThreadFilter struct {
	ThreadID      string
	ParticipantID string
	Page          int
	PageSize      int
}

// ThreadID derives the thread key: booking first, then resource, then the
// ordered user pair.
func ThreadID(senderID, receiverID string, bookingID, resourceID *string) string {
	switch {
	case bookingID != nil && *bookingID != "":
		return "booking_" + *bookingID
	case resourceID != nil && *resourceID != "":
		return "resource_" + *resourceID
	}
	ids := []string{senderID, receiverID}
	sort.Strings(ids)
	return "users_" + ids[0] + "_" + ids[1]
}

// Recipient is what messaging needs to know about a user.
type Recipient struct {
	ID     string
	Active bool
}

// Directory resolves recipients. Unknown ids return ErrRecipientNotFound.
type Directory interface {
	Recipient(ctx context.Context, id string) (Recipient, error)
}
