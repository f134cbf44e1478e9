package http

import (
	"time"

	"github.com/campushub/booking-core/internal/message"
)

type SendMessageRequest struct {
	ReceiverID string  `json:"receiver_id" binding:"required,uuid"`
	Content    string  `json:"content" binding:"required"`
	BookingID  *string `json:"booking_id" binding:"omitempty,uuid"`
	ResourceID *string `json:"resource_id" binding:"omitempty,uuid"`
}

type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}

type ThreadURI struct {
	ThreadID string `uri:"thread_id" binding:"required,max=100"`
}

type MessageResponse struct {
	ID         string     `json:"id"`
	ThreadID   string     `json:"thread_id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	BookingID  *string    `json:"booking_id"`
	ResourceID *string    `json:"resource_id"`
	Content    string     `json:"content"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at"`
	IsSentByMe bool       `json:"is_sent_by_me"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewMessageResponse(m *message.Message, viewerID string) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		BookingID:  m.BookingID,
		ResourceID: m.ResourceID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		ReadAt:     m.ReadAt,
		IsSentByMe: m.SenderID == viewerID,
		CreatedAt:  m.CreatedAt,
	}
}

type ThreadResponse struct {
	ThreadID      string    `json:"thread_id"`
	OtherUserID   string    `json:"other_user_id"`
	LatestMessage string    `json:"latest_message"`
	LatestAt      time.Time `json:"latest_at"`
	UnreadCount   int       `json:"unread_count"`
	BookingID     *string   `json:"booking_id"`
	ResourceID    *string   `json:"resource_id"`
}

func NewThreadResponse(t *message.Thread) ThreadResponse {
	return ThreadResponse{
		ThreadID:      t.ThreadID,
		OtherUserID:   t.OtherUserID,
		LatestMessage: t.LatestMessage,
		LatestAt:      t.LatestAt,
		UnreadCount:   t.UnreadCount,
		BookingID:     t.BookingID,
		ResourceID:    t.ResourceID,
	}
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type MarkThreadReadResponse struct {
	Updated int `json:"updated"`
}
