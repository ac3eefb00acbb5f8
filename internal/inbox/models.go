package inbox

import "time"

// Thread statuses. A thread starts NEW, flips to OPEN whenever an
// outbound message is sent, and any status can be set explicitly.
const (
	ThreadStatusNew  = "NEW"
	ThreadStatusOpen = "OPEN"
	ThreadStatusDone = "DONE"
)

// Message directions.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Message delivery statuses.
const (
	MessageStatusSent      = "SENT"
	MessageStatusDelivered = "DELIVERED"
	MessageStatusRead      = "READ"
	MessageStatusFailed    = "FAILED"
)

func ValidThreadStatus(s string) bool {
	switch s {
	case ThreadStatusNew, ThreadStatusOpen, ThreadStatusDone:
		return true
	default:
		return false
	}
}

// Thread is one conversation with one external contact on one channel.
type Thread struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Channel          string    `json:"channel"`
	ExternalThreadID string    `json:"external_thread_id"`
	ContactName      string    `json:"contact_name"`
	ContactHandle    string    `json:"contact_handle"`
	LastMessageAt    time.Time `json:"last_message_at"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Message is one message inside a thread. Messages are immutable once
// created; there is no update operation.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Channel   string    `json:"channel"`
	Direction string    `json:"direction"`
	Body      string    `json:"body"`
	MediaURL  string    `json:"media_url,omitempty"`
	SentAt    time.Time `json:"sent_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is the at-most-one unsent message saved against a thread.
type Draft struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

/// ThreadView is a thread enriched for listing: the latest message body,
// its wall-clock time, and the unread counter.
type ThreadView struct {
	Thread
	LastMessage     string `json:"last_message,omitempty"`
	LastMessageTime string `json:"last_message_time,omitempty"`
	UnreadCount     int    `json:"unread_count"`
	Unread          bool   `json:"unread"`
}

// ThreadFilter narrows a thread listing. Zero values mean "no filter".
type ThreadFilter struct {
	Channel string
	Status  string
	Search  string
}
