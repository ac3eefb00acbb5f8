package connections

import "time"

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusError    = "ERROR"
)

// Connection links a user to one external channel account. At most one
// connection per (user, type) exists at a time.
//
// TokenRef holds a reference to the channel credential, never the raw
// credential itself, and is not serialized.
type Connection struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	TokenRef  string         `json:"-"`
	Metadata  map[string]any `json:"connection_metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
