package connections

import (
	"context"
	"time"
)

// Repository persists connections. Implementations must treat Delete as
// a cascade: the connection's channel threads (and their messages and
// drafts) go with it, atomically where the backend allows.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Connection, error)

	// GetByID and FindByType return ErrNotFound on a miss, never a nil
	// connection with a nil error.
	GetByID(ctx context.Context, userID, id string) (*Connection, error)
	FindByType(ctx context.Context, userID, connType string) (*Connection, error)

	Create(ctx context.Context, c Connection) error
	Delete(ctx context.Context, c Connection) error
	SetStatus(ctx context.Context, id, status string, now time.Time) error
}
