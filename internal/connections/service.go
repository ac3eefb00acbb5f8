package connections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inbox-platform/internal/channels"
	"inbox-platform/internal/inbox"
	"inbox-platform/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest    = errors.New("connections: invalid request")
	ErrInvalidType       = errors.New("connections: invalid connection type")
	ErrConflict          = errors.New("connections: connection of this type already exists")
	ErrInvalidCredential = errors.New("connections: invalid credential")
	ErrNotFound          = errors.New("connections: connection not found")
)

// ThreadStore is the slice of the inbox repository used to seed demo
// threads when a channel is connected.
type ThreadStore interface {
	CreateThread(ctx context.Context, th inbox.Thread, first *inbox.Message) error
}

type Service struct {
	repo    Repository
	threads ThreadStore
	gateway channels.Gateway
	clock   func() time.Time
}

func NewService(repo Repository, threads ThreadStore, gateway channels.Gateway) *Service {
	return &Service{
		repo:    repo,
		threads: threads,
		gateway: gateway,
		clock:   time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]Connection, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create validates the credential against the channel gateway, stores
// the connection and seeds the channel with a demo conversation. Only
// one connection per type is allowed.
func (s *Service) Create(ctx context.Context, userID, connType, credential string, metadata map[string]any) (*Connection, error) {
	if connType == "" || credential == "" {
		return nil, fmt.Errorf("%w: type and token are required", ErrInvalidRequest)
	}
	if channels.ChannelForType(connType) == "" {
		return nil, ErrInvalidType
	}

	_, err := s.repo.FindByType(ctx, userID, connType)
	switch {
	case err == nil:
		return nil, ErrConflict
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("find connection: %w", err)
	}

	valid, err := s.gateway.ValidateCredential(ctx, connType, credential)
	if err != nil {
		return nil, fmt.Errorf("validate credential: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredential
	}

	now := s.clock()
	c := Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      connType,
		Status:    StatusActive,
		TokenRef:  "encrypted_" + credential,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}

	// Demo threads make a freshly connected channel non-empty. Seeding
	// is best effort; the connection itself is already committed.
	if err := seedSampleThreads(ctx, s.threads, userID, channels.ChannelForType(connType), now); err != nil {
		logger.From(ctx).Warn("failed to seed sample threads", "channel", channels.ChannelForType(connType), "error", err)
	}

	return &c, nil
}

// Delete removes the connection and every thread of its channel.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, *c)
}

// Test probes the connection via the gateway and records the outcome on
// the connection status: ACTIVE on success, ERROR on failure.
func (s *Service) Test(ctx context.Context, userID, id string) (*Connection, channels.TestResult, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, channels.TestResult{}, err
	}

	result, err := s.gateway.TestConnection(ctx, c.Type, c.TokenRef)
	if err != nil {
		return nil, channels.TestResult{}, fmt.Errorf("test connection: %w", err)
	}

	now := s.clock()
	status := StatusActive
	if !result.Success {
		status = StatusError
	}
	if err := s.repo.SetStatus(ctx, c.ID, status, now); err != nil {
		return nil, channels.TestResult{}, fmt.Errorf("record test outcome: %w", err)
	}
	c.Status = status
	c.UpdatedAt = now

	return c, result, nil
}
