package user

import (
	"context"
	"errors"
	"time"
)

// Plan tiers. New accounts start on TRIAL with a 30-day window.
const (
	PlanTrial = "TRIAL"
	PlanBasic = "BASIC"
	PlanPro   = "PRO"
)

// TrialPeriod is the time a newly created account stays on the trial plan.
const TrialPeriod = 30 * 24 * time.Hour

var ErrNotFound = errors.New("user: not found")

// User is an account holder, identified by phone number.
// Accounts are created implicitly on the first successful OTP verification.
type User struct {
	ID             string    `json:"id"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Plan           string    `json:"plan"`
	TrialStartedAt time.Time `json:"trial_started_at"`
	TrialEndsAt    time.Time `json:"trial_ends_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository is the persistence contract for users.
// Lookups that miss return ErrNotFound, never a nil user.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
}
