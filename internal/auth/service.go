package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"inbox-platform/internal/channels"
	"inbox-platform/internal/otp"
	"inbox-platform/internal/user"
	"inbox-platform/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("auth: invalid request")
	ErrOTPNotFound    = errors.New("auth: code not found or expired")
	ErrOTPExpired     = errors.New("auth: code expired")
	ErrOTPMismatch    = errors.New("auth: invalid code")
	ErrUnauthorized   = errors.New("auth: unauthorized")
)

const (
	MethodWhatsApp = "whatsapp"
	MethodSMS      = "sms"
)

// Service implements the passwordless phone login flow: a short-lived
// one-time code delivered out of band, verified once, exchanged for a
// bearer token. First verification of an unknown phone enrolls the user
// on a trial plan.
type Service struct {
	users   user.Repository
	otps    otp.Store
	gateway channels.Gateway
	codec   TokenCodec

	otpTTL   time.Duration
	clock    func() time.Time
	generate func() (string, error)
}

func NewService(users user.Repository, otps otp.Store, gateway channels.Gateway, codec TokenCodec, otpTTL time.Duration) *Service {
	return &Service{
		users:    users,
		otps:     otps,
		gateway:  gateway,
		codec:    codec,
		otpTTL:   otpTTL,
		clock:    time.Now,
		generate: generateCode,
	}
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestOTP stores a fresh code for the phone and hands it to the
// delivery gateway. A repeat request overwrites the previous code.
// Returns the normalized delivery method and the code TTL in seconds.
func (s *Service) RequestOTP(ctx context.Context, phone, method string) (string, int, error) {
	if phone == "" {
		return "", 0, fmt.Errorf("%w: phone is required", ErrInvalidRequest)
	}
	if method == "" {
		method = MethodWhatsApp
	}
	if method != MethodWhatsApp && method != MethodSMS {
		return "", 0, fmt.Errorf("%w: method must be whatsapp or sms", ErrInvalidRequest)
	}

	code, err := s.generate()
	if err != nil {
		return "", 0, fmt.Errorf("generate otp: %w", err)
	}

	now := s.clock()
	rec := otp.Record{
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
		Method:    method,
	}
	if err := s.otps.Put(ctx, phone, rec); err != nil {
		return "", 0, fmt.Errorf("store otp: %w", err)
	}

	if err := s.gateway.DeliverCode(ctx, method, phone, code); err != nil {
		return "", 0, fmt.Errorf("deliver otp: %w", err)
	}

	return method, int(s.otpTTL / time.Second), nil
}

// VerifyOTP consumes the stored code for the phone. On success it
// deletes the code, finds or enrolls the user, and issues a token.
// An expired code is deleted on sight; a wrong code leaves the stored
// entry in place so the real code can still be used within its TTL.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*user.User, bool, string, error) {
	if phone == "" || code == "" {
		return nil, false, "", fmt.Errorf("%w: phone and code are required", ErrInvalidRequest)
	}

	rec, ok, err := s.otps.Get(ctx, phone)
	if err != nil {
		return nil, false, "", fmt.Errorf("load otp: %w", err)
	}
	if !ok {
		return nil, false, "", ErrOTPNotFound
	}

	now := s.clock()
	if now.After(rec.ExpiresAt) {
		if err := s.otps.Delete(ctx, phone); err != nil {
			logger.From(ctx).Warn("failed to delete expired otp", "error", err)
		}
		return nil, false, "", ErrOTPExpired
	}
	if rec.Code != code {
		return nil, false, "", ErrOTPMismatch
	}

	if err := s.otps.Delete(ctx, phone); err != nil {
		return nil, false, "", fmt.Errorf("consume otp: %w", err)
	}

	u, err := s.users.GetByPhone(ctx, phone)
	isFirstLogin := false
	switch {
	case err == nil:
	case errors.Is(err, user.ErrNotFound):
		u, err = s.enroll(ctx, phone, now)
		if err != nil {
			return nil, false, "", err
		}
		isFirstLogin = true
	default:
		return nil, false, "", fmt.Errorf("load user: %w", err)
	}

	token, err := s.codec.Issue(now, u.ID)
	if err != nil {
		return nil, false, "", fmt.Errorf("issue token: %w", err)
	}
	return u, isFirstLogin, token, nil
}

func (s *Service) enroll(ctx context.Context, phone string, now time.Time) (*user.User, error) {
	last4 := phone
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	u := user.User{
		ID:             uuid.NewString(),
		Phone:          phone,
		Name:           "Usuário " + last4,
		Plan:           user.PlanTrial,
		TrialStartedAt: now,
		TrialEndsAt:    now.Add(user.TrialPeriod),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// ResolveToken maps a bearer token back to its user.
// Unknown users surface as user.ErrNotFound so callers can distinguish
// a stale-but-valid token from a forged one.
func (s *Service) ResolveToken(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.codec.Resolve(token, s.clock())
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u, nil
}
