// Package channels defines the provider-agnostic gateway used to talk to
// external messaging platforms (WhatsApp, Telegram, Instagram).
//
// Rules:
// - No provider SDK calls outside gateway implementations.
// - Business logic depends only on the Gateway interface; the mock is the
//   only implementation today, a real adapter slots in later.
package channels

import (
	"context"
	"time"
)

// Channel names as exposed on threads and messages.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelTelegram  = "telegram"
	ChannelInstagram = "instagram"
)

// Connection type codes as exposed on connections.
const (
	TypeWhatsApp  = "WA"
	TypeTelegram  = "TG"
	TypeInstagram = "IG"
)

// ChannelForType maps a connection type code to its channel name.
// Unknown codes map to the empty string.
func ChannelForType(connType string) string {
	switch connType {
	case TypeWhatsApp:
		return ChannelWhatsApp
	case TypeTelegram:
		return ChannelTelegram
	case TypeInstagram:
		return ChannelInstagram
	default:
		return ""
	}
}

// TestResult is the outcome of probing a channel connection.
type TestResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Gateway is the outbound boundary to external messaging platforms.
type Gateway interface {
	Name() string

	// DeliverCode sends a login passcode to phone via the requested
	// method ("whatsapp" or "sms").
	DeliverCode(ctx context.Context, method, phone, code string) error

	// ValidateCredential checks whether a credential is plausible for the
	// given connection type. Format-only; no network calls in the mock.
	ValidateCredential(ctx context.Context, connType, credential string) (bool, error)

	// Send delivers an outbound message on a channel thread.
	Send(ctx context.Context, channel, externalThreadID, body string) error

	// TestConnection probes a stored connection credential.
	TestConnection(ctx context.Context, connType, tokenRef string) (TestResult, error)
}

// Clock is the time source used by gateway implementations for result
// timestamps. Injectable for deterministic tests.
type Clock func() time.Time
