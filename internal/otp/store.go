// Package otp holds pending one-time passcodes keyed by phone number.
//
// The store is deliberately dumb: it maps a phone to the latest pending
// record and nothing else. Expiry and single-use semantics are enforced
// by the auth service at verification time; the stores only bound memory
// (sweep loop for the memory store, native TTL for redis).
package otp

import (
	"context"
	"time"
)

// Record is a pending passcode for one phone number.
// A Put for the same phone overwrites the previous record: the last
// requested code is the only valid one.
type Record struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Method    string    `json:"method"`
}

// Store is the persistence contract for pending passcodes.
type Store interface {
	// Put stores rec for phone, overwriting any pending record.
	Put(ctx context.Context, phone string, rec Record) error

	// Get returns the pending record for phone. The bool reports whether
	// one exists; an expired record may still be returned (the caller
	// decides what expiry means).
	Get(ctx context.Context, phone string) (Record, bool, error)

	// Delete removes the pending record for phone. No-op when absent.
	Delete(ctx context.Context, phone string) error
}
