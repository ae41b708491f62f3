package codes

import (
	"context"
	"errors"
	"time"
)

// RedeemOutcome describes what an atomic redeem attempt observed.
type RedeemOutcome int

const (
	RedeemOK RedeemOutcome = iota
	RedeemNotFound
	RedeemAlreadyUsed
)

// ErrCorrupt indicates the backing data exists but cannot be decoded.
// Corruption is surfaced, never silently treated as an empty store.
var ErrCorrupt = errors.New("codes: store data corrupt")

// Store persists issued redemption codes.
type Store interface {
	// Load returns the full code mapping. A missing backing store
	// yields an empty map; corrupt data yields ErrCorrupt.
	Load(ctx context.Context) (map[string]Record, error)

	// Put stores a freshly minted code.
	Put(ctx context.Context, code string, rec Record) error

	// Contains reports whether the code already exists.
	Contains(ctx context.Context, code string) (bool, error)

	// Redeem marks the code used and stamps used_at, but only if it
	// is currently unused. The check and the write happen under the
	// same lock or statement, so two concurrent calls can never both
	// observe RedeemOK.
	Redeem(ctx context.Context, code string, now time.Time) (RedeemOutcome, error)
}
