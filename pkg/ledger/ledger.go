// Package ledger defines the durable, append-only, queryable history of
// transaction records.
package ledger

import (
	"context"
	"errors"

	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when no record matches a lookup.
var ErrRecordNotFound = errors.New("transaction record not found")

// ErrDuplicateKey is returned by Append when a COMMITTED record already
// holds the same (callerID, idempotencyKey). The store is the arbiter of
// key uniqueness: under concurrent executions of the same key, exactly one
// Append wins and every loser sees this error.
var ErrDuplicateKey = errors.New("idempotency key already committed")

// DefaultPageLimit bounds history listings when the caller does not ask for
// a specific page size.
const DefaultPageLimit = 50

// MaxPageLimit caps history listings.
const MaxPageLimit = 100

// Page describes a pagination window for history listings.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store is the append-only transaction history. Records are never updated
// or deleted once appended; corrections are new, linked compensating
// records. Append fails only on storage unavailability, which is an
// infrastructure error, not a business one.
type Store interface {
	// Append persists a terminal-state record. Appending a COMMITTED
	// record whose (callerID, idempotencyKey) is already committed fails
	// with ErrDuplicateKey; failed records are never subject to the
	// uniqueness check.
	Append(ctx context.Context, rec *transaction.Record) error

	// FindByIdempotencyKey returns the COMMITTED record for the caller and
	// key, or ErrRecordNotFound. Failed records never satisfy idempotency
	// lookups: the caller is allowed to retry a failed operation.
	FindByIdempotencyKey(ctx context.Context, callerID uuid.UUID, key string) (*transaction.Record, error)

	// ListForAccount returns records touching the account, newest first.
	ListForAccount(ctx context.Context, accountID uuid.UUID, page Page) ([]*transaction.Record, error)
}
