// Package accountstore defines the sole authority over account balance
// state. ApplyDelta is the only primitive by which a balance changes.
package accountstore

import (
	"context"

	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Store owns account state. Implementations must make ApplyDelta atomic:
// the delta is applied if and only if the stored version matches
// expectedVersion, the resulting balance is non-negative, and the account
// is active. On success the version increments and a fresh snapshot is
// returned.
//
// Failure modes, as sentinel errors from pkg/domain/account:
//   - ErrNotFound: no such account.
//   - ErrVersionConflict: expectedVersion is stale; callers retry with a
//     freshly read version.
//   - ErrInsufficientFunds: the delta would drive the balance below zero.
//   - ErrNotActive: the account is frozen or closed.
type Store interface {
	// Get returns a snapshot of the account.
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// Create provisions a new account. The engine never calls this; it is
	// the surface used by the account-provisioning collaborator.
	Create(ctx context.Context, a *account.Account) error

	// ApplyDelta atomically adds delta (positive or negative) to the
	// balance under the optimistic version check described above.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta money.Money, expectedVersion int64) (*account.Account, error)

	// SetStatus transitions the account lifecycle state. Closing requires a
	// zero balance. Balance is never written here.
	SetStatus(ctx context.Context, id uuid.UUID, status account.Status) (*account.Account, error)
}
