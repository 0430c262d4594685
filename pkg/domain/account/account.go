// Package account defines the Account aggregate whose balance is owned by
// the account store and mutated only through its compare-and-swap primitive.
package account

import (
	"errors"
	"time"

	"github.com/finvault/ledger/pkg/currency"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an account cannot be found.
	ErrNotFound = errors.New("account not found")

	// ErrNotActive is returned when a balance mutation targets a frozen or
	// closed account.
	ErrNotActive = errors.New("account not active")

	// ErrVersionConflict is returned when a mutation carries a stale version.
	ErrVersionConflict = errors.New("account version conflict")

	// ErrInsufficientFunds is returned when a mutation would drive the
	// balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCloseNonZeroBalance is returned when closing an account that still
	// holds funds.
	ErrCloseNonZeroBalance = errors.New("cannot close account with non-zero balance")

	// ErrInvalidTransition is returned for status changes the lifecycle does
	// not allow, such as reopening a closed account.
	ErrInvalidTransition = errors.New("invalid account status transition")
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFrozen Status = "FROZEN"
	StatusClosed Status = "CLOSED"
)

// Account is a balance-holding account.
//
// Invariants:
//   - Balance is never negative after a committed mutation.
//   - Currency is immutable after creation.
//   - Version increases by one on every balance mutation; it is the
//     optimistic concurrency token checked by ApplyDelta.
type Account struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Balance   money.Money
	Status    Status
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder constructs Account instances, validating invariants in Build.
type Builder struct {
	id       uuid.UUID
	ownerID  uuid.UUID
	balance  int64
	currency currency.Code
	status   Status
	version  int64
	created  time.Time
	updated  time.Time
}

// New returns a Builder with a fresh ID, the default currency, and an
// active status.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:       uuid.New(),
		currency: currency.DefaultCurrency,
		status:   StatusActive,
		created:  now,
		updated:  now,
	}
}

// WithID sets the account ID.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithOwner sets the owning principal. Mandatory.
func (b *Builder) WithOwner(ownerID uuid.UUID) *Builder {
	b.ownerID = ownerID
	return b
}

// WithCurrency sets the account currency.
func (b *Builder) WithCurrency(code currency.Code) *Builder {
	b.currency = code
	return b
}

// WithBalance sets the opening balance in the smallest currency unit.
// Used for provisioning and for hydrating from a data store.
func (b *Builder) WithBalance(balance int64) *Builder {
	b.balance = balance
	return b
}

// WithStatus sets the lifecycle status. Hydration only.
func (b *Builder) WithStatus(s Status) *Builder {
	b.status = s
	return b
}

// WithVersion sets the concurrency token. Hydration only.
func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

// WithTimestamps sets creation and update times. Hydration only.
func (b *Builder) WithTimestamps(created, updated time.Time) *Builder {
	b.created = created
	b.updated = updated
	return b
}

// Build validates all invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.ownerID == uuid.Nil {
		return nil, errors.New("owner is required")
	}
	if b.balance < 0 {
		return nil, ErrInsufficientFunds
	}
	bal, err := money.New(b.balance, b.currency)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:        b.id,
		OwnerID:   b.ownerID,
		Balance:   bal,
		Status:    b.status,
		Version:   b.version,
		CreatedAt: b.created,
		UpdatedAt: b.updated,
	}, nil
}

// Currency returns the account currency.
func (a *Account) Currency() currency.Code {
	return a.Balance.Currency()
}

// IsActive reports whether balance mutations are permitted.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// ValidateTransition checks whether the account may move to the target
// status. Closed is terminal, and closing requires a zero balance.
func (a *Account) ValidateTransition(target Status) error {
	if a.Status == target {
		return nil
	}
	if a.Status == StatusClosed {
		return ErrInvalidTransition
	}
	if target == StatusClosed && !a.Balance.IsZero() {
		return ErrCloseNonZeroBalance
	}
	switch target {
	case StatusActive, StatusFrozen, StatusClosed:
		return nil
	default:
		return ErrInvalidTransition
	}
}
