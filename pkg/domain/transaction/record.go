// Package transaction defines the immutable record produced for every
// attempted money movement.
package transaction

import (
	"errors"
	"time"

	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// ErrFinalized is returned when a terminal record is transitioned again.
var ErrFinalized = errors.New("transaction record already finalized")

// Kind is the type of money movement.
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindTransfer   Kind = "TRANSFER"
)

// Status is the record's lifecycle state. Pending is transient and held in
// memory only; the ledger persists terminal states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCommitted Status = "COMMITTED"
	StatusFailed    Status = "FAILED"
)

// FailureReason classifies why a record failed. Reasons prefixed by a
// business condition are never retried automatically; transient reasons may
// be retried by the caller under the same idempotency key.
type FailureReason string

const (
	ReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	ReasonInvalidRequest    FailureReason = "INVALID_REQUEST"
	ReasonSameAccount       FailureReason = "SAME_ACCOUNT"
	ReasonUnauthorized      FailureReason = "UNAUTHORIZED"
	ReasonAccountNotFound   FailureReason = "ACCOUNT_NOT_FOUND"
	ReasonAccountNotActive  FailureReason = "ACCOUNT_NOT_ACTIVE"
	ReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	ReasonCurrencyMismatch  FailureReason = "CURRENCY_MISMATCH"

	// ReasonRetriesExhausted marks a transient failure: the version check
	// kept losing to concurrent writers until the retry budget ran out.
	ReasonRetriesExhausted FailureReason = "CONCURRENT_MODIFICATION_EXHAUSTED"

	// ReasonCreditUnavailable marks a transfer whose credit leg hit an
	// infrastructure failure after the debit had applied. The debit was
	// compensated, so retrying under the same key is safe.
	ReasonCreditUnavailable FailureReason = "CREDIT_UNAVAILABLE"

	// ReasonCompensationFailed marks the fatal case where a transfer's debit
	// could not be reversed after the credit failed. Operator intervention
	// is required; the reconciliation collaborator is alerted out-of-band.
	ReasonCompensationFailed FailureReason = "COMPENSATION_FAILED"
)

// IsTransient reports whether the whole operation may be safely retried by
// the caller under the same idempotency key.
func (r FailureReason) IsTransient() bool {
	return r == ReasonRetriesExhausted || r == ReasonCreditUnavailable
}

// Record is the append-only account of one attempted money movement.
// Once terminal it is immutable forever.
type Record struct {
	ID                   uuid.UUID
	Kind                 Kind
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	Amount               money.Money
	Status               Status
	FailureReason        FailureReason
	CallerID             uuid.UUID
	IdempotencyKey       string
	RequestedAt          time.Time
	CompletedAt          time.Time
}

// NewPending creates the in-memory pending record at the start of processing.
func NewPending(kind Kind, callerID uuid.UUID, key string, amount money.Money, source, destination *uuid.UUID) *Record {
	return &Record{
		ID:                   uuid.New(),
		Kind:                 kind,
		SourceAccountID:      source,
		DestinationAccountID: destination,
		Amount:               amount,
		Status:               StatusPending,
		CallerID:             callerID,
		IdempotencyKey:       key,
		RequestedAt:          time.Now().UTC(),
	}
}

// Commit transitions the record from pending to committed.
func (r *Record) Commit() error {
	if r.Status != StatusPending {
		return ErrFinalized
	}
	r.Status = StatusCommitted
	r.CompletedAt = time.Now().UTC()
	return nil
}

// Fail transitions the record from pending to failed with the given reason.
func (r *Record) Fail(reason FailureReason) error {
	if r.Status != StatusPending {
		return ErrFinalized
	}
	r.Status = StatusFailed
	r.FailureReason = reason
	r.CompletedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the record reached a final state.
func (r *Record) IsTerminal() bool {
	return r.Status == StatusCommitted || r.Status == StatusFailed
}

// Touches reports whether the record references the given account.
func (r *Record) Touches(accountID uuid.UUID) bool {
	if r.SourceAccountID != nil && *r.SourceAccountID == accountID {
		return true
	}
	if r.DestinationAccountID != nil && *r.DestinationAccountID == accountID {
		return true
	}
	return false
}
