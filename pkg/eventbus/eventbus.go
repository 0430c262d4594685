// Package eventbus defines the event publication contract and the events
// the ledger service emits.
package eventbus

import (
	"context"
	"time"

	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}

// Publisher delivers events to interested consumers. Publication is
// best-effort from the engine's point of view: a publish failure never
// fails the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransactionCommitted is emitted after a record reaches COMMITTED and the
// ledger append succeeded.
type TransactionCommitted struct {
	RecordID             uuid.UUID  `json:"record_id"`
	Kind                 string     `json:"kind"`
	SourceAccountID      *uuid.UUID `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID `json:"destination_account_id,omitempty"`
	Amount               string     `json:"amount"`
	Currency             string     `json:"currency"`
	CallerID             uuid.UUID  `json:"caller_id"`
	CompletedAt          time.Time  `json:"completed_at"`
}

func (TransactionCommitted) Type() string { return "ledger.transaction.committed" }

// CompensationFailed alerts the reconciliation collaborator that a
// transfer's debit could not be reversed. This condition is resolved by an
// operator, never retried automatically.
type CompensationFailed struct {
	RecordID        uuid.UUID `json:"record_id"`
	SourceAccountID uuid.UUID `json:"source_account_id"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Detail          string    `json:"detail"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (CompensationFailed) Type() string { return "ledger.reconciliation.compensation_failed" }

// CommittedEvent builds the TransactionCommitted event for a record.
func CommittedEvent(rec *transaction.Record) TransactionCommitted {
	return TransactionCommitted{
		RecordID:             rec.ID,
		Kind:                 string(rec.Kind),
		SourceAccountID:      rec.SourceAccountID,
		DestinationAccountID: rec.DestinationAccountID,
		Amount:               rec.Amount.Decimal().String(),
		Currency:             rec.Amount.Currency().String(),
		CallerID:             rec.CallerID,
		CompletedAt:          rec.CompletedAt,
	}
}
