// Package ledger provides the GORM/Postgres implementation of the
// append-only transaction history. Rows are only ever inserted; a partial
// unique index on (caller_id, idempotency_key) WHERE status = 'COMMITTED'
// makes the database the arbiter of key uniqueness, so concurrent commits
// of the same key cannot both land.
package ledger

import (
	"time"

	"github.com/finvault/ledger/pkg/currency"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Transaction is the database representation of a transaction record.
type Transaction struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind                 string     `gorm:"type:varchar(16);not null"`
	SourceAccountID      *uuid.UUID `gorm:"type:uuid;index"`
	DestinationAccountID *uuid.UUID `gorm:"type:uuid;index"`
	Amount               int64      `gorm:"not null"`
	Currency             string     `gorm:"type:varchar(3);not null"`
	Status               string     `gorm:"type:varchar(16);not null"`
	FailureReason        string     `gorm:"type:varchar(48)"`
	CallerID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_idem,priority:1,where:status = 'COMMITTED'"`
	IdempotencyKey       string     `gorm:"type:varchar(128);not null;uniqueIndex:idx_transactions_idem,priority:2"`
	RequestedAt          time.Time  `gorm:"not null;index"`
	CompletedAt          time.Time
}

// TableName pins the table name.
func (Transaction) TableName() string { return "transactions" }

func toDomain(m *Transaction) (*transaction.Record, error) {
	amount, err := money.New(m.Amount, currency.Code(m.Currency))
	if err != nil {
		return nil, err
	}
	return &transaction.Record{
		ID:                   m.ID,
		Kind:                 transaction.Kind(m.Kind),
		SourceAccountID:      m.SourceAccountID,
		DestinationAccountID: m.DestinationAccountID,
		Amount:               amount,
		Status:               transaction.Status(m.Status),
		FailureReason:        transaction.FailureReason(m.FailureReason),
		CallerID:             m.CallerID,
		IdempotencyKey:       m.IdempotencyKey,
		RequestedAt:          m.RequestedAt,
		CompletedAt:          m.CompletedAt,
	}, nil
}

func fromDomain(rec *transaction.Record) *Transaction {
	return &Transaction{
		ID:                   rec.ID,
		Kind:                 string(rec.Kind),
		SourceAccountID:      rec.SourceAccountID,
		DestinationAccountID: rec.DestinationAccountID,
		Amount:               rec.Amount.Amount(),
		Currency:             rec.Amount.Currency().String(),
		Status:               string(rec.Status),
		FailureReason:        string(rec.FailureReason),
		CallerID:             rec.CallerID,
		IdempotencyKey:       rec.IdempotencyKey,
		RequestedAt:          rec.RequestedAt,
		CompletedAt:          rec.CompletedAt,
	}
}
