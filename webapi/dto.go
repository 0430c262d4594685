package webapi

import (
	"time"

	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
)

// CreateAccountRequest provisions a new account.
type CreateAccountRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3,uppercase"`
}

// MoveMoneyRequest covers deposits and withdrawals. Amounts are decimal
// strings; float money never crosses the wire.
type MoveMoneyRequest struct {
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase"`
	IdempotencyKey string `json:"idempotency_key" validate:"required,max=128"`
}

// TransferRequest moves money from the path account to the destination.
type TransferRequest struct {
	DestinationAccountID string `json:"destination_account_id" validate:"required,uuid"`
	Amount               string `json:"amount" validate:"required"`
	Currency             string `json:"currency" validate:"required,len=3,uppercase"`
	IdempotencyKey       string `json:"idempotency_key" validate:"required,max=128"`
}

// AccountResponse is the wire shape of an account snapshot.
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionResponse is the wire shape of a transaction record.
type TransactionResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Kind                 string     `json:"kind"`
	SourceAccountID      *uuid.UUID `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID `json:"destination_account_id,omitempty"`
	Amount               string     `json:"amount"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	FailureReason        string     `json:"failure_reason,omitempty"`
	IdempotencyKey       string     `json:"idempotency_key"`
	RequestedAt          time.Time  `json:"requested_at"`
	CompletedAt          time.Time  `json:"completed_at"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Balance:   a.Balance.Decimal().String(),
		Currency:  a.Currency().String(),
		Status:    string(a.Status),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toTransactionResponse(rec *transaction.Record) TransactionResponse {
	return TransactionResponse{
		ID:                   rec.ID,
		Kind:                 string(rec.Kind),
		SourceAccountID:      rec.SourceAccountID,
		DestinationAccountID: rec.DestinationAccountID,
		Amount:               rec.Amount.Decimal().String(),
		Currency:             rec.Amount.Currency().String(),
		Status:               string(rec.Status),
		FailureReason:        string(rec.FailureReason),
		IdempotencyKey:       rec.IdempotencyKey,
		RequestedAt:          rec.RequestedAt,
		CompletedAt:          rec.CompletedAt,
	}
}

func toTransactionResponses(recs []*transaction.Record) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTransactionResponse(rec))
	}
	return out
}
