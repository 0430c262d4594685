// Package accountstore provides the GORM/Postgres implementation of the
// account store. ApplyDelta compiles to a single conditional UPDATE keyed
// on (id, version) so the database arbitrates concurrent writers.
package accountstore

import (
	"time"

	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/currency"
	"github.com/google/uuid"
)

// Account is the database representation of an account.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Balance   int64     `gorm:"not null"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'USD'"`
	Status    string    `gorm:"type:varchar(16);not null;default:'ACTIVE'"`
	Version   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Account) TableName() string { return "accounts" }

func toDomain(m *Account) (*domain.Account, error) {
	return domain.New().
		WithID(m.ID).
		WithOwner(m.OwnerID).
		WithBalance(m.Balance).
		WithCurrency(currency.Code(m.Currency)).
		WithStatus(domain.Status(m.Status)).
		WithVersion(m.Version).
		WithTimestamps(m.CreatedAt, m.UpdatedAt).
		Build()
}

func fromDomain(a *domain.Account) *Account {
	return &Account{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Balance:   a.Balance.Amount(),
		Currency:  a.Currency().String(),
		Status:    string(a.Status),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
