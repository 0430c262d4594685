package ledger

import (
	"context"
	"errors"

	pkgledger "github.com/finvault/ledger/pkg/ledger"

	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements ledger.Store on a GORM database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed ledger store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append inserts the terminal record. The history is insert-only; nothing
// here ever issues an UPDATE or DELETE against the transactions table. A
// committed record whose key already committed trips the partial unique
// index and surfaces as ErrDuplicateKey.
func (s *GormStore) Append(ctx context.Context, rec *transaction.Record) error {
	if err := s.db.WithContext(ctx).Create(fromDomain(rec)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgledger.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// FindByIdempotencyKey returns the committed record for the caller and key.
// Failed rows are excluded so a caller may retry a failed operation under
// the same key.
func (s *GormStore) FindByIdempotencyKey(ctx context.Context, callerID uuid.UUID, key string) (*transaction.Record, error) {
	var m Transaction
	result := s.db.WithContext(ctx).
		Where("caller_id = ? AND idempotency_key = ? AND status = ?", callerID, key, string(transaction.StatusCommitted)).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, pkgledger.ErrRecordNotFound
		}
		return nil, result.Error
	}
	return toDomain(&m)
}

// ListForAccount returns records where the account is the source or the
// destination, newest first.
func (s *GormStore) ListForAccount(ctx context.Context, accountID uuid.UUID, page pkgledger.Page) ([]*transaction.Record, error) {
	page = page.Normalize()

	var models []Transaction
	result := s.db.WithContext(ctx).
		Where("source_account_id = ? OR destination_account_id = ?", accountID, accountID).
		Order("requested_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	records := make([]*transaction.Record, 0, len(models))
	for i := range models {
		rec, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

var _ pkgledger.Store = (*GormStore)(nil)
