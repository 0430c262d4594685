package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/finvault/ledger/pkg/accountstore"
	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements accountstore.Store on a GORM database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed account store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns a snapshot of the account.
func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	result := s.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, result.Error
	}
	return toDomain(&m)
}

// Create provisions a new account row.
func (s *GormStore) Create(ctx context.Context, a *domain.Account) error {
	return s.db.WithContext(ctx).Create(fromDomain(a)).Error
}

// ApplyDelta applies the balance delta under the optimistic version check.
// The read resolves the failure cause; the UPDATE's WHERE clause on
// (id, version, status) is what actually guards the mutation, so a row
// changed between read and write surfaces as a version conflict, never a
// lost update.
func (s *GormStore) ApplyDelta(ctx context.Context, id uuid.UUID, delta money.Money, expectedVersion int64) (*domain.Account, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, domain.ErrNotActive
	}
	if current.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	next, err := current.Balance.Add(delta)
	if err != nil {
		return nil, err
	}
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND version = ? AND status = ?", id, expectedVersion, string(domain.StatusActive)).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta.Amount()),
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrVersionConflict
	}

	current.Balance = next
	current.Version = expectedVersion + 1
	current.UpdatedAt = now
	return current, nil
}

// SetStatus transitions the account lifecycle state.
func (s *GormStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*domain.Account, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.ValidateTransition(status); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND status = ?", id, string(current.Status)).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrVersionConflict
	}

	current.Status = status
	current.UpdatedAt = now
	return current, nil
}

var _ accountstore.Store = (*GormStore)(nil)
