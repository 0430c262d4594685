package accountstore

import (
	"context"
	"sync"
	"time"

	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and single-process
// deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*account.Account
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[uuid.UUID]*account.Account)}
}

// Get returns a snapshot of the account.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return snapshot(a), nil
}

// Create provisions a new account.
func (s *MemoryStore) Create(ctx context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = snapshot(a)
	return nil
}

// ApplyDelta implements the compare-and-swap balance mutation.
func (s *MemoryStore) ApplyDelta(ctx context.Context, id uuid.UUID, delta money.Money, expectedVersion int64) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if !a.IsActive() {
		return nil, account.ErrNotActive
	}
	if a.Version != expectedVersion {
		return nil, account.ErrVersionConflict
	}
	next, err := a.Balance.Add(delta)
	if err != nil {
		return nil, err
	}
	if next.IsNegative() {
		return nil, account.ErrInsufficientFunds
	}

	a.Balance = next
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	return snapshot(a), nil
}

// SetStatus transitions the account lifecycle state.
func (s *MemoryStore) SetStatus(ctx context.Context, id uuid.UUID, status account.Status) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if err := a.ValidateTransition(status); err != nil {
		return nil, err
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return snapshot(a), nil
}

func snapshot(a *account.Account) *account.Account {
	cp := *a
	return &cp
}

var _ Store = (*MemoryStore)(nil)
