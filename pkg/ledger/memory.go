package ledger

import (
	"context"
	"sync"

	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and single-process
// deployments. Records are kept in append order.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []*transaction.Record
	committed map[idemKey]*transaction.Record
}

type idemKey struct {
	callerID uuid.UUID
	key      string
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{committed: make(map[idemKey]*transaction.Record)}
}

// Append persists a terminal-state record. The committed-key check and the
// insert happen under one lock, so concurrent appends of the same key
// serialize: one wins, the rest get ErrDuplicateKey.
func (s *MemoryStore) Append(ctx context.Context, rec *transaction.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	if cp.Status == transaction.StatusCommitted && cp.IdempotencyKey != "" {
		k := idemKey{cp.CallerID, cp.IdempotencyKey}
		if _, exists := s.committed[k]; exists {
			return ErrDuplicateKey
		}
		s.committed[k] = &cp
	}
	s.records = append(s.records, &cp)
	return nil
}

// FindByIdempotencyKey returns the committed record for (callerID, key).
func (s *MemoryStore) FindByIdempotencyKey(ctx context.Context, callerID uuid.UUID, key string) (*transaction.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.committed[idemKey{callerID, key}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListForAccount returns records touching the account, newest first.
func (s *MemoryStore) ListForAccount(ctx context.Context, accountID uuid.UUID, page Page) ([]*transaction.Record, error) {
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*transaction.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Touches(accountID) {
			matched = append(matched, s.records[i])
		}
	}

	if page.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[page.Offset:]
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}

	out := make([]*transaction.Record, len(matched))
	for i, rec := range matched {
		cp := *rec
		out[i] = &cp
	}
	return out, nil
}

// Len returns the number of appended records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
