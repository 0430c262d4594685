// Package account provides the service layer for account lifecycle and
// read operations: provisioning, freezing, closing, balance inquiry, and
// transaction history. Money movement goes through the engine, not here.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finvault/ledger/pkg/accountstore"
	"github.com/finvault/ledger/pkg/authz"
	"github.com/finvault/ledger/pkg/currency"
	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/finvault/ledger/pkg/ledger"
	"github.com/google/uuid"
)

// ErrUnauthorized is returned when the caller may not operate on the account.
var ErrUnauthorized = errors.New("caller not authorized for account")

// Service exposes account lifecycle and read operations.
type Service struct {
	accounts accountstore.Store
	records  ledger.Store
	authz    authz.Authorizer
	logger   *slog.Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(accounts accountstore.Store, records ledger.Store, authorizer authz.Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts: accounts,
		records:  records,
		authz:    authorizer,
		logger:   logger.With("component", "account_service"),
	}
}

// CreateAccount provisions a new, active, zero-balance account for the owner.
func (s *Service) CreateAccount(ctx context.Context, ownerID uuid.UUID, code currency.Code) (*domain.Account, error) {
	a, err := domain.New().
		WithOwner(ownerID).
		WithCurrency(code).
		Build()
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("account created", "account_id", a.ID, "owner_id", ownerID, "currency", code)
	return a, nil
}

// GetBalance returns the account snapshot for an authorized caller.
func (s *Service) GetBalance(ctx context.Context, callerID, accountID uuid.UUID) (*domain.Account, error) {
	if err := s.authorize(ctx, callerID, accountID); err != nil {
		return nil, err
	}
	return s.accounts.Get(ctx, accountID)
}

// ListTransactions returns the account's history, newest first.
func (s *Service) ListTransactions(ctx context.Context, callerID, accountID uuid.UUID, page ledger.Page) ([]*transaction.Record, error) {
	if err := s.authorize(ctx, callerID, accountID); err != nil {
		return nil, err
	}
	return s.records.ListForAccount(ctx, accountID, page)
}

// Freeze suspends mutations on the account. Reads remain allowed.
func (s *Service) Freeze(ctx context.Context, callerID, accountID uuid.UUID) (*domain.Account, error) {
	return s.setStatus(ctx, callerID, accountID, domain.StatusFrozen)
}

// Unfreeze reactivates a frozen account.
func (s *Service) Unfreeze(ctx context.Context, callerID, accountID uuid.UUID) (*domain.Account, error) {
	return s.setStatus(ctx, callerID, accountID, domain.StatusActive)
}

// Close terminally closes the account. The balance must be zero.
func (s *Service) Close(ctx context.Context, callerID, accountID uuid.UUID) (*domain.Account, error) {
	return s.setStatus(ctx, callerID, accountID, domain.StatusClosed)
}

func (s *Service) setStatus(ctx context.Context, callerID, accountID uuid.UUID, status domain.Status) (*domain.Account, error) {
	if err := s.authorize(ctx, callerID, accountID); err != nil {
		return nil, err
	}
	a, err := s.accounts.SetStatus(ctx, accountID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account status changed", "account_id", accountID, "status", status)
	return a, nil
}

// authorize resolves existence first so a missing account surfaces as
// not-found rather than unauthorized.
func (s *Service) authorize(ctx context.Context, callerID, accountID uuid.UUID) error {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return err
	}
	ok, err := s.authz.IsAuthorized(ctx, callerID, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
