// Package authz defines the authorization collaborator consulted before
// any balance mutation.
package authz

import (
	"context"
	"errors"

	"github.com/finvault/ledger/pkg/accountstore"
	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

// Authorizer answers whether a principal may operate on an account.
type Authorizer interface {
	IsAuthorized(ctx context.Context, principal, accountID uuid.UUID) (bool, error)
}

// OwnerAuthorizer authorizes a principal for the accounts they own.
type OwnerAuthorizer struct {
	accounts accountstore.Store
}

// NewOwnerAuthorizer creates an owner-based Authorizer backed by the
// account store.
func NewOwnerAuthorizer(accounts accountstore.Store) *OwnerAuthorizer {
	return &OwnerAuthorizer{accounts: accounts}
}

// IsAuthorized reports whether principal owns the account. A missing
// account is not an authorization error; the engine resolves existence
// separately.
func (a *OwnerAuthorizer) IsAuthorized(ctx context.Context, principal, accountID uuid.UUID) (bool, error) {
	acc, err := a.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return acc.OwnerID == principal, nil
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, principal, accountID uuid.UUID) (bool, error)

func (f AuthorizerFunc) IsAuthorized(ctx context.Context, principal, accountID uuid.UUID) (bool, error) {
	return f(ctx, principal, accountID)
}

var _ Authorizer = (*OwnerAuthorizer)(nil)
