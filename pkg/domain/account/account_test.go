package account_test

import (
	"testing"

	"github.com/finvault/ledger/pkg/currency"
	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Defaults(t *testing.T) {
	owner := uuid.New()
	a, err := account.New().WithOwner(owner).Build()
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, owner, a.OwnerID)
	assert.Equal(t, currency.DefaultCurrency, a.Currency())
	assert.Equal(t, account.StatusActive, a.Status)
	assert.True(t, a.Balance.IsZero())
	assert.Zero(t, a.Version)
}

func TestBuilder_RequiresOwner(t *testing.T) {
	_, err := account.New().Build()
	require.Error(t, err)
}

func TestBuilder_RejectsNegativeBalance(t *testing.T) {
	_, err := account.New().WithOwner(uuid.New()).WithBalance(-1).Build()
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
}

func TestBuilder_RejectsUnsupportedCurrency(t *testing.T) {
	_, err := account.New().WithOwner(uuid.New()).WithCurrency("ZZZ").Build()
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
}

func TestValidateTransition(t *testing.T) {
	active, err := account.New().WithOwner(uuid.New()).Build()
	require.NoError(t, err)

	assert.NoError(t, active.ValidateTransition(account.StatusFrozen))
	assert.NoError(t, active.ValidateTransition(account.StatusClosed))

	funded, err := account.New().WithOwner(uuid.New()).WithBalance(100).Build()
	require.NoError(t, err)
	assert.ErrorIs(t, funded.ValidateTransition(account.StatusClosed), account.ErrCloseNonZeroBalance)

	closed, err := account.New().WithOwner(uuid.New()).WithStatus(account.StatusClosed).Build()
	require.NoError(t, err)
	assert.ErrorIs(t, closed.ValidateTransition(account.StatusActive), account.ErrInvalidTransition)
	assert.NoError(t, closed.ValidateTransition(account.StatusClosed))
}

func TestIsActive(t *testing.T) {
	frozen, err := account.New().WithOwner(uuid.New()).WithStatus(account.StatusFrozen).Build()
	require.NoError(t, err)
	assert.False(t, frozen.IsActive())

	active, err := account.New().WithOwner(uuid.New()).Build()
	require.NoError(t, err)
	assert.True(t, active.IsActive())
}
