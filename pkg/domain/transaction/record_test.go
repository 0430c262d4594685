package transaction_test

import (
	"testing"

	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T) *transaction.Record {
	t.Helper()
	dst := uuid.New()
	return transaction.NewPending(
		transaction.KindDeposit,
		uuid.New(),
		"key-1",
		money.MustParse("10.00", "USD"),
		nil,
		&dst,
	)
}

func TestNewPending(t *testing.T) {
	rec := newPending(t)
	assert.Equal(t, transaction.StatusPending, rec.Status)
	assert.False(t, rec.IsTerminal())
	assert.False(t, rec.RequestedAt.IsZero())
	assert.True(t, rec.CompletedAt.IsZero())
}

func TestCommit(t *testing.T) {
	rec := newPending(t)
	require.NoError(t, rec.Commit())
	assert.Equal(t, transaction.StatusCommitted, rec.Status)
	assert.True(t, rec.IsTerminal())
	assert.False(t, rec.CompletedAt.IsZero())

	// Terminal states are final.
	assert.ErrorIs(t, rec.Commit(), transaction.ErrFinalized)
	assert.ErrorIs(t, rec.Fail(transaction.ReasonInsufficientFunds), transaction.ErrFinalized)
}

func TestFail(t *testing.T) {
	rec := newPending(t)
	require.NoError(t, rec.Fail(transaction.ReasonInsufficientFunds))
	assert.Equal(t, transaction.StatusFailed, rec.Status)
	assert.Equal(t, transaction.ReasonInsufficientFunds, rec.FailureReason)

	assert.ErrorIs(t, rec.Commit(), transaction.ErrFinalized)
}

func TestTouches(t *testing.T) {
	src := uuid.New()
	dst := uuid.New()
	rec := transaction.NewPending(
		transaction.KindTransfer,
		uuid.New(),
		"key-2",
		money.MustParse("1.00", "USD"),
		&src,
		&dst,
	)
	assert.True(t, rec.Touches(src))
	assert.True(t, rec.Touches(dst))
	assert.False(t, rec.Touches(uuid.New()))
}

func TestFailureReason_IsTransient(t *testing.T) {
	assert.True(t, transaction.ReasonRetriesExhausted.IsTransient())
	assert.True(t, transaction.ReasonCreditUnavailable.IsTransient())
	assert.False(t, transaction.ReasonInsufficientFunds.IsTransient())
	assert.False(t, transaction.ReasonCompensationFailed.IsTransient())
}
