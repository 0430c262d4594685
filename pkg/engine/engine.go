// Package engine validates, sequences, and atomically executes money
// movement requests, producing exactly one durable transaction record per
// execution.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finvault/ledger/pkg/accountstore"
	"github.com/finvault/ledger/pkg/authz"
	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/finvault/ledger/pkg/eventbus"
	"github.com/finvault/ledger/pkg/ledger"
	"github.com/google/uuid"
)

// ErrRetriesExhausted signals that the optimistic version check kept losing
// to concurrent writers until the retry budget ran out.
var ErrRetriesExhausted = errors.New("retries exhausted on version conflict")

// Config carries the engine's tunables. Passed explicitly so the engine
// stays testable with fake stores; no ambient globals.
type Config struct {
	// MaxRetries bounds ApplyDelta attempts per account mutation.
	MaxRetries int
	// RetryBackoff is the initial backoff between attempts; it doubles
	// after every conflict.
	RetryBackoff time.Duration
}

// DefaultConfig returns the retry settings used when none are configured.
func DefaultConfig() Config {
	return Config{MaxRetries: 5, RetryBackoff: 5 * time.Millisecond}
}

// Request describes one money movement operation.
type Request struct {
	Kind                 transaction.Kind
	CallerID             uuid.UUID
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	Amount               money.Money
	IdempotencyKey       string
}

// Engine executes money movement requests against the account store and
// appends the outcome to the ledger.
type Engine struct {
	accounts accountstore.Store
	records  ledger.Store
	authz    authz.Authorizer
	bus      eventbus.Publisher
	cfg      Config
	logger   *slog.Logger
}

// New creates an Engine. The publisher may be nil, in which case no events
// are emitted.
func New(
	accounts accountstore.Store,
	records ledger.Store,
	authorizer authz.Authorizer,
	bus eventbus.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultConfig().RetryBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		accounts: accounts,
		records:  records,
		authz:    authorizer,
		bus:      bus,
		cfg:      cfg,
		logger:   logger.With("component", "engine"),
	}
}

// Deposit credits an account.
func (e *Engine) Deposit(ctx context.Context, callerID, accountID uuid.UUID, amount money.Money, key string) (*transaction.Record, error) {
	return e.Execute(ctx, Request{
		Kind:                 transaction.KindDeposit,
		CallerID:             callerID,
		DestinationAccountID: &accountID,
		Amount:               amount,
		IdempotencyKey:       key,
	})
}

// Withdraw debits an account.
func (e *Engine) Withdraw(ctx context.Context, callerID, accountID uuid.UUID, amount money.Money, key string) (*transaction.Record, error) {
	return e.Execute(ctx, Request{
		Kind:            transaction.KindWithdrawal,
		CallerID:        callerID,
		SourceAccountID: &accountID,
		Amount:          amount,
		IdempotencyKey:  key,
	})
}

// Transfer moves money between two accounts.
func (e *Engine) Transfer(ctx context.Context, callerID, sourceID, destinationID uuid.UUID, amount money.Money, key string) (*transaction.Record, error) {
	return e.Execute(ctx, Request{
		Kind:                 transaction.KindTransfer,
		CallerID:             callerID,
		SourceAccountID:      &sourceID,
		DestinationAccountID: &destinationID,
		Amount:               amount,
		IdempotencyKey:       key,
	})
}

// Execute runs one operation to a terminal state.
//
// Business and validation outcomes return a FAILED record and a nil error.
// A non-nil error means infrastructure was unreachable and no durable
// record could be created; retrying under the same idempotency key is safe.
func (e *Engine) Execute(ctx context.Context, req Request) (rec *transaction.Record, err error) {
	logger := e.logger.With(
		"kind", req.Kind,
		"caller_id", req.CallerID,
		"idempotency_key", req.IdempotencyKey,
	)

	// Idempotency: a committed record under the same (caller, key) is
	// returned unchanged, making Execute safe to retry after timeouts.
	if req.IdempotencyKey != "" {
		prior, lookupErr := e.records.FindByIdempotencyKey(ctx, req.CallerID, req.IdempotencyKey)
		if lookupErr == nil {
			logger.Info("idempotent replay, returning committed record", "record_id", prior.ID)
			return prior, nil
		}
		if !errors.Is(lookupErr, ledger.ErrRecordNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", lookupErr)
		}
	}

	rec = transaction.NewPending(req.Kind, req.CallerID, req.IdempotencyKey, req.Amount, req.SourceAccountID, req.DestinationAccountID)

	if reason, ok := e.validate(req); !ok {
		return e.fail(ctx, logger, rec, reason)
	}

	// Referenced accounts must resolve before authorization is consulted,
	// so a missing account reads as NOT_FOUND rather than UNAUTHORIZED.
	for _, id := range []*uuid.UUID{req.SourceAccountID, req.DestinationAccountID} {
		if id == nil {
			continue
		}
		if _, err := e.accounts.Get(ctx, *id); err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return e.fail(ctx, logger, rec, transaction.ReasonAccountNotFound)
			}
			return nil, fmt.Errorf("resolve account %s: %w", *id, err)
		}
	}

	authorized, err := e.authorize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("authorization: %w", err)
	}
	if !authorized {
		return e.fail(ctx, logger, rec, transaction.ReasonUnauthorized)
	}

	switch req.Kind {
	case transaction.KindDeposit:
		return e.executeSingle(ctx, logger, rec, *req.DestinationAccountID, req.Amount)
	case transaction.KindWithdrawal:
		return e.executeSingle(ctx, logger, rec, *req.SourceAccountID, req.Amount.Negate())
	case transaction.KindTransfer:
		return e.executeTransfer(ctx, logger, rec, req)
	default:
		return e.fail(ctx, logger, rec, transaction.ReasonInvalidRequest)
	}
}

// validate rejects structurally bad requests before any mutation.
func (e *Engine) validate(req Request) (transaction.FailureReason, bool) {
	if req.CallerID == uuid.Nil || req.IdempotencyKey == "" {
		return transaction.ReasonInvalidRequest, false
	}
	if !req.Amount.IsPositive() {
		return transaction.ReasonInvalidAmount, false
	}
	switch req.Kind {
	case transaction.KindDeposit:
		if req.DestinationAccountID == nil {
			return transaction.ReasonInvalidRequest, false
		}
	case transaction.KindWithdrawal:
		if req.SourceAccountID == nil {
			return transaction.ReasonInvalidRequest, false
		}
	case transaction.KindTransfer:
		if req.SourceAccountID == nil || req.DestinationAccountID == nil {
			return transaction.ReasonInvalidRequest, false
		}
		if *req.SourceAccountID == *req.DestinationAccountID {
			return transaction.ReasonSameAccount, false
		}
	}
	return "", true
}

// authorize consults the collaborator for every referenced account.
func (e *Engine) authorize(ctx context.Context, req Request) (bool, error) {
	for _, id := range []*uuid.UUID{req.SourceAccountID, req.DestinationAccountID} {
		if id == nil {
			continue
		}
		ok, err := e.authz.IsAuthorized(ctx, req.CallerID, *id)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// executeSingle handles deposits and withdrawals: one delta, one account.
func (e *Engine) executeSingle(ctx context.Context, logger *slog.Logger, rec *transaction.Record, accountID uuid.UUID, delta money.Money) (*transaction.Record, error) {
	if _, err := e.applyDeltaWithRetry(ctx, accountID, delta); err != nil {
		reason, infraErr := classify(err)
		if infraErr != nil {
			return nil, infraErr
		}
		return e.fail(ctx, logger, rec, reason)
	}
	return e.commit(ctx, logger, rec, func(ctx context.Context) error {
		_, err := e.applyDeltaWithRetry(ctx, accountID, delta.Negate())
		return err
	})
}

// executeTransfer debits the source, credits the destination, and reverses
// the debit if the credit fails. Once the debit has applied, cancellation
// of the caller's context no longer aborts the operation: the remaining
// steps run on a detached context so a partially-applied transfer always
// runs forward to completion or compensation.
func (e *Engine) executeTransfer(ctx context.Context, logger *slog.Logger, rec *transaction.Record, req Request) (*transaction.Record, error) {
	sourceID := *req.SourceAccountID
	destinationID := *req.DestinationAccountID

	if _, err := e.applyDeltaWithRetry(ctx, sourceID, req.Amount.Negate()); err != nil {
		// Nothing was mutated; record the failure and stop.
		reason, infraErr := classify(err)
		if infraErr != nil {
			return nil, infraErr
		}
		return e.fail(ctx, logger, rec, reason)
	}

	ctx = context.WithoutCancel(ctx)

	if _, err := e.applyDeltaWithRetry(ctx, destinationID, req.Amount); err != nil {
		reason, infraErr := classify(err)
		if infraErr != nil {
			// The debit already applied, so an unreachable credit cannot
			// propagate as an infrastructure error; it becomes a transient
			// failure once the debit is compensated.
			reason = transaction.ReasonCreditUnavailable
		}
		logger.Warn("transfer credit failed, compensating source", "destination_id", destinationID, "reason", reason, "error", err)

		if _, compErr := e.applyDeltaWithRetry(ctx, sourceID, req.Amount); compErr != nil {
			logger.Error("compensation failed, surfacing to reconciliation",
				"source_id", sourceID, "error", compErr)
			e.alertReconciliation(ctx, rec, sourceID, compErr)
			return e.fail(ctx, logger, rec, transaction.ReasonCompensationFailed)
		}
		return e.fail(ctx, logger, rec, reason)
	}

	return e.commit(ctx, logger, rec, func(ctx context.Context) error {
		if _, err := e.applyDeltaWithRetry(ctx, destinationID, req.Amount.Negate()); err != nil {
			return err
		}
		_, err := e.applyDeltaWithRetry(ctx, sourceID, req.Amount)
		return err
	})
}

// applyDeltaWithRetry runs the read-then-CAS loop: read the current
// version, attempt the delta, and on a version conflict back off
// exponentially and retry with a fresh version, up to the configured
// budget.
func (e *Engine) applyDeltaWithRetry(ctx context.Context, accountID uuid.UUID, delta money.Money) (*account.Account, error) {
	backoff := e.cfg.RetryBackoff
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		current, err := e.accounts.Get(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if current.Currency() != delta.Currency() {
			return nil, money.ErrCurrencyMismatch
		}

		snap, err := e.accounts.ApplyDelta(ctx, accountID, delta, current.Version)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, account.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, ErrRetriesExhausted
}

// classify maps a mutation error to a failure reason, or passes it through
// as an infrastructure error when it matches no business condition.
func classify(err error) (transaction.FailureReason, error) {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		return transaction.ReasonInsufficientFunds, nil
	case errors.Is(err, account.ErrNotActive):
		return transaction.ReasonAccountNotActive, nil
	case errors.Is(err, account.ErrNotFound):
		return transaction.ReasonAccountNotFound, nil
	case errors.Is(err, money.ErrCurrencyMismatch):
		return transaction.ReasonCurrencyMismatch, nil
	case errors.Is(err, ErrRetriesExhausted):
		return transaction.ReasonRetriesExhausted, nil
	default:
		return "", err
	}
}

// commit finalizes and durably appends a committed record, then emits the
// committed event. The ledger's key uniqueness is the last line of defense
// against concurrent executions of the same key: when the append loses
// that race, reverse undoes this execution's balance mutation and the
// winner's record is returned, keeping exactly one mutation per key.
func (e *Engine) commit(ctx context.Context, logger *slog.Logger, rec *transaction.Record, reverse func(context.Context) error) (*transaction.Record, error) {
	if err := rec.Commit(); err != nil {
		return nil, err
	}
	if err := e.records.Append(context.WithoutCancel(ctx), rec); err != nil {
		if errors.Is(err, ledger.ErrDuplicateKey) {
			return e.resolveDuplicate(context.WithoutCancel(ctx), logger, rec, reverse)
		}
		return nil, fmt.Errorf("ledger append: %w", err)
	}
	logger.Info("transaction committed", "record_id", rec.ID, "amount", rec.Amount.String())

	if e.bus != nil {
		if err := e.bus.Publish(context.WithoutCancel(ctx), eventbus.CommittedEvent(rec)); err != nil {
			logger.Error("failed to publish committed event", "record_id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// resolveDuplicate handles a lost commit race: undo this execution's
// mutation and hand back the record that won the key.
func (e *Engine) resolveDuplicate(ctx context.Context, logger *slog.Logger, rec *transaction.Record, reverse func(context.Context) error) (*transaction.Record, error) {
	logger.Warn("idempotency key committed concurrently, reversing this execution", "record_id", rec.ID)

	if reverse != nil {
		if err := reverse(ctx); err != nil {
			logger.Error("failed to reverse after losing commit race, surfacing to reconciliation",
				"record_id", rec.ID, "error", err)
			affected := rec.DestinationAccountID
			if rec.SourceAccountID != nil {
				affected = rec.SourceAccountID
			}
			e.alertReconciliation(ctx, rec, *affected, err)
			return nil, fmt.Errorf("reverse after duplicate key: %w", err)
		}
	}

	winner, err := e.records.FindByIdempotencyKey(ctx, rec.CallerID, rec.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("duplicate key lookup: %w", err)
	}
	return winner, nil
}

// fail finalizes and durably appends a failed record.
func (e *Engine) fail(ctx context.Context, logger *slog.Logger, rec *transaction.Record, reason transaction.FailureReason) (*transaction.Record, error) {
	if err := rec.Fail(reason); err != nil {
		return nil, err
	}
	if err := e.records.Append(context.WithoutCancel(ctx), rec); err != nil {
		return nil, fmt.Errorf("ledger append: %w", err)
	}
	logger.Info("transaction failed", "record_id", rec.ID, "reason", reason)
	return rec, nil
}

// alertReconciliation surfaces a compensation failure out-of-band. The
// discrepancy is resolved manually; it must never be silently dropped.
func (e *Engine) alertReconciliation(ctx context.Context, rec *transaction.Record, sourceID uuid.UUID, cause error) {
	if e.bus == nil {
		return
	}
	evt := eventbus.CompensationFailed{
		RecordID:        rec.ID,
		SourceAccountID: sourceID,
		Amount:          rec.Amount.Decimal().String(),
		Currency:        rec.Amount.Currency().String(),
		Detail:          cause.Error(),
		OccurredAt:      time.Now().UTC(),
	}
	if err := e.bus.Publish(ctx, evt); err != nil {
		e.logger.Error("failed to publish compensation alert", "record_id", rec.ID, "error", err)
	}
}
