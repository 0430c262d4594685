package webapi

import (
	"github.com/finvault/ledger/pkg/config"
	"github.com/finvault/ledger/pkg/currency"
	"github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/finvault/ledger/pkg/domain/transaction"
	"github.com/finvault/ledger/pkg/engine"
	"github.com/finvault/ledger/pkg/ledger"
	"github.com/finvault/ledger/pkg/middleware"
	accountsvc "github.com/finvault/ledger/pkg/service/account"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AccountRoutes registers the account and money movement endpoints. All
// routes require a valid bearer token; the token subject is the caller.
//
// Routes:
//   - POST /account                    : Provision a new account.
//   - POST /account/:id/deposit        : Credit the account.
//   - POST /account/:id/withdraw       : Debit the account.
//   - POST /account/:id/transfer       : Move money to another account.
//   - POST /account/:id/freeze         : Suspend balance mutations.
//   - POST /account/:id/unfreeze       : Reactivate a frozen account.
//   - POST /account/:id/close          : Terminally close the account.
//   - GET  /account/:id/balance        : Current balance snapshot.
//   - GET  /account/:id/transactions   : History, newest first.
func AccountRoutes(app *fiber.App, eng *engine.Engine, svc *accountsvc.Service, cfg *config.AppConfig) {
	jwt := middleware.JwtProtected(cfg.Jwt)
	app.Post("/account", jwt, CreateAccount(svc))
	app.Post("/account/:id/deposit", jwt, Deposit(eng))
	app.Post("/account/:id/withdraw", jwt, Withdraw(eng))
	app.Post("/account/:id/transfer", jwt, Transfer(eng))
	app.Post("/account/:id/freeze", jwt, SetStatus(svc, "freeze"))
	app.Post("/account/:id/unfreeze", jwt, SetStatus(svc, "unfreeze"))
	app.Post("/account/:id/close", jwt, SetStatus(svc, "close"))
	app.Get("/account/:id/balance", jwt, GetBalance(svc))
	app.Get("/account/:id/transactions", jwt, GetTransactions(svc))
}

// CreateAccount provisions a new, zero-balance account owned by the caller.
func CreateAccount(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		input, err := BindAndValidate[CreateAccountRequest](c)
		if input == nil {
			return err
		}
		code := currency.DefaultCurrency
		if input.Currency != "" {
			code = currency.Code(input.Currency)
		}
		if !currency.IsSupported(code) {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Unsupported currency", code.String())
		}
		a, err := svc.CreateAccount(c.UserContext(), callerID, code)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create account", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "Account created", toAccountResponse(a))
	}
}

// Deposit credits the path account with the request amount.
func Deposit(eng *engine.Engine) fiber.Handler {
	return moveMoney(eng, transaction.KindDeposit)
}

// Withdraw debits the path account by the request amount.
func Withdraw(eng *engine.Engine) fiber.Handler {
	return moveMoney(eng, transaction.KindWithdrawal)
}

func moveMoney(eng *engine.Engine, kind transaction.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		input, err := BindAndValidate[MoveMoneyRequest](c)
		if input == nil {
			return err
		}
		amount, err := parseAmount(c, input.Amount, input.Currency)
		if err != nil {
			return nil // error response already written
		}

		var rec *transaction.Record
		if kind == transaction.KindDeposit {
			rec, err = eng.Deposit(c.UserContext(), callerID, accountID, amount, input.IdempotencyKey)
		} else {
			rec, err = eng.Withdraw(c.UserContext(), callerID, accountID, amount, input.IdempotencyKey)
		}
		return writeRecord(c, rec, err)
	}
}

// Transfer moves money from the path account to the destination account.
func Transfer(eng *engine.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		sourceID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		input, err := BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		destinationID, err := uuid.Parse(input.DestinationAccountID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid destination account ID", err.Error())
		}
		amount, err := parseAmount(c, input.Amount, input.Currency)
		if err != nil {
			return nil
		}

		rec, err := eng.Transfer(c.UserContext(), callerID, sourceID, destinationID, amount, input.IdempotencyKey)
		return writeRecord(c, rec, err)
	}
}

// SetStatus returns a handler for the freeze, unfreeze, and close actions.
func SetStatus(svc *accountsvc.Service, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}

		a, svcErr := applyAction(c, svc, action, callerID, accountID)
		if svcErr != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(svcErr), "Account status change failed", svcErr.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Account "+action+" applied", toAccountResponse(a))
	}
}

func applyAction(c *fiber.Ctx, svc *accountsvc.Service, action string, callerID, accountID uuid.UUID) (*account.Account, error) {
	switch action {
	case "freeze":
		return svc.Freeze(c.UserContext(), callerID, accountID)
	case "unfreeze":
		return svc.Unfreeze(c.UserContext(), callerID, accountID)
	default:
		return svc.Close(c.UserContext(), callerID, accountID)
	}
}

// GetBalance returns the account snapshot for its owner.
func GetBalance(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		a, err := svc.GetBalance(c.UserContext(), callerID, accountID)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to fetch balance", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", toAccountResponse(a))
	}
}

// GetTransactions lists the account's history, newest first. Supports
// limit and offset query parameters.
func GetTransactions(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, err := middleware.CallerID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		page := ledger.Page{
			Limit:  c.QueryInt("limit"),
			Offset: c.QueryInt("offset"),
		}
		recs, err := svc.ListTransactions(c.UserContext(), callerID, accountID, page)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to list transactions", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", toTransactionResponses(recs))
	}
}

// parseAmount converts a decimal string into Money; on failure it writes
// the error response and returns the error.
func parseAmount(c *fiber.Ctx, amount, code string) (money.Money, error) {
	m, err := money.Parse(amount, currency.Code(code))
	if err != nil {
		status := ErrorToStatusCode(err)
		if status == fiber.StatusInternalServerError {
			// Unparseable amount strings are a client problem.
			status = fiber.StatusBadRequest
		}
		_ = ErrorResponseJSON(c, status, "Invalid amount", err.Error())
		return money.Money{}, err
	}
	return m, nil
}

// writeRecord maps an engine outcome to the wire. Committed records are a
// success; failed records carry their failure reason as a problem response
// with the record attached so the client can inspect the terminal state.
func writeRecord(c *fiber.Ctx, rec *transaction.Record, err error) error {
	if err != nil {
		return ErrorResponseJSON(c, fiber.StatusServiceUnavailable, "Operation could not complete", err.Error())
	}
	if rec.Status == transaction.StatusFailed {
		return failedRecordJSON(c, rec)
	}
	return SuccessResponseJSON(c, fiber.StatusOK, "Transaction committed", toTransactionResponse(rec))
}

func failedRecordJSON(c *fiber.Ctx, rec *transaction.Record) error {
	status := reasonToStatusCode(rec.FailureReason)
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    "Transaction failed",
		Status:   status,
		Detail:   string(rec.FailureReason),
		Instance: c.OriginalURL(),
		Errors:   toTransactionResponse(rec),
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

func reasonToStatusCode(reason transaction.FailureReason) int {
	switch reason {
	case transaction.ReasonInvalidAmount,
		transaction.ReasonInvalidRequest,
		transaction.ReasonSameAccount:
		return fiber.StatusBadRequest
	case transaction.ReasonUnauthorized:
		return fiber.StatusForbidden
	case transaction.ReasonAccountNotFound:
		return fiber.StatusNotFound
	case transaction.ReasonAccountNotActive,
		transaction.ReasonInsufficientFunds,
		transaction.ReasonCurrencyMismatch:
		return fiber.StatusUnprocessableEntity
	case transaction.ReasonRetriesExhausted:
		return fiber.StatusConflict
	case transaction.ReasonCreditUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
