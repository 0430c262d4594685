package webapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memaccounts "github.com/finvault/ledger/pkg/accountstore"
	"github.com/finvault/ledger/pkg/authz"
	"github.com/finvault/ledger/pkg/config"
	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/domain/money"
	"github.com/finvault/ledger/pkg/engine"
	"github.com/finvault/ledger/pkg/ledger"
	accountsvc "github.com/finvault/ledger/pkg/service/account"
	"github.com/finvault/ledger/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webapi-test-secret"

type fixture struct {
	app      *fiber.App
	accounts *memaccounts.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := memaccounts.NewMemoryStore()
	records := ledger.NewMemoryStore()
	authorizer := authz.NewOwnerAuthorizer(accounts)
	eng := engine.New(accounts, records, authorizer, nil, engine.DefaultConfig(), slog.Default())
	svc := accountsvc.NewService(accounts, records, authorizer, slog.Default())
	cfg := &config.AppConfig{Jwt: config.JwtConfig{Secret: testSecret}}
	return &fixture{
		app:      webapi.NewApp(eng, svc, cfg),
		accounts: accounts,
	}
}

func (f *fixture) seedAccount(t *testing.T, owner uuid.UUID, balance string) *domain.Account {
	t.Helper()
	a, err := domain.New().
		WithOwner(owner).
		WithBalance(money.MustParse(balance, "USD").Amount()).
		Build()
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func signToken(t *testing.T, subject uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *fixture) request(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint: errcheck
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	resp := f.request(t, http.MethodPost, "/account", signToken(t, owner),
		map[string]any{"currency": "EUR"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "EUR", data["currency"])
	assert.Equal(t, "0", data["balance"])
	assert.Equal(t, owner.String(), data["owner_id"])
}

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "0.00")

	resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", signToken(t, owner),
		map[string]any{"amount": "25.50", "currency": "USD", "idempotency_key": "dep-1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "COMMITTED", data["status"])
	assert.Equal(t, "25.5", data["amount"])

	stored, err := f.accounts.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2550), stored.Balance.Amount())
}

func TestDeposit_MissingToken(t *testing.T) {
	f := newFixture(t)
	a := f.seedAccount(t, uuid.New(), "0.00")

	resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", "",
		map[string]any{"amount": "1.00", "currency": "USD", "idempotency_key": "dep-1"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeposit_InvalidAmountString(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "0.00")

	resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", signToken(t, owner),
		map[string]any{"amount": "not-a-number", "currency": "USD", "idempotency_key": "dep-1"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeposit_Idempotent(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "0.00")
	token := signToken(t, owner)
	payload := map[string]any{"amount": "10.00", "currency": "USD", "idempotency_key": "dep-1"}

	first := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", token, payload)
	require.Equal(t, fiber.StatusOK, first.StatusCode)
	firstID := decodeBody(t, first)["data"].(map[string]any)["id"]

	second := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", token, payload)
	require.Equal(t, fiber.StatusOK, second.StatusCode)
	secondID := decodeBody(t, second)["data"].(map[string]any)["id"]

	assert.Equal(t, firstID, secondID)

	stored, err := f.accounts.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance.Amount(), "balance mutated once")
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "5.00")

	resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/withdraw", signToken(t, owner),
		map[string]any{"amount": "100.00", "currency": "USD", "idempotency_key": "wd-1"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["detail"])
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	src := f.seedAccount(t, owner, "100.00")
	dst := f.seedAccount(t, owner, "50.00")

	resp := f.request(t, http.MethodPost, "/account/"+src.ID.String()+"/transfer", signToken(t, owner),
		map[string]any{
			"destination_account_id": dst.ID.String(),
			"amount":                 "30.00",
			"currency":               "USD",
			"idempotency_key":        "tr-1",
		})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	srcStored, err := f.accounts.Get(context.Background(), src.ID)
	require.NoError(t, err)
	dstStored, err := f.accounts.Get(context.Background(), dst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), srcStored.Balance.Amount())
	assert.Equal(t, int64(8000), dstStored.Balance.Amount())
}

func TestTransfer_NotOwner(t *testing.T) {
	f := newFixture(t)
	src := f.seedAccount(t, uuid.New(), "100.00")
	dst := f.seedAccount(t, uuid.New(), "0.00")

	resp := f.request(t, http.MethodPost, "/account/"+src.ID.String()+"/transfer", signToken(t, uuid.New()),
		map[string]any{
			"destination_account_id": dst.ID.String(),
			"amount":                 "1.00",
			"currency":               "USD",
			"idempotency_key":        "tr-1",
		})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "42.00")

	resp := f.request(t, http.MethodGet, "/account/"+a.ID.String()+"/balance", signToken(t, owner), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "42", data["balance"])
	assert.Equal(t, "USD", data["currency"])
}

func TestGetTransactions(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "0.00")
	token := signToken(t, owner)

	for _, key := range []string{"dep-1", "dep-2", "dep-3"} {
		resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", token,
			map[string]any{"amount": "1.00", "currency": "USD", "idempotency_key": key})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		resp.Body.Close() //nolint: errcheck
	}

	resp := f.request(t, http.MethodGet, "/account/"+a.ID.String()+"/transactions?limit=2", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].([]any)
	assert.Len(t, data, 2)
}

func TestFreezeBlocksDeposits(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.seedAccount(t, owner, "10.00")
	token := signToken(t, owner)

	resp := f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/freeze", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = f.request(t, http.MethodPost, "/account/"+a.ID.String()+"/deposit", token,
		map[string]any{"amount": "1.00", "currency": "USD", "idempotency_key": "dep-1"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_NOT_ACTIVE", decodeBody(t, resp)["detail"])
}
