package webapi_test

import (
	"errors"
	"testing"

	"github.com/finvault/ledger/pkg/currency"
	domain "github.com/finvault/ledger/pkg/domain/account"
	"github.com/finvault/ledger/pkg/ledger"
	accountsvc "github.com/finvault/ledger/pkg/service/account"
	"github.com/finvault/ledger/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"account not found", domain.ErrNotFound, fiber.StatusNotFound},
		{"record not found", ledger.ErrRecordNotFound, fiber.StatusNotFound},
		{"unauthorized", accountsvc.ErrUnauthorized, fiber.StatusUnauthorized},
		{"insufficient funds", domain.ErrInsufficientFunds, fiber.StatusUnprocessableEntity},
		{"not active", domain.ErrNotActive, fiber.StatusConflict},
		{"close with balance", domain.ErrCloseNonZeroBalance, fiber.StatusConflict},
		{"version conflict", domain.ErrVersionConflict, fiber.StatusConflict},
		{"unsupported currency", currency.ErrUnsupportedCurrency, fiber.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, webapi.ErrorToStatusCode(tt.err))
		})
	}
}
