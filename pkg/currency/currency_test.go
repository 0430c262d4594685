package currency_test

import (
	"testing"

	"github.com/finvault/ledger/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	r := currency.NewRegistry()

	usd, err := r.Get("USD")
	require.NoError(t, err)
	assert.Equal(t, 2, usd.Decimals)

	jpy, err := r.Get("JPY")
	require.NoError(t, err)
	assert.Equal(t, 0, jpy.Decimals)

	kwd, err := r.Get("KWD")
	require.NoError(t, err)
	assert.Equal(t, 3, kwd.Decimals)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := currency.NewRegistry()
	_, err := r.Get("XXX")
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
	assert.False(t, r.IsSupported("XXX"))
}

func TestRegistry_Register(t *testing.T) {
	r := currency.NewRegistry()
	r.Register("BTC", currency.Meta{Decimals: 8, Symbol: "₿"})
	require.True(t, r.IsSupported("BTC"))
	meta, err := r.Get("BTC")
	require.NoError(t, err)
	assert.Equal(t, 8, meta.Decimals)
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"USD", true},
		{"EUR", true},
		{"usd", false},
		{"US", false},
		{"USDX", false},
		{"U$D", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, currency.IsValidFormat(tt.code), "code %q", tt.code)
	}
}
