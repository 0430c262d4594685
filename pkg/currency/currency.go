// Package currency maintains the registry of supported currencies and the
// precision (number of fractional digits) each one allows.
package currency

import (
	"errors"
	"regexp"
	"sync"
)

// DefaultCurrency is the fallback currency code (USD).
const DefaultCurrency = Code("USD")

// ErrUnsupportedCurrency is returned when a currency code is not registered.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ErrInvalidCurrencyCode is returned when a code is not three uppercase letters.
var ErrInvalidCurrencyCode = errors.New("invalid currency code")

// Code is an ISO 4217 currency code (three uppercase letters).
type Code string

func (c Code) String() string { return string(c) }

// Meta holds per-currency metadata.
type Meta struct {
	Decimals int
	Symbol   string
}

// Registry is a concurrency-safe registry of currency metadata.
type Registry struct {
	mu      sync.RWMutex
	entries map[Code]Meta
}

// NewRegistry creates a registry pre-seeded with the commonly traded currencies.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[Code]Meta)}

	defaults := map[Code]Meta{
		"USD": {Decimals: 2, Symbol: "$"},
		"EUR": {Decimals: 2, Symbol: "€"},
		"GBP": {Decimals: 2, Symbol: "£"},
		"JPY": {Decimals: 0, Symbol: "¥"},
		"KWD": {Decimals: 3, Symbol: "د.ك"},
		"CAD": {Decimals: 2, Symbol: "C$"},
		"AUD": {Decimals: 2, Symbol: "A$"},
		"CHF": {Decimals: 2, Symbol: "CHF"},
		"CNY": {Decimals: 2, Symbol: "¥"},
		"INR": {Decimals: 2, Symbol: "₹"},
	}
	for code, meta := range defaults {
		r.Register(code, meta)
	}
	return r
}

// Register adds or updates a currency in the registry.
func (r *Registry) Register(code Code, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[code] = meta
}

// Get returns the metadata for a currency code.
func (r *Registry) Get(code Code) (Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.entries[code]
	if !ok {
		return Meta{}, ErrUnsupportedCurrency
	}
	return meta, nil
}

// IsSupported reports whether the currency code is registered.
func (r *Registry) IsSupported(code Code) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[code]
	return ok
}

// ListSupported returns all registered currency codes.
func (r *Registry) ListSupported() []Code {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]Code, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	return codes
}

var codeFormat = regexp.MustCompile(`^[A-Z]{3}$`)

// IsValidFormat reports whether s looks like an ISO 4217 code.
func IsValidFormat(s string) bool {
	return codeFormat.MatchString(s)
}

// Global registry instance used where no explicit registry is injected.
var global = NewRegistry()

// Register adds a currency to the global registry.
func Register(code Code, meta Meta) { global.Register(code, meta) }

// Get returns metadata from the global registry.
func Get(code Code) (Meta, error) { return global.Get(code) }

// IsSupported checks the global registry.
func IsSupported(code Code) bool { return global.IsSupported(code) }

// ListSupported lists codes in the global registry.
func ListSupported() []Code { return global.ListSupported() }
