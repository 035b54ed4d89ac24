package testing

import (
	"sync"

	"github.com/aristath/steward/internal/domain"
)

// MockPriceSource is an in-memory implementation of domain.PriceSource.
type MockPriceSource struct {
	mu     sync.RWMutex
	quotes map[string]*domain.PriceQuote
	err    error
}

// NewMockPriceSource creates an empty mock price source.
func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{quotes: make(map[string]*domain.PriceQuote)}
}

// SetQuote stores a quote for a symbol.
func (m *MockPriceSource) SetQuote(symbol string, quote *domain.PriceQuote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = quote
}

// SetError makes every lookup fail with err.
func (m *MockPriceSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CachedQuote implements domain.PriceSource.
func (m *MockPriceSource) CachedQuote(symbol string) (*domain.PriceQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	quote, ok := m.quotes[symbol]
	if !ok {
		return nil, domain.ErrNoData
	}
	return quote, nil
}

// MockRateSource is an in-memory implementation of domain.RateSource.
type MockRateSource struct {
	mu    sync.RWMutex
	rates domain.RateSet
	err   error
}

// NewMockRateSource creates a mock rate source seeded with the standard
// fixture rates.
func NewMockRateSource() *MockRateSource {
	return &MockRateSource{rates: NewRateSetFixture()}
}

// SetRates replaces the rate set.
func (m *MockRateSource) SetRates(rates domain.RateSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = rates
}

// SetError makes every lookup fail with err.
func (m *MockRateSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CurrentRates implements domain.RateSource.
func (m *MockRateSource) CurrentRates() (domain.RateSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.rates, nil
}
