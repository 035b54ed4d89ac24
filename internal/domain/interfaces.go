package domain

// PriceSource supplies cached quotes for tradeable holdings.
// This interface breaks the dependency between the net worth aggregator and
// the quotes client: the aggregator only ever reads the cache, it never
// triggers a fetch.
type PriceSource interface {
	// CachedQuote returns the last cached quote for a symbol, regardless of
	// age (staleness is the caller's concern). Returns ErrNoData when the
	// symbol has never been cached.
	CachedQuote(symbol string) (*PriceQuote, error)
}

// RateSource supplies the current base exchange rates.
// Refresh cadence (hourly) lives with the implementation, not the callers.
type RateSource interface {
	// CurrentRates returns the active rate set ({USD/AUD, NZD/AUD}).
	// A missing pair is surfaced by RateSet.AUDRate at conversion time.
	CurrentRates() (RateSet, error)
}
