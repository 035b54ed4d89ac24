package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
// Past its TTL an entry is stale but still readable via Get(); the daily
// cleanup job is what actually removes expired rows.
const (
	// Current price cache. Quotes older than this are surfaced as stale
	// in net worth output rather than dropped.
	TTLCurrentPrice = 15 * time.Minute

	// Exchange rates move slowly relative to how often we aggregate.
	TTLExchangeRate = time.Hour
)
