package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLQuote - current prices change often; keep only long enough to
	// de-duplicate lookups within a refresh sweep.
	TTLQuote = 10 * time.Minute

	// TTLExchangeRate - currency rates move slowly relative to how often
	// the dashboard is viewed.
	TTLExchangeRate = time.Hour
)
