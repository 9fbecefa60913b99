package providers

// Cache invalidation tags consumed by the read layer. The sync core only
// emits these; it does not implement caching.
const (
	TagTransactions = "transactions"
	TagAccounts     = "accounts"
	TagHoldings     = "holdings"
	TagInvestments  = "investments"
	TagItems        = "items"
	TagDashboard    = "dashboard"
)

// CacheInvalidator receives tag-based invalidation signals after writes.
type CacheInvalidator interface {
	InvalidateTags(tags ...string)
}

// ReadCache is the read-through side consumed by the list endpoints:
// handlers store responses under the tags above, and the sync layer's
// invalidations drop them.
type ReadCache interface {
	CacheInvalidator

	// Get returns the cached value for key, if present.
	Get(key string) (any, bool)

	// Set stores a value under key with the given tags.
	Set(key string, value any, tags ...string)
}
