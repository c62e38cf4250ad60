package repository

// CacheRepository caches serialized evaluations keyed by record digest.
type CacheRepository interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
