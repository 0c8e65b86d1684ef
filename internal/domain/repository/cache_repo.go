package repository

import "time"

// CacheRepository is the narrow cache contract used for short-lived values
// next to the gating path (membership check results, resolved short links).
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)
}
