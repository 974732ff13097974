package cache

import "errors"

// ErrRedisUnavailable reports a Redis tier that could not be reached at startup.
var ErrRedisUnavailable = errors.New("redis cache unavailable")
