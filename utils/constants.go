package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = time.Hour

// PasswordResetTTL bounds how long a reset token is accepted.
const PasswordResetTTL = 10 * time.Minute
