// Package sessions tracks revoked bearer tokens. Tokens are stateless JWTs,
// so logout works by blacklisting the token in Redis until its natural expiry.
package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for the token blacklist (optional)
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for blacklist
// operations. Safe to call with nil to disable revocation; verification then
// relies on token expiry alone.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// RevokeToken stores the token in the Redis blacklist with the given TTL,
// which should be the remaining lifetime of the token. If no Redis client is
// configured this is a no-op and returns nil.
func RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return blacklistClient.Set(ctx, "blacklist:token:"+token, "1", ttl).Err()
}

// IsTokenRevoked returns true when the token exists in the Redis blacklist.
// If no Redis client is configured, returns (false, nil).
func IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	exists, err := blacklistClient.Exists(ctx, "blacklist:token:"+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
