package keycloak

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenCache holds an administrative token until shortly before it expires.
type TokenCache interface {
	Get(ctx context.Context) (*oauth2.Token, bool)
	Put(ctx context.Context, token *oauth2.Token)
}

const (
	defaultCacheKey = "planmeet:keycloak:admin_token"
	expirySkew      = 10 * time.Second
)

// RedisTokenCache stores the token in Redis with a TTL bound to its expiry.
// Cache failures are logged and treated as misses.
type RedisTokenCache struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisTokenCache constructs the cache.
func NewRedisTokenCache(client *redis.Client, logger *zap.Logger) *RedisTokenCache {
	return &RedisTokenCache{client: client, key: defaultCacheKey, logger: logger}
}

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

func (c *RedisTokenCache) Get(ctx context.Context) (*oauth2.Token, bool) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("admin token cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var cached cachedToken
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	if cacheTTL(cached.Expiry, time.Now()) <= 0 {
		return nil, false
	}
	return &oauth2.Token{AccessToken: cached.AccessToken, TokenType: cached.TokenType, Expiry: cached.Expiry}, true
}

func (c *RedisTokenCache) Put(ctx context.Context, token *oauth2.Token) {
	ttl := cacheTTL(token.Expiry, time.Now())
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cachedToken{AccessToken: token.AccessToken, TokenType: token.TokenType, Expiry: token.Expiry})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		c.logger.Warn("admin token cache write failed", zap.Error(err))
	}
}

// cacheTTL is the remaining lifetime minus a skew; tokens without expiry are not cached.
func cacheTTL(expiry, now time.Time) time.Duration {
	if expiry.IsZero() {
		return 0
	}
	return expiry.Sub(now) - expirySkew
}
