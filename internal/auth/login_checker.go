package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var ErrSessionNotFound = errors.New("session not found")

type LoginChecker struct {
	tokens      *TokenIssuer
	redisClient *redis.Client
}

func NewLoginChecker(tokens *TokenIssuer, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		tokens:      tokens,
		redisClient: redisClient,
	}
}

// UserID accepts a token only while its signature and expiry hold and its
// session was not dropped by a logout.
func (c *LoginChecker) UserID(ctx context.Context, token string) (int, error) {
	claims, err := c.tokens.Parse(token)
	if err != nil {
		return 0, err
	}

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+claims.ID)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("get session: %w", err)
	}

	return claims.UserID, nil
}
