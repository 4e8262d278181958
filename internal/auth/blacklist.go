package auth

import (
	"context"
	"time"
)

// TokenBlacklist stores revoked token IDs (jti) until the token would have
// expired anyway.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
