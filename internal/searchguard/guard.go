package searchguard

import (
	"context"
	"errors"

	apperrors "github.com/elias-vance/lexishard/pkg/errors"
)

// Guard authenticates a request's API key and enforces its rate limit in
// one call, the shape cmd/search's HTTP handler wraps around every request.
type Guard struct {
	keys    *KeyValidator
	limiter *Limiter
}

// New creates a Guard from a key validator and rate limiter.
func New(keys *KeyValidator, limiter *Limiter) *Guard {
	return &Guard{keys: keys, limiter: limiter}
}

// Check validates rawKey and enforces its rate limit, returning the
// validated KeyInfo on success. Failures are apperrors.AppError values
// carrying the right HTTP status (401 for an invalid/expired key, 429 for
// rate-limit exhaustion).
func (g *Guard) Check(ctx context.Context, rawKey string) (*KeyInfo, error) {
	info, err := g.keys.Validate(ctx, rawKey)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrExpiredKey) {
			return nil, apperrors.New(apperrors.ErrUnauthorized, 401, err.Error())
		}
		return nil, err
	}
	if !g.limiter.Allow(info.ID, info.RateLimit) {
		return nil, apperrors.New(apperrors.ErrRateLimited, 429, "rate limit exceeded")
	}
	return info, nil
}
