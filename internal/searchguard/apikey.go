// Package searchguard fronts the /search endpoint with API-key
// authentication, per-key rate limiting, and a per-key result ceiling. Key
// validation is grounded on the teacher's SHA-256 API-key validator, but the
// schema and validation flow are searchguard's own: every successful
// Validate call stamps last_used_at in the same round trip (the teacher
// never tracked key usage), and each key carries a max_results ceiling that
// searchsvc clamps the requested limit against, on top of the service-wide
// default. Rate limiting replaces the teacher's hand-rolled token bucket
// with golang.org/x/time/rate, one limiter per key, reusing the per-key rate
// stored alongside the key.
package searchguard

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elias-vance/lexishard/pkg/postgres"
)

var (
	ErrInvalidKey = errors.New("invalid api key")
	ErrExpiredKey = errors.New("api key expired")
)

// Schema is the DDL searchguard expects to exist for its api_keys table;
// callers run it via their migration tooling of choice, the same convention
// internal/catalog.Schema uses for its own tables.
const Schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	id SERIAL PRIMARY KEY,
	key_hash TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	rate_limit INTEGER NOT NULL,
	max_results INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ,
	last_used_at TIMESTAMPTZ
);
`

// KeyInfo holds metadata about a validated API key.
type KeyInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	RateLimit  int        `json:"rate_limit"`
	MaxResults int        `json:"max_results,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// KeyValidator validates API keys against the api_keys table in PostgreSQL.
type KeyValidator struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewKeyValidator creates a KeyValidator backed by PostgreSQL.
func NewKeyValidator(db *postgres.Client) *KeyValidator {
	return &KeyValidator{
		db:     db,
		logger: slog.Default().With("component", "searchguard-apikey"),
	}
}

// Validate checks a raw API key against the database and stamps
// last_used_at with the current time in the same statement, so every
// validation doubles as a usage heartbeat without a second round trip. The
// stamp is written for any active key whose hash matches, including one
// that is then rejected with ErrExpiredKey.
func (v *KeyValidator) Validate(ctx context.Context, rawKey string) (*KeyInfo, error) {
	hash := HashKey(rawKey)

	var info KeyInfo
	var expiresAt, lastUsedAt sql.NullTime
	var createdAt time.Time

	err := v.db.DB.QueryRowContext(ctx,
		`UPDATE api_keys SET last_used_at = now()
		 WHERE key_hash = $1 AND is_active = true
		 RETURNING id, name, rate_limit, max_results, is_active, created_at, expires_at, last_used_at`,
		hash,
	).Scan(&info.ID, &info.Name, &info.RateLimit, &info.MaxResults, &info.IsActive, &createdAt, &expiresAt, &lastUsedAt)

	info.CreatedAt = createdAt

	if err == sql.ErrNoRows {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	if expiresAt.Valid {
		if expiresAt.Time.Before(time.Now()) {
			return nil, ErrExpiredKey
		}
		info.ExpiresAt = &expiresAt.Time
	}
	if lastUsedAt.Valid {
		info.LastUsedAt = &lastUsedAt.Time
	}

	return &info, nil
}

// CreateKey generates a new API key, stores its hash, and returns the raw
// key. maxResults caps how many results a query made with this key may
// request; 0 leaves the service-wide default uncapped. The raw key is
// returned only once and cannot be retrieved again.
func (v *KeyValidator) CreateKey(ctx context.Context, name string, rateLimit, maxResults int, expiresAt *time.Time) (string, error) {
	rawKey := generateRawKey()
	hash := HashKey(rawKey)

	var expiry sql.NullTime
	if expiresAt != nil {
		expiry = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	_, err := v.db.DB.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, name, rate_limit, max_results, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		hash, name, rateLimit, maxResults, expiry,
	)
	if err != nil {
		return "", fmt.Errorf("creating api key: %w", err)
	}

	v.logger.Info("api key created", "name", name, "rate_limit", rateLimit, "max_results", maxResults)
	return rawKey, nil
}

// RevokeKey deactivates an API key so it can no longer be used.
func (v *KeyValidator) RevokeKey(ctx context.Context, rawKey string) error {
	hash := HashKey(rawKey)

	result, err := v.db.DB.ExecContext(ctx,
		`UPDATE api_keys SET is_active = false WHERE key_hash = $1`,
		hash,
	)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidKey
	}

	v.logger.Info("api key revoked")
	return nil
}

// ListKeys returns all active API keys (without the raw key / hash).
func (v *KeyValidator) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := v.db.DB.QueryContext(ctx,
		`SELECT id, name, rate_limit, max_results, is_active, created_at, expires_at, last_used_at FROM api_keys WHERE is_active = true ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []KeyInfo
	for rows.Next() {
		var k KeyInfo
		var expiresAt, lastUsedAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.RateLimit, &k.MaxResults, &k.IsActive, &k.CreatedAt, &expiresAt, &lastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Time
		}
		if lastUsedAt.Valid {
			k.LastUsedAt = &lastUsedAt.Time
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// HashKey returns the SHA-256 hex digest of a raw API key.
func HashKey(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// generateRawKey returns a cryptographically random 32-byte hex-encoded
// string suitable for use as an API key.
func generateRawKey() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
