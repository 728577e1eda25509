package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jose/sera/backend/internal/contracts"
)

// TokenRepository implements contracts.TokenRepository. A single token
// row is kept; saving overwrites it.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Get returns the stored token; nil if none exists.
func (r *TokenRepository) Get(ctx context.Context) (*contracts.OAuthToken, error) {
	query := `
		SELECT id, access_token, refresh_token, token_type, scope, expires_at, updated_at
		FROM whoop_tokens
		ORDER BY id ASC
		LIMIT 1
	`

	var t contracts.OAuthToken
	err := r.pool.QueryRow(ctx, query).Scan(
		&t.ID, &t.AccessToken, &t.RefreshToken, &t.TokenType, &t.Scope, &t.ExpiresAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Save inserts or replaces the stored token. The table is constrained to
// one logical row via a fixed key.
func (r *TokenRepository) Save(ctx context.Context, token *contracts.OAuthToken) error {
	query := `
		INSERT INTO whoop_tokens (id, access_token, refresh_token, token_type, scope, expires_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING id, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		token.AccessToken, token.RefreshToken, token.TokenType, token.Scope, token.ExpiresAt,
	).Scan(&token.ID, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save whoop token: %w", err)
	}
	return nil
}
