// Package tokens provides a PostgreSQL-backed repository for the bearer
// tokens used across the authentication flows (auth, chat, play,
// verification), stored as lookup key + digest, never as plaintext.
package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/dbx"
	"github.com/dpetukhov/livetalks/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	query := `
		INSERT INTO tokens (user_id, purpose, token_key, digest, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.Purpose, token.TokenKey, token.Digest, token.Expires).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) FindByKey(ctx context.Context, purpose models.TokenPurpose, tokenKey string) ([]*models.Token, error) {
	query := `
		SELECT id, user_id, purpose, token_key, digest, expires_at, created_at
		FROM tokens
		WHERE purpose = $1 AND token_key = $2
	`
	rows, err := r.db.QueryContext(ctx, query, purpose, tokenKey)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Token
	for rows.Next() {
		token := &models.Token{}
		err := rows.Scan(&token.ID, &token.UserID, &token.Purpose,
			&token.TokenKey, &token.Digest, &token.Expires, &token.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateExpiry(ctx context.Context, id string, expires time.Time) error {
	query := `
		UPDATE tokens SET expires_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE expires_at IS NOT NULL AND expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return deleted, nil
}
