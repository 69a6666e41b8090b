// Package talks provides a PostgreSQL-backed repository for talks.
package talks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpetukhov/livetalks/internal/common"
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

const talkColumns = `id, event_id, speaker_id, title, start_at, end_at, status, stream_key, created_at`

func (r *PostgresRepository) Create(ctx context.Context, talk *models.Talk) (*models.Talk, error) {
	query := `
		INSERT INTO talks (event_id, speaker_id, title, start_at, end_at, status, stream_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		talk.EventID, talk.SpeakerID, talk.Title, talk.Start, talk.End,
		talk.Status, talk.StreamKey).Scan(&talk.ID, &talk.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return talk, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Talk, error) {
	query := `
		SELECT ` + talkColumns + `
		FROM talks
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindStreamable(ctx context.Context, id int64) (*models.Talk, error) {
	query := `
		SELECT t.id, t.event_id, t.speaker_id, t.title, t.start_at, t.end_at, t.status, t.stream_key, t.created_at
		FROM talks t
		JOIN events e ON e.id = t.event_id
		WHERE t.id = $1 AND t.status = 'approved' AND e.is_published
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Talk, error) {
	talk := &models.Talk{}
	err := row.Scan(&talk.ID, &talk.EventID, &talk.SpeakerID, &talk.Title,
		&talk.Start, &talk.End, &talk.Status, &talk.StreamKey, &talk.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return talk, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.TalkStatus) error {
	query := `
		UPDATE talks SET status = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListBySpeaker(ctx context.Context, speakerID string) ([]*models.Talk, error) {
	query := `
		SELECT ` + talkColumns + `
		FROM talks
		WHERE speaker_id = $1
		ORDER BY start_at
	`
	rows, err := r.db.QueryContext(ctx, query, speakerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Talk
	for rows.Next() {
		talk := &models.Talk{}
		err := rows.Scan(&talk.ID, &talk.EventID, &talk.SpeakerID, &talk.Title,
			&talk.Start, &talk.End, &talk.Status, &talk.StreamKey, &talk.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, talk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
