// Package events provides a PostgreSQL-backed repository for events and
// their attendee bookings.
package events

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

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (organizer_id, title, description, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		event.OrganizerID, event.Title, event.Description, event.StartedAt).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, organizer_id, title, description, picture_key, is_published, started_at, created_at
		FROM events
		WHERE id = $1
	`
	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&event.ID, &event.OrganizerID,
		&event.Title, &event.Description, &event.PictureKey, &event.IsPublished,
		&event.StartedAt, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) Publish(ctx context.Context, id string) error {
	query := `
		UPDATE events SET is_published = TRUE
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
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

func (r *PostgresRepository) SetPictureKey(ctx context.Context, id string, key string) error {
	query := `
		UPDATE events SET picture_key = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, key)
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

func (r *PostgresRepository) AddAttendee(ctx context.Context, eventID string, userID string) error {
	query := `
		INSERT INTO event_attendees (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsOrganizerOrAttendee(ctx context.Context, eventID string, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM events e
			LEFT JOIN event_attendees a ON a.event_id = e.id AND a.user_id = $2
			WHERE e.id = $1 AND (e.organizer_id = $2 OR a.user_id IS NOT NULL)
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
