package talks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func talkRows(t *models.Talk) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "event_id", "speaker_id", "title", "start_at", "end_at", "status", "stream_key", "created_at"}).
		AddRow(t.ID, t.EventID, t.SpeakerID, t.Title, t.Start, t.End, string(t.Status), t.StreamKey, t.CreatedAt)
}

func TestFindStreamable_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\b.*JOIN\s+events\s+e\b.*t\.status\s*=\s*'approved'\s+AND\s+e\.is_published\s*$`
	now := time.Now()
	talk := &models.Talk{
		ID: 42, EventID: "e1", SpeakerID: "u1", Title: "Go in production",
		Start: now.Add(-time.Hour), End: now.Add(time.Hour),
		Status: models.TalkStatusApproved, StreamKey: "streamkey", CreatedAt: now,
	}

	mock.ExpectQuery(q).WithArgs(int64(42)).WillReturnRows(talkRows(talk))

	got, err := repo.FindStreamable(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 42 || got.StreamKey != "streamkey" {
		t.Fatalf("unexpected talk: %+v", got)
	}
}

func TestFindStreamable_HiddenStatesCollapseToNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\b.*JOIN\s+events\s+e\b.*$`

	mock.ExpectQuery(q).WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindStreamable(context.Background(), 7)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+talks\b.*RETURNING\s+id,\s*created_at\s*$`
	now := time.Now()

	mock.ExpectQuery(q).
		WithArgs("e1", "u1", "My talk", sqlmock.AnyArg(), sqlmock.AnyArg(),
			string(models.TalkStatusPending), "streamkey").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	talk, err := repo.Create(context.Background(), &models.Talk{
		EventID: "e1", SpeakerID: "u1", Title: "My talk",
		Start: now, End: now.Add(time.Hour),
		Status: models.TalkStatusPending, StreamKey: "streamkey",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if talk.ID != 1 {
		t.Fatalf("expected id 1, got %d", talk.ID)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+talks\s+SET\s+status\s*=\s*\$2\b.*$`

	mock.ExpectExec(q).
		WithArgs(int64(99), string(models.TalkStatusApproved)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 99, models.TalkStatusApproved)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}
