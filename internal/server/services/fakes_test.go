package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/dbx"
	"github.com/dpetukhov/livetalks/internal/logging"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/models"
	eventsrepo "github.com/dpetukhov/livetalks/internal/server/repositories/events"
	talksrepo "github.com/dpetukhov/livetalks/internal/server/repositories/talks"
	tokensrepo "github.com/dpetukhov/livetalks/internal/server/repositories/tokens"
	usersrepo "github.com/dpetukhov/livetalks/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		ChatKeyValidityDuration:      10 * time.Minute,
		FrontendVerifyEmailURL:       "https://example.com/verify-email",
	}
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- in-memory fake repositories ---

type fakeTokensRepo struct {
	mu        sync.Mutex
	tokens    map[string]*models.Token
	seq       int
	createErr error
	findErr   error
	deleteErr error
	updateErr error
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{tokens: make(map[string]*models.Token)}
}

func (f *fakeTokensRepo) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token.ID = fmt.Sprintf("tok-%d", f.seq)
	token.CreatedAt = time.Now()
	stored := *token
	f.tokens[token.ID] = &stored
	return token, nil
}

func (f *fakeTokensRepo) FindByKey(ctx context.Context, purpose models.TokenPurpose, tokenKey string) ([]*models.Token, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Token
	for _, t := range f.tokens {
		if t.Purpose == purpose && t.TokenKey == tokenKey {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeTokensRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, id)
	return nil
}

func (f *fakeTokensRepo) UpdateExpiry(ctx context.Context, id string, expires time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[id]; ok {
		t.Expires = &expires
	}
	return nil
}

func (f *fakeTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, t := range f.tokens {
		if t.Expired(now) {
			delete(f.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTokensRepo) get(id string) *models.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[id]
}

func (f *fakeTokensRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeUsersRepo struct {
	mu      sync.Mutex
	users   map[string]*models.User
	seq     int
	getErr  error
	setErr  error
	takenBy map[string]string // email -> verified holder user ID
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*models.User), takenBy: make(map[string]string)}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("u-%d", f.seq)
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	return f.add(user), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserName == userName {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UserNameExists(ctx context.Context, userName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) VerifiedEmailExists(ctx context.Context, email string, excludeUserID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.IsVerified && u.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) SetVerified(ctx context.Context, id string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsVerified = true
	return nil
}

type fakeTalksRepo struct {
	mu    sync.Mutex
	talks map[int64]*models.Talk
	seq   int64
}

func newFakeTalksRepo() *fakeTalksRepo {
	return &fakeTalksRepo{talks: make(map[int64]*models.Talk)}
}

func (f *fakeTalksRepo) add(t *models.Talk) *models.Talk {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.seq++
		t.ID = f.seq
	}
	f.talks[t.ID] = t
	return t
}

func (f *fakeTalksRepo) Create(ctx context.Context, talk *models.Talk) (*models.Talk, error) {
	talk.CreatedAt = time.Now()
	return f.add(talk), nil
}

func (f *fakeTalksRepo) GetByID(ctx context.Context, id int64) (*models.Talk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.talks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTalksRepo) FindStreamable(ctx context.Context, id int64) (*models.Talk, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeTalksRepo) UpdateStatus(ctx context.Context, id int64, status models.TalkStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.talks[id]
	if !ok {
		return common.ErrorNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTalksRepo) ListBySpeaker(ctx context.Context, speakerID string) ([]*models.Talk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Talk
	for _, t := range f.talks {
		if t.SpeakerID == speakerID {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeEventsRepo struct {
	mu        sync.Mutex
	events    map[string]*models.Event
	attendees map[string]map[string]bool
	seq       int
}

func newFakeEventsRepo() *fakeEventsRepo {
	return &fakeEventsRepo{
		events:    make(map[string]*models.Event),
		attendees: make(map[string]map[string]bool),
	}
}

func (f *fakeEventsRepo) add(e *models.Event) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		f.seq++
		e.ID = fmt.Sprintf("ev-%d", f.seq)
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeEventsRepo) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.CreatedAt = time.Now()
	return f.add(event), nil
}

func (f *fakeEventsRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeEventsRepo) Publish(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.IsPublished = true
	return nil
}

func (f *fakeEventsRepo) SetPictureKey(ctx context.Context, id string, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.PictureKey = key
	return nil
}

func (f *fakeEventsRepo) AddAttendee(ctx context.Context, eventID string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attendees[eventID] == nil {
		f.attendees[eventID] = make(map[string]bool)
	}
	f.attendees[eventID][userID] = true
	return nil
}

func (f *fakeEventsRepo) IsOrganizerOrAttendee(ctx context.Context, eventID string, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[eventID]; ok && e.OrganizerID == userID {
		return true, nil
	}
	return f.attendees[eventID][userID], nil
}

// fakeStreamableTalksRepo augments fakeTalksRepo with event-aware
// FindStreamable, mirroring the SQL join.
type fakeStreamableTalksRepo struct {
	*fakeTalksRepo
	events *fakeEventsRepo
}

func (f *fakeStreamableTalksRepo) FindStreamable(ctx context.Context, id int64) (*models.Talk, error) {
	talk, err := f.fakeTalksRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if talk.Status != models.TalkStatusApproved {
		return nil, common.ErrorNotFound
	}
	event, err := f.events.GetByID(ctx, talk.EventID)
	if err != nil || !event.IsPublished {
		return nil, common.ErrorNotFound
	}
	return talk, nil
}

// --- fake repository manager ---

type fakeRepoManager struct {
	users  *fakeUsersRepo
	tokens *fakeTokensRepo
	talks  talksrepo.Repository
	events *fakeEventsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	events := newFakeEventsRepo()
	return &fakeRepoManager{
		users:  newFakeUsersRepo(),
		tokens: newFakeTokensRepo(),
		talks:  &fakeStreamableTalksRepo{fakeTalksRepo: newFakeTalksRepo(), events: events},
		events: events,
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository     { return m.tokens }
func (m *fakeRepoManager) Talks(db dbx.DBTX) talksrepo.Repository       { return m.talks }
func (m *fakeRepoManager) Events(db dbx.DBTX) eventsrepo.Repository     { return m.events }

func (m *fakeRepoManager) streamableTalks() *fakeStreamableTalksRepo {
	return m.talks.(*fakeStreamableTalksRepo)
}

func requireSentinel(t *testing.T, err, sentinel error) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
}
