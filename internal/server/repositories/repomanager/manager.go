package repomanager

import (
	"context"
	"database/sql"

	"github.com/dpetukhov/livetalks/internal/dbx"
	"github.com/dpetukhov/livetalks/internal/server/repositories/events"
	"github.com/dpetukhov/livetalks/internal/server/repositories/talks"
	"github.com/dpetukhov/livetalks/internal/server/repositories/tokens"
	"github.com/dpetukhov/livetalks/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Talks(db dbx.DBTX) talks.Repository
	Events(db dbx.DBTX) events.Repository
}
