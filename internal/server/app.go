// Package server initializes and runs the application: it opens the
// database, applies migrations, wires the service layer and starts the
// HTTP server and the token sweeper, shutting everything down on SIGINT
// or SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dpetukhov/livetalks/internal/logging"
	"github.com/dpetukhov/livetalks/internal/server/chat"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/httpapi"
	"github.com/dpetukhov/livetalks/internal/server/mail"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
	"github.com/dpetukhov/livetalks/internal/server/services"
	"github.com/dpetukhov/livetalks/internal/server/sweeper"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	sweeper    *sweeper.Sweeper
	chatRooms  *chat.Registry
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var mailer mail.Mailer
	if cfg.MailAPIKey != "" {
		mailer = mail.NewResendMailer(cfg.MailAPIKey, cfg.MailFrom, cfg.MailBaseURL)
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	tokenService := services.NewTokenService(db, m, cfg)
	verificationService := services.NewVerificationService(db, m, tokenService, mailer, logger, cfg)
	userService := services.NewUserService(db, m, tokenService, verificationService, cfg)
	streamService := services.NewStreamService(db, m, tokenService)
	eventService := services.NewEventService(db, m, cfg)
	talkService := services.NewTalkService(db, m)

	chatRooms := chat.NewRegistry(logger)

	httpServer := httpapi.NewServer(cfg, logger,
		userService, verificationService, streamService, eventService, talkService, tokenService, chatRooms)

	sw := sweeper.New(tokenService, cfg.TokenSweepInterval, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		httpServer: httpServer,
		sweeper:    sw,
		chatRooms:  chatRooms,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	app.chatRooms.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
