// Package httpapi exposes the platform over HTTP: account and session
// endpoints, event and talk management, the stream authorization hooks
// called by the media server, and the websocket chat entry point.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dpetukhov/livetalks/internal/logging"
	"github.com/dpetukhov/livetalks/internal/server/chat"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address      string
	logger       logging.Logger
	users        *services.UserService
	verification *services.VerificationService
	stream       *services.StreamService
	events       *services.EventService
	talks        *services.TalkService
	tokens       *services.TokenService
	chatRooms    *chat.Registry
	jwtSecret    []byte
}

func NewServer(
	cfg *config.Config,
	l logging.Logger,
	users *services.UserService,
	verification *services.VerificationService,
	stream *services.StreamService,
	events *services.EventService,
	talks *services.TalkService,
	tokens *services.TokenService,
	chatRooms *chat.Registry,
) *Server {
	return &Server{
		address:      cfg.EndpointAddrHTTP,
		logger:       l.With("module", "http_server"),
		users:        users,
		verification: verification,
		stream:       stream,
		events:       events,
		talks:        talks,
		tokens:       tokens,
		chatRooms:    chatRooms,
		jwtSecret:    []byte(cfg.SecretKey),
	}
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	api := e.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/refresh", s.handleRefresh)
	api.POST("/auth/logout", s.handleLogout)

	api.POST("/verification/verify-email", s.handleVerifyEmail)
	api.POST("/verification/resend", s.handleResendVerification)

	// callbacks from the media server
	api.POST("/stream/publish", s.handleStreamPublish)
	api.POST("/stream/play", s.handleStreamPlay)

	protected := api.Group("", s.requireAuth)

	protected.GET("/users/me/chat-key", s.handleChatKey)
	protected.POST("/stream/play-key", s.handlePlayKey)

	protected.POST("/events", s.handleCreateEvent)
	protected.GET("/events/:id", s.handleGetEvent)
	protected.POST("/events/:id/publish", s.handlePublishEvent)
	protected.POST("/events/:id/book", s.handleBookEvent)
	protected.POST("/events/:id/picture-upload-url", s.handlePictureUploadURL)
	protected.GET("/events/:id/picture-url", s.handlePictureDownloadURL)

	protected.POST("/events/:id/talks", s.handleCreateTalk)
	protected.GET("/talks/mine", s.handleMyTalks)
	protected.POST("/talks/:id/approve", s.handleApproveTalk)
	protected.POST("/talks/:id/reject", s.handleRejectTalk)
	protected.GET("/talks/:id/stream-key", s.handleTalkStreamKey)

	// chat keys carry their own auth, no JWT here
	e.GET("/ws/events/:id/chat", s.handleEventChat)

	return e
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	e := s.routes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(s.address)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
