package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
)

// StreamService authorizes publish and play requests from the streaming
// media server. Checks run in a fixed order: stream_url structure, talk
// resolution, live window, then token extraction and verification, so a
// bad token on a valid URL surfaces as 401, not 400.
type StreamService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	now         func() time.Time
}

func NewStreamService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService) *StreamService {
	return &StreamService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		now:         time.Now,
	}
}

// parseStreamPath validates the literal form "/live/<talk-id>" and returns
// the talk ID.
func parseStreamPath(streamURL string) (int64, error) {
	segments := strings.Split(streamURL, "/")
	if len(segments) != 3 || segments[1] != "live" {
		return 0, fmt.Errorf("invalid stream_url: %w", common.ErrorInvalidRequest)
	}
	id, err := strconv.ParseInt(segments[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stream_url: %w", common.ErrorInvalidRequest)
	}
	return id, nil
}

// extractToken parses the raw query string and returns the token value.
// An empty param means no token was supplied, which is an authentication
// failure rather than a malformed request. Duplicate keys resolve
// last-wins.
func extractToken(param string) (string, error) {
	if strings.HasPrefix(param, "?") {
		param = param[1:]
	}

	values := map[string]string{}
	if param != "" {
		for _, segment := range strings.Split(param, "&") {
			parts := strings.Split(segment, "=")
			if len(parts) != 2 {
				return "", fmt.Errorf("invalid query string: %w", common.ErrorInvalidRequest)
			}
			values[parts[0]] = parts[1]
		}
	}

	token, ok := values["token"]
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return token, nil
}

// resolveLiveTalk maps a stream_url to a currently live talk. A talk that
// is missing, unapproved or on an unpublished event reports the same
// not-found failure, so callers cannot probe for hidden talks.
func (s *StreamService) resolveLiveTalk(ctx context.Context, streamURL string) (*models.Talk, error) {
	id, err := parseStreamPath(streamURL)
	if err != nil {
		return nil, err
	}

	talk, err := s.repomanager.Talks(s.db).FindStreamable(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	now := s.now()
	if !talk.HasStarted(now) || talk.HasFinished(now) {
		return nil, common.ErrorForbidden
	}

	return talk, nil
}

// Publish authorizes a publish attempt: the presented token must equal the
// talk's static stream key.
func (s *StreamService) Publish(ctx context.Context, streamURL, param string) error {
	talk, err := s.resolveLiveTalk(ctx, streamURL)
	if err != nil {
		return err
	}

	token, err := extractToken(param)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(talk.StreamKey), []byte(token)) != 1 {
		return common.ErrorForbidden
	}

	return nil
}

// Play authorizes a play attempt: the token must authenticate as a play
// key whose owner attends or organizes the talk's event.
func (s *StreamService) Play(ctx context.Context, streamURL, param string) error {
	talk, err := s.resolveLiveTalk(ctx, streamURL)
	if err != nil {
		return err
	}

	token, err := extractToken(param)
	if err != nil {
		return err
	}

	user, err := s.tokens.Authenticate(ctx, models.TokenPurposePlay, token)
	if err != nil {
		return err
	}

	member, err := s.repomanager.Events(s.db).IsOrganizerOrAttendee(ctx, talk.EventID, user.ID)
	if err != nil {
		return common.ErrorInternal
	}
	if !member {
		return common.ErrorForbidden
	}

	return nil
}
