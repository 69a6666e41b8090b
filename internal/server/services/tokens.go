package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/cryptox"
	"github.com/dpetukhov/livetalks/internal/dbx"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
)

// TokenService implements the token store and authenticator for all opaque
// bearer-token purposes. Tokens are persisted as a lookup-key prefix plus a
// keyed digest; the plaintext exists only in the issuance response.
type TokenService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	secret          []byte
	chatKeyValidity time.Duration
	authValidity    time.Duration
	now             func() time.Time
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:              db,
		repomanager:     m,
		secret:          []byte(cfg.SecretKey),
		chatKeyValidity: cfg.ChatKeyValidityDuration,
		authValidity:    cfg.RefreshTokenValidityDuration,
		now:             time.Now,
	}
}

// Issue generates a fresh token of the given purpose. ttl == 0 means the
// token never expires. The returned plaintext is shown to the caller once
// and never persisted.
func (s *TokenService) Issue(ctx context.Context, userID string, purpose models.TokenPurpose, ttl time.Duration) (*models.Token, string, error) {
	return s.issue(ctx, s.db, userID, purpose, ttl)
}

func (s *TokenService) issue(ctx context.Context, db dbx.DBTX, userID string, purpose models.TokenPurpose, ttl time.Duration) (*models.Token, string, error) {
	plaintext, err := cryptox.MakeTokenPlaintext()
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	token := &models.Token{
		UserID:   userID,
		Purpose:  purpose,
		TokenKey: cryptox.TokenKey(plaintext),
		Digest:   cryptox.HashToken(s.secret, plaintext),
	}
	if ttl > 0 {
		expires := s.now().Add(ttl)
		token.Expires = &expires
	}

	token, err = s.repomanager.Tokens(db).Create(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("error storing token: %w", err)
	}

	return token, plaintext, nil
}

// IssueChatKey issues a short-lived chat key with sliding expiry.
func (s *TokenService) IssueChatKey(ctx context.Context, userID string) (*models.Token, string, error) {
	return s.Issue(ctx, userID, models.TokenPurposeChat, s.chatKeyValidity)
}

// IssueAuthToken issues the opaque session refresh token handed out at login.
func (s *TokenService) IssueAuthToken(ctx context.Context, userID string) (*models.Token, string, error) {
	return s.Issue(ctx, userID, models.TokenPurposeAuth, s.authValidity)
}

// IssuePlayKey issues a long-lived stream play key.
func (s *TokenService) IssuePlayKey(ctx context.Context, userID string) (*models.Token, string, error) {
	return s.Issue(ctx, userID, models.TokenPurposePlay, 0)
}

// IssueVerificationKey issues an email verification key.
func (s *TokenService) IssueVerificationKey(ctx context.Context, userID string) (*models.Token, string, error) {
	return s.Issue(ctx, userID, models.TokenPurposeVerification, 0)
}

// match finds the stored record for a presented plaintext. Expired
// candidates encountered along the way are deleted (lazy cleanup) and
// skipped; cleanup failures do not block authentication. Every failure
// shape collapses into ErrorUnauthorized so callers cannot distinguish a
// malformed token from a wrong one.
func (s *TokenService) match(ctx context.Context, db dbx.DBTX, purpose models.TokenPurpose, plaintext string) (*models.Token, error) {
	if len(plaintext) < cryptox.TokenKeyLength {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Tokens(db)

	candidates, err := repo.FindByKey(ctx, purpose, cryptox.TokenKey(plaintext))
	if err != nil {
		return nil, common.ErrorInternal
	}

	digest := cryptox.HashToken(s.secret, plaintext)
	now := s.now()

	for _, candidate := range candidates {
		if candidate.Expired(now) {
			// best effort: a concurrent sweep may already have removed it
			_ = repo.Delete(ctx, candidate.ID)
			continue
		}
		if cryptox.DigestsEqual(digest, candidate.Digest) {
			return candidate, nil
		}
	}

	return nil, common.ErrorUnauthorized
}

// Authenticate verifies a presented plaintext against the given purpose and
// returns the owning user. Chat keys have their expiry pushed forward on
// every successful authentication.
func (s *TokenService) Authenticate(ctx context.Context, purpose models.TokenPurpose, plaintext string) (*models.User, error) {
	token, err := s.match(ctx, s.db, purpose, plaintext)
	if err != nil {
		return nil, err
	}

	if purpose == models.TokenPurposeChat && token.Expires != nil {
		// sliding expiry; a failed refresh only shortens the key's life
		_ = s.repomanager.Tokens(s.db).UpdateExpiry(ctx, token.ID, s.now().Add(s.chatKeyValidity))
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Revoke deletes the stored record matching the presented plaintext.
func (s *TokenService) Revoke(ctx context.Context, purpose models.TokenPurpose, plaintext string) error {
	token, err := s.match(ctx, s.db, purpose, plaintext)
	if err != nil {
		return err
	}
	if err := s.repomanager.Tokens(s.db).Delete(ctx, token.ID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// Rotate atomically replaces the presented token with a fresh one of the
// same purpose and TTL policy. Used for refresh-token rotation at login
// renewal.
func (s *TokenService) Rotate(ctx context.Context, purpose models.TokenPurpose, plaintext string, ttl time.Duration) (*models.Token, string, error) {
	old, err := s.match(ctx, s.db, purpose, plaintext)
	if err != nil {
		return nil, "", err
	}

	var (
		fresh        *models.Token
		newPlaintext string
	)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tokens(tx).Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("error deleting token: %w", err)
		}
		fresh, newPlaintext, err = s.issue(ctx, tx, old.UserID, purpose, ttl)
		return err
	})
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return fresh, newPlaintext, nil
}

// SweepExpired removes all tokens, across every purpose, whose expiry has
// passed. Intended to run on a periodic schedule.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Tokens(s.db).DeleteExpired(ctx, s.now())
}
