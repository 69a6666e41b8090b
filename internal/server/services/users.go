package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/auth"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// TokenPair is the session credential pair returned at login: a short-lived
// JWT access token plus an opaque, digest-stored refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db                   *sql.DB
	repomanager          repomanager.RepositoryManager
	tokens               *TokenService
	verification         *VerificationService
	jwtSecret            []byte
	accessTokenValidity  time.Duration
	refreshTokenValidity time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService, verification *VerificationService, cfg *config.Config) *UserService {
	return &UserService{
		db:                   db,
		repomanager:          m,
		tokens:               tokens,
		verification:         verification,
		jwtSecret:            []byte(cfg.SecretKey),
		accessTokenValidity:  cfg.AccessTokenValidityDuration,
		refreshTokenValidity: cfg.RefreshTokenValidityDuration,
	}
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %w", common.ErrorInvalidRequest)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, common.ErrorInvalidRequest)
	}
	return nil
}

// Register creates an unverified account and kicks off email verification.
// Duplicate unverified emails are allowed; usernames are unique.
func (s *UserService) Register(ctx context.Context, userName, email, password string) (*models.User, error) {
	if userName == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrorInvalidRequest)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.UserNameExists(ctx, userName)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if exists {
		return nil, fmt.Errorf("username is taken: %w", common.ErrorConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	// mail failures are logged inside; registration still succeeds
	s.verification.IssueAndSend(ctx, user)

	return user, nil
}

// Login authenticates by username and password. Unverified accounts are
// rejected with a 403-class error.
func (s *UserService) Login(ctx context.Context, userName, password string) (*TokenPair, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		// do not reveal whether the username exists
		return nil, nil, common.ErrorUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	if !user.IsVerified {
		return nil, nil, fmt.Errorf("please verify your account: %w", common.ErrorForbidden)
	}

	pair, err := s.newTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return pair, user, nil
}

func (s *UserService) newTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	_, refreshToken, err := s.tokens.IssueAuthToken(ctx, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates the presented refresh token and returns a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	fresh, plaintext, err := s.tokens.Rotate(ctx, models.TokenPurposeAuth, refreshToken, s.refreshTokenValidity)
	if err != nil {
		return nil, err
	}

	accessToken, err := auth.GenerateToken(fresh.UserID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: plaintext}, nil
}

// Logout revokes the presented refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Revoke(ctx, models.TokenPurposeAuth, refreshToken)
	if errors.Is(err, common.ErrorUnauthorized) {
		// already revoked or never existed; logout is idempotent
		return nil
	}
	return err
}

// GetByUserName returns the user record for the given username.
func (s *UserService) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUserName(ctx, userName)
}
