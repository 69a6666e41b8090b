package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/logging"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/mail"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
)

const mailSendTimeout = 10 * time.Second

// VerificationService issues and redeems one-time email verification keys.
// A redeemed key is not deleted: repeat redemption is rejected by the
// already-verified rule instead.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	mailer      mail.Mailer
	logger      logging.Logger
	verifyURL   string
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService, mailer mail.Mailer, logger logging.Logger, cfg *config.Config) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		mailer:      mailer,
		logger:      logger.With("module", "verification"),
		verifyURL:   cfg.FrontendVerifyEmailURL,
	}
}

// checkVerificationPermitted enforces the shared verification rules: an
// already-verified account cannot verify again, and an email already
// verified by another account cannot be claimed. Both redeem and resend
// run this identical check.
func (s *VerificationService) checkVerificationPermitted(ctx context.Context, user *models.User) error {
	if user.IsVerified {
		return common.ErrorAlreadyVerified
	}

	taken, err := s.repomanager.Users(s.db).VerifiedEmailExists(ctx, user.Email, user.ID)
	if err != nil {
		return common.ErrorInternal
	}
	if taken {
		return common.ErrorEmailConflict
	}

	return nil
}

// IssueAndSend creates a verification key for the user and dispatches the
// verification email without awaiting the mail provider.
func (s *VerificationService) IssueAndSend(ctx context.Context, user *models.User) {
	_, plaintext, err := s.tokens.IssueVerificationKey(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "error issuing verification key", "user", user.UserName, "error", err.Error())
		return
	}
	s.sendVerificationEmail(user, plaintext)
}

func (s *VerificationService) sendVerificationEmail(user *models.User, key string) {
	link := fmt.Sprintf("%s?verification_key=%s", s.verifyURL, key)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Please verify your account by following "+
			"<a href=%q>this link</a>.</p>", user.UserName, link)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		if err := s.mailer.Send(ctx, user.Email, "Livetalks | Verify Your Account", body); err != nil {
			s.logger.Error(ctx, "error sending verification email", "user", user.UserName, "error", err.Error())
		}
	}()
}

// VerifyEmail redeems a verification key and marks the owning account
// verified. No partial state is committed on failure.
func (s *VerificationService) VerifyEmail(ctx context.Context, key string) error {
	user, err := s.tokens.Authenticate(ctx, models.TokenPurposeVerification, key)
	if err != nil {
		return err
	}

	if err := s.checkVerificationPermitted(ctx, user); err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).SetVerified(ctx, user.ID); err != nil {
		return common.ErrorInternal
	}

	return nil
}

// Resend issues a fresh verification key for the named account, applying
// the same permission check as redemption, and sends it by email.
func (s *VerificationService) Resend(ctx context.Context, userName string) error {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		return err
	}

	if err := s.checkVerificationPermitted(ctx, user); err != nil {
		return err
	}

	s.IssueAndSend(ctx, user)
	return nil
}
