// Package sweeper periodically purges expired tokens. Lazy cleanup during
// authentication already removes expired tokens that are presented again;
// the sweep catches the ones that never are.
package sweeper

import (
	"context"
	"time"

	"github.com/dpetukhov/livetalks/internal/logging"
)

// TokenSweeper is the part of the token service the sweeper drives.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Sweeper struct {
	tokens   TokenSweeper
	interval time.Duration
	logger   logging.Logger
}

func New(tokens TokenSweeper, interval time.Duration, l logging.Logger) *Sweeper {
	return &Sweeper{
		tokens:   tokens,
		interval: interval,
		logger:   l.With("module", "sweeper"),
	}
}

// Run sweeps once immediately and then on every interval tick until ctx is
// cancelled. Sweep failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.tokens.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "token sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info(ctx, "token sweep completed", "deleted", deleted)
	}
}
