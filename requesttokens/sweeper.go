package requesttokens

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type SweeperOption func(*Sweeper)

func WithSweeperNowTime(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

func WithSweeperMetrics(m metrics.MetricsCollector) SweeperOption {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// WithPurger adds another store whose expired rows are removed on each sweep.
func WithPurger(name string, p Purger) SweeperOption {
	return func(s *Sweeper) {
		s.purgers = append(s.purgers, namedPurger{name: name, Purger: p})
	}
}

// Purger deletes rows that expired at or before now.
type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type namedPurger struct {
	name string
	Purger
}

// Sweeper purges expired request tokens on an interval. Consume enforces expiry
// on its own, so the sweeper only bounds storage growth.
type Sweeper struct {
	repo     Repo
	purgers  []namedPurger
	interval time.Duration
	now      func() time.Time
	metrics  metrics.MetricsCollector
}

func NewSweeper(repo Repo, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.Errorf("sweeper interval must be positive, got %s", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Err(err).Msg("request token sweep failed")
			}
		}
	}
}

// SweepOnce deletes the request tokens that have expired and returns how many
// went. Stores added with WithPurger are swept afterwards.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	purged, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "SweepOnce repo.DeleteExpired")
	}
	s.metrics.RecordSweep(purged)
	if purged > 0 {
		log.Debug().Int("purged", purged).Msg("expired request tokens swept")
	}

	for _, p := range s.purgers {
		n, err := p.DeleteExpired(ctx, now)
		if err != nil {
			return purged, errors.Wrapf(err, "SweepOnce %s.DeleteExpired", p.name)
		}
		if n > 0 {
			log.Debug().Str("store", p.name).Int("purged", n).Msg("expired rows swept")
		}
	}
	return purged, nil
}
