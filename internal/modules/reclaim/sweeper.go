package reclaim

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper runs reclamation passes on a fixed interval and on demand.
// All passes run on the Run goroutine, so a pass never overlaps another one
// from the same Sweeper and a caller of Trigger never waits for a pass.
type Sweeper struct {
	policy   *Policy
	interval time.Duration
	timeout  time.Duration
	trigger  chan struct{}
	log      zerolog.Logger
}

func NewSweeper(policy *Policy, interval, timeout time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		policy:   policy,
		interval: interval,
		timeout:  timeout,
		trigger:  make(chan struct{}, 1),
		log:      log.With().Str("component", "sweeper").Logger(),
	}
}

// Trigger requests a pass. Requests made while one is already pending are
// coalesced into it.
func (s *Sweeper) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("retention", s.policy.opts.Retention).
		Int("page_size", s.policy.opts.PageSize).
		Msg("sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper stopped")
			return nil
		case <-ticker.C:
			s.pass(ctx, "timer")
		case <-s.trigger:
			s.pass(ctx, "upload")
		}
	}
}

func (s *Sweeper) pass(ctx context.Context, reason string) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.policy.Reclaim(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error().Err(err).Str("trigger", reason).Msg("reclaim pass failed")
		return
	}

	if len(res.Deleted) > 0 || len(res.Errors) > 0 {
		s.log.Info().
			Str("trigger", reason).
			Int("scanned", res.Scanned).
			Int("deleted", len(res.Deleted)).
			Int("errors", len(res.Errors)).
			Msg("reclaim pass finished")
	}
}
