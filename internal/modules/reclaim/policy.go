package reclaim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

// ErrReclaimItemFailed marks a single asset whose deletion failed.
var ErrReclaimItemFailed = errors.New("reclaim item failed")

// ItemError records one asset the pass could not delete.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrReclaimItemFailed, e.ID, e.Err)
}

func (e ItemError) Unwrap() []error {
	return []error{ErrReclaimItemFailed, e.Err}
}

// Reason is the human-readable cause.
func (e ItemError) Reason() string {
	return e.Err.Error()
}

// Result is the outcome of one reclamation pass.
type Result struct {
	Scanned int
	Deleted []string
	Errors  []ItemError
}

// Options configures a Policy.
type Options struct {
	Collection string
	Retention  time.Duration
	PageSize   int
	Order      storage.Order
}

// Policy deletes assets of one collection that outlived the retention window.
// It keeps no state between passes; the store is re-queried every time.
type Policy struct {
	store   storage.Store
	opts    Options
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Registry
}

func NewPolicy(store storage.Store, opts Options, log zerolog.Logger, reg *metrics.Registry) *Policy {
	if opts.Order == "" {
		opts.Order = storage.Ascending
	}
	return &Policy{
		store:   store,
		opts:    opts,
		now:     time.Now,
		log:     log.With().Str("component", "reclaim").Str("collection", opts.Collection).Logger(),
		metrics: reg,
	}
}

// WithClock replaces the time source used to compute the cutoff.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	p.now = now
	return p
}

// Options returns the policy configuration.
func (p *Policy) Options() Options {
	return p.opts
}

// Candidates lists the assets that are currently past the retention window
// without deleting them.
func (p *Policy) Candidates(ctx context.Context) ([]storage.Asset, int, error) {
	assets, err := p.store.Search(ctx, storage.Query{
		Collection: p.opts.Collection,
		Order:      p.opts.Order,
		Limit:      p.opts.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", storage.ErrQueryFailed, err)
	}

	cutoff := p.now().Add(-p.opts.Retention)
	expired := make([]storage.Asset, 0, len(assets))
	for _, a := range assets {
		if a.CreatedAt.Before(cutoff) {
			expired = append(expired, a)
		}
	}
	return expired, len(assets), nil
}

// Reclaim runs one pass. A failed delete is recorded in Result.Errors and the
// pass moves on to the next asset. The returned error is non-nil only when
// the listing itself failed.
func (p *Policy) Reclaim(ctx context.Context) (Result, error) {
	start := time.Now()
	p.metrics.Inc(ctx, metrics.ReclaimPasses, nil, 1)

	expired, scanned, err := p.Candidates(ctx)
	if err != nil {
		p.metrics.Inc(ctx, metrics.ReclaimQueryFailed, nil, 1)
		return Result{}, err
	}

	res := Result{Scanned: scanned, Deleted: []string{}}
	for _, a := range expired {
		if err := p.store.Destroy(ctx, a.ID); err != nil {
			ie := ItemError{ID: a.ID, Err: err}
			res.Errors = append(res.Errors, ie)
			p.log.Warn().Err(err).Str("asset_id", a.ID).Msg("reclaim: delete failed")
			continue
		}
		res.Deleted = append(res.Deleted, a.ID)
		p.log.Info().Str("asset_id", a.ID).Time("created_at", a.CreatedAt).Msg("reclaim: deleted")
	}

	p.metrics.Inc(ctx, metrics.ReclaimDeleted, nil, int64(len(res.Deleted)))
	p.metrics.Inc(ctx, metrics.ReclaimItemErrors, nil, int64(len(res.Errors)))

	p.log.Debug().
		Int("scanned", res.Scanned).
		Int("deleted", len(res.Deleted)).
		Int("errors", len(res.Errors)).
		Dur("duration", time.Since(start)).
		Msg("reclaim: pass done")

	return res, nil
}
