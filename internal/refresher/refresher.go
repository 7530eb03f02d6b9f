// Package refresher periodically rebuilds the dashboard snapshot and publishes
// it for new sessions. Sessions already running keep the snapshot they started on.
package refresher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/dashboard"
	"crimewatch/dashboard-go/internal/metrics"
)

// Holder publishes the latest snapshot. The zero value holds nothing.
type Holder struct {
	v atomic.Pointer[dashboard.Snapshot]
}

func (h *Holder) Current() *dashboard.Snapshot { return h.v.Load() }

func (h *Holder) Store(s *dashboard.Snapshot) { h.v.Store(s) }

// LoadFunc builds a complete snapshot or fails without side effects.
type LoadFunc func(ctx context.Context) (*dashboard.Snapshot, error)

type Options struct {
	// Interval between successful refreshes. Zero disables periodic refresh.
	Interval time.Duration
	// RetryDelay is the first wait after a failed refresh; it doubles per
	// consecutive failure up to Interval.
	RetryDelay time.Duration
	// MaxRuntime bounds a single refresh.
	MaxRuntime time.Duration
}

type Refresher struct {
	log        zerolog.Logger
	load       LoadFunc
	holder     *Holder
	interval   time.Duration
	retryDelay time.Duration
	maxRuntime time.Duration
	metrics    *metrics.Metrics
}

func New(log zerolog.Logger, load LoadFunc, holder *Holder, opts Options, m *metrics.Metrics) *Refresher {
	rd := opts.RetryDelay
	if rd <= 0 {
		rd = 5 * time.Second
	}
	mr := opts.MaxRuntime
	if mr <= 0 {
		mr = 2 * time.Minute
	}
	return &Refresher{
		log:        log,
		load:       load,
		holder:     holder,
		interval:   opts.Interval,
		retryDelay: rd,
		maxRuntime: mr,
		metrics:    m,
	}
}

// Run refreshes on the configured interval until ctx is done. A failed
// refresh keeps the current snapshot and retries with backoff.
func (r *Refresher) Run(ctx context.Context) {
	if r == nil || r.load == nil || r.interval <= 0 {
		return
	}

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := r.RefreshOnce(ctx); err != nil {
			consecutiveFailures++
		} else {
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(r.interval, r.retryDelay, consecutiveFailures))
	}
}

// RefreshOnce builds one snapshot and publishes it on success.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, r.maxRuntime)
	defer cancel()

	start := time.Now()
	snap, err := r.load(runCtx)
	r.metrics.ObserveSnapshotRefresh(err == nil, time.Since(start))
	if err != nil {
		r.log.Error().Err(err).Msg("snapshot refresh failed; keeping current snapshot")
		return err
	}
	r.holder.Store(snap)
	r.log.Info().
		Int("records", snap.Store.Len()).
		Int("boundaries", snap.Boundaries.Len()).
		Dur("duration", time.Since(start)).
		Msg("snapshot refreshed")
	return nil
}

func backoffDuration(interval, retry time.Duration, failures int) time.Duration {
	if failures <= 0 {
		return interval
	}

	// retry * 2^(failures-1), capped at the regular interval.
	if failures > 10 {
		failures = 10
	}
	d := retry * time.Duration(1<<(failures-1))
	if d > interval {
		return interval
	}
	return d
}
