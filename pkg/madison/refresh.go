package madison

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultRefreshInterval = 60 * time.Second

// BuildEvent describes one attempted rebuild.
type BuildEvent struct {
	Generation uint64
	Packages   int
	Duration   time.Duration
	Err        error
}

// Refresher keeps a Store current with a ListingSource.
type Refresher struct {
	src       ListingSource
	store     *Store
	interval  time.Duration
	buildOpts []Option
	hook      func(BuildEvent)

	mu    sync.Mutex
	stale bool
}

type RefreshOption func(*Refresher)

func WithInterval(d time.Duration) RefreshOption {
	return func(r *Refresher) { r.interval = d }
}

func WithBuildOptions(opts ...Option) RefreshOption {
	return func(r *Refresher) { r.buildOpts = append(r.buildOpts, opts...) }
}

// WithBuildHook is called after every rebuild, successful or not.
func WithBuildHook(fn func(BuildEvent)) RefreshOption {
	return func(r *Refresher) { r.hook = fn }
}

func NewRefresher(src ListingSource, store *Store, opts ...RefreshOption) *Refresher {
	r := &Refresher{
		src:      src,
		store:    store,
		interval: DefaultRefreshInterval,
		hook:     func(BuildEvent) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = DefaultRefreshInterval
	}
	return r
}

// Run builds the initial snapshot, then checks for changes every interval until ctx is done.
// Failures are logged and the previous snapshot keeps serving.
func (r *Refresher) Run(ctx context.Context) error {
	slog.Info("initialising madison mapping")
	if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Error("initial build failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			slog.Debug("checking for updates")
			if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Error("refresh failed", slog.Any("error", err))
			}
		}
	}
}

// Refresh updates the source and rebuilds when it changed, when nothing has been
// published yet, or when the previous attempt failed.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed, err := r.src.Update(ctx)
	if err != nil {
		// part of the source may have moved on before the failure
		r.stale = true
		return fmt.Errorf("updating listings: %w", err)
	}
	if !changed && !r.stale && r.store.Ready() {
		slog.Debug("listings unchanged")
		return nil
	}

	start := time.Now()
	m, err := Build(ctx, r.src, r.buildOpts...)
	if err != nil {
		r.stale = true
		r.hook(BuildEvent{Duration: time.Since(start), Err: err})
		return fmt.Errorf("building mapping: %w", err)
	}
	r.stale = false

	snap := r.store.Publish(m)
	ev := BuildEvent{Generation: snap.Generation, Packages: m.Packages(), Duration: time.Since(start)}
	slog.Info("published mapping",
		slog.Uint64("generation", ev.Generation),
		slog.Int("packages", ev.Packages),
		slog.Duration("duration", ev.Duration),
	)
	r.hook(ev)
	return nil
}
