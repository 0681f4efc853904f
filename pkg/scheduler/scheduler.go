// Package scheduler periodically re-fetches every stored channel so the
// local store keeps up with its sources.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/ewiq/leatly/pkg/domain"
	"github.com/ewiq/leatly/pkg/feed"
)

// Store interface for scheduler operations.
type Store interface {
	GetAllChannels(ctx context.Context) ([]domain.StoredChannel, error)
	SaveFeed(ctx context.Context, f *domain.Feed, sourceURL string) error
}

// Fetcher retrieves raw feed bytes for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config holds scheduler configuration.
type Config struct {
	RefreshInterval time.Duration
	MaxConcurrent   int
}

// Scheduler drives periodic feed refreshes with bounded concurrency.
type Scheduler struct {
	store    Store
	fetcher  Fetcher
	interval time.Duration
	workers  int
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New creates a scheduler instance.
func New(store Store, fetcher Fetcher, cfg Config) *Scheduler {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 30 * time.Minute
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 5
	}
	return &Scheduler{
		store:    store,
		fetcher:  fetcher,
		interval: cfg.RefreshInterval,
		workers:  cfg.MaxConcurrent,
	}
}

// Start begins the refresh loop; the first pass runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RefreshAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RefreshAll(ctx)
			}
		}
	}()
	lgr.Printf("[INFO] scheduler started, refresh interval %v, %d workers", s.interval, s.workers)
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// RefreshAll re-fetches every stored channel once. Individual feed
// failures are logged and skipped; they never abort the pass.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	channels, err := s.store.GetAllChannels(ctx)
	if err != nil {
		lgr.Printf("[ERROR] failed to list channels for refresh: %v", err)
		return
	}
	if len(channels) == 0 {
		return
	}
	lgr.Printf("[INFO] refreshing %d channels", len(channels))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, ch := range channels {
		g.Go(func() error {
			s.refresh(ctx, ch)
			return nil
		})
	}
	_ = g.Wait()
}

// refresh re-fetches one channel from its original fetch URL; the channel
// link is the fallback for records stored before the URL was tracked.
func (s *Scheduler) refresh(ctx context.Context, ch domain.StoredChannel) {
	url := ch.FeedURL
	if url == "" {
		url = ch.Link
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		lgr.Printf("[WARN] fetch %s failed: %v", url, err)
		return
	}
	normalized, err := feed.Normalize(body)
	if err != nil {
		lgr.Printf("[WARN] normalize %s failed: %v", url, err)
		return
	}
	if err := s.store.SaveFeed(ctx, normalized, url); err != nil {
		lgr.Printf("[ERROR] save %s failed: %v", url, err)
		return
	}
	lgr.Printf("[DEBUG] refreshed %s, %d items", url, len(normalized.Items))
}
