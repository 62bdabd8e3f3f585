package availability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/worker"
)

const (
	DefaultPollInterval = 2 * time.Minute
	DefaultMinInterval  = time.Minute
)

type PollerConfig struct {
	PollInterval time.Duration
	MinInterval  time.Duration
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MinInterval <= 0 {
		c.MinInterval = DefaultMinInterval
	}
	return c
}

// FeedPoller fetches the availability API on a timer and applies the result.
type FeedPoller struct {
	*worker.BaseWorker
	feed    repository.AvailabilityFeed
	applier Applier
	cfg     PollerConfig
	now     func() time.Time

	// fetchMu serialises fetches; lastFetch is the start of the last attempt
	fetchMu   sync.Mutex
	lastFetch time.Time
}

type PollerOption func(*FeedPoller)

func WithPollerClock(now func() time.Time) PollerOption {
	return func(p *FeedPoller) { p.now = now }
}

func NewFeedPoller(feed repository.AvailabilityFeed, applier Applier, cfg PollerConfig, logger *zap.Logger, opts ...PollerOption) *FeedPoller {
	p := &FeedPoller{
		BaseWorker: worker.NewBaseWorker("availability-feed", logger),
		feed:       feed,
		applier:    applier,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *FeedPoller) Start(ctx context.Context) error {
	logger := p.Logger()
	logger.Info("Starting availability feed poller",
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Duration("min_interval", p.cfg.MinInterval))

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-p.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return nil
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *FeedPoller) pollOnce(ctx context.Context) {
	if err := p.Fetch(ctx); err != nil {
		p.Logger().Warn("Availability poll failed", zap.Error(err))
	}
}

// Fetch pulls the feed and applies it regardless of the last fetch time.
func (p *FeedPoller) Fetch(ctx context.Context) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	return p.fetchLocked(ctx)
}

// FetchIfStale fetches only when the last attempt is at least MinInterval
// old. It reports whether a fetch happened.
func (p *FeedPoller) FetchIfStale(ctx context.Context) (bool, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	if !p.lastFetch.IsZero() && p.now().Sub(p.lastFetch) < p.cfg.MinInterval {
		return false, nil
	}
	return true, p.fetchLocked(ctx)
}

// LastFetch returns the start time of the last fetch attempt.
func (p *FeedPoller) LastFetch() time.Time {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	return p.lastFetch
}

func (p *FeedPoller) fetchLocked(ctx context.Context) error {
	p.lastFetch = p.now()

	updates, err := p.feed.FetchAvailability(ctx)
	if err != nil {
		return err
	}

	res, err := p.applier.ApplyAvailability(ctx, updates)
	if err != nil {
		return err
	}

	p.Logger().Info("Availability feed applied",
		zap.Int("received", res.Received),
		zap.Int("applied", res.Applied),
		zap.Int("unknown_spot", res.UnknownSpot),
		zap.Int("lot_type_mismatch", res.LotTypeMismatch),
		zap.Int("stale", res.Stale),
		zap.Int("invalid", res.Invalid))
	return nil
}
