package refresh

import (
	"context"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/worker"
)

const (
	DefaultInterval        = 2 * time.Minute
	DefaultChangeThreshold = 50
	DefaultInitialBackoff  = time.Second
	DefaultMaxBackoff      = time.Minute
)

// Snapshotter - source of the catalog snapshot (the record store)
type Snapshotter interface {
	All(ctx context.Context) iter.Seq2[domain.ParkingSpot, error]
}

// Rebuilder - the index being refreshed
type Rebuilder interface {
	Rebuild(ctx context.Context, snapshot iter.Seq2[domain.ParkingSpot, error]) (int, error)
}

type Config struct {
	Interval        time.Duration
	ChangeThreshold int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.ChangeThreshold <= 0 {
		c.ChangeThreshold = DefaultChangeThreshold
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return c
}

// Coordinator owns index rebuilds. It runs at most one rebuild at a time;
// triggers that arrive while a rebuild runs collapse into one follow-up
// rebuild. A failed rebuild is retried with exponential backoff, and any
// trigger in the meantime rebuilds right away.
type Coordinator struct {
	*worker.BaseWorker
	source Snapshotter
	index  Rebuilder
	cfg    Config
	logger *zap.Logger

	// signal has room for one token so a trigger never blocks
	signal chan struct{}

	mu            sync.Mutex
	pending       bool
	pendingReason domain.RefreshReason
	changes       int
	status        domain.RefreshStatus
	subs          map[int]chan domain.RefreshStatus
	nextSub       int
}

var _ worker.Worker = (*Coordinator)(nil)

func NewCoordinator(source Snapshotter, index Rebuilder, cfg Config, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		BaseWorker: worker.NewBaseWorker("refresh-coordinator", logger),
		source:     source,
		index:      index,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		signal:     make(chan struct{}, 1),
		status:     domain.RefreshStatus{State: domain.RefreshIdle},
		subs:       make(map[int]chan domain.RefreshStatus),
	}
}

// Trigger asks for a rebuild. It never blocks.
func (c *Coordinator) Trigger(reason domain.RefreshReason) {
	c.mu.Lock()
	c.pending = true
	c.pendingReason = reason
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// TriggerImport is called after an import batch was committed.
func (c *Coordinator) TriggerImport() {
	c.Trigger(domain.ReasonImport)
}

// TriggerManual is called on an explicit refresh request.
func (c *Coordinator) TriggerManual() {
	c.Trigger(domain.ReasonManual)
}

// NoteAvailabilityChanges counts applied changes and triggers a rebuild every
// ChangeThreshold changes.
func (c *Coordinator) NoteAvailabilityChanges(n int) {
	if n <= 0 {
		return
	}

	c.mu.Lock()
	c.changes += n
	fire := c.changes >= c.cfg.ChangeThreshold
	if fire {
		c.changes = 0
	}
	c.mu.Unlock()

	if fire {
		c.Trigger(domain.ReasonAvailability)
	}
}

func (c *Coordinator) Status() domain.RefreshStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe returns a channel carrying status changes and a function that
// ends the subscription. Slow subscribers only see the latest status.
func (c *Coordinator) Subscribe() (<-chan domain.RefreshStatus, func()) {
	ch := make(chan domain.RefreshStatus, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.status
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// Start runs the coordinator loop, beginning with a startup rebuild.
func (c *Coordinator) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	var (
		retryTimer *time.Timer
		retryC     <-chan time.Time
		backoff    time.Duration
	)
	stopRetry := func() {
		if retryTimer != nil {
			retryTimer.Stop()
		}
		retryTimer, retryC = nil, nil
	}
	defer stopRetry()

	c.Trigger(domain.ReasonStartup)
	c.logger.Info("Refresh coordinator started",
		zap.Duration("interval", c.cfg.Interval),
		zap.Int("change_threshold", c.cfg.ChangeThreshold),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.StopChan():
			return nil
		case <-c.signal:
		case <-ticker.C:
			c.markPending(domain.ReasonTimer)
		case <-retryC:
			retryTimer, retryC = nil, nil
			c.markPending(domain.ReasonRetry)
		}

		for {
			reason, ok := c.takePending()
			if !ok {
				break
			}
			if ctx.Err() != nil || c.IsStopped() {
				return nil
			}

			if err := c.rebuild(ctx, reason); err != nil {
				if backoff == 0 {
					backoff = c.cfg.InitialBackoff
				} else {
					backoff = min(backoff*2, c.cfg.MaxBackoff)
				}
				stopRetry()
				retryTimer = time.NewTimer(backoff)
				retryC = retryTimer.C

				c.logger.Warn("Index rebuild scheduled for retry", zap.Duration("backoff", backoff))
				continue
			}

			backoff = 0
			stopRetry()
		}
	}
}

func (c *Coordinator) markPending(reason domain.RefreshReason) {
	c.mu.Lock()
	c.pending = true
	c.pendingReason = reason
	c.mu.Unlock()
}

func (c *Coordinator) takePending() (domain.RefreshReason, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return "", false
	}
	c.pending = false
	return c.pendingReason, true
}

func (c *Coordinator) rebuild(ctx context.Context, reason domain.RefreshReason) error {
	c.setStatus(func(s *domain.RefreshStatus) {
		s.State = domain.RefreshRefreshing
		s.LastReason = reason
	})

	start := time.Now()
	n, err := c.index.Rebuild(ctx, c.source.All(ctx))
	elapsed := time.Since(start)
	metrics.IndexRebuildDurationMs.Observe(float64(elapsed.Microseconds()) / 1000)

	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("failure").Inc()
		c.logger.Error("Index rebuild failed",
			zap.String("reason", string(reason)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		c.setStatus(func(s *domain.RefreshStatus) {
			s.State = domain.RefreshError
			s.LastError = err.Error()
			s.Rebuilds++
		})
		return err
	}

	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexedSpots.Set(float64(n))
	c.logger.Info("Index rebuilt",
		zap.String("reason", string(reason)),
		zap.Int("spots", n),
		zap.Duration("elapsed", elapsed),
	)
	c.setStatus(func(s *domain.RefreshStatus) {
		s.State = domain.RefreshIdle
		s.LastError = ""
		s.LastSuccessAt = time.Now().UTC()
		s.IndexedSpots = n
		s.Rebuilds++
	})
	return nil
}

func (c *Coordinator) setStatus(update func(*domain.RefreshStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	update(&c.status)
	for _, ch := range c.subs {
		// keep only the newest status for a slow subscriber
		select {
		case <-ch:
		default:
		}
		ch <- c.status
	}
}
