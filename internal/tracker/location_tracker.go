package tracker

import (
	"math"
	"sync"
	"time"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
	"go.uber.org/zap"
)

const (
	DefaultMaxAccuracyMeters     = 100.0
	DefaultFreshnessWindow       = 2 * time.Minute
	DefaultRetentionWindow       = 10 * time.Minute
	DefaultMinDisplacementMeters = 10.0

	// fixes further in the future than this are treated as a broken clock
	maxClockSkew = time.Minute
)

// Outcome - what Record did with a fix
type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeOutOfOrder Outcome = "out_of_order"
	OutcomeInaccurate Outcome = "inaccurate"
	OutcomeFuture     Outcome = "future"
)

// RecordResult reports how a fix was handled. Moved is only meaningful for
// accepted fixes: true for the first fix and whenever the position moved more
// than the minimum displacement.
type RecordResult struct {
	Outcome Outcome `json:"outcome"`
	Moved   bool    `json:"moved"`
}

type Config struct {
	MaxAccuracyMeters     float64
	FreshnessWindow       time.Duration
	RetentionWindow       time.Duration
	MinDisplacementMeters float64
}

func (c Config) withDefaults() Config {
	if c.MaxAccuracyMeters <= 0 {
		c.MaxAccuracyMeters = DefaultMaxAccuracyMeters
	}
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.RetentionWindow < c.FreshnessWindow {
		c.RetentionWindow = DefaultRetentionWindow
		if c.RetentionWindow < c.FreshnessWindow {
			c.RetentionWindow = c.FreshnessWindow
		}
	}
	if c.MinDisplacementMeters < 0 {
		c.MinDisplacementMeters = DefaultMinDisplacementMeters
	}
	return c
}

// LocationTracker owns the device's current position. It never blocks on
// anything but its own short mutex and is safe for concurrent writers: the
// ordering rule on observedAt decides which fix wins.
type LocationTracker struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
	history []domain.LocationFix
}

type Option func(*LocationTracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *LocationTracker) { t.now = now }
}

func NewLocationTracker(cfg Config, logger *zap.Logger, opts ...Option) *LocationTracker {
	t := &LocationTracker{
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record offers a fix to the tracker. Inaccurate, out-of-order and
// future-dated fixes are dropped and reported through the outcome; only
// malformed fixes return an error.
func (t *LocationTracker) Record(fix domain.LocationFix) (RecordResult, error) {
	if !utils.ValidateCoordinates(fix.Latitude, fix.Longitude) {
		return RecordResult{}, errors.Validation([]string{"coordinates_out_of_range"})
	}
	if fix.ObservedAt.IsZero() {
		return RecordResult{}, errors.Validation([]string{"observed_at_required"})
	}
	if math.IsNaN(fix.AccuracyMeters) || fix.AccuracyMeters < 0 || fix.AccuracyMeters > t.cfg.MaxAccuracyMeters {
		return t.drop(OutcomeInaccurate, fix), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if fix.ObservedAt.After(now.Add(maxClockSkew)) {
		return t.drop(OutcomeFuture, fix), nil
	}

	var prev *domain.LocationFix
	if n := len(t.history); n > 0 {
		prev = &t.history[n-1]
		if fix.ObservedAt.Before(prev.ObservedAt) {
			return t.drop(OutcomeOutOfOrder, fix), nil
		}
	}

	moved := prev == nil ||
		utils.HaversineMeters(prev.Latitude, prev.Longitude, fix.Latitude, fix.Longitude) > t.cfg.MinDisplacementMeters

	t.history = append(t.history, fix)
	t.prune(now)

	metrics.TrackerFixesTotal.WithLabelValues(string(OutcomeAccepted)).Inc()
	return RecordResult{Outcome: OutcomeAccepted, Moved: moved}, nil
}

func (t *LocationTracker) drop(outcome Outcome, fix domain.LocationFix) RecordResult {
	metrics.TrackerFixesTotal.WithLabelValues(string(outcome)).Inc()
	t.logger.Debug("Location fix dropped",
		zap.String("outcome", string(outcome)),
		zap.Float64("accuracy_m", fix.AccuracyMeters),
		zap.Time("observed_at", fix.ObservedAt),
	)
	return RecordResult{Outcome: outcome}
}

// prune drops history older than the retention window but always keeps the
// latest fix so the ordering rule still holds after a long silence.
func (t *LocationTracker) prune(now time.Time) {
	cutoff := now.Add(-t.cfg.RetentionWindow)
	i := 0
	for i < len(t.history)-1 && t.history[i].ObservedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.history = append(t.history[:0:0], t.history[i:]...)
	}
}

// Current returns the latest accepted fix if it is still inside the
// freshness window; ok is false when the position is unknown.
func (t *LocationTracker) Current() (domain.LocationFix, bool) {
	loc := t.Snapshot()
	if loc.State != domain.FixFresh {
		return domain.LocationFix{}, false
	}
	return *loc.Fix, true
}

// Snapshot classifies the latest fix as fresh, stale (older than the
// freshness window but within retention) or unknown.
func (t *LocationTracker) Snapshot() domain.TrackedLocation {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return domain.TrackedLocation{State: domain.FixUnknown}
	}
	latest := t.history[len(t.history)-1]
	age := t.now().Sub(latest.ObservedAt)

	switch {
	case age <= t.cfg.FreshnessWindow:
		return domain.TrackedLocation{State: domain.FixFresh, Fix: &latest}
	case age <= t.cfg.RetentionWindow:
		return domain.TrackedLocation{State: domain.FixStale, Fix: &latest}
	default:
		return domain.TrackedLocation{State: domain.FixUnknown}
	}
}

// History returns the accepted fixes still inside the retention window,
// oldest first.
func (t *LocationTracker) History() []domain.LocationFix {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.cfg.RetentionWindow)
	var out []domain.LocationFix
	for _, f := range t.history {
		if !f.ObservedAt.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out
}
