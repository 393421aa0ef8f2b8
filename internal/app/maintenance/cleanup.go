package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/pkg/logger"
)

const (
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultCacheSpec             = "@every 10m"
	defaultNotificationSpec      = "@daily"
)

// CachePurger removes expired key/value entries. *cache.DatabaseStore satisfies it.
type CachePurger interface {
	Purge(ctx context.Context) (int64, error)
}

// NotificationPruner removes read notifications created before a cutoff. *sandbox.Service
// satisfies it.
type NotificationPruner interface {
	PruneNotifications(ctx context.Context, before time.Time) (int64, error)
}

// Cleaner coordinates background housekeeping for the sandbox backend: expired cache rows
// (rate limit windows) and old read notifications.
type Cleaner struct {
	cache         CachePurger
	notifications NotificationPruner
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	retention     time.Duration

	cacheSchedule        string
	notificationSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention cutoffs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithNotificationRetention adjusts how long read notifications are kept.
func WithNotificationRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// WithCacheSchedule overrides the cron schedule for cache purging.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// WithNotificationSchedule overrides the cron schedule for notification pruning.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the corresponding job.
func NewCleaner(cache CachePurger, notifications NotificationPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		cache:                cache,
		notifications:        notifications,
		now:                  time.Now,
		retention:            defaultNotificationRetention,
		cacheSchedule:        defaultCacheSpec,
		notificationSchedule: defaultNotificationSpec,
		log:                  logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the cleanup jobs and launches the scheduler when at least one is enabled.
func (c *Cleaner) Start() error {
	if c.cache == nil && c.notifications == nil {
		return nil
	}

	if c.cache != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.purgeCache(context.Background()); err != nil {
				c.log.Warn("cache purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.notifications != nil {
		if _, err := c.cron.AddFunc(c.notificationSchedule, func() {
			if _, err := c.pruneNotifications(context.Background()); err != nil {
				c.log.Warn("notification pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// Stats reports how many rows a run removed.
type Stats struct {
	CacheEntries  int64
	Notifications int64
}

// RunOnce executes every configured cleanup sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		stats Stats
		errs  error
		err   error
	)

	if c.cache != nil {
		stats.CacheEntries, err = c.purgeCache(ctx)
		errs = multierr.Append(errs, err)
	}
	if c.notifications != nil {
		stats.Notifications, err = c.pruneNotifications(ctx)
		errs = multierr.Append(errs, err)
	}
	return stats, errs
}

func (c *Cleaner) purgeCache(ctx context.Context) (int64, error) {
	removed, err := c.cache.Purge(ctx)
	if err == nil && removed > 0 {
		c.log.Debug("purged cache entries", zap.Int64("removed", removed))
	}
	return removed, err
}

func (c *Cleaner) pruneNotifications(ctx context.Context) (int64, error) {
	removed, err := c.notifications.PruneNotifications(ctx, c.now().Add(-c.retention))
	if err == nil && removed > 0 {
		c.log.Debug("pruned notifications", zap.Int64("removed", removed))
	}
	return removed, err
}
