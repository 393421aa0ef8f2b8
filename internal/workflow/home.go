package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/store"
	"github.com/charlesng35/storedesk/pkg/logger"
)

// DashboardAPI fetches the home screen counters.
type DashboardAPI interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
}

// Home loads everything the home screen shows.
type Home struct {
	dashboard     DashboardAPI
	urgent        *store.UrgentStore
	notifications *store.NotificationStore
	log           *zap.Logger

	mu    sync.RWMutex
	stats models.DashboardStats
}

// NewHome constructs the home workflow. Any dependency may be nil and is then skipped.
func NewHome(dashboard DashboardAPI, urgent *store.UrgentStore, notifications *store.NotificationStore) *Home {
	return &Home{
		dashboard:     dashboard,
		urgent:        urgent,
		notifications: notifications,
		log:           logger.WithModule("workflow.home"),
	}
}

// Load fetches the dashboard, the urgent set and the notifications concurrently. Each load
// succeeds or fails on its own; the combined error lists every failure.
func (h *Home) Load(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	if h.dashboard != nil {
		run("dashboard", h.loadDashboard)
	}
	if h.urgent != nil {
		run("urgent", h.urgent.Fetch)
	}
	if h.notifications != nil {
		run("notifications", h.notifications.Fetch)
	}
	wg.Wait()

	if errs != nil {
		h.log.Warn("home load incomplete", zap.Int("failures", len(multierr.Errors(errs))), zap.Error(errs))
	}
	return errs
}

// Refresh reloads the home screen without clearing what is shown.
func (h *Home) Refresh(ctx context.Context) error {
	var errs error
	if h.dashboard != nil {
		errs = multierr.Append(errs, h.loadDashboard(ctx))
	}
	if h.urgent != nil {
		errs = multierr.Append(errs, h.urgent.Refresh(ctx))
	}
	if h.notifications != nil {
		errs = multierr.Append(errs, h.notifications.Refresh(ctx))
	}
	return errs
}

// Stats returns the last loaded dashboard counters.
func (h *Home) Stats() models.DashboardStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

func (h *Home) loadDashboard(ctx context.Context) error {
	stats, err := h.dashboard.Dashboard(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.stats = stats
	h.mu.Unlock()
	return nil
}
