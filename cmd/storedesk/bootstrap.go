package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/app"
	"github.com/charlesng35/storedesk/internal/cache"
	"github.com/charlesng35/storedesk/internal/database"
	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/session"
	"github.com/charlesng35/storedesk/internal/store"
	"github.com/charlesng35/storedesk/internal/toast"
	"github.com/charlesng35/storedesk/internal/workflow"
)

// clientStack bundles everything a screen needs: the device database holding the session, the
// backend client, the stores and the feedback channel.
type clientStack struct {
	cfg    *app.Config
	stdout io.Writer
	stderr io.Writer

	DB            *gorm.DB
	Tokens        *session.TokenStore
	API           *api.Client
	Bus           *events.Bus
	Toasts        *toast.Channel
	Complaints    *store.Complaints
	ActionItems   *store.ActionItems
	Followups     *store.Followups
	Urgent        *store.UrgentStore
	Notifications *store.NotificationStore

	ComplaintFlow *workflow.Complaints
	ActionFlow    *workflow.ActionItems
	Home          *workflow.Home
	Scanner       *workflow.Scanner

	unsubToasts func()
}

// bootstrapClient opens the device database and wires the stores to the backend client.
func bootstrapClient(cfg *app.Config, stdout, stderr io.Writer) (*clientStack, error) {
	stack := &clientStack{cfg: cfg, stdout: stdout, stderr: stderr}
	success := false
	defer func() {
		if !success {
			stack.Close(zap.NewNop())
		}
	}()

	db, err := database.Open(database.Config{Driver: "sqlite", Path: strings.TrimSpace(cfg.Auth.StoragePath)})
	if err != nil {
		return nil, fmt.Errorf("open device database: %w", err)
	}
	stack.DB = db
	if err := database.MigrateAndSeed(db, nil); err != nil {
		return nil, fmt.Errorf("migrate device database: %w", err)
	}

	sealer, err := cfg.Auth.Sealer()
	if err != nil {
		return nil, fmt.Errorf("initialise token sealer: %w", err)
	}
	stack.Tokens, err = session.NewTokenStore(cache.NewDatabaseStore(db), sealer)
	if err != nil {
		return nil, fmt.Errorf("initialise token store: %w", err)
	}

	stack.API, err = api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Tokens:    stack.Tokens,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise api client: %w", err)
	}

	stack.Bus = events.NewBus()
	stack.Toasts = toast.New(toast.WithDefaultDuration(cfg.Toast.DefaultDuration))
	stack.unsubToasts = stack.Toasts.Subscribe(toastPrinter(stderr))

	pageSize := store.WithPageSize(cfg.API.PageSize)
	stack.Complaints = store.NewComplaints(stack.API, stack.Bus, pageSize)
	stack.ActionItems = store.NewActionItems(stack.API, stack.Bus, pageSize)
	stack.Followups = store.NewFollowups(stack.API, stack.Bus, pageSize)
	stack.Urgent = store.NewUrgentStore(stack.API, stack.Bus)
	stack.Notifications = store.NewNotificationStore(stack.API)

	if stack.ComplaintFlow, err = workflow.NewComplaints(stack.Complaints, stack.Toasts); err != nil {
		return nil, err
	}
	if stack.ActionFlow, err = workflow.NewActionItems(stack.ActionItems, stack.Followups, stack.Toasts); err != nil {
		return nil, err
	}
	stack.Home = workflow.NewHome(stack.API, stack.Urgent, stack.Notifications)
	stack.Scanner = workflow.NewScanner(stack.Complaints, stack.Toasts)

	success = true
	return stack, nil
}

// Close detaches the stores from the bus and releases the device database.
func (s *clientStack) Close(log *zap.Logger) {
	if s == nil {
		return
	}
	if s.unsubToasts != nil {
		s.unsubToasts()
		s.unsubToasts = nil
	}
	if s.Toasts != nil {
		s.Toasts.ClearAll()
	}
	if s.Complaints != nil {
		s.Complaints.Close()
	}
	if s.ActionItems != nil {
		s.ActionItems.Close()
	}
	if s.Followups != nil {
		s.Followups.Close()
	}
	if s.Urgent != nil {
		s.Urgent.Close()
	}
	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close device database", zap.Error(err))
		}
		s.DB = nil
	}
}

// toastPrinter writes each toast once as it appears.
func toastPrinter(w io.Writer) func([]toast.Toast) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	return func(items []toast.Toast) {
		mu.Lock()
		defer mu.Unlock()
		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			fmt.Fprintf(w, "[%s] %s\n", item.Kind, item.Message)
		}
	}
}
