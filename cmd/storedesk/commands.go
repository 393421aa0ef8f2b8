package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/push"
	"github.com/charlesng35/storedesk/internal/qr"
	"github.com/charlesng35/storedesk/internal/session"
	"github.com/charlesng35/storedesk/internal/store"
	"github.com/charlesng35/storedesk/internal/workflow"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

type command struct {
	summary string
	run     func(ctx context.Context, s *clientStack, args []string) error
}

var commands = map[string]command{
	"login":         {"Sign in with staff id and PIN", runLogin},
	"logout":        {"Forget the stored session", runLogout},
	"whoami":        {"Show the stored session and start screen", runWhoami},
	"home":          {"Load dashboard counters, urgent complaints and notifications", runHome},
	"complaints":    {"List complaints", runComplaints},
	"show":          {"Show one complaint", runShow},
	"status":        {"Move a complaint to pending or in_progress", runStatus},
	"note":          {"Add a note to a complaint", runNote},
	"assign":        {"Assign a complaint to yourself", runAssign},
	"resolve":       {"Resolve a complaint with compensation", runResolve},
	"actions":       {"List action items", runActions},
	"action-status": {"Change the status of an action item", runActionStatus},
	"action-assign": {"Assign an action item to yourself", runActionAssign},
	"followups":     {"List follow-ups", runFollowups},
	"followup-done": {"Complete a follow-up", runFollowupDone},
	"notifications": {"List notifications", runNotifications},
	"read":          {"Mark a notification read", runRead},
	"read-all":      {"Mark every notification read", runReadAll},
	"scan":          {"Open the complaint referenced by a scanned label", runScan},
	"label":         {"Write a complaint label as PNG", runLabel},
	"register-push": {"Register this device for push notifications", runRegisterPush},
	"listen":        {"Print live notifications until interrupted", runListen},
}

func newFlags(s *clientStack, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.stderr)
	return fs
}

func argAt(fs *flag.FlagSet, i int, name string) (string, error) {
	value := strings.TrimSpace(fs.Arg(i))
	if value == "" {
		return "", fmt.Errorf("%s: %s is required", fs.Name(), name)
	}
	return value, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type pageOutput[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	HasMore bool `json:"has_more"`
}

// loadPages fetches the first page and then keeps loading while more pages exist, up to pages.
func loadPages[T store.Entity[T], F any](ctx context.Context, c *store.Collection[T, F], filters F, pages int) (pageOutput[T], error) {
	if err := c.SetFilters(ctx, filters); err != nil {
		return pageOutput[T]{}, err
	}
	for i := 1; i < pages; i++ {
		if !c.Snapshot().HasMore {
			break
		}
		if err := c.LoadMore(ctx); err != nil {
			return pageOutput[T]{}, err
		}
	}
	state := c.Snapshot()
	return pageOutput[T]{Items: state.Items, Page: state.Page, HasMore: state.HasMore}, nil
}

func runLogin(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "login")
	staffID := fs.String("staff", "", "Staff id")
	pin := fs.String("pin", "", "PIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*staffID) == "" || strings.TrimSpace(*pin) == "" {
		return apperrors.NewBadRequest("staff id and pin are required")
	}

	resp, err := s.API.Login(ctx, *staffID, *pin)
	if err != nil {
		s.Toasts.Error(apperrors.UserMessage(err))
		return err
	}
	if err := s.Tokens.Save(ctx, resp.AccessToken); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.Toasts.Success("Signed in as " + resp.Name)

	if s.cfg.Push.Enabled && strings.TrimSpace(s.cfg.Push.DeviceToken) != "" {
		if err := registerPush(ctx, s, s.cfg.Push.DeviceToken, s.cfg.Push.Platform); err != nil {
			s.Toasts.Warning("Push notifications are unavailable")
		}
	}

	return writeJSON(s.stdout, map[string]string{
		"user_id":  resp.UserID,
		"name":     resp.Name,
		"role":     resp.Role,
		"store_id": resp.StoreID,
	})
}

func runLogout(ctx context.Context, s *clientStack, _ []string) error {
	if err := s.Tokens.Clear(ctx); err != nil {
		return err
	}
	s.Toasts.Info("Signed out")
	return nil
}

func runWhoami(ctx context.Context, s *clientStack, _ []string) error {
	route := session.InitialRoute(ctx, s.Tokens, time.Now())
	out := map[string]any{"route": route}

	if route == session.RouteHome {
		token, _, err := s.Tokens.Load(ctx)
		if err != nil {
			return err
		}
		info, err := session.Inspect(token)
		if err != nil {
			return err
		}
		out["user_id"] = info.UserID
		out["name"] = info.Name
		out["role"] = info.Role
		out["store_id"] = info.StoreID
		out["expires_at"] = info.ExpiresAt
	}
	return writeJSON(s.stdout, out)
}

func runHome(ctx context.Context, s *clientStack, _ []string) error {
	loadErr := s.Home.Load(ctx)
	if loadErr != nil {
		for _, err := range multierr.Errors(loadErr) {
			s.Toasts.Error(apperrors.UserMessage(err))
		}
	}

	out := map[string]any{
		"stats":        s.Home.Stats(),
		"urgent":       s.Urgent.Items(),
		"unread_count": s.Notifications.UnreadCount(),
	}
	return multierr.Append(loadErr, writeJSON(s.stdout, out))
}

func runComplaints(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "complaints")
	status := fs.String("status", "", "Filter by status (pending, in_progress, resolved)")
	severity := fs.String("severity", "", "Filter by severity (low, medium, high, critical)")
	pages := fs.Int("pages", 1, "Number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := loadPages(ctx, s.Complaints.Collection, store.ComplaintFilters{
		Status:   models.ComplaintStatus(*status),
		Severity: models.Level(*severity),
	}, *pages)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, out)
}

func runShow(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "complaint id")
	if err != nil {
		return err
	}

	complaint, err := s.ComplaintFlow.Open(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

// openComplaint loads the complaint first so the resolved guard sees the current state.
func openComplaint(ctx context.Context, s *clientStack, fs *flag.FlagSet) (string, error) {
	id, err := argAt(fs, 0, "complaint id")
	if err != nil {
		return "", err
	}
	if _, err := s.ComplaintFlow.Open(ctx, id); err != nil {
		s.Toasts.Error(apperrors.UserMessage(err))
		return "", err
	}
	return id, nil
}

func runStatus(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := openComplaint(ctx, s, fs)
	if err != nil {
		return err
	}
	status, err := argAt(fs, 1, "status")
	if err != nil {
		return err
	}

	complaint, err := s.ComplaintFlow.ChangeStatus(ctx, workflow.StatusInput{ID: id, Status: models.ComplaintStatus(status)})
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

func runNote(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "note")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := openComplaint(ctx, s, fs)
	if err != nil {
		return err
	}

	content := strings.Join(fs.Args()[1:], " ")
	complaint, err := s.ComplaintFlow.AddNote(ctx, workflow.NoteInput{ID: id, Content: content})
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

func runAssign(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "assign")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := openComplaint(ctx, s, fs)
	if err != nil {
		return err
	}

	complaint, err := s.ComplaintFlow.Assign(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

func runResolve(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "resolve")
	compensation := fs.String("compensation", "", "Compensation offered to the customer")
	notes := fs.String("notes", "", "Resolution notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := openComplaint(ctx, s, fs)
	if err != nil {
		return err
	}

	complaint, err := s.ComplaintFlow.Resolve(ctx, workflow.ResolveInput{
		ID:              id,
		Compensation:    *compensation,
		ResolutionNotes: *notes,
	})
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

func runActions(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "actions")
	status := fs.String("status", "", "Filter by status")
	urgency := fs.String("urgency", "", "Filter by urgency")
	kind := fs.String("type", "", "Filter by type")
	pages := fs.Int("pages", 1, "Number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := loadPages(ctx, s.ActionItems.Collection, store.ActionItemFilters{
		Status:  models.ActionItemStatus(*status),
		Urgency: models.Level(*urgency),
		Type:    models.ActionItemType(*kind),
	}, *pages)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, out)
}

func runActionStatus(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "action-status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "action item id")
	if err != nil {
		return err
	}
	status, err := argAt(fs, 1, "status")
	if err != nil {
		return err
	}
	if _, err := s.ActionItems.FetchDetail(ctx, id); err != nil {
		return err
	}

	item, err := s.ActionFlow.ChangeStatus(ctx, workflow.ActionStatusInput{ID: id, Status: models.ActionItemStatus(status)})
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, item)
}

func runActionAssign(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "action-assign")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "action item id")
	if err != nil {
		return err
	}

	item, err := s.ActionFlow.Assign(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, item)
}

func runFollowups(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "followups")
	status := fs.String("status", "", "Filter by status")
	pages := fs.Int("pages", 1, "Number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := loadPages(ctx, s.Followups.Collection, store.FollowupFilters{
		Status: models.ActionItemStatus(*status),
	}, *pages)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, out)
}

func runFollowupDone(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "followup-done")
	notes := fs.String("notes", "", "Resolution notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "follow-up id")
	if err != nil {
		return err
	}

	return s.ActionFlow.ResolveFollowup(ctx, workflow.FollowupInput{ID: id, Notes: *notes})
}

func runNotifications(ctx context.Context, s *clientStack, _ []string) error {
	if err := s.Notifications.Fetch(ctx); err != nil {
		return err
	}
	return writeJSON(s.stdout, s.Notifications.Snapshot())
}

func runRead(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "notification id")
	if err != nil {
		return err
	}
	if err := s.Notifications.Fetch(ctx); err != nil {
		return err
	}
	s.Notifications.MarkAsRead(ctx, id)
	return writeJSON(s.stdout, map[string]int{"unread_count": s.Notifications.UnreadCount()})
}

func runReadAll(ctx context.Context, s *clientStack, _ []string) error {
	if err := s.Notifications.Fetch(ctx); err != nil {
		return err
	}
	s.Notifications.MarkAllAsRead(ctx)
	return writeJSON(s.stdout, map[string]int{"unread_count": s.Notifications.UnreadCount()})
}

func runScan(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "scan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	payload, err := argAt(fs, 0, "payload")
	if err != nil {
		return err
	}

	complaint, err := s.Scanner.Lookup(ctx, payload)
	if err != nil {
		return err
	}
	return writeJSON(s.stdout, complaint)
}

func runLabel(_ context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "label")
	size := fs.Int("size", 256, "Image size in pixels")
	out := fs.String("out", "", "Output file; defaults to <id>.png")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argAt(fs, 0, "complaint id")
	if err != nil {
		return err
	}

	png, err := qr.NewEncoder(qr.WithSize(*size)).Encode(id)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(*out)
	if path == "" {
		path = id + ".png"
	}
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return fmt.Errorf("write label: %w", err)
	}
	return writeJSON(s.stdout, map[string]string{"path": path, "payload": qr.Payload(id)})
}

func registerPush(ctx context.Context, s *clientStack, token, platform string) error {
	registrar, err := push.NewRegistrar(s.API)
	if err != nil {
		return err
	}
	return registrar.Register(ctx, token, platform)
}

func runRegisterPush(ctx context.Context, s *clientStack, args []string) error {
	fs := newFlags(s, "register-push")
	token := fs.String("token", s.cfg.Push.DeviceToken, "Platform push token")
	platform := fs.String("platform", s.cfg.Push.Platform, "Device platform (ios, android)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := registerPush(ctx, s, *token, *platform); err != nil {
		s.Toasts.Error(apperrors.UserMessage(err))
		return err
	}
	s.Toasts.Success("Push notifications enabled")
	return nil
}

func runListen(ctx context.Context, s *clientStack, _ []string) error {
	if !s.cfg.Push.Enabled {
		return errors.New("push notifications are disabled")
	}

	listener, err := push.NewListener(push.ListenerConfig{
		URL:    s.cfg.Push.StreamURL,
		Tokens: s.Tokens,
		Notify: s.Toasts,
		OnNotification: func(n models.Notification) {
			_ = writeJSON(s.stdout, n)
		},
	})
	if err != nil {
		return err
	}
	return listener.Run(ctx)
}
