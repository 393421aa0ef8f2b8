package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/realtime"
	"github.com/charlesng35/storedesk/pkg/logger"
)

// Notifier shows live notifications. *toast.Channel satisfies it.
type Notifier interface {
	Info(message string) string
}

type frame struct {
	Stream string          `json:"stream"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// ListenerConfig bundles the options required to build a Listener.
type ListenerConfig struct {
	URL            string
	Tokens         api.TokenSource
	Notify         Notifier
	Dialer         *websocket.Dialer
	OnNotification func(models.Notification)
}

// Listener receives live notifications over the push websocket.
type Listener struct {
	url    string
	tokens api.TokenSource
	notify Notifier
	dialer *websocket.Dialer
	hook   func(models.Notification)
	log    *zap.Logger
}

// NewListener constructs a Listener.
func NewListener(cfg ListenerConfig) (*Listener, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("push: parse url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("push: url %q must use ws or wss", cfg.URL)
	}
	if cfg.Tokens == nil {
		return nil, errors.New("push: token source is required")
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	q := u.Query()
	if q.Get("streams") == "" {
		q.Set("streams", realtime.StreamNotifications)
	}
	u.RawQuery = q.Encode()

	return &Listener{
		url:    u.String(),
		tokens: cfg.Tokens,
		notify: cfg.Notify,
		dialer: dialer,
		hook:   cfg.OnNotification,
		log:    logger.WithModule("push"),
	}, nil
}

// Run holds the connection open until ctx is cancelled or the server closes it. A cancelled
// context returns nil.
func (l *Listener) Run(ctx context.Context) error {
	token, err := l.tokens.Token(ctx)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := l.dialer.DialContext(ctx, l.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("push: dial: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		var msg frame
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("push: read: %w", err)
		}
		l.handle(msg)
	}
}

func (l *Listener) handle(msg frame) {
	if msg.Event != realtime.EventNotificationCreated {
		return
	}
	var n models.Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		l.log.Warn("malformed notification frame", zap.Error(err))
		return
	}
	if l.notify != nil {
		text := n.Title
		if text == "" {
			text = n.Body
		}
		l.notify.Info(text)
	}
	if l.hook != nil {
		l.hook(n)
	}
}
