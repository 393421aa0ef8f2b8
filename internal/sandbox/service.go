package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/realtime"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Caller identifies the authenticated employee a request acts for.
type Caller struct {
	UserID  string
	Name    string
	Role    string
	StoreID string
}

// Service implements the backend contract the mobile client talks to, on top of gorm.
type Service struct {
	db  *gorm.DB
	hub *realtime.Hub
	now func() time.Time
	log *zap.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock replaces the time source used for timestamps and overdue checks.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service. hub may be nil, in which case nothing is pushed.
func NewService(db *gorm.DB, hub *realtime.Hub, opts ...ServiceOption) (*Service, error) {
	if db == nil {
		return nil, errors.New("sandbox service: db is required")
	}
	s := &Service{
		hub: hub,
		now: time.Now,
		log: logger.WithModule("sandbox"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.db = db.Session(&gorm.Session{NowFunc: func() time.Time { return s.now().UTC() }})
	return s, nil
}

func (s *Service) publish(stream, userID string, msg realtime.Message) {
	if s.hub == nil {
		return
	}
	var delivered int
	if userID == "" {
		delivered = s.hub.Broadcast(stream, msg)
	} else {
		delivered = s.hub.PublishToUser(stream, userID, msg)
	}
	s.log.Debug("pushed event",
		zap.String("stream", stream),
		zap.String("event", msg.Event),
		zap.Int("devices", delivered),
	)
}

func pageBounds(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// trimPage fetches limit+1 rows and reports whether the extra row existed.
func trimPage[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

func notFound(kind string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound.WithMessage(kind + " not found")
	}
	return fmt.Errorf("sandbox: load %s: %w", kind, err)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
