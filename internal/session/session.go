// Package session keeps the signed-in employee's access token on the device and decides which
// screen the app opens on.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/internal/cache"
	"github.com/charlesng35/storedesk/pkg/crypto"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
)

const tokenKey = "session:access_token"

// Route names the first screen shown at launch.
type Route string

const (
	RouteHome  Route = "home"
	RouteLogin Route = "login"
)

// Info is what the device can learn from a stored token without contacting the backend.
type Info struct {
	UserID    string
	Name      string
	Role      string
	StoreID   string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. Tokens without an expiry never
// expire.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes token claims without verifying the signature.
func Inspect(token string) (Info, error) {
	claims, err := auth.InspectToken(token)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		UserID:  claims.UserID,
		Name:    claims.Name,
		Role:    claims.Role,
		StoreID: claims.StoreID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// TokenStore persists the access token sealed with a device-derived key.
type TokenStore struct {
	store  cache.Store
	sealer *crypto.Sealer
	now    func() time.Time
	log    *zap.Logger
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(store cache.Store, sealer *crypto.Sealer) (*TokenStore, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	if sealer == nil {
		return nil, errors.New("session: sealer is required")
	}
	return &TokenStore{store: store, sealer: sealer, now: time.Now, log: logger.WithModule("session")}, nil
}

// Save seals and stores token. The entry expires with the token when it carries an expiry.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	info, err := Inspect(token)
	if err != nil {
		return apperrors.NewBadRequest("Invalid access token").WithInternal(err)
	}

	var ttl time.Duration
	if !info.ExpiresAt.IsZero() {
		ttl = info.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return apperrors.ErrUnauthorized.WithMessage("Access token has expired")
		}
	}

	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("session: seal token: %w", err)
	}
	return s.store.Set(ctx, tokenKey, []byte(sealed), ttl)
}

// Load returns the stored token. A token that no longer opens is discarded and reported as
// missing.
func (s *TokenStore) Load(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.store.Get(ctx, tokenKey)
	if err != nil || !ok {
		return "", false, err
	}

	token, err := s.sealer.Open(string(raw))
	if err != nil {
		s.log.Warn("discarding unreadable session token", zap.Error(err))
		_ = s.store.Delete(ctx, tokenKey)
		return "", false, nil
	}
	return token, true, nil
}

// Clear removes the stored token.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, tokenKey)
}

// Token implements api.TokenSource.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	token, ok, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	return token, nil
}

// InitialRoute opens on the home screen when a readable, unexpired token is stored and on the
// login screen otherwise. Expired tokens are cleared.
func InitialRoute(ctx context.Context, tokens *TokenStore, now time.Time) Route {
	if tokens == nil {
		return RouteLogin
	}

	token, ok, err := tokens.Load(ctx)
	if err != nil {
		tokens.log.Warn("read session token", zap.Error(err))
		return RouteLogin
	}
	if !ok {
		return RouteLogin
	}

	info, err := Inspect(token)
	if err != nil || info.Expired(now) {
		_ = tokens.Clear(ctx)
		return RouteLogin
	}
	return RouteHome
}
