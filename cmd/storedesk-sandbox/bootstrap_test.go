package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/app"
)

func TestBootstrapRuntimeServesSeededSandbox(t *testing.T) {
	cfg := &app.Config{
		Sandbox: app.SandboxConfig{
			Seed:       true,
			JWT:        app.JWTSettings{Secret: "bootstrap-secret", Issuer: "storedesk-sandbox", TTL: time.Hour},
			RateLimit:  100,
			RateWindow: time.Minute,
		},
	}

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	var staff int64
	require.NoError(t, stack.DB.Table("staff").Count(&staff).Error)
	require.EqualValues(t, 2, staff)

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdownIsIdempotent(t *testing.T) {
	cfg := &app.Config{Sandbox: app.SandboxConfig{JWT: app.JWTSettings{Secret: "bootstrap-secret"}}}

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	stack.Shutdown(context.Background(), zap.NewNop())
	stack.Shutdown(context.Background(), zap.NewNop())
	require.Nil(t, stack.DB)

	var nilStack *runtimeStack
	nilStack.Shutdown(context.Background(), zap.NewNop())
}

func TestLoadApplicationConfigRejectsMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/does/not/exist")
	require.EqualError(t, err, `config path "/does/not/exist" does not exist`)
}
