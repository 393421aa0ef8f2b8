package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/app"
	"github.com/charlesng35/storedesk/internal/app/maintenance"
	iauth "github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/internal/cache"
	"github.com/charlesng35/storedesk/internal/database"
	"github.com/charlesng35/storedesk/internal/middleware"
	"github.com/charlesng35/storedesk/internal/realtime"
	"github.com/charlesng35/storedesk/internal/sandbox"
	"github.com/charlesng35/storedesk/pkg/logger"
)

// runtimeStack bundles the long-lived services behind the sandbox HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Service *sandbox.Service
	Hub     *realtime.Hub
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime opens the database, seeds demo data, starts housekeeping and builds the router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg.Sandbox)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Sandbox.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Hub = realtime.NewHub()

	stack.Service, err = sandbox.NewService(stack.DB, stack.Hub)
	if err != nil {
		return nil, fmt.Errorf("initialise sandbox service: %w", err)
	}

	if cfg.Sandbox.Seed {
		if err := stack.Service.Seed(ctx); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		for _, staff := range sandbox.DemoStaff {
			log.Info("demo staff available", zap.String("staff_id", staff.ID), zap.String("role", staff.Role))
		}
	}

	dbStore := cache.NewDatabaseStore(stack.DB)

	stack.Cleaner = maintenance.NewCleaner(dbStore, stack.Service)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = sandbox.NewRouter(sandbox.RouterConfig{
		Service:   stack.Service,
		JWT:       jwtSvc,
		Hub:       stack.Hub,
		RateStore: middleware.NewRateStore(dbStore),
		RateLimit: cfg.Sandbox.RateLimit,
		RateEvery: cfg.Sandbox.RateWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("build sandbox router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		if stopCtx := s.Cleaner.Stop(); stopCtx != nil {
			<-stopCtx.Done()
		}
		if _, err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
		s.DB = nil
	}
}

func initialiseDatabase(cfg app.SandboxConfig) (*gorm.DB, error) {
	path := strings.TrimSpace(cfg.DatabasePath)
	db, err := database.Open(database.Config{Driver: "sqlite", Path: path})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.MigrateAndSeed(db, nil, sandbox.Tables()...); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database ready", zap.String("path", path))
	return db, nil
}
