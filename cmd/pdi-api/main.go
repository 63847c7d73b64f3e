package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/EkyaSchools001/pdi-updated-sub000/api/swagger"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/repository"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/service"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/cache"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/config"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/database"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/jobs"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/logger"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

// @title PDI API
// @version 1.0.0
// @description Professional development platform: role-based module access and the goal workflow
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without shared cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app := buildApp(ctx, cfg, logr, appDeps{
		users:    repository.NewUserRepository(db),
		settings: repository.NewSettingRepository(db),
		goals:    repository.NewGoalRepository(db),
		windows:  repository.NewGoalWindowRepository(db),
		audit:    repository.NewAuditRepository(db),
		cache:    repository.NewCacheRepository(redisClient, logr),
		redis:    redisClient,
	})
	defer app.publisher.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type app struct {
	router    *gin.Engine
	store     *access.Store
	syncer    *access.Syncer
	hub       *realtime.Hub
	publisher *realtime.AsyncPublisher
	metrics   *service.MetricsService
}

// buildApp wires services and starts the background loops bound to ctx.
func buildApp(ctx context.Context, cfg *config.Config, logr *zap.Logger, deps appDeps) *app {
	validate := validator.New()
	metrics := service.NewMetricsService()

	hub := realtime.NewHub(logr)
	metrics.TrackSubscribers(hub.Subscribers)
	broker := realtime.NewBroker(deps.redis, cfg.Realtime.Channel, hub, logr)
	go func() {
		if err := broker.Run(ctx); err != nil && ctx.Err() == nil {
			logr.Error("realtime relay stopped", zap.Error(err))
		}
	}()
	publisher := realtime.NewAsyncPublisher(broker, jobs.QueueConfig{
		Workers:    cfg.Realtime.PublishWorkers,
		MaxRetries: cfg.Realtime.PublishRetries,
		RetryDelay: cfg.Realtime.PublishRetryDelay,
		Logger:     logr,
	})
	publisher.Start(ctx)

	cacheSvc := service.NewCacheService(deps.cache, metrics, "pdi", cfg.Settings.CacheTTL, logr, deps.redis != nil)
	settingSvc := service.NewSettingService(deps.settings, deps.audit, logr, service.SettingServiceConfig{
		Defaults: service.DisplayNameDefault(cfg.Settings.SchoolDisplayName),
		CacheTTL: cfg.Settings.CacheTTL,
	}, service.WithSettingCache(cacheSvc), service.WithSettingPublisher(publisher))

	store := access.NewStore(access.WithAcceptUnknownModules(cfg.Access.AcceptUnknownModules))
	syncer := access.NewSyncer(store, access.NewSettingsSource(settingSvc),
		access.WithSyncInterval(cfg.Access.SyncInterval),
		access.WithSyncLogger(logr.Named("access.sync")),
		access.WithSyncObserver(func(trigger access.Trigger, outcome access.SyncOutcome) {
			metrics.RecordAccessSync(string(trigger), string(outcome))
		}),
	)
	syncer.Start(ctx)
	go syncer.Consume(ctx, hub.Subscribe(8))

	evaluator := access.NewEvaluator(store, nil)
	guard := access.NewGuard(store, evaluator,
		access.WithLoginPath(cfg.Access.LoginPath),
		access.WithAuditLogger(logger.AccessAudit(logr)),
	)

	windowSvc := service.NewGoalWindowService(deps.windows, deps.audit, validate, logr)
	goalSvc := service.NewGoalService(deps.goals, windowSvc, deps.users, deps.audit, validate, logr,
		service.WithGoalMetrics(metrics),
		service.WithGoalHistory(deps.audit),
	)
	authSvc := service.NewAuthService(deps.users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	router := newRouter(cfg, logr, routerDeps{
		auth:      authSvc,
		settings:  settingSvc,
		goals:     goalSvc,
		windows:   windowSvc,
		audit:     deps.audit,
		store:     store,
		evaluator: evaluator,
		guard:     guard,
		syncer:    syncer,
		hub:       hub,
		metrics:   metrics,
	})

	return &app{router: router, store: store, syncer: syncer, hub: hub, publisher: publisher, metrics: metrics}
}
