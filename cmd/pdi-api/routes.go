package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/handler"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/middleware"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/config"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/logger"
	corsmiddleware "github.com/EkyaSchools001/pdi-updated-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/EkyaSchools001/pdi-updated-sub000/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.store.Loaded)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	settingHandler := handler.NewSettingHandler(deps.settings)
	accessHandler := handler.NewAccessHandler(deps.store, deps.evaluator, deps.syncer)
	eventHandler := handler.NewEventHandler(deps.hub, cfg.Realtime.AllowedOrigins, logr)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/events", middleware.StreamJWT(deps.auth), eventHandler.Stream)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.auth))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	// Clients read these to build the matrix, so the matrix must not gate them.
	authed.GET("/settings/:key", settingHandler.Get)
	authed.GET("/access/matrix", accessHandler.Matrix)
	authed.GET("/access/check", accessHandler.Check)
	authed.POST("/access/sync", middleware.AdminOnly(),
		middleware.Audit(deps.audit, models.AuditActionAccessResync, models.AuditResourceAccess),
		accessHandler.Sync)
	authed.GET("/metrics/summary", middleware.AdminOnly(), metricsHandler.Summary)

	guarded := authed.Group("")
	guarded.Use(middleware.AccessGuard(deps.guard, middleware.AccessGuardConfig{Metrics: deps.metrics}))

	// Admin pages carry a static allow-list ahead of the matrix.
	admin := authed.Group("")
	admin.Use(middleware.AccessGuard(deps.guard, middleware.AccessGuardConfig{
		AllowedRoles: []string{string(access.RoleAdmin), string(access.RoleSuperAdmin)},
		Metrics:      deps.metrics,
	}))

	admin.GET("/settings", settingHandler.List)
	admin.PUT("/settings/:key", settingHandler.Update)

	if cfg.Workflow.Enabled {
		goalHandler := handler.NewGoalHandler(deps.goals)
		windowHandler := handler.NewGoalWindowHandler(deps.windows)

		goals := guarded.Group("/goals")
		goals.GET("", goalHandler.List)
		goals.POST("", goalHandler.Create)
		goals.GET("/:id", goalHandler.Get)
		admin.PATCH("/goals/:id", goalHandler.MasterEdit)
		goals.GET("/:id/history", goalHandler.History)
		goals.POST("/:id/self-reflection/draft", goalHandler.SaveReflectionDraft)
		goals.POST("/:id/self-reflection", goalHandler.SubmitReflection)
		goals.POST("/:id/goal-setting", goalHandler.SubmitGoalSetting)
		goals.POST("/:id/goal-completion", goalHandler.SubmitCompletion)

		guarded.GET("/goal-windows", windowHandler.List)
		admin.PUT("/goal-windows/:phase", windowHandler.Update)
	} else {
		logr.Info("goal workflow disabled")
	}

	return r
}
