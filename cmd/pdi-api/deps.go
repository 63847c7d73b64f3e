package main

import (
	"github.com/redis/go-redis/v9"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/repository"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/service"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

type appDeps struct {
	users    *repository.UserRepository
	settings *repository.SettingRepository
	goals    *repository.GoalRepository
	windows  *repository.GoalWindowRepository
	audit    *repository.AuditRepository
	cache    *repository.CacheRepository
	redis    *redis.Client
}

type routerDeps struct {
	auth      *service.AuthService
	settings  *service.SettingService
	goals     *service.GoalService
	windows   *service.GoalWindowService
	audit     *repository.AuditRepository
	store     *access.Store
	evaluator *access.Evaluator
	guard     *access.Guard
	syncer    *access.Syncer
	hub       *realtime.Hub
	metrics   *service.MetricsService
}
