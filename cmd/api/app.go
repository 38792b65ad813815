package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
	notificationService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/notification"
	timesheetService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/timesheet"
)

// app holds the long-lived dependencies shared by serve and sweep.
type app struct {
	cfg        *config.Config
	db         *database.DB
	redis      *goredis.Client
	hub        *sse.Hub
	jwt        *jwt.JWTService
	dispatcher *notificationService.Dispatcher
	timesheet  *timesheetService.TimesheetServiceImpl
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &app{cfg: cfg, db: db}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		a.redis, err = lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = lock.NewRedisLocker(a.redis)
	} else {
		slog.Info("REDIS_ADDR not set, using in-process locks")
	}

	renderer, err := email.NewRenderer()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	userRepo := postgresql.NewUserRepository(db)
	entryRepo := postgresql.NewTimesheetEntryRepository(db)
	breakRepo := postgresql.NewBreakEntryRepository(db)
	statusRepo := postgresql.NewUserStatusRepository(db)
	emailLogRepo := postgresql.NewEmailLogRepository(db)

	a.hub = sse.NewHub(0)
	a.jwt = jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	a.dispatcher = notificationService.NewDispatcher(email.NewSMTPMailer(cfg.SMTP), emailLogRepo, notificationService.Config{
		WorkerCount: cfg.Notification.Workers,
		QueueSize:   cfg.Notification.QueueSize,
	})
	a.timesheet = timesheetService.NewTimesheetService(
		postgresql.NewTxManager(db),
		entryRepo,
		breakRepo,
		statusRepo,
		userRepo,
		locker,
		a.dispatcher,
		renderer,
		a.hub,
		timesheetService.Config{
			AutoCheckoutAfter: cfg.Timesheet.AutoCheckoutAfter,
		},
	)

	return a, nil
}

// Close stops the dispatcher after draining it, then releases connections.
func (a *app) Close() {
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
