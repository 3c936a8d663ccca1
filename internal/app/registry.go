package app

import (
	"context"
	"database/sql"

	"go-timeoff/internal/auth"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/middleware"
	"go-timeoff/internal/notification"
	"go-timeoff/internal/profile"
	"go-timeoff/internal/pto"
	"go-timeoff/internal/rbac"
	"go-timeoff/internal/realtime"
	"go-timeoff/internal/report"
	"go-timeoff/internal/shared/counter"
	"go-timeoff/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) (*realtime.Manager, error) {
	logger := zap.L()

	// --- Infrastructure ---
	feed := store.NewRedisChangeFeed(rdb, logger)
	manager := realtime.NewManager(logger)

	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return nil, err
	}

	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	profileRepo := profile.NewRepository(gormDB)
	ptoRepo := pto.NewRepository(gormDB)
	reportRepo := report.NewRepository(gormDB)

	// --- Services ---
	notificationService := notification.NewService(notificationRepo, counterRepo, feed, rdb, logger)
	profileService := profile.NewService(profileRepo, feed, rdb, logger)
	reportService := report.NewService(db, reportRepo, profileRepo, notificationService, outboxRepo, feed, logger)
	ptoService := pto.NewService(db, ptoRepo, profileRepo, notificationService, outboxRepo, feed, logger)
	authService := auth.NewService(authRepo, manager, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	notificationHandler := notification.NewHandler(notificationService)
	profileHandler := profile.NewHandler(profileService)
	ptoHandler := pto.NewHandlerWithRedis(ptoService, rdb)
	reportHandler := report.NewHandlerWithRedis(reportService, rdb)

	realtimeHandler := realtime.NewHandler(feed, realtime.Queries{
		WeekReports: func(ctx context.Context, companyID, employeeID string) ([]report.ReportResponse, error) {
			return reportService.GetWeek(ctx, companyID, employeeID, "")
		},
		MyPto:         ptoService.GetMine,
		AllPto:        ptoService.GetAll,
		Notifications: notificationService.List,
	}, manager, logger)

	// --- Routes ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(logger))

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		profile.RegisterRoutes(api, profileHandler)
		report.RegisterRoutes(api, reportHandler, enforcer, rdb)
		pto.RegisterRoutes(api, ptoHandler, enforcer, rdb)
		notification.RegisterRoutes(api, notificationHandler, enforcer)
		realtime.RegisterRoutes(api, realtimeHandler, enforcer)
	}

	return manager, nil
}
