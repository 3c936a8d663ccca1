package app

import (
	"os"

	"go-timeoff/internal/realtime"
	"go-timeoff/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure and wires every module's routes
// into the router. The returned manager owns the live view subscriptions
// and must be released on shutdown.
func BuildApp(router *gin.Engine) (*realtime.Manager, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return nil, err
	}
	zap.L().Info("database connection established")

	db, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return nil, err
	}
	zap.L().Info("redis connection established")

	return registerModules(router, db, gormDB, rdb)
}
