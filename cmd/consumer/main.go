package main

import (
	"go-timeoff/internal/app"
	"go-timeoff/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// The consumer binary tallies submitted attendance reports into per-month
// Redis counters for management dashboards.
func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunConsumer(); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
