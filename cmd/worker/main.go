package main

import (
	"go-timeoff/internal/app"
	"go-timeoff/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// The worker binary drains the transactional outbox into Kafka. It runs
// beside the API so event publishing never blocks a request.
func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunWorker(); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
