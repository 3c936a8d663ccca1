package main

import (
	"os"
	"time"

	"go-timeoff/internal/app"
	"go-timeoff/internal/bootstrap"
	"go-timeoff/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	r := gin.Default()

	manager, err := app.BuildApp(r)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	auditLogger := bootstrap.NewStdoutAuditLogger()
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:        port,
			ReadTimeout: 5 * time.Second,
			// WriteTimeout stays zero: the live view endpoints hold
			// their SSE streams open indefinitely.
			IdleTimeout: 60 * time.Second,
		},
		auditLogger,
	)

	manager.ReleaseAll()
}
