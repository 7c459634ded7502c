package main

import (
	"os"

	"memberhub/pkg/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

func main() {
	logger, _ = zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig()

	// Support a lightweight migrate command: `./memberhub migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		logger.Info("migration and seeding completed")
		return
	}

	members, refresh := initDB(cfg)
	codec := token.NewCodec(cfg.JWTSecret)
	svc := newSessionService(members, refresh, codec, cfg)

	stop := make(chan struct{})
	defer close(stop)
	startSweeper(svc, stop)

	r := gin.Default()
	installGates(r, svc, cfg)
	setupRoutes(r, svc, cfg)

	logger.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
