package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"campusmarket/internal/app"
	"campusmarket/internal/config"
	"campusmarket/internal/infra/db"
	"campusmarket/internal/infra/memory"
	"campusmarket/internal/logging"

	"go.uber.org/zap"
)

func main() {
	//設定（.env → yaml → 環境変数）
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	//DB接続
	var st app.Storage
	switch cfg.DB.Driver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		st = app.MemoryStorage(memory.NewStore())
	default:
		gormDB, err := db.Connect(cfg.DB)
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		st = app.PostgresStorage(gormDB)
	}

	a, err := app.New(cfg, logger, st, app.Options{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
