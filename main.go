package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"intakebot/config"
	"intakebot/intake"
	"intakebot/notifier"
	"intakebot/repository"
	"intakebot/repository/memory"
	"intakebot/transport"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to an optional config file")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Creating logger: %v", err)
	}
	defer logger.Sync()

	var store intake.Store
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, submissions will not survive a restart")
		store = memory.NewStore()
	default:
		repo := repository.NewRepository(logger)
		if err := repo.ConnectDB(cfg.PostgresDSN); err != nil {
			logger.Fatal("connecting to postgres", zap.Error(err))
		}
		if err := repo.Migrate(); err != nil {
			logger.Fatal("migrating schema", zap.Error(err))
		}
		store = repo
	}

	client := transport.NewBotClient(cfg.BotToken, cfg.PollTimeout, logger)
	dispatcher := notifier.New(client, cfg.ReviewerChatID, logger)
	engine := intake.NewEngine(store, client, dispatcher, cfg.RetentionAge(), logger)
	poller := transport.NewPoller(client, engine, cfg.PollTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("intake bot started",
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Int("retention_days", cfg.RetentionDays),
	)

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("poller stopped", zap.Error(err))
	}
	logger.Info("intake bot stopped")
}
