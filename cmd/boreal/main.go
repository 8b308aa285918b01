package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	_ "github.com/lib/pq"

	"github.com/Wrivard/demenagementboreal-sub000/internal/config"
	"github.com/Wrivard/demenagementboreal-sub000/internal/flow"
	"github.com/Wrivard/demenagementboreal-sub000/internal/geo"
	"github.com/Wrivard/demenagementboreal-sub000/internal/mailer"
	"github.com/Wrivard/demenagementboreal-sub000/internal/notify"
	"github.com/Wrivard/demenagementboreal-sub000/internal/server"
	"github.com/Wrivard/demenagementboreal-sub000/internal/storage"
	"github.com/Wrivard/demenagementboreal-sub000/pkg/logger"
	"github.com/Wrivard/demenagementboreal-sub000/pkg/redis"
)

// ENTRY POINT

func main() {
	zapLogger, err := logger.New()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer redisClient.Close()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB().DB, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	geoClient := geo.NewClient(cfg.Maps.APIKey, cfg.Maps.RequestTimeout, redisClient, zapLogger)
	if err := geoClient.Ready(ctx); err != nil {
		zapLogger.Warn("Mapping provider unavailable, manual distance entry only", zap.Error(err))
	}

	emailClient := mailer.NewClient(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Owner.Email, zapLogger)

	var notifier server.Notifier
	if cfg.Owner.TelegramToken != "" {
		telegram, err := notify.NewTelegram(cfg.Owner.TelegramToken, cfg.Owner.TelegramChatID, zapLogger)
		if err != nil {
			zapLogger.Warn("Telegram notifier disabled", zap.Error(err))
		} else {
			notifier = telegram
		}
	}

	controller := flow.NewController(flow.NewSessionStore(redisClient), zapLogger)

	srv := server.New(cfg, controller, geoClient, emailClient, pgStorage, notifier, zapLogger)
	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}

	zapLogger.Info("Server shutdown gracefully")
}
