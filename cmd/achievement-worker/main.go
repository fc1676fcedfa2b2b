package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/achievements"
	"github.com/agripulse/marketplace/internal/config"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/wallet"
)

// The achievement worker periodically sweeps every producer and mints
// any badge levels their investor count has newly earned. The sweep is
// idempotent, so overlapping runs only cost wasted queries.
func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	wallets := wallet.NewStore(rdb)
	gateway := ledger.NewGateway(logger)
	repo := achievements.NewRepository(db)
	service := achievements.NewService(repo, wallets, gateway, logger)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Worker.AchievementSchedule, func() {
		if err := service.EvaluateAll(context.Background()); err != nil {
			logger.Error("achievement sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid achievement schedule",
			zap.String("schedule", cfg.Worker.AchievementSchedule), zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Achievement worker started",
		zap.String("schedule", cfg.Worker.AchievementSchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down achievement worker...")
	<-scheduler.Stop().Done()
	logger.Info("Achievement worker exiting")
}
