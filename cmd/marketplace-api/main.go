package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/achievements"
	"github.com/agripulse/marketplace/internal/config"
	"github.com/agripulse/marketplace/internal/identity"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/listings"
	"github.com/agripulse/marketplace/internal/purchases"
	"github.com/agripulse/marketplace/internal/wallet"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Connect to database
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Connect to the wallet key-value store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Wire modules
	wallets := wallet.NewStore(rdb)
	gateway := ledger.NewGateway(logger)

	revocations := identity.NewRevocationList(rdb)
	tokens := identity.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL, revocations)
	hub := identity.NewHub(logger)
	identityRepo := identity.NewRepository(db)
	sessions := identity.NewService(identityRepo, wallets, tokens, hub, logger)
	identityHandler := identity.NewHandler(sessions, tokens, hub, gateway, logger)

	listingsRepo := listings.NewRepository(db)
	listingsService := listings.NewService(listingsRepo, gateway, wallets, cfg.Hedera.DefaultTokenID, logger)
	listingsHandler := listings.NewHandler(listingsService, sessions, tokens, logger)

	purchasesRepo := purchases.NewRepository(db)
	purchasesService := purchases.NewService(purchasesRepo, listingsRepo, identityRepo, gateway, logger)
	purchasesHandler := purchases.NewHandler(purchasesService, sessions, tokens, logger)

	achievementsRepo := achievements.NewRepository(db)
	achievementsService := achievements.NewService(achievementsRepo, wallets, gateway, logger)
	achievementsHandler := achievements.NewHandler(achievementsService, sessions, tokens, logger)

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		identityHandler.RegisterRoutes(api)
		listingsHandler.RegisterRoutes(api)
		purchasesHandler.RegisterRoutes(api)
		achievementsHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
