package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-engine/internal/api/handlers"
	"auction-engine/internal/config"
	"auction-engine/internal/infrastructure/collab"
	"auction-engine/internal/infrastructure/leader"
	"auction-engine/internal/infrastructure/mysql"
	redisinfra "auction-engine/internal/infrastructure/redis"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("starting auction engine")

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis", "address", cfg.Redis.Address)

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("failed to connect to mysql", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("failed to close mysql connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "error", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	// Durable stores
	auctionStore := mysql.NewMySQLAuctionStore(db)
	bidLedger := mysql.NewMySQLBidLedger(db)

	// Redis-backed components
	stateCache := redisinfra.NewStateCache(rdb)
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	notifier := redisinfra.NewNotifierAdapter(rdb)
	depositStore := redisinfra.NewDepositStore(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Collaborators
	orderClient := collab.NewOrderClient(cfg.Collab.OrderServiceURL)
	productClient := collab.NewProductClient(cfg.Collab.ProductServiceURL)

	// Core engine
	engine := services.NewEngine(
		auctionStore,
		bidLedger,
		services.NewBidValidator(),
		depositStore,
		orderClient,
		notifier,
		eventPublisher,
		stateCache,
		services.EngineConfig{
			AntiSnipeWindow: cfg.Auction.AntiSnipeWindow,
			MaxExtensions:   cfg.Auction.MaxExtensions,
			SweepInterval:   cfg.Auction.SweepInterval,
			ActorIdleTTL:    cfg.Auction.ActorIdleTTL,
			SubmitTimeout:   cfg.Auction.SubmitTimeout,
			VersionRetries:  cfg.Auction.VersionRetries,
		},
		log,
	)

	auctionService := services.NewAuctionService(auctionStore, bidLedger, engine, productClient, log)
	sweeper := services.NewSweeper(engine, auctionStore, leaderElection, cfg.Auction.SweepInterval, cfg.Instance.ID, log)

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handlers.NewAuctionHandler(auctionService, log).Register(e.Group("/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-engine",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Background sweep
	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// Compete for sweep leadership
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("became sweep leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting http server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down auction engine...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("failed to stop sweeper", "error", err)
	}
	engine.Stop()
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("failed to release leadership", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("auction engine stopped")
}
