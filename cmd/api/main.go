package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/assets/evm"
	"github.com/rada-network/launchpad/internal/auction"
	"github.com/rada-network/launchpad/internal/auth"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/fixedswap"
	"github.com/rada-network/launchpad/internal/openbox"
	"github.com/rada-network/launchpad/internal/pool"
	"github.com/rada-network/launchpad/internal/rarityclaim"
	"github.com/rada-network/launchpad/internal/stats"
	"github.com/rada-network/launchpad/internal/user"
	"github.com/rada-network/launchpad/internal/websocket"
	"github.com/rada-network/launchpad/internal/whitelist"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&user.User{},
		&whitelist.List{},
		&whitelist.Entry{},
		&pool.Pool{},
		&pool.PoolWhitelist{},
		&pool.InlineEntry{},
		&pool.SaleItem{},
		&pool.BuyerTotal{},
		&auction.Bid{},
		&escrow.Entry{},
		&escrow.Setting{},
		&rarityclaim.ClaimPool{},
		&rarityclaim.RarityAllocation{},
		&rarityclaim.ClaimedItem{},
		&openbox.BoxPool{},
		&openbox.OpenedBox{},
	); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis")
		rdb = nil
	}

	// Asset collaborators: an EVM node in production, the in-process ledger
	// for local runs.
	engineAccount := os.Getenv("ENGINE_ACCOUNT")
	var tokens assets.TokenService
	var items assets.ItemService
	if rpcURL := os.Getenv("EVM_RPC_URL"); rpcURL != "" {
		chainID, ok := new(big.Int).SetString(os.Getenv("EVM_CHAIN_ID"), 10)
		if !ok {
			logrus.Fatal("EVM_CHAIN_ID is required with EVM_RPC_URL")
		}
		adapter, err := evm.New(rpcURL, os.Getenv("EVM_PRIVATE_KEY"), chainID)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to EVM node")
		}
		tokens, items = adapter, adapter
	} else {
		ledger := assets.NewMemoryLedger()
		tokens, items = ledger, ledger
		logrus.Warn("Running with in-memory asset ledger")
	}

	// Repositories and services
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)

	whitelistRepo := whitelist.NewRepository(db)
	whitelistService := whitelist.NewService(whitelistRepo)

	poolRepo := pool.NewRepository(db)
	poolService := pool.NewService(poolRepo)
	gate := pool.NewGate(poolRepo, whitelistService, engine.SystemClock)

	escrowRepo := escrow.NewRepository(db)
	escrowService := escrow.NewService(escrowRepo, tokens, items, engineAccount)

	auctionRepo := auction.NewRepository(db)
	auctionService := auction.NewService(auctionRepo, gate, tokens, items, engineAccount)

	swapRepo := fixedswap.NewRepository(db)
	swapService := fixedswap.NewService(swapRepo, gate, tokens, items, engineAccount)

	claimRepo := rarityclaim.NewRepository(db)
	claimService := rarityclaim.NewService(claimRepo, tokens, items, engineAccount)

	boxRepo := openbox.NewRepository(db)
	boxService := openbox.NewService(boxRepo, tokens, items, engineAccount)

	statsService := stats.NewService(poolRepo, rdb)

	// HTTP surface
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	router.Use(auth.SecurityHeaders())
	router.Use(auth.SecureCORS(allowedOrigins))

	authMiddleware := auth.NewMiddleware(userService)
	requireAuth := authMiddleware.RequireAuth()
	requireAdmin := func(c *gin.Context) {
		requireAuth(c)
		if !c.IsAborted() {
			authMiddleware.RequireAdmin()(c)
		}
	}

	wsServer := websocket.NewServer(allowedOrigins)
	wsServer.Start()
	wsServer.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"service":   "launchpad-api",
		})
	})

	v1 := router.Group("/api/v1")
	{
		pool.NewHandler(poolService, requireAdmin).RegisterRoutes(v1)
		whitelist.NewHandler(whitelistService, requireAdmin).RegisterRoutes(v1)
		auction.NewHandler(auctionService, wsServer.Hub, statsService, requireAuth, requireAdmin).RegisterRoutes(v1)
		fixedswap.NewHandler(swapService, wsServer.Hub, statsService, requireAuth).RegisterRoutes(v1)
		rarityclaim.NewHandler(claimService, wsServer.Hub, requireAuth, requireAdmin).RegisterRoutes(v1)
		openbox.NewHandler(boxService, wsServer.Hub, requireAuth, requireAdmin).RegisterRoutes(v1)
		escrow.NewHandler(escrowService, requireAdmin).RegisterRoutes(v1)
		user.NewHandler(userService, requireAuth, requireAdmin).RegisterRoutes(v1)
		stats.NewHandler(statsService).RegisterRoutes(v1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logrus.WithField("port", port).Info("Starting launchpad API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	wsServer.Stop()
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logrus.Info("Server exited")
}
