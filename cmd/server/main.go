package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"github.com/JJJH27/bleswallet/internal/api"        // Custom package for API handlers
	"github.com/JJJH27/bleswallet/internal/balance"    // Custom package for balance caching
	"github.com/JJJH27/bleswallet/internal/cache"      // Custom package for Redis cache helpers
	"github.com/JJJH27/bleswallet/internal/chain"      // Custom package for the chain client
	"github.com/JJJH27/bleswallet/internal/config"     // Custom package for configuration
	"github.com/JJJH27/bleswallet/internal/db"         // Custom package for database access
	"github.com/JJJH27/bleswallet/internal/middleware" // Custom package for middleware
	"github.com/JJJH27/bleswallet/internal/risk"       // Custom package for risk advisories
	"github.com/JJJH27/bleswallet/internal/session"    // Custom package for unlocked keys
	"github.com/JJJH27/bleswallet/internal/settlement" // Custom package for the send pipeline
	"github.com/JJJH27/bleswallet/internal/store"      // Custom package for persistence

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Built-in token identities seeded on first run
const (
	nativeSymbol = "WNEAR"        // Native asset ticker
	nativeName   = "Wrapped NEAR" // Native asset name
	mainSymbol   = "BLES"         // Service-fee token ticker
	mainName     = "BLES Token"   // Service-fee token name
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	gormDB, err := db.Open(dsn)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Persistence layer and first-run seeding
	st := store.New(gormDB, cfg.MainTokenAddress)
	if err := st.SeedDefaults(nativeSymbol, nativeName, mainSymbol, mainName); err != nil {
		logrus.Fatalf("failed to seed defaults: %v", err)
	}
	// One-time conversion of a pre-multi-account wallet row
	if err := st.MigrateLegacy(); err != nil {
		logrus.Fatalf("legacy wallet migration failed: %v", err)
	}

	// Chain client; confirmation waits are bounded by cfg.ConfirmTimeout
	chainClient, err := chain.NewEthClient(cfg.ChainRPCURL, cfg.ChainID, cfg.ConfirmTimeout)
	if err != nil {
		logrus.Fatalf("failed to connect to chain RPC: %v", err)
	}

	// Risk advisory client; an empty API key degrades every assessment to
	// neutral advice instead of failing sends
	advisor := risk.NewClient(cfg.RiskAPIURL, cfg.RiskAPIKey)

	// In-memory registry of unlocked signing keys
	registry := session.NewRegistry()

	// Redis-backed caches and balance service
	redisCache := cache.New(redisClient)
	balances := balance.New(chainClient, st, redisCache)

	// Settlement pipeline: fee policy enforcement plus the ordered transfer flow
	mainToken, err := st.TokenBySymbol(mainSymbol)
	if err != nil {
		logrus.Fatalf("main token is not seeded: %v", err)
	}
	pipeline := settlement.New(chainClient, balances, st, advisor, balances, *mainToken, cfg.AdminAddress)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Account lifecycle routes (no session required on a device-local wallet)
	r.POST("/accounts", api.CreateAccountHandler(st))                  // Create account endpoint
	r.POST("/accounts/import", api.ImportAccountHandler(st))           // Import account endpoint
	r.GET("/accounts", api.ListAccountsHandler(st))                    // List accounts endpoint
	r.DELETE("/accounts", api.WipeAccountsHandler(st, registry))       // Wipe all accounts endpoint
	r.POST("/session", api.UnlockHandler(st, registry, cfg.JWTSecret)) // Unlock endpoint
	r.DELETE("/session", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.LogoutHandler(registry)) // Lock endpoint

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret)) // Protect wallet routes with JWT middleware
	walletGroup.GET("", api.GetWalletHandler(st, cfg.AdminAddress))                     // Get wallet state endpoint
	walletGroup.GET("/balances", api.BalancesHandler(balances))                         // Balances endpoint
	walletGroup.GET("/receive", api.ReceiveQRHandler())                                 // Receive QR endpoint
	walletGroup.GET("/tokens", api.ListTokensHandler(st))                               // List tokens endpoint
	walletGroup.POST("/tokens", api.AddTokenHandler(st, chainClient))                   // Add token endpoint
	walletGroup.DELETE("/tokens/:address", api.RemoveTokenHandler(st))                  // Remove token endpoint
	walletGroup.POST("/send/quote", api.QuoteHandler(st, advisor))                      // Send quote endpoint
	walletGroup.POST("/send", api.SendHandler(st, registry, pipeline, redisCache))      // Send endpoint
	walletGroup.GET("/transactions", api.GetTransactionsHandler(st, redisCache))        // Transaction history endpoint
	walletGroup.DELETE("/transactions", api.ClearHistoryHandler(st, redisCache))        // Clear history endpoint
	walletGroup.GET("/security", api.GetSecurityHandler(st))                            // Security settings endpoint
	walletGroup.PUT("/security", api.UpdateSecurityHandler(st))                         // Update security endpoint
	walletGroup.POST("/export", api.ExportAccountHandler(st))                           // Keystore export endpoint

	// Admin routes (protected, admin address only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(cfg.AdminAddress))
	adminGroup.GET("/config", api.GetConfigHandler(st))          // Read fee policy endpoint
	adminGroup.PUT("/config", api.UpdateConfigHandler(st))       // Update fee policy endpoint
	adminGroup.POST("/security/reset", api.ResetPinHandler(st))  // PIN reset endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
