package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For timeout durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	JWTSecret        string        // JWT secret key for session tokens
	RedisAddr        string        // Redis server address
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	IsProd           bool          // Is production environment
	ChainRPCURL      string        // JSON-RPC endpoint of the chain node
	ChainID          int64         // Chain ID used for transaction signing
	MainTokenAddress string        // Contract address of the main application token (service fees are paid in it)
	AdminAddress     string        // Administrative address that receives service fees and owns the admin panel
	RiskAPIURL       string        // Base URL of the risk advisory service
	RiskAPIKey       string        // API key for the risk advisory service (empty disables it)
	ConfirmTimeout   time.Duration // Upper bound for waiting on transaction confirmation
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	chainID, err := strconv.ParseInt(os.Getenv("CHAIN_ID"), 10, 64)
	if err != nil || chainID <= 0 {
		chainID = 1313161955 // TuxaChain
	}
	confirmSecs, err := strconv.Atoi(os.Getenv("CONFIRM_TIMEOUT_SECONDS"))
	if err != nil || confirmSecs <= 0 {
		confirmSecs = 90 // Default bounded confirmation wait
	}
	return &Config{
		AppPort:          getenv("APP_PORT", "8080"),                                                 // Application port
		DBUser:           os.Getenv("DB_USER"),                                                       // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                                                   // Database password
		DBHost:           os.Getenv("DB_HOST"),                                                       // Database host
		DBPort:           os.Getenv("DB_PORT"),                                                       // Database port
		DBName:           os.Getenv("DB_NAME"),                                                       // Database name
		JWTSecret:        os.Getenv("JWT_SECRET"),                                                    // JWT secret key
		RedisAddr:        os.Getenv("REDIS_ADDR"),                                                    // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),                                                    // Redis password
		RedisDB:          redisDB,                                                                    // Redis database number
		IsProd:           os.Getenv("IS_PROD") == "true",                                             // Is production environment
		ChainRPCURL:      getenv("CHAIN_RPC_URL", "https://0x4e4542e3.rpc.aurora-cloud.dev"),         // Chain RPC endpoint
		ChainID:          chainID,                                                                    // Chain ID
		MainTokenAddress: getenv("MAIN_TOKEN_ADDRESS", "0x2830b5a25e70ABb6f82B3333f3DF4A88379Cc91a"), // Main token contract
		AdminAddress:     getenv("ADMIN_ADDRESS", "0x1dE4c3F241B5f44Bbebbd47946E9e21F3b5e962f"),      // Admin / fee collector address
		RiskAPIURL:       getenv("RISK_API_URL", "https://generativelanguage.googleapis.com/v1beta"), // Risk advisory base URL
		RiskAPIKey:       os.Getenv("RISK_API_KEY"),                                                  // Risk advisory API key
		ConfirmTimeout:   time.Duration(confirmSecs) * time.Second,                                   // Confirmation wait bound
	}
}

// getenv returns the environment variable value or a fallback if unset
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
