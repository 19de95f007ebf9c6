package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pyramid_empire/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	JWTTTL        time.Duration
	AllowedOrigin string
	PublicURL     string
	LogLevel      string
	LogJSON       bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Chain (USDC payments)
	ChainRPCURL      string
	ChainRPCTimeout  time.Duration
	USDCContract     string
	ShopWallet       string
	MinConfirmations uint64

	// Partner quests
	PartnerAPIURL   string
	PartnerAPIKey   string
	PartnerTimeout  time.Duration
	PartnerQuestIDs []int64

	AdminWallets []string

	APIRateLimit  int
	APIRateWindow time.Duration
	TapRateLimit  int
	TapRateWindow time.Duration

	PendingTxTTL time.Duration
	NonceTTL     time.Duration
}

// Load reads the config from env (and .env when present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	cfg := &Config{
		AppPort:       envString("APP_PORT", "8080"),
		DatabaseURL:   dbURL,
		JWTSecret:     jwtSecret,
		JWTTTL:        time.Duration(envInt("JWT_TTL_HOURS", 72)) * time.Hour,
		AllowedOrigin: envString("ALLOWED_ORIGIN", "*"),
		PublicURL:     strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		LogLevel:      envString("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		ChainRPCURL:      os.Getenv("CHAIN_RPC_URL"),
		ChainRPCTimeout:  time.Duration(envInt("CHAIN_RPC_TIMEOUT_SECONDS", 10)) * time.Second,
		USDCContract:     os.Getenv("USDC_CONTRACT"),
		ShopWallet:       os.Getenv("SHOP_WALLET"),
		MinConfirmations: uint64(max(envInt("MIN_CONFIRMATIONS", minConfirmations), minConfirmations)),

		PartnerAPIURL:   strings.TrimRight(os.Getenv("PARTNER_API_URL"), "/"),
		PartnerAPIKey:   os.Getenv("PARTNER_API_KEY"),
		PartnerTimeout:  time.Duration(envInt("PARTNER_TIMEOUT_SECONDS", 10)) * time.Second,
		PartnerQuestIDs: parseIDs(os.Getenv("PARTNER_QUEST_IDS")),

		AdminWallets: parseWallets(os.Getenv("ADMIN_WALLETS")),

		APIRateLimit:  envInt("API_RATE_LIMIT", 100),
		APIRateWindow: time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		TapRateLimit:  envInt("TAP_RATE_LIMIT", 600),
		TapRateWindow: time.Duration(envInt("TAP_RATE_WINDOW_SECONDS", 60)) * time.Second,

		PendingTxTTL: time.Duration(envInt("PENDING_TX_TTL_MINUTES", 30)) * time.Minute,
		NonceTTL:     time.Duration(envInt("NONCE_TTL_SECONDS", 300)) * time.Second,
	}

	if cfg.ChainRPCURL == "" || cfg.USDCContract == "" || cfg.ShopWallet == "" {
		logger.Warn("chain payments not configured, shop purchases disabled")
	}

	return cfg
}

// ShopEnabled reports whether purchases can be verified on chain.
func (c *Config) ShopEnabled() bool {
	return c.ChainRPCURL != "" && c.USDCContract != "" && c.ShopWallet != ""
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns def when the variable is unset or not a positive integer.
// minConfirmations is the floor for MIN_CONFIRMATIONS; lower values are raised.
const minConfirmations = 2

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// comma separated list
func parseIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseWallets(s string) []string {
	var wallets []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			wallets = append(wallets, part)
		}
	}
	return wallets
}
