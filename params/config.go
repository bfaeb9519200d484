package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Market struct {
	Symbol       string
	BaseAsset    string
	QuoteAsset   string
	TickSize     uint64
	LotSize      uint64
	MinOrderSize uint64
	MaxOrderSize uint64
	MaxPrice     uint64
}

type Node struct {
	APIAddr string
	DataDir string
	LogFile string
	// FaucetAmount is credited per faucet call on devnet builds.
	// Set to 0 to disable the faucet entirely.
	FaucetAmount uint64
}

type Config struct {
	Market Market
	Node   Node
}

func Default() Config {
	return Config{
		Market: Market{
			Symbol:       "BTC-USDT",
			BaseAsset:    "BTC",
			QuoteAsset:   "USDT",
			TickSize:     1,
			LotSize:      1,
			MinOrderSize: 1,
			MaxOrderSize: 1_000_000,
			MaxPrice:     1_000_000_000,
		},
		Node: Node{
			APIAddr:      ":8080",
			DataDir:      "data",
			LogFile:      "", // stdout only
			FaucetAmount: 100_000,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Node.APIAddr = getEnv("API_ADDR", cfg.Node.APIAddr)
	cfg.Node.DataDir = getEnv("DATA_DIR", cfg.Node.DataDir)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)
	cfg.Node.FaucetAmount = getEnvUint("FAUCET_AMOUNT", cfg.Node.FaucetAmount)

	cfg.Market.Symbol = getEnv("MARKET_SYMBOL", cfg.Market.Symbol)
	cfg.Market.BaseAsset = getEnv("MARKET_BASE", cfg.Market.BaseAsset)
	cfg.Market.QuoteAsset = getEnv("MARKET_QUOTE", cfg.Market.QuoteAsset)
	cfg.Market.TickSize = getEnvUint("MARKET_TICK_SIZE", cfg.Market.TickSize)
	cfg.Market.LotSize = getEnvUint("MARKET_LOT_SIZE", cfg.Market.LotSize)
	cfg.Market.MinOrderSize = getEnvUint("MARKET_MIN_ORDER", cfg.Market.MinOrderSize)
	cfg.Market.MaxOrderSize = getEnvUint("MARKET_MAX_ORDER", cfg.Market.MaxOrderSize)
	cfg.Market.MaxPrice = getEnvUint("MARKET_MAX_PRICE", cfg.Market.MaxPrice)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
