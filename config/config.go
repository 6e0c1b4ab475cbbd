package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type TradingMode string

const (
	ModePaper TradingMode = "PAPER"
	ModeLive  TradingMode = "LIVE"
)

type Config struct {
	Ticker          string
	ShortWindow     int
	LongWindow      int
	MaxPosition     int64 // max shares held at once
	PollInterval    time.Duration
	RefreshInterval time.Duration
	LookbackDays    int
	BarInterval     string

	PolygonAPIKey string
	AlpacaAPIKey  string
	AlpacaSecret  string
	AlpacaBaseURL string
	OpenAIAPIKey  string
	NewsAPIKey    string

	TelegramToken  string
	TelegramChatID int64

	Port        string
	LedgerPath  string
	TradingMode TradingMode
	PaperCash   float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		Ticker:          getEnv("TICKER", "AAPL"),
		ShortWindow:     getEnvInt("SHORT_WINDOW", 5),
		LongWindow:      getEnvInt("LONG_WINDOW", 20),
		MaxPosition:     int64(getEnvInt("MAX_POSITION", 10)),
		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL", 300)) * time.Second,
		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL", 60)) * time.Second,
		LookbackDays:    getEnvInt("LOOKBACK_DAYS", 5),
		BarInterval:     getEnv("BAR_INTERVAL", "5m"),
		PolygonAPIKey:   os.Getenv("POLYGON_API_KEY"),
		AlpacaAPIKey:    os.Getenv("ALPACA_API_KEY"),
		AlpacaSecret:    os.Getenv("ALPACA_SECRET_KEY"),
		AlpacaBaseURL:   getEnv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		NewsAPIKey:      os.Getenv("NEWSAPI_KEY"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		Port:            getEnv("PORT", "8080"),
		LedgerPath:      getEnv("LEDGER_PATH", "data/trades.db"),
		PaperCash:       getEnvFloat("PAPER_CASH", 5000.0),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Fatal("Invalid TELEGRAM_CHAT_ID")
		}
		cfg.TelegramChatID = id
	}

	mode := ModePaper // trade with simulated money unless told otherwise
	if os.Getenv("TRADING_MODE") == "LIVE" {
		mode = ModeLive
	}
	cfg.TradingMode = mode

	if cfg.ShortWindow <= 0 || cfg.LongWindow <= cfg.ShortWindow {
		log.Fatalf("Invalid moving average windows: short=%d long=%d", cfg.ShortWindow, cfg.LongWindow)
	}
	if cfg.MaxPosition <= 0 {
		log.Fatal("MAX_POSITION must be positive")
	}
	if cfg.PollInterval <= 0 || cfg.RefreshInterval <= 0 {
		log.Fatal("POLL_INTERVAL and REFRESH_INTERVAL must be positive")
	}
	if cfg.LookbackDays <= 0 {
		log.Fatal("LOOKBACK_DAYS must be positive")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
		log.Fatalf("Invalid %s: %q", key, v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
		log.Fatalf("Invalid %s: %q", key, v)
	}
	return fallback
}
