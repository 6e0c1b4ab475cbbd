package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"equity_bot/config"
	"equity_bot/internal/ai"
	"equity_bot/internal/broker"
	"equity_bot/internal/engine"
	"equity_bot/internal/ledger"
	"equity_bot/internal/marketdata"
	"equity_bot/internal/news"
	"equity_bot/internal/telegram"
	"equity_bot/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("🚀 Starting equity trading bot...")

	cfg := config.Load()

	market := marketdata.NewPolygonClient(cfg.PolygonAPIKey)
	newsSource := news.NewNewsAPIClient(cfg.NewsAPIKey)
	classifier := ai.NewOpenAIClient(cfg.OpenAIAPIKey)

	var brokerClient broker.Client
	if cfg.TradingMode == config.ModeLive {
		brokerClient = broker.NewAlpacaClient(cfg.AlpacaAPIKey, cfg.AlpacaSecret, cfg.AlpacaBaseURL)
		log.Printf("💵 Live trading via %s", cfg.AlpacaBaseURL)
	} else {
		brokerClient = broker.NewPaperBroker(cfg.PaperCash, cfg.Ticker, market.GetLatestPrice)
	}

	trades, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("Failed to open trade ledger: %v", err)
	}

	eng := engine.New(cfg, market, newsSource, classifier, brokerClient, trades)

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, eng)
		if err != nil {
			log.Fatalf("Failed to create Telegram bot: %v", err)
		}
		eng.SetTradeCallback(bot.SendTradeAlert)
		go bot.Start()
	} else {
		log.Println("⚠️ TELEGRAM_BOT_TOKEN not set, trade alerts disabled")
	}

	webServer := web.NewServer(eng, cfg)
	webServer.Start()

	eng.Start()

	log.Println("✅ All systems initialized")
	log.Printf("🌐 Web dashboard: http://localhost:%s", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down...")
	eng.Stop()
	webServer.Stop()
	if bot != nil {
		bot.Stop()
	}
	if err := trades.Close(); err != nil {
		log.Printf("⚠️ Ledger close: %v", err)
	}
	log.Println("👋 Goodbye!")
}
