package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"equity_bot/internal/engine"
	"equity_bot/internal/models"
)

type Bot struct {
	bot       *tele.Bot
	engine    *engine.Engine
	chatID    int64
	startTime time.Time
}

func NewBot(token string, chatID int64, eng *engine.Engine) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		bot:       b,
		engine:    eng,
		chatID:    chatID,
		startTime: time.Now(),
	}

	bot.setupHandlers()
	return bot, nil
}

func (b *Bot) Start() {
	log.Println("📱 Telegram bot started")
	b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

func (b *Bot) setupHandlers() {
	// Middleware for authorization
	b.bot.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != b.chatID {
				return c.Send("⛔ Unauthorized")
			}
			return next(c)
		}
	})

	// Commands
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/status", b.handleStatus)
	b.bot.Handle("/trades", b.handleTrades)
	b.bot.Handle("/pause", b.handlePause)
	b.bot.Handle("/resume", b.handleResume)

	// Buttons
	b.bot.Handle(&btnStatus, b.handleStatus)
	b.bot.Handle(&btnTrades, b.handleTrades)
	b.bot.Handle(&btnPause, b.handlePause)
	b.bot.Handle(&btnResume, b.handleResume)
	b.bot.Handle(&btnBack, b.handleStart)
}

var (
	btnStatus = tele.Btn{Text: "📊 Status", Unique: "status"}
	btnTrades = tele.Btn{Text: "📋 Trades", Unique: "trades"}
	btnPause  = tele.Btn{Text: "⏸️ Pause", Unique: "pause"}
	btnResume = tele.Btn{Text: "▶️ Resume", Unique: "resume"}
	btnBack   = tele.Btn{Text: "🔙 Back", Unique: "back"}
)

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{}

	var toggleBtn tele.Btn
	if b.engine.IsRunning() {
		toggleBtn = btnPause
	} else {
		toggleBtn = btnResume
	}

	menu.Inline(
		menu.Row(btnStatus, btnTrades),
		menu.Row(toggleBtn),
	)

	status := "⏸️ Paused"
	if b.engine.IsRunning() {
		status = "▶️ Running"
	}

	msg := fmt.Sprintf(`🤖 *%s trading bot*

🔄 Status: %s

Pick an action:`, b.engine.Ticker(), status)

	return c.Send(msg, menu, tele.ModeMarkdown)
}

func (b *Bot) handleStatus(c tele.Context) error {
	ctx := context.Background()
	snap := b.engine.Evaluate(ctx)

	status := "⏸️ Paused"
	if b.engine.IsRunning() {
		status = "▶️ Running"
	}

	positionLine := "—"
	cashLine := "—"
	if position, account, err := b.engine.AccountState(ctx); err == nil {
		positionLine = fmt.Sprintf("%d shares", position.Quantity)
		cashLine = fmt.Sprintf("$%.2f", account.Cash)
	}

	signalLine := string(snap.Signal)
	if snap.SignalErr != nil {
		signalLine = "undefined"
	}

	msg := fmt.Sprintf(`📊 *%s status*

🔄 Loop: %s
📈 Signal: %s
📰 Sentiment: %s
📋 Position: %s
💰 Cash: %s

🕐 Uptime: %s
🕐 Updated: %s`,
		b.engine.Ticker(),
		status,
		signalLine,
		snap.Sentiment,
		positionLine,
		cashLine,
		formatUptime(time.Since(b.startTime)),
		time.Now().Format("15:04:05"),
	)

	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnTrades),
		menu.Row(btnBack),
	)

	return c.Send(msg, menu, tele.ModeMarkdown)
}

func (b *Bot) handleTrades(c tele.Context) error {
	records, err := b.engine.RecentTrades(context.Background(), 10)
	if err != nil {
		return c.Send("❌ Could not read the trade ledger")
	}

	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnBack))

	if len(records) == 0 {
		return c.Send("📋 No trades yet", menu)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *Last %d trades*\n\n", len(records)))
	for _, rec := range records {
		emoji := "📈"
		if rec.Action == models.ActionSell {
			emoji = "📉"
		}
		sb.WriteString(fmt.Sprintf("%s %s %d %s at %.2f\n   🕐 %s\n",
			emoji, rec.Action, rec.Quantity, rec.Symbol, rec.Price,
			rec.Timestamp.Format("Jan 2 15:04")))
	}

	return c.Send(sb.String(), menu, tele.ModeMarkdown)
}

func (b *Bot) handlePause(c tele.Context) error {
	b.engine.Stop()
	return b.handleStart(c)
}

func (b *Bot) handleResume(c tele.Context) error {
	b.engine.Start()
	return b.handleStart(c)
}

// SendTradeAlert pushes a confirmed trade to the configured chat.
// Best-effort: a failed send is logged and forgotten.
func (b *Bot) SendTradeAlert(rec models.TradeRecord) {
	emoji := "📈"
	if rec.Action == models.ActionSell {
		emoji = "📉"
	}

	msg := fmt.Sprintf(`%s *TRADE EXECUTED*

*%s %d %s* at %.2f
🧾 Order: %s

⏰ %s`,
		emoji,
		rec.Action,
		rec.Quantity,
		rec.Symbol,
		rec.Price,
		rec.OrderID,
		rec.Timestamp.Format("15:04:05"),
	)

	if _, err := b.bot.Send(&tele.User{ID: b.chatID}, msg, tele.ModeMarkdown); err != nil {
		log.Printf("⚠️ Telegram send failed: %v", err)
	}
}

func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
