package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"equity_bot/config"
	"equity_bot/internal/ai"
	"equity_bot/internal/analysis"
	"equity_bot/internal/broker"
	"equity_bot/internal/marketdata"
	"equity_bot/internal/models"
	"equity_bot/internal/news"
)

const maxHeadlines = 5

// TradeLog is the slice of the ledger the engine needs.
type TradeLog interface {
	Append(ctx context.Context, rec models.TradeRecord) error
	Recent(ctx context.Context, n int) ([]models.TradeRecord, error)
}

// TradeCallback is invoked after a trade is confirmed by the broker.
type TradeCallback func(rec models.TradeRecord)

// Snapshot is one read-only evaluation of the market: bars, averages, signal
// and sentiment. The dashboard refresh loop consumes these without trading.
// Collaborator failures are tagged, not fatal: a failed signal leaves
// SignalErr set with Signal at HOLD, a failed news fetch or classification
// leaves Sentiment at NEUTRAL.
type Snapshot struct {
	At        time.Time
	Bars      []models.Bar
	Averages  analysis.MovingAverages
	Signal    models.Signal
	SignalErr error

	Headlines   []string
	Sentiment   models.Sentiment
	NewsErr     error
	ClassifyErr error
}

// SkipReason tags why a cycle ended without an executed trade.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipNoSignal    SkipReason = "NO_SIGNAL"
	SkipNoAction    SkipReason = "NO_ACTION"
	SkipPriceError  SkipReason = "PRICE_ERROR"
	SkipBrokerError SkipReason = "BROKER_ERROR"
)

// CycleResult is the outcome of one trading cycle.
type CycleResult struct {
	Snapshot Snapshot
	Action   models.Action
	Executed bool
	Record   models.TradeRecord
	Skip     SkipReason
	Err      error
}

// Engine runs the trading loop for a single ticker: evaluate the market,
// apply the decision policy, execute through the broker, then record and
// notify. At most one loop goroutine is live between Start and Stop.
type Engine struct {
	cfg        *config.Config
	market     marketdata.Source
	news       news.Source
	classifier ai.Classifier
	broker     broker.Client
	trades     TradeLog

	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
	onTrade   TradeCallback
}

func New(cfg *config.Config, market marketdata.Source, newsSource news.Source, classifier ai.Classifier, brokerClient broker.Client, trades TradeLog) *Engine {
	return &Engine{
		cfg:        cfg,
		market:     market,
		news:       newsSource,
		classifier: classifier,
		broker:     brokerClient,
		trades:     trades,
	}
}

// SetTradeCallback registers the notification hook fired after each
// confirmed trade. Callback failures are the callback's problem.
func (e *Engine) SetTradeCallback(cb TradeCallback) {
	e.mu.Lock()
	e.onTrade = cb
	e.mu.Unlock()
}

// Evaluate reads the market without trading. Safe to call from any
// goroutine; it touches no engine state.
func (e *Engine) Evaluate(ctx context.Context) Snapshot {
	snap := Snapshot{
		At:        time.Now().UTC(),
		Signal:    models.SignalHold,
		Sentiment: models.SentimentNeutral,
	}

	bars, err := e.market.GetBars(ctx, e.cfg.Ticker, e.cfg.LookbackDays, e.cfg.BarInterval)
	if err != nil {
		snap.SignalErr = err
		log.Printf("⚠️ %s: price history unavailable: %v", e.cfg.Ticker, err)
	} else {
		snap.Bars = bars
		ma, err := analysis.ComputeMovingAverages(bars, e.cfg.ShortWindow, e.cfg.LongWindow)
		if err != nil {
			snap.SignalErr = err
			log.Printf("⚠️ %s: signal undefined: %v", e.cfg.Ticker, err)
		} else {
			snap.Averages = ma
			snap.Signal = ma.Signal()
		}
	}

	headlines, err := e.news.Headlines(ctx, e.cfg.Ticker, maxHeadlines)
	if err != nil {
		snap.NewsErr = err
		log.Printf("⚠️ %s: headlines unavailable, sentiment stays NEUTRAL: %v", e.cfg.Ticker, err)
		return snap
	}
	snap.Headlines = headlines

	sentiment, err := e.classifier.Classify(ctx, e.cfg.Ticker, headlines)
	if err != nil {
		snap.ClassifyErr = err
		log.Printf("⚠️ %s: sentiment classification failed, staying NEUTRAL: %v", e.cfg.Ticker, err)
		return snap
	}
	snap.Sentiment = sentiment

	return snap
}

// RunCycle runs one full decision cycle. The ledger is appended and the
// trade callback fired only after the broker confirms the order; a broker
// failure abandons the cycle with nothing recorded or notified.
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{
		Snapshot: e.Evaluate(ctx),
		Action:   models.Action{Type: models.ActionNone},
	}

	if res.Snapshot.SignalErr != nil {
		res.Skip = SkipNoSignal
		return res
	}

	position, err := e.broker.GetPosition(ctx, e.cfg.Ticker)
	if err != nil {
		res.Skip, res.Err = SkipBrokerError, err
		log.Printf("❌ %s: position query failed: %v", e.cfg.Ticker, err)
		return res
	}
	account, err := e.broker.GetAccount(ctx)
	if err != nil {
		res.Skip, res.Err = SkipBrokerError, err
		log.Printf("❌ account query failed: %v", err)
		return res
	}
	price, err := e.market.GetLatestPrice(ctx, e.cfg.Ticker)
	if err != nil {
		res.Skip, res.Err = SkipPriceError, err
		log.Printf("⚠️ %s: latest price unavailable, cycle skipped: %v", e.cfg.Ticker, err)
		return res
	}

	res.Action = analysis.Decide(res.Snapshot.Signal, res.Snapshot.Sentiment, position, account, price, e.cfg.MaxPosition)
	if res.Action.Type == models.ActionNone {
		res.Skip = SkipNoAction
		return res
	}

	side := broker.SideBuy
	if res.Action.Type == models.ActionSell {
		side = broker.SideSell
	}
	conf, err := e.broker.SubmitMarketOrder(ctx, e.cfg.Ticker, res.Action.Quantity, side)
	if err != nil {
		res.Skip, res.Err = SkipBrokerError, err
		log.Printf("❌ %s order for %d %s rejected: %v", side, res.Action.Quantity, e.cfg.Ticker, err)
		return res
	}

	res.Executed = true
	res.Record = models.TradeRecord{
		Timestamp: time.Now().UTC(),
		Symbol:    e.cfg.Ticker,
		Action:    res.Action.Type,
		Quantity:  res.Action.Quantity,
		Price:     price,
		OrderID:   conf.OrderID,
	}
	log.Printf("✅ %s %d %s at %.2f (order %s)", res.Record.Action, res.Record.Quantity, e.cfg.Ticker, price, conf.OrderID)

	if err := e.trades.Append(ctx, res.Record); err != nil {
		// The trade happened; losing the row must not stop the loop.
		res.Err = err
		log.Printf("❌ trade executed but not recorded: %v", err)
	}

	e.mu.RLock()
	cb := e.onTrade
	e.mu.RUnlock()
	if cb != nil {
		cb(res.Record)
	}

	return res
}

// Start launches the background trading loop: one immediate cycle, then one
// per poll interval until Stop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.isRunning {
		e.mu.Unlock()
		return
	}
	e.isRunning = true
	e.stopChan = make(chan struct{})
	stop := e.stopChan
	e.mu.Unlock()

	log.Printf("🚀 Trading loop started: %s every %s", e.cfg.Ticker, e.cfg.PollInterval)
	go e.loop(stop)
}

// Stop halts the trading loop. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isRunning {
		return
	}
	e.isRunning = false
	close(e.stopChan)
	log.Println("🛑 Trading loop stopped")
}

func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isRunning
}

func (e *Engine) loop(stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.runSafely()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.runSafely()
		}
	}
}

// runSafely keeps a panicking collaborator from killing the loop.
func (e *Engine) runSafely() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ trading cycle panicked: %v", r)
		}
	}()
	e.RunCycle(context.Background())
}

// RecentTrades exposes the ledger read path for presentation surfaces.
func (e *Engine) RecentTrades(ctx context.Context, n int) ([]models.TradeRecord, error) {
	return e.trades.Recent(ctx, n)
}

// AccountState reads the current position and cash from the broker.
func (e *Engine) AccountState(ctx context.Context) (models.Position, models.Account, error) {
	position, err := e.broker.GetPosition(ctx, e.cfg.Ticker)
	if err != nil {
		return models.Position{}, models.Account{}, err
	}
	account, err := e.broker.GetAccount(ctx)
	if err != nil {
		return models.Position{}, models.Account{}, err
	}
	return position, account, nil
}

// Ticker is the symbol this engine trades.
func (e *Engine) Ticker() string {
	return e.cfg.Ticker
}
