package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity_bot/config"
	"equity_bot/internal/analysis"
	"equity_bot/internal/broker"
	"equity_bot/internal/models"
)

type fakeMarket struct {
	bars     []models.Bar
	barsErr  error
	price    float64
	priceErr error
}

func (f *fakeMarket) GetBars(ctx context.Context, symbol string, lookbackDays int, interval string) ([]models.Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeMarket) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, f.priceErr
}

type fakeNews struct {
	headlines []string
	err       error
}

func (f *fakeNews) Headlines(ctx context.Context, symbol string, max int) ([]string, error) {
	return f.headlines, f.err
}

type fakeClassifier struct {
	sentiment models.Sentiment
	err       error
	calls     int
}

func (f *fakeClassifier) Classify(ctx context.Context, symbol string, headlines []string) (models.Sentiment, error) {
	f.calls++
	if f.err != nil {
		return models.SentimentNeutral, f.err
	}
	return f.sentiment, nil
}

type submittedOrder struct {
	symbol string
	qty    int64
	side   broker.Side
}

type fakeBroker struct {
	position  models.Position
	account   models.Account
	posErr    error
	submitErr error
	orders    []submittedOrder
}

func (f *fakeBroker) GetPosition(ctx context.Context, symbol string) (models.Position, error) {
	return f.position, f.posErr
}

func (f *fakeBroker) GetAccount(ctx context.Context) (models.Account, error) {
	return f.account, nil
}

func (f *fakeBroker) SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side broker.Side) (broker.OrderConfirmation, error) {
	if f.submitErr != nil {
		return broker.OrderConfirmation{}, f.submitErr
	}
	f.orders = append(f.orders, submittedOrder{symbol: symbol, qty: qty, side: side})
	return broker.OrderConfirmation{
		OrderID:   "order-1",
		Symbol:    symbol,
		Quantity:  qty,
		Side:      side,
		Submitted: time.Now().UTC(),
	}, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	records   []models.TradeRecord
	appendErr error
}

func (f *fakeLedger) Append(ctx context.Context, rec models.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) Recent(ctx context.Context, n int) ([]models.TradeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TradeRecord, 0, n)
	for i := len(f.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Ticker:          "AAPL",
		ShortWindow:     5,
		LongWindow:      20,
		MaxPosition:     10,
		PollInterval:    time.Hour,
		RefreshInterval: time.Hour,
		LookbackDays:    5,
		BarInterval:     "5m",
	}
}

func risingCrossoverBars() []models.Bar {
	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	closes := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 101)

	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Time: start.Add(time.Duration(i) * 5 * time.Minute), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func fallingCrossoverBars() []models.Bar {
	bars := risingCrossoverBars()
	bars[len(bars)-1].Close = 99
	return bars
}

func TestRunCycleBuysWhenSignalAndSentimentAgree(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	brk := &fakeBroker{position: models.Position{Symbol: "AAPL"}, account: models.Account{Cash: 1000}}
	trades := &fakeLedger{}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"record quarter"}}, &fakeClassifier{sentiment: models.SentimentPositive}, brk, trades)

	var notified []models.TradeRecord
	eng.SetTradeCallback(func(rec models.TradeRecord) {
		notified = append(notified, rec)
	})

	res := eng.RunCycle(context.Background())

	require.True(t, res.Executed)
	assert.Equal(t, SkipNone, res.Skip)
	assert.Equal(t, models.SignalBuy, res.Snapshot.Signal)
	assert.Equal(t, models.ActionBuy, res.Action.Type)
	assert.Equal(t, int64(10), res.Action.Quantity)

	require.Len(t, brk.orders, 1)
	assert.Equal(t, broker.SideBuy, brk.orders[0].side)
	assert.Equal(t, int64(10), brk.orders[0].qty)

	require.Len(t, trades.records, 1)
	assert.Equal(t, "order-1", trades.records[0].OrderID)
	assert.Equal(t, 100.0, trades.records[0].Price)

	require.Len(t, notified, 1)
	assert.Equal(t, trades.records[0].OrderID, notified[0].OrderID)
}

func TestRunCycleSellLiquidatesPosition(t *testing.T) {
	market := &fakeMarket{bars: fallingCrossoverBars(), price: 99}
	brk := &fakeBroker{position: models.Position{Symbol: "AAPL", Quantity: 7}, account: models.Account{Cash: 0}}
	trades := &fakeLedger{}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"guidance cut"}}, &fakeClassifier{sentiment: models.SentimentNegative}, brk, trades)

	res := eng.RunCycle(context.Background())

	require.True(t, res.Executed)
	assert.Equal(t, models.SignalSell, res.Snapshot.Signal)
	require.Len(t, brk.orders, 1)
	assert.Equal(t, broker.SideSell, brk.orders[0].side)
	assert.Equal(t, int64(7), brk.orders[0].qty)
	require.Len(t, trades.records, 1)
	assert.Equal(t, models.ActionSell, trades.records[0].Action)
}

func TestRunCycleNeutralSentimentBlocksTrade(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	brk := &fakeBroker{account: models.Account{Cash: 1000}}
	trades := &fakeLedger{}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"mixed day"}}, &fakeClassifier{sentiment: models.SentimentNeutral}, brk, trades)

	res := eng.RunCycle(context.Background())

	assert.False(t, res.Executed)
	assert.Equal(t, SkipNoAction, res.Skip)
	assert.Equal(t, models.SignalBuy, res.Snapshot.Signal)
	assert.Empty(t, brk.orders)
	assert.Empty(t, trades.records)
}

func TestRunCycleBrokerRejectionLeavesLedgerClean(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	brk := &fakeBroker{account: models.Account{Cash: 1000}, submitErr: errors.New("rejected")}
	trades := &fakeLedger{}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"record quarter"}}, &fakeClassifier{sentiment: models.SentimentPositive}, brk, trades)

	notified := false
	eng.SetTradeCallback(func(models.TradeRecord) { notified = true })

	res := eng.RunCycle(context.Background())

	assert.False(t, res.Executed)
	assert.Equal(t, SkipBrokerError, res.Skip)
	require.Error(t, res.Err)
	assert.Empty(t, trades.records)
	assert.False(t, notified)
}

func TestRunCycleInsufficientHistorySkipsTrading(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars()[:10], price: 100}
	brk := &fakeBroker{account: models.Account{Cash: 1000}}
	eng := New(testConfig(), market, &fakeNews{}, &fakeClassifier{sentiment: models.SentimentPositive}, brk, &fakeLedger{})

	res := eng.RunCycle(context.Background())

	assert.False(t, res.Executed)
	assert.Equal(t, SkipNoSignal, res.Skip)
	require.ErrorIs(t, res.Snapshot.SignalErr, analysis.ErrInsufficientData)
	assert.Equal(t, models.SignalHold, res.Snapshot.Signal)
	assert.Empty(t, brk.orders)
}

func TestRunCycleBarFetchFailureSkipsTrading(t *testing.T) {
	market := &fakeMarket{barsErr: errors.New("api down")}
	brk := &fakeBroker{}
	eng := New(testConfig(), market, &fakeNews{}, &fakeClassifier{sentiment: models.SentimentPositive}, brk, &fakeLedger{})

	res := eng.RunCycle(context.Background())

	assert.Equal(t, SkipNoSignal, res.Skip)
	require.Error(t, res.Snapshot.SignalErr)
	assert.Empty(t, brk.orders)
}

func TestRunCyclePriceFetchFailureSkipsTrading(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), priceErr: errors.New("feed down")}
	brk := &fakeBroker{account: models.Account{Cash: 1000}}
	trades := &fakeLedger{}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"record quarter"}}, &fakeClassifier{sentiment: models.SentimentPositive}, brk, trades)

	res := eng.RunCycle(context.Background())

	assert.False(t, res.Executed)
	assert.Equal(t, SkipPriceError, res.Skip)
	assert.Empty(t, brk.orders)
	assert.Empty(t, trades.records)
}

func TestEvaluateNewsFailureDefaultsToNeutral(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	classifier := &fakeClassifier{sentiment: models.SentimentPositive}
	eng := New(testConfig(), market, &fakeNews{err: errors.New("quota exceeded")}, classifier, &fakeBroker{}, &fakeLedger{})

	snap := eng.Evaluate(context.Background())

	assert.Equal(t, models.SentimentNeutral, snap.Sentiment)
	require.Error(t, snap.NewsErr)
	assert.Zero(t, classifier.calls, "no classification without headlines")
	assert.Equal(t, models.SignalBuy, snap.Signal)
}

func TestEvaluateClassifierFailureDefaultsToNeutral(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	eng := New(testConfig(), market, &fakeNews{headlines: []string{"record quarter"}}, &fakeClassifier{err: errors.New("model overloaded")}, &fakeBroker{}, &fakeLedger{})

	snap := eng.Evaluate(context.Background())

	assert.Equal(t, models.SentimentNeutral, snap.Sentiment)
	require.Error(t, snap.ClassifyErr)
}

func TestStartStopIdempotent(t *testing.T) {
	market := &fakeMarket{bars: risingCrossoverBars(), price: 100}
	eng := New(testConfig(), market, &fakeNews{}, &fakeClassifier{sentiment: models.SentimentNeutral}, &fakeBroker{account: models.Account{Cash: 1000}}, &fakeLedger{})

	eng.Start()
	assert.True(t, eng.IsRunning())
	eng.Start()

	eng.Stop()
	assert.False(t, eng.IsRunning())
	eng.Stop()
}
