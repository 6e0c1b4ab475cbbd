package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equity_bot/internal/models"
)

func TestDecideBuyCappedByMaxPosition(t *testing.T) {
	action := Decide(
		models.SignalBuy, models.SentimentPositive,
		models.Position{Symbol: "AAPL"}, models.Account{Cash: 1000},
		100.0, 10,
	)
	assert.Equal(t, models.ActionBuy, action.Type)
	assert.Equal(t, int64(10), action.Quantity)

	// Plenty of cash still buys at most the cap.
	action = Decide(
		models.SignalBuy, models.SentimentPositive,
		models.Position{Symbol: "AAPL"}, models.Account{Cash: 25000},
		100.0, 10,
	)
	assert.Equal(t, int64(10), action.Quantity)
}

func TestDecideBuySizedByCash(t *testing.T) {
	action := Decide(
		models.SignalBuy, models.SentimentPositive,
		models.Position{Symbol: "AAPL"}, models.Account{Cash: 450},
		100.0, 10,
	)
	assert.Equal(t, models.ActionBuy, action.Type)
	assert.Equal(t, int64(4), action.Quantity)
}

func TestDecideBuyBlockedWhenCashBelowPrice(t *testing.T) {
	action := Decide(
		models.SignalBuy, models.SentimentPositive,
		models.Position{Symbol: "AAPL"}, models.Account{Cash: 50},
		100.0, 10,
	)
	assert.Equal(t, models.ActionNone, action.Type)
	assert.Zero(t, action.Quantity)
}

func TestDecideSellLiquidatesFullPosition(t *testing.T) {
	action := Decide(
		models.SignalSell, models.SentimentNegative,
		models.Position{Symbol: "AAPL", Quantity: 7}, models.Account{Cash: 0},
		100.0, 10,
	)
	assert.Equal(t, models.ActionSell, action.Type)
	assert.Equal(t, int64(7), action.Quantity)
}

func TestDecideSellWithoutPositionDoesNothing(t *testing.T) {
	action := Decide(
		models.SignalSell, models.SentimentNegative,
		models.Position{Symbol: "AAPL"}, models.Account{Cash: 1000},
		100.0, 10,
	)
	assert.Equal(t, models.ActionNone, action.Type)
}

func TestDecideSentimentMustAgree(t *testing.T) {
	cases := []struct {
		name      string
		signal    models.Signal
		sentiment models.Sentiment
	}{
		{"buy blocked by neutral", models.SignalBuy, models.SentimentNeutral},
		{"buy blocked by negative", models.SignalBuy, models.SentimentNegative},
		{"sell blocked by neutral", models.SignalSell, models.SentimentNeutral},
		{"sell blocked by positive", models.SignalSell, models.SentimentPositive},
		{"hold trades never", models.SignalHold, models.SentimentPositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := Decide(
				tc.signal, tc.sentiment,
				models.Position{Symbol: "AAPL", Quantity: 5}, models.Account{Cash: 10000},
				100.0, 10,
			)
			assert.Equal(t, models.ActionNone, action.Type)
		})
	}
}
