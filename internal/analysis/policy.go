package analysis

import (
	"github.com/shopspring/decimal"

	"equity_bot/internal/models"
)

// Decide turns a signal into an order intent. The technical signal and the
// news sentiment must agree before any shares are sized; NEUTRAL sentiment
// blocks both sides.
func Decide(signal models.Signal, sentiment models.Sentiment, position models.Position, account models.Account, price float64, maxPosition int64) models.Action {
	switch {
	case signal == models.SignalBuy && sentiment == models.SentimentPositive && account.Cash > price:
		if qty := buyQuantity(account.Cash, price, maxPosition); qty > 0 {
			return models.Action{Type: models.ActionBuy, Quantity: qty}
		}
	case signal == models.SignalSell && sentiment == models.SentimentNegative && position.Quantity > 0:
		// Full liquidation, whatever the broker says we hold.
		return models.Action{Type: models.ActionSell, Quantity: position.Quantity}
	}
	return models.Action{Type: models.ActionNone}
}

// buyQuantity sizes a buy in whole shares, capped by the position limit.
func buyQuantity(cash, price float64, maxPosition int64) int64 {
	if price <= 0 {
		return 0
	}
	affordable := decimal.NewFromFloat(cash).Div(decimal.NewFromFloat(price)).IntPart()
	if affordable > maxPosition {
		return maxPosition
	}
	return affordable
}
