package broker

import (
	"context"
	"time"

	"equity_bot/internal/models"
)

// Side of a market order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderConfirmation is the broker's acknowledgement of a submitted order.
type OrderConfirmation struct {
	OrderID   string
	Symbol    string
	Quantity  int64
	Side      Side
	Submitted time.Time
}

// Client is the brokerage boundary: held position, account cash, and market
// order submission. A symbol with no open position comes back with zero
// quantity, not an error.
type Client interface {
	GetPosition(ctx context.Context, symbol string) (models.Position, error)
	GetAccount(ctx context.Context) (models.Account, error)
	SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side Side) (OrderConfirmation, error)
}
