package broker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"equity_bot/internal/models"
)

// PriceFunc returns the current market price for a symbol.
type PriceFunc func(ctx context.Context, symbol string) (float64, error)

// PaperBroker simulates a brokerage account in memory. It fills market orders
// at the latest quoted price; no real capital is at risk.
type PaperBroker struct {
	mu       sync.Mutex
	cash     float64
	quantity int64
	symbol   string
	price    PriceFunc
}

func NewPaperBroker(initialCash float64, symbol string, price PriceFunc) *PaperBroker {
	log.Printf("🎮 Paper trading: $%.2f starting cash for %s", initialCash, symbol)
	return &PaperBroker{
		cash:   initialCash,
		symbol: symbol,
		price:  price,
	}
}

func (p *PaperBroker) GetPosition(ctx context.Context, symbol string) (models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if symbol != p.symbol {
		return models.Position{Symbol: symbol}, nil
	}
	return models.Position{Symbol: symbol, Quantity: p.quantity}, nil
}

func (p *PaperBroker) GetAccount(ctx context.Context) (models.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.Account{Cash: p.cash}, nil
}

// SubmitMarketOrder fills immediately at the latest price. Underfunded buys
// and oversized sells are rejected, like a real brokerage would.
func (p *PaperBroker) SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side Side) (OrderConfirmation, error) {
	if qty <= 0 {
		return OrderConfirmation{}, fmt.Errorf("broker: invalid order quantity %d", qty)
	}
	if symbol != p.symbol {
		return OrderConfirmation{}, fmt.Errorf("broker: paper account holds %s, not %s", p.symbol, symbol)
	}

	price, err := p.price(ctx, symbol)
	if err != nil {
		return OrderConfirmation{}, fmt.Errorf("broker: paper fill price: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch side {
	case SideBuy:
		cost := price * float64(qty)
		if cost > p.cash {
			return OrderConfirmation{}, fmt.Errorf("broker: insufficient cash %.2f for %d shares at %.2f", p.cash, qty, price)
		}
		p.cash -= cost
		p.quantity += qty
	case SideSell:
		if qty > p.quantity {
			return OrderConfirmation{}, fmt.Errorf("broker: cannot sell %d shares, holding %d", qty, p.quantity)
		}
		p.cash += price * float64(qty)
		p.quantity -= qty
	default:
		return OrderConfirmation{}, fmt.Errorf("broker: unknown side %q", side)
	}

	log.Printf("🎮 Paper fill: %s %d %s at %.2f (cash %.2f, position %d)",
		side, qty, symbol, price, p.cash, p.quantity)

	return OrderConfirmation{
		OrderID:   "paper-" + uuid.NewString(),
		Symbol:    symbol,
		Quantity:  qty,
		Side:      side,
		Submitted: time.Now().UTC(),
	}, nil
}
