package models

import "time"

// Bar is one OHLCV interval for a symbol. Bar series are ordered by
// timestamp ascending with no duplicates.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Signal is the technical side of a trade decision.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Sentiment is the news side of a trade decision.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

type ActionType string

const (
	ActionNone ActionType = "NONE"
	ActionBuy  ActionType = "BUY"
	ActionSell ActionType = "SELL"
)

// Action is what the decision policy wants done this cycle.
type Action struct {
	Type     ActionType
	Quantity int64
}

// Position is the brokerage-held share count for a symbol. Zero quantity
// means no position.
type Position struct {
	Symbol   string
	Quantity int64
}

// Account is the brokerage cash state.
type Account struct {
	Cash float64
}

// TradeRecord is one executed trade. Immutable once written to the ledger.
type TradeRecord struct {
	Timestamp time.Time
	Symbol    string
	Action    ActionType
	Quantity  int64
	Price     float64
	OrderID   string
}
