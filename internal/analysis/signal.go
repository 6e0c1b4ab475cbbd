package analysis

import (
	"errors"
	"fmt"

	talib "github.com/markcheno/go-talib"

	"equity_bot/internal/models"
)

// ErrInsufficientData means the bar series is too short to compare the long
// moving average across two consecutive points.
var ErrInsufficientData = errors.New("analysis: not enough bars for the long moving average")

// MovingAverages holds SMA series aligned index-for-index with the bar series
// they were computed from. Entries before window-1 are not meaningful.
type MovingAverages struct {
	Short []float64
	Long  []float64
}

// Signal compares the two most recent points of the short and long averages.
// BUY when the short average crossed above the long one on the latest bar,
// SELL when it crossed below, HOLD otherwise.
func (m MovingAverages) Signal() models.Signal {
	n := len(m.Short)
	if n < 2 || len(m.Long) != n {
		return models.SignalHold
	}
	shortNow, longNow := m.Short[n-1], m.Long[n-1]
	shortPrev, longPrev := m.Short[n-2], m.Long[n-2]
	switch {
	case shortNow > longNow && shortPrev <= longPrev:
		return models.SignalBuy
	case shortNow < longNow && shortPrev >= longPrev:
		return models.SignalSell
	}
	return models.SignalHold
}

// Closes extracts the close series from a bar series.
func Closes(bars []models.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// ComputeMovingAverages computes the short and long SMA series for a bar
// series. At least longWindow+1 bars are required so the crossover can look
// one bar back.
func ComputeMovingAverages(bars []models.Bar, shortWindow, longWindow int) (MovingAverages, error) {
	if shortWindow <= 0 || longWindow <= shortWindow {
		return MovingAverages{}, fmt.Errorf("analysis: invalid windows short=%d long=%d", shortWindow, longWindow)
	}
	if len(bars) < longWindow+1 {
		return MovingAverages{}, ErrInsufficientData
	}
	closes := Closes(bars)
	return MovingAverages{
		Short: talib.Sma(closes, shortWindow),
		Long:  talib.Sma(closes, longWindow),
	}, nil
}

// ComputeSignal derives the crossover signal for a bar series. A series
// shorter than longWindow+1 bars is an error, never a silent HOLD.
func ComputeSignal(bars []models.Bar, shortWindow, longWindow int) (models.Signal, error) {
	ma, err := ComputeMovingAverages(bars, shortWindow, longWindow)
	if err != nil {
		return models.SignalHold, err
	}
	return ma.Signal(), nil
}
