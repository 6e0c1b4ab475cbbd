package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"equity_bot/internal/models"
)

// Source supplies price history and the latest trade price for a symbol.
type Source interface {
	GetBars(ctx context.Context, symbol string, lookbackDays int, interval string) ([]models.Bar, error)
	GetLatestPrice(ctx context.Context, symbol string) (float64, error)
}

const (
	polygonBaseURL = "https://api.polygon.io"

	// Polygon caps aggregates at 50k results per request, far above a few
	// days of intraday bars.
	maxLimit = 50000
)

// PolygonClient fetches equity aggregates and last trades from the Polygon
// REST API.
type PolygonClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewPolygonClient(apiKey string) *PolygonClient {
	return &PolygonClient{
		apiKey:  apiKey,
		baseURL: polygonBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type aggregateResult struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type aggregatesResponse struct {
	Status  string            `json:"status"`
	Results []aggregateResult `json:"results"`
}

// GetBars returns ascending OHLCV bars covering the last lookbackDays at the
// given interval ("5m", "1h", "1d").
func (p *PolygonClient) GetBars(ctx context.Context, symbol string, lookbackDays int, interval string) ([]models.Bar, error) {
	mult, unit, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	rawURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%d/%d",
		p.baseURL, url.PathEscape(symbol), mult, unit, from.UnixMilli(), to.UnixMilli())
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("marketdata: parse URL: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("apiKey", p.apiKey)
	u.RawQuery = q.Encode()

	var result aggregatesResponse
	if err := p.getJSON(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	// DELAYED still carries usable bars on free-tier keys.
	if result.Status != "OK" && result.Status != "DELAYED" {
		return nil, fmt.Errorf("marketdata: aggregates status %s", result.Status)
	}

	bars := make([]models.Bar, 0, len(result.Results))
	for _, r := range result.Results {
		bars = append(bars, models.Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

type lastTradeResponse struct {
	Status  string `json:"status"`
	Results struct {
		Price float64 `json:"p"`
	} `json:"results"`
}

// GetLatestPrice returns the most recent trade price for the symbol.
func (p *PolygonClient) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/v2/last/trade/%s?apiKey=%s", p.baseURL, url.PathEscape(symbol), url.QueryEscape(p.apiKey))

	var result lastTradeResponse
	if err := p.getJSON(ctx, u, &result); err != nil {
		return 0, err
	}
	if result.Status != "OK" && result.Status != "DELAYED" {
		return 0, fmt.Errorf("marketdata: last trade status %s", result.Status)
	}
	if result.Results.Price <= 0 {
		return 0, fmt.Errorf("marketdata: no trade price for %s", symbol)
	}
	return result.Results.Price, nil
}

func (p *PolygonClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("marketdata: create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("marketdata: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("marketdata: API status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("marketdata: parse JSON: %w", err)
	}
	return nil
}

// parseInterval maps a compact interval like "5m" to Polygon's
// multiplier/timespan pair.
func parseInterval(interval string) (int, string, error) {
	interval = strings.TrimSpace(interval)
	if len(interval) < 2 {
		return 0, "", fmt.Errorf("marketdata: invalid interval %q", interval)
	}

	mult, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || mult <= 0 {
		return 0, "", fmt.Errorf("marketdata: invalid interval %q", interval)
	}

	switch interval[len(interval)-1] {
	case 'm':
		return mult, "minute", nil
	case 'h':
		return mult, "hour", nil
	case 'd':
		return mult, "day", nil
	}
	return 0, "", fmt.Errorf("marketdata: invalid interval %q", interval)
}
