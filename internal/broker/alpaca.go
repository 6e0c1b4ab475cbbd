package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"equity_bot/internal/models"
)

// AlpacaClient talks to the Alpaca trading REST API. The base URL decides
// whether orders hit the paper or the live endpoint.
type AlpacaClient struct {
	apiKey  string
	secret  string
	baseURL string
	client  *http.Client
}

func NewAlpacaClient(apiKey, secret, baseURL string) *AlpacaClient {
	if baseURL == "" {
		baseURL = "https://paper-api.alpaca.markets"
	}
	return &AlpacaClient{
		apiKey:  apiKey,
		secret:  secret,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Alpaca serializes numeric fields as strings.
type alpacaPosition struct {
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
}

type alpacaAccount struct {
	Cash string `json:"cash"`
}

type alpacaOrderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type alpacaOrder struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	SubmittedAt string `json:"submitted_at"`
}

// GetPosition returns the open position for the symbol. A 404 from the API
// means no position and maps to zero quantity.
func (a *AlpacaClient) GetPosition(ctx context.Context, symbol string) (models.Position, error) {
	resp, err := a.do(ctx, http.MethodGet, "/v2/positions/"+url.PathEscape(symbol), nil)
	if err != nil {
		return models.Position{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Position{Symbol: symbol}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return models.Position{}, apiError("position", resp)
	}

	var pos alpacaPosition
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		return models.Position{}, fmt.Errorf("broker: parse position: %w", err)
	}
	qty, err := strconv.ParseInt(pos.Qty, 10, 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("broker: parse position qty %q: %w", pos.Qty, err)
	}
	return models.Position{Symbol: symbol, Quantity: qty}, nil
}

// GetAccount returns the account cash balance.
func (a *AlpacaClient) GetAccount(ctx context.Context) (models.Account, error) {
	resp, err := a.do(ctx, http.MethodGet, "/v2/account", nil)
	if err != nil {
		return models.Account{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Account{}, apiError("account", resp)
	}

	var acc alpacaAccount
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return models.Account{}, fmt.Errorf("broker: parse account: %w", err)
	}
	cash, err := strconv.ParseFloat(acc.Cash, 64)
	if err != nil {
		return models.Account{}, fmt.Errorf("broker: parse cash %q: %w", acc.Cash, err)
	}
	return models.Account{Cash: cash}, nil
}

// SubmitMarketOrder places a good-till-canceled market order and returns the
// broker's order id.
func (a *AlpacaClient) SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side Side) (OrderConfirmation, error) {
	if qty <= 0 {
		return OrderConfirmation{}, fmt.Errorf("broker: invalid order quantity %d", qty)
	}

	order := alpacaOrderRequest{
		Symbol:        symbol,
		Qty:           strconv.FormatInt(qty, 10),
		Side:          string(side),
		Type:          "market",
		TimeInForce:   "gtc",
		ClientOrderID: uuid.NewString(),
	}

	resp, err := a.do(ctx, http.MethodPost, "/v2/orders", order)
	if err != nil {
		return OrderConfirmation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return OrderConfirmation{}, apiError("order", resp)
	}

	var placed alpacaOrder
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		return OrderConfirmation{}, fmt.Errorf("broker: parse order: %w", err)
	}
	return OrderConfirmation{
		OrderID:   placed.ID,
		Symbol:    symbol,
		Quantity:  qty,
		Side:      side,
		Submitted: time.Now().UTC(),
	}, nil
}

func (a *AlpacaClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("broker: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("broker: create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", a.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("broker: request failed: %w", err)
	}
	return resp, nil
}

func apiError(what string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("broker: %s API status %d: %s", what, resp.StatusCode, string(body))
}
