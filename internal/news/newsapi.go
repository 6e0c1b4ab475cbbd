package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Source supplies recent headlines for a symbol, most recent first.
type Source interface {
	Headlines(ctx context.Context, symbol string, max int) ([]string, error)
}

const newsAPIBaseURL = "https://newsapi.org"

// NewsAPIClient pulls headlines from the NewsAPI /v2/everything endpoint.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewNewsAPIClient(apiKey string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// Headlines returns up to max article titles mentioning the symbol, newest
// first.
func (n *NewsAPIClient) Headlines(ctx context.Context, symbol string, max int) ([]string, error) {
	if max <= 0 {
		max = 5
	}

	u := fmt.Sprintf("%s/v2/everything?q=%s&sortBy=publishedAt&pageSize=%d&apiKey=%s",
		n.baseURL, url.QueryEscape(symbol), max, url.QueryEscape(n.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("news: create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("news: API status %d: %s", resp.StatusCode, string(body))
	}

	var result everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("news: parse JSON: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("news: API status not ok: %s", result.Status)
	}

	headlines := make([]string, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == "" {
			continue
		}
		headlines = append(headlines, a.Title)
		if len(headlines) == max {
			break
		}
	}
	return headlines, nil
}
