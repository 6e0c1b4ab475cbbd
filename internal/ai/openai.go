package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"equity_bot/internal/models"
)

// Classifier labels a batch of headlines about a symbol.
type Classifier interface {
	Classify(ctx context.Context, symbol string, headlines []string) (models.Sentiment, error)
}

const (
	openAIBaseURL = "https://api.openai.com"
	openAIModel   = "gpt-4o-mini"
)

// OpenAIClient classifies headline sentiment via the chat completions API.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   openAIModel,
		baseURL: openAIBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify labels the headlines POSITIVE, NEGATIVE, or NEUTRAL. An empty
// headline list is NEUTRAL without a network call. On any failure the label
// is NEUTRAL and the error is returned for the caller to log.
func (o *OpenAIClient) Classify(ctx context.Context, symbol string, headlines []string) (models.Sentiment, error) {
	if len(headlines) == 0 {
		return models.SentimentNeutral, nil
	}

	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(symbol, headlines)},
		},
		MaxTokens: 10,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.SentimentNeutral, fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return models.SentimentNeutral, fmt.Errorf("ai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return models.SentimentNeutral, fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return models.SentimentNeutral, fmt.Errorf("ai: API status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.SentimentNeutral, fmt.Errorf("ai: parse JSON: %w", err)
	}
	if len(result.Choices) == 0 {
		return models.SentimentNeutral, fmt.Errorf("ai: empty response")
	}

	content := result.Choices[0].Message.Content
	sentiment, ok := ParseSentiment(content)
	if !ok {
		return models.SentimentNeutral, fmt.Errorf("ai: unrecognized sentiment %q", content)
	}
	return sentiment, nil
}

func buildPrompt(symbol string, headlines []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these headlines about %s and return POSITIVE, NEGATIVE, or NEUTRAL:\n", symbol)
	for _, h := range headlines {
		sb.WriteString("- ")
		sb.WriteString(h)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseSentiment normalizes a model reply to one of the three labels. The
// reply may carry extra prose around the label.
func ParseSentiment(content string) (models.Sentiment, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(content))
	switch {
	case strings.Contains(normalized, "POSITIVE"):
		return models.SentimentPositive, true
	case strings.Contains(normalized, "NEGATIVE"):
		return models.SentimentNegative, true
	case strings.Contains(normalized, "NEUTRAL"):
		return models.SentimentNeutral, true
	}
	return models.SentimentNeutral, false
}
