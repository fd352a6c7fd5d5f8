package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/models"
)

// Narrator rewrites the templated prediction from computed market facts.
type Narrator interface {
	Predict(ctx context.Context, facts InsightFacts) (string, error)
}

type OpenAINarrator struct {
	client *openai.Client
	model  string
}

// NewNarrator returns nil unless the summary feature is switched on.
func NewNarrator(cfg config.Config) Narrator {
	if !cfg.SummaryEnabled() {
		return nil
	}
	return NewOpenAINarrator(cfg.OpenAIKey, cfg.OpenAIModel, "")
}

func NewOpenAINarrator(apiKey string, model string, baseURL string) *OpenAINarrator {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAINarrator{client: openai.NewClientWithConfig(oc), model: model}
}

const narratorSystemPrompt = "You write one or two sentence short-term outlooks for a crypto market dashboard. " +
	"Use only the figures given. No financial advice disclaimers, no markdown."

func (n *OpenAINarrator) Predict(ctx context.Context, facts InsightFacts) (string, error) {
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: narratorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: narratorPrompt(facts)},
		},
		MaxTokens:   160,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("openai prediction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai prediction: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai prediction: empty content")
	}
	return text, nil
}

func narratorPrompt(f InsightFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sentiment: %s\n", f.Sentiment)
	fmt.Fprintf(&b, "Total market cap: %s (%s in 24h)\n", FormatCurrency(f.TotalMarketCap), FormatPercent(f.MarketCapChange))
	fmt.Fprintf(&b, "Total volume: %s\n", FormatCurrency(f.TotalVolume))
	fmt.Fprintf(&b, "BTC dominance: %s%%, ETH dominance: %s%%\n", FormatFixed(f.BTCDominance, 2), FormatFixed(f.ETHDominance, 2))
	fmt.Fprintf(&b, "Positive movers: %d of %d, high risk: %d\n", f.Positive, len(f.Tokens), f.HighRisk)
	if f.TopCategory != "" {
		fmt.Fprintf(&b, "Top trending category: %s\n", f.TopCategory)
	}
	writeMovers(&b, "Top gainers", f.Gainers)
	writeMovers(&b, "Top losers", f.Losers)
	return b.String()
}

func writeMovers(b *strings.Builder, label string, tokens []models.TokenView) {
	if len(tokens) == 0 {
		return
	}
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Symbol+" "+t.PriceChange)
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(parts, ", "))
}
