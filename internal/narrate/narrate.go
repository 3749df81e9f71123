// Package narrate produces the short market-context sentences attached
// to price bands. It calls an OpenAI-compatible chat completion service
// when a credential is configured and always falls back to a
// deterministic template otherwise, so report generation never depends
// on network availability.
package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sgdatalabs/btopricer/internal/config"
)

// Bands carries the three price points an explanation describes.
type Bands struct {
	Low  float64
	Mid  float64
	High float64
}

// Explainer produces a descriptive string for a town and flat type.
// Implementations never return an error; any failure degrades to
// templated text.
type Explainer interface {
	Explain(ctx context.Context, town, flatType string, bands Bands) string
}

// requestTimeout bounds the completion call; the upstream service gets
// no other cancellation signal.
const requestTimeout = 15 * time.Second

// Service is the chat-completion backed Explainer.
type Service struct {
	model       string
	maxTokens   int
	temperature float64
	apiKey      string
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
}

// NewService builds an Explainer from config. The API key comes from
// OPENAI_API_KEY; without it every call takes the fallback path.
func NewService(cfg config.LLM, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	baseURL := strings.TrimRight(os.Getenv("OPENAI_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Service{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		apiKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		baseURL:     baseURL,
		client:      &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
}

const systemPrompt = "You are an analyst generating brief, factual pricing insights " +
	"for Singapore HDB BTO. Given a town, flat type, and 3 price bands (low/mid/high), " +
	"write 2-3 sentences on market context, avoiding investment advice and speculation."

// Explain returns a short narrative for the given bands. Any failure of
// the external call is logged as a warning and absorbed.
func (s *Service) Explain(ctx context.Context, town, flatType string, bands Bands) string {
	if s.apiKey == "" {
		return FallbackText(town, flatType, bands)
	}

	text, err := s.complete(ctx, town, flatType, bands)
	if err != nil {
		s.logger.Warn("narrative fallback", "town", town, "flat_type", flatType, "error", err)
		return FallbackText(town, flatType, bands)
	}
	return text
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *Service) complete(ctx context.Context, town, flatType string, bands Bands) (string, error) {
	user := fmt.Sprintf("Town: %s\nFlat type: %s\nLow: %s\nMid: %s\nHigh: %s",
		town, flatType,
		FormatCurrency(bands.Low), FormatCurrency(bands.Mid), FormatCurrency(bands.High))

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("completion returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("completion returned no content")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// FallbackText is the deterministic narrative used when the completion
// service is unavailable.
func FallbackText(town, flatType string, b Bands) string {
	return fmt.Sprintf(
		"In %s, recent resale trends for %s units suggest a price range from %s to %s, "+
			"with typical transactions around %s. Prices vary by floor level, flat model, "+
			"and age of the lease.",
		town, flatType,
		FormatCurrency(b.Low), FormatCurrency(b.High), FormatCurrency(b.Mid))
}

var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders a price as whole dollars with thousands
// grouping, e.g. $425,000.
func FormatCurrency(x float64) string {
	return currencyPrinter.Sprintf("$%.0f", x)
}
