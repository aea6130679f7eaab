package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// ErrEmptyCompletion модель не вернула текста
var ErrEmptyCompletion = errors.New("empty completion")

// Client дополняет ответы клиента контекстом через chat-completions API
type Client struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

var _ service.Enricher = (*Client)(nil)

func NewClient(baseURL, apiKey, model string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(20*time.Second).
			SetRetryCount(1),
		model:  model,
		logger: logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const systemPrompt = "You help a financial advisor prepare for a meeting. " +
	"Be concise and factual. Never invent facts that are not in the input."

// Augment возвращает короткую заметку к ответу клиента с учётом контекста
func (c *Client) Augment(ctx context.Context, question, answer, contextData string) (string, error) {
	var b strings.Builder
	b.WriteString("Question asked before the meeting:\n" + question + "\n\n")
	b.WriteString("Client answer:\n" + answer + "\n\n")
	if contextData != "" {
		b.WriteString("Known context about the client:\n" + contextData + "\n\n")
	}
	b.WriteString("Write one or two sentences the advisor should know about this answer, " +
		"connecting it to the context when relevant.")

	return c.complete(ctx, b.String())
}

// SummarizeProfile короткая профессиональная сводка по профилю клиента
func (c *Client) SummarizeProfile(ctx context.Context, clientEmail, linkedInURL string) (string, error) {
	prompt := fmt.Sprintf(
		"Client email: %s\nLinkedIn profile: %s\n\n"+
			"Summarize in at most three sentences what can reasonably be inferred about this person's "+
			"professional background. Say so plainly if nothing can be inferred.",
		clientEmail, linkedInURL,
	)
	return c.complete(ctx, prompt)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var result completionResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model: c.model,
			Messages: []message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.3,
			MaxTokens:   300,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("request completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("request completion: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("Completion received", zap.Int("length", len(text)))
	return text, nil
}
