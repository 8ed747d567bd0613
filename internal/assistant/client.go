package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Fixed completion parameters. One completion, bounded output, moderate
// sampling temperature, no custom stop sequence.
const (
	defaultModel = openai.GPT3Dot5Turbo
	maxTokens    = 2000
	temperature  = 0.7
)

// systemInstruction is the fixed system turn sent with every request.
const systemInstruction = "You are an expert programming assistant. " +
	"Provide clear, concise, and practical answers " +
	"with code examples when appropriate."

// supportedLanguages is the advisory allow-list checked by
// SupportedLanguage. It is NOT enforced before the API call — requests with
// unknown language tags are still forwarded. Callers that care (the assist
// handler) log a warning instead. Enforcing it here would silently change
// behaviour for clients that send tags like "typescript" today.
var supportedLanguages = []string{
	"python", "javascript", "java", "c++", "c#",
	"php", "ruby", "swift", "go", "rust",
}

// Config holds the client's connection settings.
type Config struct {
	APIKey  string
	Model   string // defaults to gpt-3.5-turbo when empty
	BaseURL string // overrides the OpenAI endpoint; used by tests
}

// Client is the production Assistant implementation backed by the OpenAI
// chat-completion API.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

var _ Assistant = (*Client)(nil)

// NewClient creates a Client from the given config.
// Returns an error when no API key is configured — better to fail at startup
// than on the first user request.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("assistant: OpenAI API key is required")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  model,
		logger: logger,
	}, nil
}

// Process sends one completion request and normalizes the outcome.
//
// An empty query short-circuits to a failure Result without touching the
// API. The call itself is a single blocking round trip — no retries, no
// timeout beyond the underlying HTTP client's default, no circuit breaking.
// A slow upstream directly delays the inbound request.
func (c *Client) Process(ctx context.Context, req Request) *Result {
	if req.Query == "" {
		return &Result{Success: false, Error: "query is required"}
	}

	prompt := buildPrompt(req)

	c.logger.Debug("processing assistant request",
		slog.String("model", c.model),
		slog.Int("promptLen", len(prompt)),
	)

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		N:           1,
	})
	elapsed := time.Since(start)

	if err != nil {
		return c.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("completion API returned no choices")
		return &Result{Success: false, Error: "an unexpected error occurred: empty completion"}
	}

	c.logger.Debug("assistant request completed",
		slog.Duration("duration", elapsed),
		slog.Int("tokensUsed", resp.Usage.TotalTokens),
	)

	return &Result{
		Success:      true,
		Response:     strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensUsed:   resp.Usage.TotalTokens,
		ResponseTime: elapsed,
		Model:        c.model,
	}
}

// classifyError maps upstream failures onto the three user-facing kinds we
// distinguish (bad credentials, rate limit, malformed request) plus a
// catch-all. Every kind yields a success=false Result; nothing propagates
// past this boundary.
func (c *Client) classifyError(err error) *Result {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			c.logger.Error("completion API authentication failed", slog.String("error", apiErr.Message))
			return &Result{Success: false, Error: "invalid OpenAI API key"}
		case http.StatusTooManyRequests:
			c.logger.Error("completion API rate limit exceeded", slog.String("error", apiErr.Message))
			return &Result{Success: false, Error: "OpenAI API rate limit exceeded"}
		case http.StatusBadRequest:
			c.logger.Error("completion API rejected request", slog.String("error", apiErr.Message))
			return &Result{Success: false, Error: fmt.Sprintf("invalid request: %s", apiErr.Message)}
		}
	}

	c.logger.Error("completion API call failed", slog.String("error", err.Error()))
	return &Result{Success: false, Error: fmt.Sprintf("an unexpected error occurred: %s", err.Error())}
}

// buildPrompt assembles the user turn. The order and the omission rule are
// part of the contract: language line, optional code-context line (dropped
// entirely when context is empty), question line, fixed instruction line,
// joined by newlines.
func buildPrompt(req Request) string {
	parts := make([]string, 0, 4)
	parts = append(parts, "Language: "+req.Language)
	if req.CodeContext != "" {
		parts = append(parts, "Code Context: "+req.CodeContext)
	}
	parts = append(parts, "Question: "+req.Query)
	parts = append(parts, "Please provide a clear explanation and code example.")
	return strings.Join(parts, "\n")
}

// SupportedLanguage reports whether the tag belongs to the fixed allow-list,
// case-insensitively. Advisory — see supportedLanguages.
func SupportedLanguage(language string) bool {
	for _, l := range supportedLanguages {
		if strings.EqualFold(language, l) {
			return true
		}
	}
	return false
}
