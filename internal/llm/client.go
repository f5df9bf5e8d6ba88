package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// systemPrompt pins the assistant persona: short, friendly, no invented facts.
const systemPrompt = "You are the SchoolBOS Assistant. " +
	"Your job is to answer simply, clearly, and in a friendly tone. " +
	"Always keep your answers short (under 60 words). " +
	"Do not create a personal identity or backstory. " +
	"Do not mention fake names, teachers, or school names. " +
	"You must not hallucinate details. " +
	"If a question is unclear, ask the user for the exact class/section/date. " +
	"Be concise and practical."

const generateTimeout = 8 * time.Second

// Config holds the connection settings for an OpenAI-compatible completion
// endpoint (Groq in production).
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Client is the generation backend: prompt in, short reply out. All calls run
// under a timeout so a stuck upstream cannot wedge a conversation turn.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate sends a prompt to the completion endpoint and returns the reply
// text. maxTokens <= 0 falls back to the configured default.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0.4,
		TopP:        0.9,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("LLM completion failed",
			zap.Error(err),
			zap.Duration("latency", time.Since(start)))
		return "", fmt.Errorf("generate reply: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate reply: empty response")
	}

	c.logger.Debug("LLM completion",
		zap.Duration("latency", time.Since(start)),
		zap.Int("tokens", resp.Usage.TotalTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Translate renders English text into simple Hindi. On any failure the
// original text is returned so a translation outage never loses a reply.
func (c *Client) Translate(ctx context.Context, text string) string {
	if text == "" {
		return text
	}

	prompt := "Translate the following into natural, simple Hindi (keep formatting):\n\n" + text
	translated, err := c.Generate(ctx, prompt, 0)
	if err != nil || translated == "" {
		c.logger.Warn("translation failed, sending English", zap.Error(err))
		return text
	}
	return translated
}
