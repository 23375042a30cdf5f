// Package chat forwards encouragement requests to an OpenAI-compatible
// chat completions API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"bunnyfocus/internal/catalog"
)

// MaxMessageLength caps user input forwarded upstream, in bytes.
const MaxMessageLength = 2000

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message too long")
	ErrNoReply        = errors.New("model returned no reply")
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Proxy is a single-shot chat client. Failed calls are not retried.
type Proxy struct {
	client openai.Client
	model  string
}

func New(cfg Config) *Proxy {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Proxy{client: openai.NewClient(opts...), model: model}
}

// Ask sends message with the catalog as context and returns the model's reply.
func (p *Proxy) Ask(ctx context.Context, message string, items []catalog.Item) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if len(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(items)),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrNoReply
	}
	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrNoReply
	}
	return reply, nil
}

// SystemPrompt describes the assistant's role and lists the collectible
// bunnies so questions about them can be answered.
func SystemPrompt(items []catalog.Item) string {
	var b strings.Builder
	b.WriteString("You are a gentle, upbeat focus companion in a pomodoro app. ")
	b.WriteString("Keep answers short and encouraging. Users earn collectible bunnies by keeping a daily focus streak.\n")
	if len(items) == 0 {
		return b.String()
	}
	b.WriteString("Bunnies in the collection:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s): unlocks at a %d-day streak.", item.Name, item.ID, item.UnlockStreak)
		if item.Description != "" {
			b.WriteString(" " + item.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
