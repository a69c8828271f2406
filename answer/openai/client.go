// Package openai implements answer.Synthesizer using the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/creastat/knowledgebot/answer"
	"github.com/creastat/knowledgebot/session"
)

const systemPrompt = "You are a knowledge-base assistant for a group chat. " +
	"Answer using only the provided documents. If the documents do not " +
	"contain the answer, say so instead of guessing."

// Config holds OpenAI chat completion configuration.
type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// Model is the chat model name. Default: gpt-4o-mini.
	Model string

	// Temperature controls sampling. Default: 0.2.
	Temperature float32

	// MaxTokens bounds the generated answer. Default: 500.
	MaxTokens int
}

// Synthesizer implements answer.Synthesizer using OpenAI chat completions.
type Synthesizer struct {
	client *openai.Client
	cfg    Config
}

// New creates a new OpenAI synthesizer.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}

	return &Synthesizer{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
	}, nil
}

// Answer implements answer.Synthesizer.
func (s *Synthesizer) Answer(ctx context.Context, passages []string, query string, history []session.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildPrompt(passages, query),
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildPrompt assembles the grounding prompt from the retrieved passages
// and the user query, most relevant passage first.
func buildPrompt(passages []string, query string) string {
	var b strings.Builder
	b.WriteString("Documents:\n")
	for i, passage := range passages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, passage)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// Compile-time check that Synthesizer implements answer.Synthesizer.
var _ answer.Synthesizer = (*Synthesizer)(nil)
