// Package advisor talks to an OpenAI-compatible chat completion API for the chat assistant,
// advice generation from patient notes, and note formatting.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/metrics"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("language model API key not configured")

const (
	sampleRows = 10
	maxAdvice  = 6
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures the client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Advisor is a thin client over the chat completion endpoint. It never retries.
type Advisor struct {
	client *openai.Client
	model  string
}

// New returns an advisor. Without an API key every call fails with ErrNoAPIKey.
func New(cfg Config) *Advisor {
	if cfg.APIKey == "" {
		return &Advisor{model: cfg.Model}
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Advisor{client: openai.NewClientWithConfig(oc), model: model}
}

// Enabled reports whether an API key was configured.
func (a *Advisor) Enabled() bool {
	return a.client != nil
}

func (a *Advisor) complete(ctx context.Context, op string, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	if a.client == nil {
		return "", ErrNoAPIKey
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("empty completion")
	}
	metrics.ObserveLLM(op, start, err)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", op, err)
	}

	logging.Debug("Language model call completed",
		"operation", op,
		"duration", time.Since(start),
		"total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// Chat answers the conversation, grounding the model with the first rows of the catalog.
// On failure it returns the Apology message together with the cause.
func (a *Advisor) Chat(ctx context.Context, history []Message, ds *entities.Dataset) (Message, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(chatSystemPrompt, sampleContext(ds))},
	}
	for _, m := range history {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	content, err := a.complete(ctx, "chat", messages, 0.7, 800)
	if err != nil {
		return Message{Role: openai.ChatMessageRoleAssistant, Content: Apology}, err
	}
	return Message{Role: openai.ChatMessageRoleAssistant, Content: content}, nil
}

func sampleContext(ds *entities.Dataset) string {
	sample := ds.Sample(sampleRows)
	if len(sample) == 0 {
		return ""
	}
	raw, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		logging.Warn("Failed to encode chat sample", "error", err)
		return ""
	}
	return fmt.Sprintf(chatSampleContext, len(sample), raw, ds.Len())
}

// Advice turns patient notes into at most six plain-text advice lines.
// Blank notes make no call and return an empty list.
func (a *Advisor) Advice(ctx context.Context, notes string) ([]string, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return []string{}, nil
	}

	content, err := a.complete(ctx, "advice", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: adviceSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Indicațiile pacientului: \"%s\"", notes)},
	}, 0.7, 500)
	if err != nil {
		return []string{}, err
	}
	return SplitAdvice(content), nil
}

var listPrefix = regexp.MustCompile(`^(?:[-*•·]+|\d+[.)])\s*`)

// SplitAdvice keeps non-empty lines, strips list markers and caps the result.
func SplitAdvice(content string) []string {
	out := []string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(listPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxAdvice {
			break
		}
	}
	return out
}

// FormatNotes rewrites doctor notes as a bullet list.
func (a *Advisor) FormatNotes(ctx context.Context, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return notes, nil
	}
	return a.complete(ctx, "format_notes", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: formatSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Formatează următorul text medical: \"%s\"", notes)},
	}, 0.3, 800)
}
