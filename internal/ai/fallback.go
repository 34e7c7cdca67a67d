// Package ai holds the confidence gate and the model-backed fallback
// parser used when structural extraction leaves too many leaves null.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"bankrates/internal/ratetree"
)

// Parser extracts a rate tree from raw document text. Implementations may
// call out to an external model; callers must treat any error as non-fatal
// and proceed without an AI contribution.
type Parser interface {
	Parse(ctx context.Context, raw string, schema ratetree.Tree) (ratetree.Tree, error)
}

// ErrEmptyResponse is returned when the model produced no usable content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// maxPromptChars bounds how much raw document text goes into the prompt.
const maxPromptChars = 4000

// defaultTimeout bounds a single completion call when no timeout is
// configured. The model call sits inside GetRates, so it must never hang.
const defaultTimeout = 60 * time.Second

const systemPrompt = "You are an expert at extracting structured financial data " +
	"from Icelandic bank documents. Always respond with valid JSON only, no additional text."

// Options configure the OpenRouter-backed fallback parser.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenRouterParser sends the raw text plus a JSON rendering of the target
// schema to a chat-completion model and conforms whatever comes back.
type OpenRouterParser struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenRouterParser constructs a fallback parser against an
// OpenAI-compatible endpoint. Every completion call carries the configured
// timeout so a stalled endpoint cannot block a refresh indefinitely.
func NewOpenRouterParser(opts Options, logger zerolog.Logger) *OpenRouterParser {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenRouterParser{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
		logger: logger.With().Str("component", "ai_parser").Logger(),
	}
}

// Parse asks the model for a rate tree shaped like schema. The result is
// conformed to the schema, so extra keys and malformed leaves from the
// model cannot leak into the pipeline.
func (p *OpenRouterParser) Parse(ctx context.Context, raw string, schema ratetree.Tree) (ratetree.Tree, error) {
	prompt, err := buildPrompt(raw, schema)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.1,
		MaxTokens:   2000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	content := StripFences(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	var parsed ratetree.Tree
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	data := parsed.Conform(schema)
	p.logger.Debug().
		Int("null_leaves", data.NullLeaves()).
		Int("leaves", data.Leaves()).
		Msg("model response conformed to schema")
	return data, nil
}

func buildPrompt(raw string, schema ratetree.Tree) (string, error) {
	shape, err := json.MarshalIndent(schema.Shape(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	if len(raw) > maxPromptChars {
		raw = raw[:maxPromptChars]
	}

	var b strings.Builder
	b.WriteString("Extract interest rate data from this Icelandic bank document.\n\nRAW TEXT:\n")
	b.WriteString(raw)
	b.WriteString("\n\nReturn ONLY valid JSON in this exact structure. ")
	b.WriteString("Use null for any value you cannot find, never omit a field:\n\n")
	b.Write(shape)
	return b.String(), nil
}

// StripFences removes a markdown code fence around the model's JSON, with
// or without a language tag.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
	} else {
		return content
	}
	if end := strings.Index(content, "```"); end >= 0 {
		content = content[:end]
	}
	return strings.TrimSpace(content)
}

var _ Parser = (*OpenRouterParser)(nil)
