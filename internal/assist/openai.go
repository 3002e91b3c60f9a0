package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// referenceContextLimit caps the reference context included in prompts.
	referenceContextLimit = 8000

	// maxSuggestions is the number of suggestions kept from a model reply.
	maxSuggestions = 3

	fallbackSuggestionText = "Continue writing by expanding on your current ideas."
)

// chatCompleter is the subset of the go-openai client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient produces suggestions by prompting an OpenAI-compatible chat
// model directly, without a hosted suggestion endpoint.
type OpenAIClient struct {
	client           chatCompleter
	model            string
	referenceContext string
	logger           *zap.Logger
}

// OpenAIClientConfig holds configuration for creating an OpenAIClient.
type OpenAIClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// ReferenceContext is extra material (notes, source documents) the model
	// may draw on. It is truncated to 8000 characters.
	ReferenceContext string

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewOpenAIClient creates a new OpenAIClient with the given configuration.
func NewOpenAIClient(cfg OpenAIClientConfig) *OpenAIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:           openai.NewClientWithConfig(clientConfig),
		model:            cfg.Model,
		referenceContext: cfg.ReferenceContext,
		logger:           logger,
	}
}

// Suggest implements Completer.
func (c *OpenAIClient) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	prompt := buildPrompt(req.Title, req.Text, c.referenceContext)

	c.logger.Debug("openai suggestion request", zap.String("model", c.model), zap.String("prompt", prompt))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   1000,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 403 {
			return nil, &AccessDeniedError{Reason: apiErr.Message}
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("openai suggestion response", zap.String("content", content))

	return parseSuggestions(content), nil
}

func buildPrompt(title, currentText, referenceContext string) string {
	var b strings.Builder

	b.WriteString("You are a helpful writing assistant. Help the user continue their writing.\n\n")
	fmt.Fprintf(&b, "Title/Topic: %q\n\n", title)

	if referenceContext != "" {
		runes := []rune(referenceContext)
		if len(runes) > referenceContextLimit {
			referenceContext = string(runes[:referenceContextLimit]) + "..."
		}
		fmt.Fprintf(&b, "Reference Context (from uploaded documents):\n%s\n\n", referenceContext)
	}

	fmt.Fprintf(&b, `Current Text:
%s

Please provide 3 helpful writing suggestions. Each suggestion should be one of these types:
1. CONTINUATION - How to continue writing the next sentence/paragraph
2. IMPROVEMENT - How to improve existing text
3. STRUCTURE - Suggestions about organization or flow

Format your response as:
1. [TYPE]: Suggestion text here
2. [TYPE]: Suggestion text here
3. [TYPE]: Suggestion text here

Keep suggestions concise and actionable.`, currentText)

	return b.String()
}

var suggestionTags = []struct {
	tag  string
	kind string
}{
	{"[CONTINUATION]", TypeContinuation},
	{"[IMPROVEMENT]", TypeImprovement},
	{"[STRUCTURE]", TypeStructure},
}

// parseSuggestions reads "N. [TYPE]: text" lines from a model reply.
// Lines numbered 1 to 3 are considered; untagged ones become general
// suggestions. A reply with no usable lines yields one fallback suggestion.
func parseSuggestions(content string) []Suggestion {
	var suggestions []Suggestion

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if !isNumberedLine(line) {
			continue
		}

		suggestion, ok := parseSuggestionLine(line)
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return []Suggestion{{Type: TypeGeneral, Text: fallbackSuggestionText}}
	}

	return suggestions
}

func isNumberedLine(line string) bool {
	return strings.HasPrefix(line, "1.") || strings.HasPrefix(line, "2.") || strings.HasPrefix(line, "3.")
}

func parseSuggestionLine(line string) (Suggestion, bool) {
	for _, t := range suggestionTags {
		if idx := strings.Index(line, t.tag); idx >= 0 {
			text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[idx+len(t.tag):]), ":"))
			if text == "" {
				return Suggestion{}, false
			}
			return Suggestion{Type: t.kind, Text: text}, true
		}
	}

	_, text, _ := strings.Cut(line, ".")
	text = strings.TrimSpace(text)
	if text == "" {
		return Suggestion{}, false
	}
	return Suggestion{Type: TypeGeneral, Text: text}, true
}
