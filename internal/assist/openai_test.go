package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	t.Run("tagged lines", func(t *testing.T) {
		content := `Here are some ideas:
1. [CONTINUATION]: The wind picked up as night fell.
2. [IMPROVEMENT]: Replace "very big" with "enormous".
3. [STRUCTURE]: Move the dialogue into its own paragraph.
4. [CONTINUATION]: ignored fourth line`

		assert.Equal(t, []Suggestion{
			{Type: TypeContinuation, Text: "The wind picked up as night fell."},
			{Type: TypeImprovement, Text: `Replace "very big" with "enormous".`},
			{Type: TypeStructure, Text: "Move the dialogue into its own paragraph."},
		}, parseSuggestions(content))
	})

	t.Run("untagged lines become general", func(t *testing.T) {
		assert.Equal(t, []Suggestion{
			{Type: TypeGeneral, Text: "Describe the setting."},
		}, parseSuggestions("1. Describe the setting."))
	})

	t.Run("missing colon after tag", func(t *testing.T) {
		assert.Equal(t, []Suggestion{
			{Type: TypeContinuation, Text: "She opened the door."},
		}, parseSuggestions("1. [CONTINUATION] She opened the door."))
	})

	t.Run("nothing parseable", func(t *testing.T) {
		assert.Equal(t, []Suggestion{
			{Type: TypeGeneral, Text: fallbackSuggestionText},
		}, parseSuggestions("I cannot help with that."))
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("without reference context", func(t *testing.T) {
		prompt := buildPrompt("Winter", "Snow fell.", "")
		assert.Contains(t, prompt, `Title/Topic: "Winter"`)
		assert.Contains(t, prompt, "Current Text:\nSnow fell.")
		assert.NotContains(t, prompt, "Reference Context")
	})

	t.Run("truncates long reference context", func(t *testing.T) {
		prompt := buildPrompt("Winter", "", strings.Repeat("a", referenceContextLimit+50))
		assert.Contains(t, prompt, strings.Repeat("a", referenceContextLimit)+"...")
		assert.NotContains(t, prompt, strings.Repeat("a", referenceContextLimit+1))
	})
}

func TestOpenAIClient_Suggest(t *testing.T) {
	var received struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "1. [IMPROVEMENT]: Cut the adverbs.\n2. [CONTINUATION]: He waited."}
			}]
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIClientConfig{
		APIKey:           "sk-test",
		Model:            "gpt-4o-mini",
		BaseURL:          server.URL + "/v1",
		ReferenceContext: "notes about the harbor",
	})

	suggestions, err := client.Suggest(context.Background(), Request{Title: "Harbor", Text: "The boat left."})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", received.Model)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "user", received.Messages[0].Role)
	assert.Contains(t, received.Messages[0].Content, "notes about the harbor")
	assert.Contains(t, received.Messages[0].Content, "The boat left.")

	picked, ok := Pick(suggestions)
	require.True(t, ok)
	assert.Equal(t, "He waited.", picked.Text)
}

func TestOpenAIClient_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exhausted", "type": "insufficient_quota"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIClientConfig{APIKey: "sk", Model: "m", BaseURL: server.URL})

	_, err := client.Suggest(context.Background(), Request{Title: "t"})

	var denied *AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "quota exhausted", denied.Reason)
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIClientConfig{APIKey: "sk", Model: "m", BaseURL: server.URL})

	_, err := client.Suggest(context.Background(), Request{Title: "t"})
	require.Error(t, err)

	var denied *AccessDeniedError
	assert.False(t, errors.As(err, &denied))
}
