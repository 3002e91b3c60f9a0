package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Suggest(t *testing.T) {
	var received Request
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "suggestions": [
			{"type": "improvement", "text": "Use a stronger verb."},
			{"type": "continuation", "text": "The storm rolled in."}
		]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL, Token: "tok"})
	id := "doc-1"

	suggestions, err := client.Suggest(context.Background(), Request{Title: "Storms", Text: "It was dark.", CurrentTextID: &id})
	require.NoError(t, err)

	assert.Equal(t, "Storms", received.Title)
	assert.Equal(t, "It was dark.", received.Text)
	require.NotNil(t, received.CurrentTextID)
	assert.Equal(t, "doc-1", *received.CurrentTextID)
	assert.Equal(t, "Bearer tok", authHeader)

	require.Len(t, suggestions, 2)
	assert.Equal(t, Suggestion{Type: TypeContinuation, Text: "The storm rolled in."}, suggestions[1])
}

func TestHTTPClient_SendsNullTextID(t *testing.T) {
	var raw map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"success": true, "suggestions": []}`))
	}))
	defer server.Close()

	suggestions, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL}).
		Suggest(context.Background(), Request{Title: "t", Text: ""})
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	value, present := raw["current_text_id"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestHTTPClient_AccessDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{
			"error": "Subscription required",
			"subscription_status": "past_due",
			"trial_expired": false,
			"redirect_url": "/billing/pricing"
		}`))
	}))
	defer server.Close()

	_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL}).
		Suggest(context.Background(), Request{Title: "t"})
	require.Error(t, err)

	var denied *AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "past_due", denied.SubscriptionStatus)
	assert.Equal(t, server.URL+"/billing/pricing", denied.RedirectURL)
	assert.Contains(t, denied.Message(), "payment is overdue")
}

func TestHTTPClient_AccessDeniedRedirectResolution(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		redirect string
		want     func(base string) string
	}{
		{"root relative", "/api/suggest", "/pricing", func(base string) string { return base + "/pricing" }},
		{"path relative", "/api/suggest", "pricing", func(base string) string { return base + "/api/pricing" }},
		{"absolute", "/api/suggest", "https://example.com/pricing", func(string) string { return "https://example.com/pricing" }},
		{"empty", "/api/suggest", "", func(string) string { return "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"redirect_url": tt.redirect}))
			}))
			defer server.Close()

			_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL + tt.path}).
				Suggest(context.Background(), Request{Title: "t"})

			var denied *AccessDeniedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, tt.want(server.URL), denied.RedirectURL)
		})
	}
}

func TestHTTPClient_SendsCookie(t *testing.T) {
	var cookieHeader, authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookieHeader = r.Header.Get("Cookie")
		authHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success": true, "suggestions": []}`))
	}))
	defer server.Close()

	_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL, Cookie: "session=abc123"}).
		Suggest(context.Background(), Request{Title: "t", Text: "x"})
	require.NoError(t, err)

	assert.Equal(t, "session=abc123", cookieHeader)
	assert.Empty(t, authHeader)
}

func TestHTTPClient_AccessDeniedWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL}).
		Suggest(context.Background(), Request{Title: "t"})

	var denied *AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Empty(t, denied.SubscriptionStatus)
}

func TestHTTPClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"server error json", http.StatusInternalServerError, `{"error": "Failed to generate suggestions"}`, "Failed to generate suggestions"},
		{"bad request text", http.StatusBadRequest, "Title is required", "Title is required"},
		{"undecodable body", http.StatusOK, "<html>", "failed to decode"},
		{"success false", http.StatusOK, `{"success": false, "error": "quota"}`, "quota"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL}).
				Suggest(context.Background(), Request{Title: "t"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var denied *AccessDeniedError
			assert.False(t, errors.As(err, &denied))
		})
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(HTTPClientConfig{Endpoint: server.URL}).Suggest(ctx, Request{Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
