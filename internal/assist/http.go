package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4096

// HTTPClient calls the hosted suggestion endpoint.
type HTTPClient struct {
	endpoint   string
	token      string
	cookie     string
	httpClient *http.Client
	logger     *zap.Logger
}

// HTTPClientConfig holds configuration for creating an HTTPClient.
type HTTPClientConfig struct {
	// Endpoint is the full URL of the suggestion endpoint.
	Endpoint string

	// Token, if set, is sent as a bearer token.
	Token string

	// Cookie, if set, is sent verbatim as the Cookie header. Hosted
	// endpoints that authenticate by session cookie need it.
	Cookie string

	// HTTPClient is the client used for requests. If nil, a default client is used.
	HTTPClient *http.Client

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewHTTPClient creates a new HTTPClient with the given configuration.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &HTTPClient{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		cookie:     cfg.Cookie,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Suggest implements Completer.
func (c *HTTPClient) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggestion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != "" {
		httpReq.Header.Set("Cookie", c.cookie)
	}

	c.logger.Debug("suggestion request",
		zap.String("endpoint", c.endpoint),
		zap.Int("titleLength", len(req.Title)),
		zap.Int("textLength", len(req.Text)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		denied := &AccessDeniedError{}
		if err := json.NewDecoder(resp.Body).Decode(denied); err != nil {
			c.logger.Debug("failed to decode access denied body", zap.Error(err))
		}
		denied.RedirectURL = c.resolveRedirect(denied.RedirectURL)
		return nil, denied
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("suggestion endpoint returned %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion response: %w", err)
	}

	if !result.Success {
		if result.Error != "" {
			return nil, fmt.Errorf("suggestion endpoint reported failure: %s", result.Error)
		}
		return nil, fmt.Errorf("suggestion endpoint reported failure")
	}

	c.logger.Debug("suggestion response", zap.Int("count", len(result.Suggestions)))

	return result.Suggestions, nil
}

// resolveRedirect turns a redirect path relative to the endpoint into an
// absolute URL that a browser can open. Absolute and unparsable values are
// returned unchanged.
func (c *HTTPClient) resolveRedirect(redirect string) string {
	if redirect == "" {
		return ""
	}
	ref, err := url.Parse(redirect)
	if err != nil || ref.IsAbs() {
		return redirect
	}
	base, err := url.Parse(c.endpoint)
	if err != nil || !base.IsAbs() {
		return redirect
	}
	return base.ResolveReference(ref).String()
}

// readErrorMessage extracts the "error" field of a JSON error body, or the
// raw text when the body is not JSON.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return "no response body"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	return strings.TrimSpace(string(data))
}
