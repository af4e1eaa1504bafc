package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"

	"codetab/logger"
	"codetab/types"
)

const (
	DefaultSuggestionsPath = "/v1/suggestions"
	DefaultAPIKeyEnv       = "CODETAB_API_TOKEN"
)

// Client is the hosted suggestion backend client.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

// NewClient creates a backend client. If apiKey is empty it is read from
// the environment variable named by apiKeyEnv (CODETAB_API_TOKEN when that
// is empty too).
func NewClient(baseURL, apiKey, apiKeyEnv string) (*Client, error) {
	resolvedKey := apiKey
	if resolvedKey == "" {
		envVar := apiKeyEnv
		if envVar == "" {
			envVar = DefaultAPIKeyEnv
		}
		resolvedKey = os.Getenv(envVar)
	}

	if resolvedKey == "" {
		envVar := apiKeyEnv
		if envVar == "" {
			envVar = DefaultAPIKeyEnv
		}
		return nil, fmt.Errorf("API key not found: set %s environment variable or provide api_key in config", envVar)
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL: baseURL,
		APIKey:  resolvedKey,
	}, nil
}

// wireResponse is the backend's JSON shape for a suggestions response.
type wireResponse struct {
	Suggestions    []types.Suggestion   `json:"suggestions"`
	SuggestionType types.SuggestionType `json:"suggestionType,omitempty"`
	SessionID      string               `json:"sessionId,omitempty"`
	NextToken      string               `json:"nextToken,omitempty"`
	Error          *wireError           `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenerateSuggestions implements SuggestionService against the hosted API.
func (c *Client) GenerateSuggestions(ctx context.Context, req types.GenerateSuggestionsRequest) (*types.GenerateSuggestionsResponse, error) {
	defer logger.Trace("service.GenerateSuggestions")()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+DefaultSuggestionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", "br")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	logger.Debug("suggestions request: URL=%s, file=%s, maxResults=%d",
		c.BaseURL+DefaultSuggestionsPath, req.FileContext.Filename, req.MaxResults)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "br" {
		reader = brotli.NewReader(resp.Body)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &ConnectionExpiredError{Message: fmt.Sprintf("authentication failed with status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(reader, 4096))
		serviceErr := &ServiceError{StatusCode: resp.StatusCode, Message: string(raw)}
		var wire wireResponse
		if json.Unmarshal(raw, &wire) == nil && wire.Error != nil {
			serviceErr.Code = wire.Error.Code
			serviceErr.Message = wire.Error.Message
		}
		return nil, serviceErr
	}

	var wire wireResponse
	if err := json.NewDecoder(reader).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	suggestionType := wire.SuggestionType
	if suggestionType == "" {
		suggestionType = types.SuggestionTypeCompletion
	}

	logger.Debug("suggestions response: session=%s, count=%d, requestId=%s",
		wire.SessionID, len(wire.Suggestions), resp.Header.Get("X-Request-Id"))

	return &types.GenerateSuggestionsResponse{
		Suggestions:    wire.Suggestions,
		SuggestionType: suggestionType,
		ResponseContext: types.ResponseContext{
			RequestID:        resp.Header.Get("X-Request-Id"),
			ServiceSessionID: wire.SessionID,
			NextToken:        wire.NextToken,
		},
	}, nil
}
