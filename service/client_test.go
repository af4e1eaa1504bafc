package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codetab/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "test-key", "")
	require.NoError(t, err)
	return c
}

func suggestionsRequest() types.GenerateSuggestionsRequest {
	return types.GenerateSuggestionsRequest{
		FileContext: types.FileContext{
			Filename:            "main.go",
			FileURI:             "file:///main.go",
			LeftFileContent:     "func main() {",
			ProgrammingLanguage: types.ProgrammingLanguage{LanguageName: "go"},
		},
		MaxResults: 1,
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("CODETAB_API_TOKEN", "")
	_, err := NewClient("http://localhost", "", "")
	assert.Error(t, err)

	t.Setenv("CODETAB_API_TOKEN", "from-env")
	c, err := NewClient("http://localhost", "", "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.APIKey)

	t.Setenv("OTHER_TOKEN", "other")
	c, err = NewClient("http://localhost", "", "OTHER_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "other", c.APIKey)
}

func TestGenerateSuggestions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultSuggestionsPath, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req types.GenerateSuggestionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "main.go", req.FileContext.Filename)

		w.Header().Set("X-Request-Id", "req-1")
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId": "svc-session-1",
			"suggestions": []map[string]any{
				{"itemId": "item-1", "content": "fmt.Println()"},
			},
			"nextToken": "page-2",
		})
	})

	resp, err := client.GenerateSuggestions(context.Background(), suggestionsRequest())
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "item-1", resp.Suggestions[0].ItemID)
	assert.Equal(t, types.SuggestionTypeCompletion, resp.SuggestionType)
	assert.Equal(t, "svc-session-1", resp.ResponseContext.ServiceSessionID)
	assert.Equal(t, "req-1", resp.ResponseContext.RequestID)
	assert.Equal(t, "page-2", resp.ResponseContext.NextToken)
}

func TestGenerateSuggestionsBrotliResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		defer bw.Close()
		json.NewEncoder(bw).Encode(map[string]any{
			"sessionId":      "svc-session-2",
			"suggestionType": "EDIT",
			"suggestions":    []map[string]any{{"itemId": "item-1", "content": "-a\n+b"}},
		})
	})

	resp, err := client.GenerateSuggestions(context.Background(), suggestionsRequest())
	require.NoError(t, err)
	assert.Equal(t, types.SuggestionTypeEdit, resp.SuggestionType)
	require.Len(t, resp.Suggestions, 1)
}

func TestGenerateSuggestionsAuthFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GenerateSuggestions(context.Background(), suggestionsRequest())
	require.Error(t, err)
	assert.True(t, IsConnectionExpired(err))
	assert.Equal(t, "CredentialsExpired", ReasonForError(err))
}

func TestGenerateSuggestionsServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "ValidationException", "message": "bad request"},
		})
	})

	_, err := client.GenerateSuggestions(context.Background(), suggestionsRequest())
	require.Error(t, err)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "ValidationException", serviceErr.Code)
	assert.Equal(t, "ValidationException", ReasonForError(err))
}

func TestReasonForError(t *testing.T) {
	assert.Equal(t, "", ReasonForError(nil))
	assert.Equal(t, "Throttling", ReasonForError(&ServiceError{StatusCode: 429}))
	assert.Equal(t, "ServiceUnavailable", ReasonForError(&ServiceError{StatusCode: 503}))
	assert.Equal(t, "Cancelled", ReasonForError(context.Canceled))
	assert.Equal(t, "Error", ReasonForError(assert.AnError))
}
