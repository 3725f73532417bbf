package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

func newOpenAIServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(t *testing.T, srv *httptest.Server) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestOpenAIStructuredRequestBody(t *testing.T) {
	var seen map[string]interface{}
	srv := newOpenAIServer(t, http.StatusOK, `{
		"id": "resp_1", "model": "gpt-4.1-mini", "status": "completed",
		"output": [{"type": "message", "content": [{"type": "json", "json": {"hero": {}}}]}],
		"usage": {"input_tokens": 10, "output_tokens": 5, "total_tokens": 15}
	}`, &seen)
	p := newTestOpenAI(t, srv)

	doc := &schema.Document{Name: "MaxReachSiteContent", Tree: map[string]interface{}{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     "x",
		"type":    "object",
	}}
	resp, err := p.GenerateStructured(context.Background(), "prompt", doc)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1-mini", seen["model"])
	assert.Equal(t, "prompt", seen["input"])
	format := seen["text"].(map[string]interface{})["format"].(map[string]interface{})
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "MaxReachSiteContent", format["name"])
	assert.Equal(t, true, format["strict"])
	sent := format["schema"].(map[string]interface{})
	assert.NotContains(t, sent, "$schema")
	assert.NotContains(t, sent, "$id")
	assert.Equal(t, "object", sent["type"])

	assert.Equal(t, "resp_1", resp.ID)
	assert.JSONEq(t, `{"hero":{}}`, string(resp.JSON))
	assert.Equal(t, 1, resp.OutputItems)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Empty(t, resp.OutputText)
}

func TestOpenAITextConcatenatesOutputText(t *testing.T) {
	var seen map[string]interface{}
	srv := newOpenAIServer(t, http.StatusOK, `{
		"id": "resp_2", "status": "completed",
		"output": [
			{"type": "reasoning", "content": []},
			{"type": "message", "content": [
				{"type": "output_text", "text": "{\"a\":"},
				{"type": "output_text", "text": "1}"}
			]}
		]
	}`, &seen)
	p := newTestOpenAI(t, srv)

	resp, err := p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.NotContains(t, seen, "text")
	assert.Equal(t, `{"a":1}`, resp.OutputText)
	assert.Nil(t, resp.JSON)
	assert.Equal(t, 2, resp.OutputItems)
}

func TestOpenAIPrefersTopLevelOutputText(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK, `{
		"output_text": "top",
		"output": [{"type": "message", "content": [{"type": "output_text", "text": "nested"}]}]
	}`, nil)
	p := newTestOpenAI(t, srv)

	resp, err := p.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "top", resp.OutputText)
}

func TestOpenAIAPIError(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusBadRequest, `{"error": {"message": "Invalid schema for response_format"}}`, nil)
	p := newTestOpenAI(t, srv)

	_, err := p.GenerateText(context.Background(), "prompt")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid schema for response_format", apiErr.Message)
}

func TestOpenAIStructuredNeedsSchema(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIOptions{APIKey: "sk-test"})
	require.NoError(t, err)
	_, err = p.GenerateStructured(context.Background(), "prompt", nil)
	assert.Error(t, err)
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
