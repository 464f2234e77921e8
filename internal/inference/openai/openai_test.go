package openai

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
	"github.com/vbonduro/flipcheck/internal/inference"
)

type capturedPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, captured *capturedRequest, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}

func TestCompleteWithImage(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, &captured, "Nike hoodie, good condition")
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL)
	text, err := client.Complete(context.Background(), inference.AnalyzeImageRequest([]byte{0xFF, 0xD8}, "image/jpeg"))

	require.NoError(t, err)
	assert.Equal(t, "Nike hoodie, good condition", text)
	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 700, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)

	var parts []capturedPart
	require.NoError(t, json.Unmarshal(captured.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, inference.ImageLabel, parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", parts[1].ImageURL.URL)
}

func TestCompleteTextOnly(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, &captured, "Title: Nike hoodie / Desc: cosy")
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL+"/")
	text, err := client.Complete(context.Background(), inference.ListingRequest("Nike hoodie, good condition"))

	require.NoError(t, err)
	assert.Equal(t, "Title: Nike hoodie / Desc: cosy", text)
	assert.Equal(t, 300, captured.MaxTokens)

	var content string
	require.NoError(t, json.Unmarshal(captured.Messages[1].Content, &content))
	assert.Equal(t, "Nike hoodie, good condition", content)
}

func TestCompleteEmptyCompletion(t *testing.T) {
	server := newTestServer(t, nil, "   ")
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL)
	_, err := client.Complete(context.Background(), inference.ListingRequest("x"))

	var infErr *inference.Error
	require.True(t, errors.As(err, &infErr))
	assert.Equal(t, "openai", infErr.Op)
	assert.ErrorContains(t, err, "empty completion")
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL)
	_, err := client.Complete(context.Background(), inference.ListingRequest("x"))

	require.Error(t, err)
	var infErr *inference.Error
	assert.True(t, errors.As(err, &infErr))
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL)
	_, err := client.Complete(context.Background(), inference.ListingRequest("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient("sk-test", "gpt-4o", server.URL)
	_, err := client.Complete(context.Background(), inference.ListingRequest("x"))

	var infErr *inference.Error
	require.True(t, errors.As(err, &infErr))
	assert.True(t, strings.HasPrefix(err.Error(), "inference: openai:"))
}

func TestCompleteNetworkError(t *testing.T) {
	client := NewClient("sk-test", "gpt-4o", "http://localhost:99999")
	_, err := client.Complete(context.Background(), inference.ListingRequest("x"))

	var infErr *inference.Error
	assert.True(t, errors.As(err, &infErr))
}
