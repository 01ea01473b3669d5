package sentiment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, nil)
}

func TestAnalyze_Success(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		gotPrompt = string(raw)
		w.Write(geminiReply(t, `{"results":[{"id":"e1","sentiment_score":8.5,"comment":"Loved it."},{"id":"e2","sentiment_score":3,"comment":"Meh."}]}`))
	}))
	defer srv.Close()

	restaurant := "Noodle Bar"
	res, err := newTestClient(srv.URL).Analyze(context.Background(), []Item{
		{ID: "e1", Title: "Ramen", Restaurant: &restaurant, Reviews: []string{"rich broth"}},
		{ID: "e2", Title: "Gyoza"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotPrompt, "rich broth")
	assert.Equal(t, Result{Score: 8.5, Comment: "Loved it."}, res["e1"])
	assert.Equal(t, 3.0, res["e2"].Score)
}

func TestAnalyze_StripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply(t, "```json\n{\"results\":[{\"id\":\"e1\",\"sentiment_score\":6,\"comment\":\"ok\"}]}\n```"))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Analyze(context.Background(), []Item{{ID: "e1", Title: "Tacos"}})
	require.NoError(t, err)
	assert.Equal(t, 6.0, res["e1"].Score)
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed envelope", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) }},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"candidates":[]}`)) }},
		{"malformed results", func(w http.ResponseWriter, r *http.Request) { w.Write(geminiReply(t, "sorry, I can't")) }},
		{"empty results", func(w http.ResponseWriter, r *http.Request) { w.Write(geminiReply(t, `{"results":[]}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Analyze(context.Background(), []Item{{ID: "e1", Title: "Pho"}})
			assert.Error(t, err)
		})
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Analyze(context.Background(), []Item{{ID: "e1", Title: "Pho"}})
	assert.Error(t, err)
}

func TestAnalyze_Disabled(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused", Model: "m"}, nil)
	_, err := c.Analyze(context.Background(), []Item{{ID: "e1"}})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestBuildPrompt(t *testing.T) {
	p, err := buildPrompt([]Item{{ID: "abc", Title: "Bao", Answers: []string{"too sweet"}}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(p, `"id": "abc"`))
	assert.Contains(t, p, "too sweet")
}
