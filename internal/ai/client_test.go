package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientProviderSelection(t *testing.T) {
	assert.IsType(t, &MockClient{}, NewClient(Options{}, nil))
	assert.IsType(t, &MockClient{}, NewClient(Options{Provider: "gemini"}, nil))
	assert.IsType(t, &GeminiClient{}, NewClient(Options{APIKey: "k"}, nil))
	assert.IsType(t, &MockClient{}, NewClient(Options{Provider: "mock", APIKey: "k"}, nil))
}

func TestMockClientIsStable(t *testing.T) {
	m := NewMockClient()
	req := EstimateRequest{Items: []string{"Milk 1L", "Bread"}, Stores: []string{"Woolworths", "Shoprite"}}

	first, err := m.EstimatePrices(context.Background(), req)
	require.NoError(t, err)
	second, err := m.EstimatePrices(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)
	assert.Greater(t, first[0].Price, first[2].Price, "woolworths should be dearer than shoprite")
}

func TestGeminiEstimatePrices(t *testing.T) {
	var gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var req geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Contents[0].Parts[0].Text, "- Milk 1L")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` +
			"```json\\n{\\\"prices\\\":[{\\\"store\\\":\\\"Spar\\\",\\\"item\\\":\\\"Milk 1L\\\",\\\"price\\\":21.5}]}\\n```" +
			`"}]}}]}`))
	}))
	defer ts.Close()

	g := NewGeminiClient("secret").WithBaseURL(ts.URL).WithModel("test-model")
	prices, err := g.EstimatePrices(context.Background(), EstimateRequest{
		Items:  []string{"Milk 1L"},
		Stores: []string{"Spar"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/test-model:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, []ItemPrice{{Store: "Spar", Item: "Milk 1L", Price: 21.5}}, prices)
}

func TestGeminiAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer ts.Close()

	g := NewGeminiClient("secret").WithBaseURL(ts.URL)
	_, err := g.EstimatePrices(context.Background(), EstimateRequest{Items: []string{"x"}, Stores: []string{"y"}})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(` {"a":1} `))
}
