package narrate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgdatalabs/btopricer/internal/config"
)

var testBands = Bands{Low: 380000, Mid: 425000, High: 470000}

func testLLMConfig() config.LLM {
	return config.LLM{Provider: "openai", Model: "gpt-4o-mini", MaxTokens: 200, Temperature: 0.2}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$425,000", FormatCurrency(425000))
	assert.Equal(t, "$1,234,568", FormatCurrency(1234567.89))
	assert.Equal(t, "$0", FormatCurrency(0))
}

func TestFallbackTextContainsAllValues(t *testing.T) {
	text := FallbackText("BEDOK", "4 ROOM", testBands)

	assert.Contains(t, text, "BEDOK")
	assert.Contains(t, text, "4 ROOM")
	assert.Contains(t, text, "$380,000")
	assert.Contains(t, text, "$425,000")
	assert.Contains(t, text, "$470,000")
}

func TestExplainWithoutCredentialFallsBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	s := NewService(testLLMConfig(), nil)
	text := s.Explain(context.Background(), "BEDOK", "4 ROOM", testBands)

	assert.Equal(t, FallbackText("BEDOK", "4 ROOM", testBands), text)
}

func TestExplainServiceErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	s := NewService(testLLMConfig(), nil)
	text := s.Explain(context.Background(), "TAMPINES", "3 ROOM", testBands)

	assert.Equal(t, FallbackText("TAMPINES", "3 ROOM", testBands), text)
}

func TestExplainUsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Prices in BEDOK are stable."}}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	s := NewService(testLLMConfig(), nil)
	text := s.Explain(context.Background(), "BEDOK", "4 ROOM", testBands)

	assert.Equal(t, "Prices in BEDOK are stable.", text)
}

func TestExplainEmptyCompletionFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	s := NewService(testLLMConfig(), nil)
	text := s.Explain(context.Background(), "BEDOK", "4 ROOM", testBands)

	assert.Equal(t, FallbackText("BEDOK", "4 ROOM", testBands), text)
}
