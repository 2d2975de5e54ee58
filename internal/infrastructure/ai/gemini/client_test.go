package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"github.com/riskibarqy/career-coach/internal/usecase"
	"github.com/stretchr/testify/require"
)

const insightJSON = `{
  "salaryRanges": [{"role": "Backend Engineer", "min": 90000, "max": 170000, "median": 125000, "location": "Remote"}],
  "growthRate": 8.2,
  "demandLevel": "high",
  "topSkills": ["Go", " Kubernetes ", ""],
  "marketOutlook": "POSITIVE",
  "keyTrends": ["AI tooling"],
  "recommendedSkills": ["Observability"]
}`

func geminiServer(t *testing.T, text string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "key-123" {
			t.Errorf("unexpected api key: %s", got)
		}

		var req generateRequest
		if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || !strings.Contains(req.Contents[0].Parts[0].Text, "tech-software industry") {
			t.Errorf("unexpected prompt: %+v", req.Contents)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("unexpected mime type: %s", req.GenerationConfig.ResponseMimeType)
		}

		_ = jsoniter.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		})
	}))
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.Client(), Config{
		BaseURL: srv.URL,
		APIKey:  "key-123",
		Model:   "gemini-test",
	}, logging.NewNop())
}

func TestClientGenerate_ParsesContent(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, insightJSON)
	defer srv.Close()

	content, err := newTestClient(srv).Generate(context.Background(), "tech-software")
	require.NoError(t, err)
	require.Equal(t, insight.DemandHigh, content.DemandLevel)
	require.Equal(t, insight.OutlookPositive, content.MarketOutlook)
	require.Equal(t, []string{"Go", "Kubernetes"}, content.TopSkills)
	require.Len(t, content.SalaryRanges, 1)
	require.Equal(t, 125000.0, content.SalaryRanges[0].Median)
	require.InDelta(t, 8.2, content.GrowthRate, 0.0001)
}

func TestClientGenerate_StripsCodeFence(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, "```json\n"+insightJSON+"\n```")
	defer srv.Close()

	content, err := newTestClient(srv).Generate(context.Background(), "tech-software")
	require.NoError(t, err)
	require.Equal(t, insight.DemandHigh, content.DemandLevel)
}

func TestClientGenerate_MalformedContent(t *testing.T) {
	t.Parallel()

	for name, text := range map[string]string{
		"not json":        "Sure! Here are your insights.",
		"unknown outlook": strings.Replace(insightJSON, "POSITIVE", "BULLISH", 1),
	} {
		text := text
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := geminiServer(t, text)
			defer srv.Close()

			_, err := newTestClient(srv).Generate(context.Background(), "tech-software")
			require.True(t, errors.Is(err, usecase.ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestClientGenerate_UpstreamFailureTripsBreaker(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{
		BaseURL:        srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, logging.NewNop())

	_, err := client.Generate(context.Background(), "finance")
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	_, err = client.Generate(context.Background(), "finance")
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	require.Equal(t, 1, calls)
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	require.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
