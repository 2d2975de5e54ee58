package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"github.com/riskibarqy/career-coach/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

var errGeminiTransient = crerr.New("gemini transient failure")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client generates industry insights with the Gemini generateContent API.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	temperature float64
	breaker     *resilience.CircuitBreaker
	logger      *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		// Callers bound each generation with their own deadline.
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.4
	}

	return &Client{
		httpClient:  httpClient,
		endpoint:    baseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent",
		apiKey:      strings.TrimSpace(cfg.APIKey),
		temperature: temperature,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		logger:      logger,
	}
}

func (c *Client) Generate(ctx context.Context, industry string) (insight.Content, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return insight.Content{}, fmt.Errorf("%w: industry is required", usecase.ErrInvalidInput)
	}

	var content insight.Content
	err := c.breaker.Execute(func() error {
		var callErr error
		content, callErr = c.generate(ctx, industry)
		return callErr
	}, isCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "gemini circuit breaker rejected request", "state", c.breaker.State())
		return insight.Content{}, fmt.Errorf("%w: gemini circuit open: %w", usecase.ErrDependencyUnavailable, err)
	}
	if err != nil {
		return insight.Content{}, err
	}
	return content, nil
}

func (c *Client) generate(ctx context.Context, industry string) (insight.Content, error) {
	prompt := bytebufferpool.Get()
	defer bytebufferpool.Put(prompt)
	writePrompt(prompt, industry)

	payload, err := sonic.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []part{{Text: prompt.String()}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      c.temperature,
		},
	})
	if err != nil {
		return insight.Content{}, crerr.Wrap(err, "marshal gemini request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return insight.Content{}, crerr.Wrap(err, "create gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return insight.Content{}, crerr.Wrap(ctxErr, "request gemini")
		}
		return insight.Content{}, transient(crerr.Wrapf(usecase.ErrDependencyUnavailable, "request gemini: %v", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return insight.Content{}, transient(crerr.Wrapf(usecase.ErrDependencyUnavailable, "read gemini response: %v", err))
	}

	if resp.StatusCode/100 != 2 {
		callErr := crerr.Wrapf(usecase.ErrDependencyUnavailable, "gemini status=%d body=%s", resp.StatusCode, truncate(body, 512))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return insight.Content{}, transient(callErr)
		}
		c.logger.ErrorContext(ctx, "gemini rejected request", "status_code", resp.StatusCode)
		return insight.Content{}, callErr
	}

	var decoded generateResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return insight.Content{}, crerr.Wrapf(usecase.ErrMalformedResponse, "decode gemini envelope: %v", err)
	}
	text, ok := decoded.firstText()
	if !ok {
		return insight.Content{}, crerr.Wrapf(usecase.ErrMalformedResponse, "gemini returned no candidates (block reason %q)", decoded.PromptFeedback.BlockReason)
	}

	return parseContent(text)
}

func parseContent(text string) (insight.Content, error) {
	var raw insightPayload
	if err := sonic.UnmarshalString(stripCodeFence(text), &raw); err != nil {
		return insight.Content{}, crerr.Wrapf(usecase.ErrMalformedResponse, "decode insight json: %v", err)
	}

	demand, ok := insight.ParseDemandLevel(raw.DemandLevel)
	if !ok {
		return insight.Content{}, crerr.Wrapf(usecase.ErrMalformedResponse, "unknown demand level %q", raw.DemandLevel)
	}
	outlook, ok := insight.ParseMarketOutlook(raw.MarketOutlook)
	if !ok {
		return insight.Content{}, crerr.Wrapf(usecase.ErrMalformedResponse, "unknown market outlook %q", raw.MarketOutlook)
	}

	ranges := make([]insight.SalaryRange, 0, len(raw.SalaryRanges))
	for _, r := range raw.SalaryRanges {
		ranges = append(ranges, insight.SalaryRange{
			Role:     strings.TrimSpace(r.Role),
			Min:      r.Min,
			Max:      r.Max,
			Median:   r.Median,
			Location: strings.TrimSpace(r.Location),
		})
	}

	return insight.Content{
		SalaryRanges:      ranges,
		GrowthRate:        raw.GrowthRate,
		DemandLevel:       demand,
		TopSkills:         cleanList(raw.TopSkills),
		MarketOutlook:     outlook,
		KeyTrends:         cleanList(raw.KeyTrends),
		RecommendedSkills: cleanList(raw.RecommendedSkills),
	}, nil
}

func writePrompt(buf *bytebufferpool.ByteBuffer, industry string) {
	_, _ = buf.WriteString("Analyze the current state of the ")
	_, _ = buf.WriteString(industry)
	_, _ = buf.WriteString(" industry and provide insights in ONLY the following JSON format without any additional notes or explanations:\n")
	_, _ = buf.WriteString(`{
  "salaryRanges": [
    { "role": "string", "min": number, "max": number, "median": number, "location": "string" }
  ],
  "growthRate": number,
  "demandLevel": "HIGH" | "MEDIUM" | "LOW",
  "topSkills": ["skill1", "skill2"],
  "marketOutlook": "POSITIVE" | "NEUTRAL" | "NEGATIVE",
  "keyTrends": ["trend1", "trend2"],
  "recommendedSkills": ["skill1", "skill2"]
}
`)
	_, _ = buf.WriteString("Return ONLY the JSON. Include at least 5 common roles for salary ranges, growth rate as a percentage, and at least 5 skills and trends.")
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the language tag on the opening fence.
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func transient(err error) error {
	return crerr.Mark(err, errGeminiTransient)
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errGeminiTransient)
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
