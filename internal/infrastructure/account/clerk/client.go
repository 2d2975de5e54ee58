package clerk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"github.com/riskibarqy/career-coach/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errClerkTransient = crerr.New("clerk transient failure")

const maxResponseBytes = 1 << 20

type ClientConfig struct {
	BaseURL        string
	SecretKey      string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads accounts from the Clerk backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		logger:     logger,
	}
}

// FetchUser returns the provider profile of externalID. Errors carry one of
// usecase.ErrNotFound, usecase.ErrDependencyUnavailable or
// usecase.ErrMalformedResponse.
func (c *Client) FetchUser(ctx context.Context, externalID string) (user.ExternalProfile, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return user.ExternalProfile{}, fmt.Errorf("%w: external id is required", usecase.ErrInvalidInput)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("clerk.user_id", externalID))
	}

	var profile user.ExternalProfile
	err := c.breaker.Execute(func() error {
		var callErr error
		profile, callErr = c.fetchUser(ctx, externalID)
		return callErr
	}, isCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "clerk circuit breaker rejected request", "state", c.breaker.State())
		return user.ExternalProfile{}, fmt.Errorf("%w: clerk circuit open: %w", usecase.ErrDependencyUnavailable, err)
	}
	if err != nil {
		return user.ExternalProfile{}, err
	}
	return profile, nil
}

func (c *Client) fetchUser(ctx context.Context, externalID string) (user.ExternalProfile, error) {
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return user.ExternalProfile{}, crerr.Wrap(err, "create clerk request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return user.ExternalProfile{}, crerr.Wrap(ctx.Err(), "request clerk user")
		}
		return user.ExternalProfile{}, transient(crerr.Wrapf(usecase.ErrDependencyUnavailable, "request clerk user: %v", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return user.ExternalProfile{}, transient(crerr.Wrapf(usecase.ErrDependencyUnavailable, "read clerk response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return user.ExternalProfile{}, crerr.Wrapf(usecase.ErrNotFound, "clerk user %s", externalID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.ErrorContext(ctx, "clerk rejected service credential", "status_code", resp.StatusCode)
		return user.ExternalProfile{}, crerr.Wrapf(usecase.ErrDependencyUnavailable, "clerk rejected credential status=%d", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		c.logger.WarnContext(ctx, "clerk returned retryable status", "status_code", resp.StatusCode)
		return user.ExternalProfile{}, transient(crerr.Wrapf(usecase.ErrDependencyUnavailable, "clerk status=%d body=%s", resp.StatusCode, truncate(body, 512)))
	default:
		return user.ExternalProfile{}, crerr.Wrapf(usecase.ErrDependencyUnavailable, "clerk unexpected status=%d body=%s", resp.StatusCode, truncate(body, 512))
	}

	var decoded userResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.ExternalProfile{}, crerr.Wrapf(usecase.ErrMalformedResponse, "decode clerk user: %v", err)
	}

	return decoded.toProfile(), nil
}

type userResponse struct {
	ID             string         `json:"id"`
	FirstName      *string        `json:"first_name"`
	ImageURL       *string        `json:"image_url"`
	EmailAddresses []emailAddress `json:"email_addresses"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

func (r userResponse) toProfile() user.ExternalProfile {
	out := user.ExternalProfile{}
	if len(r.EmailAddresses) > 0 {
		out.Email = strings.TrimSpace(r.EmailAddresses[0].EmailAddress)
	}
	if r.FirstName != nil {
		out.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.ImageURL != nil && strings.TrimSpace(*r.ImageURL) != "" {
		v := strings.TrimSpace(*r.ImageURL)
		out.ImageURL = &v
	}
	return out
}
