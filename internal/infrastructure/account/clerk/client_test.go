package clerk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

func newTestClient(srv *httptest.Server, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(srv.Client(), ClientConfig{
		BaseURL:        srv.URL,
		SecretKey:      "sk_test_123",
		CircuitBreaker: breaker,
	}, logging.NewNop())
}

func TestClientFetchUser_SendsSecretAndParsesProfile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/users/user_2abc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected authorization header: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{
			"id":         "user_2abc",
			"first_name": "Ada",
			"image_url":  "https://img.clerk.com/ada.png",
			"email_addresses": []map[string]any{
				{"id": "idn_1", "email_address": "ada@example.com"},
				{"id": "idn_2", "email_address": "other@example.com"},
			},
		})
	}))
	defer srv.Close()

	profile, err := newTestClient(srv, resilience.CircuitBreakerConfig{}).FetchUser(context.Background(), "user_2abc")
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if profile.Email != "ada@example.com" {
		t.Fatalf("unexpected email: %s", profile.Email)
	}
	if profile.FirstName != "Ada" {
		t.Fatalf("unexpected first name: %s", profile.FirstName)
	}
	if profile.ImageURL == nil || *profile.ImageURL != "https://img.clerk.com/ada.png" {
		t.Fatalf("unexpected image url: %v", profile.ImageURL)
	}
}

func TestClientFetchUser_MissingFieldsDefault(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"user_1","first_name":null,"image_url":"","email_addresses":[]}`))
	}))
	defer srv.Close()

	profile, err := newTestClient(srv, resilience.CircuitBreakerConfig{}).FetchUser(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if profile.Email != "" || profile.FirstName != "" || profile.ImageURL != nil {
		t.Fatalf("expected empty defaults, got %+v", profile)
	}
}

func TestClientFetchUser_StatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"errors":[]}`, wantErr: usecase.ErrNotFound},
		{name: "bad credential", status: http.StatusUnauthorized, body: `{}`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "malformed", status: http.StatusOK, body: `{"id":`, wantErr: usecase.ErrMalformedResponse},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv, resilience.CircuitBreakerConfig{}).FetchUser(context.Background(), "user_1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClientFetchUser_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 3; i++ {
		_, err := client.FetchUser(context.Background(), "user_1")
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("call %d: expected ErrDependencyUnavailable, got %v", i, err)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected breaker to short-circuit third call, upstream saw %d calls", got)
	}
}

func TestClientFetchUser_NotFoundDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_, _ = client.FetchUser(context.Background(), "user_missing")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected every call to reach upstream, got %d", got)
	}
}
