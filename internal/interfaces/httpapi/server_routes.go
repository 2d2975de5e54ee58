package httpapi

import (
	"net/http"

	"github.com/riskibarqy/career-coach/internal/platform/metrics"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, m *metrics.Metrics) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.Handle("GET /metrics", m.Handler())
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/users/me/profile", RequireAuth(verifier, http.HandlerFunc(handler.UpdateProfile)))
	mux.Handle("GET /v1/users/me/onboarding-status", RequireAuth(verifier, http.HandlerFunc(handler.GetOnboardingStatus)))
	mux.Handle("GET /v1/users/me/industry-insight", RequireAuth(verifier, http.HandlerFunc(handler.GetIndustryInsight)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh-insights", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshInsightsJob)))
}
