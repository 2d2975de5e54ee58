package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

type Handler struct {
	profileService *usecase.ProfileService
	insightService *usecase.InsightService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	profileService *usecase.ProfileService,
	insightService *usecase.InsightService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		profileService: profileService,
		insightService: insightService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateProfile")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req updateProfileRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.profileService.UpdateProfile(ctx, principal, usecase.UpdateProfileInput{
		Industry:   req.Industry,
		Experience: req.Experience,
		Bio:        req.Bio,
		Skills:     req.Skills,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update profile failed", "clerk_user_id", principal.ExternalID, "industry", req.Industry, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) GetOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOnboardingStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	status, err := h.profileService.GetOnboardingStatus(ctx, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "get onboarding status failed", "clerk_user_id", principal.ExternalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingStatusDTO{IsOnboarded: status.IsOnboarded})
}

func (h *Handler) GetIndustryInsight(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetIndustryInsight")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	item, err := h.profileService.GetIndustryInsight(ctx, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "get industry insight failed", "clerk_user_id", principal.ExternalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, insightToDTO(item))
}

func (h *Handler) RunRefreshInsightsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshInsightsJob")
	defer span.End()

	if h.insightService == nil {
		writeError(ctx, w, fmt.Errorf("%w: insight service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.insightService.RefreshDue(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh insights job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh insights job finished",
		"scanned", result.Scanned,
		"refreshed", result.Refreshed,
		"failed", len(result.Failed),
	)
	writeSuccess(ctx, w, http.StatusOK, refreshResultToDTO(result))
}
