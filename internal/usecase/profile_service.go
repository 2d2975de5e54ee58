package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxIndustryLength = 100
	maxBioLength      = 2000
	maxExperience     = 50
	maxSkills         = 50
	maxSkillLength    = 100

	// RevalidatedPath is invalidated after every successful profile update.
	RevalidatedPath = "/"
)

type UpdateProfileInput struct {
	Industry   string
	Experience *int
	Bio        string
	Skills     []string
}

type OnboardingStatus struct {
	IsOnboarded bool
}

type ProfileConfig struct {
	TxTimeout time.Duration
}

type ProfileService struct {
	users       *UserService
	insights    *InsightService
	uow         UnitOfWork
	revalidator Revalidator
	userCache   UserCacheInvalidator
	cfg         ProfileConfig
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

func NewProfileService(
	users *UserService,
	insights *InsightService,
	uow UnitOfWork,
	revalidator Revalidator,
	userCache UserCacheInvalidator,
	cfg ProfileConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ProfileService {
	if logger == nil {
		logger = logging.Default()
	}
	if revalidator == nil {
		revalidator = noopRevalidator{}
	}
	if userCache == nil {
		userCache = noopUserCache{}
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 10 * time.Second
	}

	return &ProfileService{
		users:       users,
		insights:    insights,
		uow:         uow,
		revalidator: revalidator,
		userCache:   userCache,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
	}
}

// UpdateProfile writes the caller's professional profile and makes sure an
// insight exists for the chosen industry. Failures after the caller was
// resolved surface as *ProfileUpdateError.
func (s *ProfileService) UpdateProfile(ctx context.Context, principal user.Principal, input UpdateProfileInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.UpdateProfile")
	defer span.End()

	if strings.TrimSpace(principal.ExternalID) == "" {
		return user.User{}, fmt.Errorf("%w: missing caller identity", ErrUnauthorized)
	}

	profile, err := normalizeProfileInput(input)
	if err != nil {
		return user.User{}, err
	}

	current, err := s.users.EnsureLocalUser(ctx, principal.ExternalID)
	if err != nil {
		recordSpanError(span, err)
		return user.User{}, err
	}
	span.SetAttributes(attribute.String("user.id", current.ID), attribute.String("profile.industry", profile.Industry))

	updated, err := s.applyProfile(ctx, current, profile)
	s.metrics.ProfileUpdate(err)
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "update profile failed",
			"user_id", current.ID,
			"industry", profile.Industry,
			"error", err,
		)
		return user.User{}, &ProfileUpdateError{Cause: err}
	}

	return updated, nil
}

func (s *ProfileService) applyProfile(ctx context.Context, current user.User, profile user.Profile) (user.User, error) {
	prepared, err := s.insights.Prepare(ctx, profile.Industry)
	if err != nil {
		return user.User{}, fmt.Errorf("prepare industry insight: %w", err)
	}
	defer prepared.Release()

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var updated user.User
	err = s.uow.WithinTransaction(txCtx, func(ctx context.Context, users user.Repository, insights insight.Repository) error {
		if !prepared.Stored {
			stored, inserted, err := insights.CreateIfAbsent(ctx, prepared.Insight)
			if err != nil {
				return fmt.Errorf("create industry insight: %w", err)
			}
			if !inserted {
				s.logger.InfoContext(ctx, "industry insight created concurrently, using stored row",
					"industry", stored.Industry,
					"insight_id", stored.ID,
				)
			}
		}

		u, err := users.UpdateProfile(ctx, current.ID, profile)
		if err != nil {
			return fmt.Errorf("update user profile: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		if errors.Is(txCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return user.User{}, fmt.Errorf("profile transaction exceeded %s: %w", s.cfg.TxTimeout, err)
		}
		return user.User{}, err
	}

	s.userCache.Forget(ctx, current.ExternalID)

	if err := s.revalidator.RevalidatePath(ctx, RevalidatedPath); err != nil {
		return user.User{}, fmt.Errorf("revalidate %s: %w", RevalidatedPath, err)
	}

	return updated, nil
}

// GetOnboardingStatus resolves the caller, provisioning them on first
// sight, and reports whether an industry was chosen.
func (s *ProfileService) GetOnboardingStatus(ctx context.Context, principal user.Principal) (OnboardingStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.GetOnboardingStatus")
	defer span.End()

	u, err := s.users.EnsureLocalUser(ctx, principal.ExternalID)
	if err != nil {
		recordSpanError(span, err)
		return OnboardingStatus{}, err
	}
	return OnboardingStatus{IsOnboarded: u.Onboarded()}, nil
}

// GetIndustryInsight returns the insight of the caller's industry.
func (s *ProfileService) GetIndustryInsight(ctx context.Context, principal user.Principal) (insight.Insight, error) {
	u, err := s.users.EnsureLocalUser(ctx, principal.ExternalID)
	if err != nil {
		return insight.Insight{}, err
	}
	if !u.Onboarded() {
		return insight.Insight{}, fmt.Errorf("%w: user has not chosen an industry", ErrNotFound)
	}
	return s.insights.Get(ctx, u.Industry)
}

func normalizeProfileInput(input UpdateProfileInput) (user.Profile, error) {
	industry := strings.TrimSpace(input.Industry)
	if industry == "" {
		return user.Profile{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(industry) > maxIndustryLength {
		return user.Profile{}, fmt.Errorf("%w: industry must be at most %d characters", ErrInvalidInput, maxIndustryLength)
	}

	if input.Experience != nil && (*input.Experience < 0 || *input.Experience > maxExperience) {
		return user.Profile{}, fmt.Errorf("%w: experience must be between 0 and %d", ErrInvalidInput, maxExperience)
	}

	bio := strings.TrimSpace(input.Bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		return user.Profile{}, fmt.Errorf("%w: bio must be at most %d characters", ErrInvalidInput, maxBioLength)
	}

	skills := make([]string, 0, len(input.Skills))
	seen := make(map[string]struct{}, len(input.Skills))
	for _, raw := range input.Skills {
		skill := strings.TrimSpace(raw)
		if skill == "" {
			continue
		}
		if utf8.RuneCountInString(skill) > maxSkillLength {
			return user.Profile{}, fmt.Errorf("%w: each skill must be at most %d characters", ErrInvalidInput, maxSkillLength)
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	if len(skills) > maxSkills {
		return user.Profile{}, fmt.Errorf("%w: at most %d skills are allowed", ErrInvalidInput, maxSkills)
	}

	var experience *int
	if input.Experience != nil {
		v := *input.Experience
		experience = &v
	}

	return user.Profile{
		Industry:   industry,
		Experience: experience,
		Bio:        bio,
		Skills:     skills,
	}, nil
}
