package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/platform/id"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/metrics"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

const defaultProvisionTimeout = 10 * time.Second

type UserService struct {
	users            user.Repository
	identity         user.IdentityProvider
	ids              id.Generator
	flight           resilience.Group[user.User]
	provisionTimeout time.Duration
	metrics          *metrics.Metrics
	logger           *logging.Logger
	now              func() time.Time
}

func NewUserService(
	users user.Repository,
	identity user.IdentityProvider,
	ids id.Generator,
	m *metrics.Metrics,
	logger *logging.Logger,
) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}

	return &UserService{
		users:            users,
		identity:         identity,
		ids:              ids,
		provisionTimeout: defaultProvisionTimeout,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
	}
}

// WithProvisionTimeout bounds a shared first-sight provisioning call. It
// runs detached from any single caller, so this is its only deadline.
func (s *UserService) WithProvisionTimeout(d time.Duration) *UserService {
	if d > 0 {
		s.provisionTimeout = d
	}
	return s
}

// EnsureLocalUser returns the local user for externalID, creating it from
// the identity provider on first sight. Repeated and concurrent calls yield
// the same row.
func (s *UserService) EnsureLocalUser(ctx context.Context, externalID string) (user.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return user.User{}, fmt.Errorf("%w: missing caller identity", ErrUnauthorized)
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.EnsureLocalUser", attribute.String("user.external_id", externalID))
	defer span.End()

	existing, found, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		recordSpanError(span, err)
		return user.User{}, fmt.Errorf("get user by external id: %w", err)
	}
	if found {
		return existing, nil
	}

	u, err, _ := s.flight.Do(externalID, func() (user.User, error) {
		// Waiters share this call, so the leader's cancellation must not fail them.
		provisionCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.provisionTimeout)
		defer cancel()
		return s.provision(provisionCtx, externalID)
	})
	if err != nil {
		recordSpanError(span, err)
		return user.User{}, err
	}
	return u, nil
}

func (s *UserService) provision(ctx context.Context, externalID string) (user.User, error) {
	// A call that finished between our miss and taking the flight slot.
	if existing, found, err := s.users.GetByExternalID(ctx, externalID); err != nil {
		return user.User{}, fmt.Errorf("get user by external id: %w", err)
	} else if found {
		return existing, nil
	}

	profile, err := s.identity.FetchUser(ctx, externalID)
	if err != nil {
		return user.User{}, fmt.Errorf("fetch identity profile: %w", classifyIdentityError(err))
	}

	newID, err := s.ids.NewID()
	if err != nil {
		return user.User{}, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	candidate := user.User{
		ID:         newID,
		ExternalID: externalID,
		Email:      strings.TrimSpace(profile.Email),
		Name:       strings.TrimSpace(profile.FirstName),
		ImageURL:   profile.ImageURL,
		Skills:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, inserted, err := s.users.Create(ctx, candidate)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	if inserted {
		s.metrics.UserProvisioned()
		s.logger.InfoContext(ctx, "local user provisioned", "user_id", created.ID, "external_id", externalID)
		return created, nil
	}

	winner, found, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user after create conflict: %w", err)
	}
	if !found {
		return user.User{}, fmt.Errorf("user %s missing after create conflict", externalID)
	}
	return winner, nil
}

// classifyIdentityError keeps the identity client's variants and treats
// anything unrecognised as the provider being unavailable.
func classifyIdentityError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrDependencyUnavailable),
		errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrDependencyUnavailable, err)
	}
}
