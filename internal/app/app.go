package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/career-coach/internal/config"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/infrastructure/account/clerk"
	"github.com/riskibarqy/career-coach/internal/infrastructure/ai/gemini"
	"github.com/riskibarqy/career-coach/internal/infrastructure/lock"
	cacherepo "github.com/riskibarqy/career-coach/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/career-coach/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/career-coach/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/career-coach/internal/infrastructure/revalidate"
	"github.com/riskibarqy/career-coach/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/career-coach/internal/platform/cache"
	idgen "github.com/riskibarqy/career-coach/internal/platform/id"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/metrics"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

// Server is the assembled HTTP API together with the resources it owns.
type Server struct {
	HTTP    *http.Server
	closers []func() error
}

// Close releases the database and Redis connections.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type storage struct {
	users    user.Repository
	insights insight.Repository
	uow      usecase.UnitOfWork
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	srv := &Server{}
	fail := func(err error) (*Server, error) {
		_ = srv.Close()
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		return fail(fmt.Errorf("init metrics: %w", err))
	}

	store, err := newStorage(ctx, cfg, srv, logger)
	if err != nil {
		return fail(err)
	}

	users := store.users
	var userCache usecase.UserCacheInvalidator
	if cfg.CacheEnabled {
		cached := cacherepo.NewUserRepository(users, basecache.NewStore[user.User](cfg.CacheTTL))
		users, userCache = cached, cached
		logger.Info("user cache enabled", "ttl", cfg.CacheTTL.String())
	}

	verifier, err := clerk.NewVerifier(clerk.VerifierConfig{
		PublicKeyPEM:      cfg.ClerkJWTPublicKey,
		AuthorizedParties: cfg.ClerkAuthorizedParties,
		Leeway:            cfg.AuthClockSkew,
		CacheTTL:          cfg.AuthCacheTTL,
	})
	if err != nil {
		return fail(fmt.Errorf("init session verifier: %w", err))
	}
	if cfg.ClerkSecretKey == "" {
		logger.Warn("CLERK_SECRET_KEY is empty, first-time users cannot be provisioned")
	}
	identity := clerk.NewClient(nil, clerk.ClientConfig{
		BaseURL:        cfg.ClerkAPIURL,
		SecretKey:      cfg.ClerkSecretKey,
		Timeout:        cfg.ClerkTimeout,
		CircuitBreaker: cfg.ClerkCircuit,
	}, logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is empty, insight generation will fail")
	}
	generator := gemini.NewClient(nil, gemini.Config{
		BaseURL:        cfg.GeminiBaseURL,
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		Temperature:    cfg.GeminiTemperature,
		CircuitBreaker: cfg.GeminiCircuit,
	}, logger)

	locker, err := newLocker(ctx, cfg, srv, logger)
	if err != nil {
		return fail(err)
	}

	revalidator, err := newRevalidator(cfg, logger)
	if err != nil {
		return fail(err)
	}

	ids := idgen.NewUUIDGenerator()
	userSvc := usecase.NewUserService(users, identity, ids, m, logger).WithProvisionTimeout(2 * cfg.ClerkTimeout)
	insightSvc := usecase.NewInsightService(store.insights, generator, ids, locker, usecase.InsightConfig{
		GenerateTimeout:  cfg.InsightGenerateTimeout,
		LockTTL:          cfg.InsightLockTTL,
		LockWait:         cfg.InsightGenerateTimeout + cfg.InsightGenerateTimeout/5,
		RefreshBatchSize: cfg.InsightRefreshBatchSize,
		RefreshWorkers:   cfg.InsightRefreshWorkers,
	}, m, logger)
	profileSvc := usecase.NewProfileService(userSvc, insightSvc, store.uow, revalidator, userCache, usecase.ProfileConfig{
		TxTimeout: cfg.ProfileTxTimeout,
	}, m, logger)

	handler := httpapi.NewHandler(profileSvc, insightSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, m, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	srv.HTTP = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return srv, nil
}

func newStorage(ctx context.Context, cfg config.Config, srv *Server, logger *logging.Logger) (storage, error) {
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory storage")
		store := memory.NewStore()
		return storage{users: store.Users(), insights: store.Insights(), uow: store}, nil
	}

	db, err := openDB(ctx, cfg.DBURL)
	if err != nil {
		return storage{}, err
	}
	srv.closers = append(srv.closers, db.Close)
	logger.Info("database connected", "db_name", dbNameFromURL(cfg.DBURL))

	store := postgres.NewStore(db)
	return storage{users: store.Users(), insights: store.Insights(), uow: store}, nil
}

func newLocker(ctx context.Context, cfg config.Config, srv *Server, logger *logging.Logger) (usecase.Locker, error) {
	if cfg.RedisURL == "" {
		logger.Info("redis disabled, insight generation is deduplicated per process only")
		return nil, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	srv.closers = append(srv.closers, client.Close)
	logger.Info("redis locker enabled")

	return lock.NewRedisLocker(client), nil
}

func newRevalidator(cfg config.Config, logger *logging.Logger) (usecase.Revalidator, error) {
	if cfg.RevalidateURL == "" {
		logger.Info("revalidation webhook disabled", "reason", "REVALIDATE_URL empty")
		return nil, nil
	}

	webhook, err := revalidate.NewWebhook(revalidate.WebhookConfig{
		URL:     cfg.RevalidateURL,
		Secret:  cfg.RevalidateSecret,
		Timeout: cfg.RevalidateTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init revalidation webhook: %w", err)
	}
	return webhook, nil
}
