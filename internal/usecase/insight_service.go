package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/platform/id"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/metrics"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

// sharedPrepareSlack covers the store reads around lock wait and generation.
const sharedPrepareSlack = 5 * time.Second

type InsightConfig struct {
	GenerateTimeout  time.Duration
	LockTTL          time.Duration
	LockWait         time.Duration
	LockPollInterval time.Duration
	RefreshBatchSize int
	RefreshWorkers   int
}

func DefaultInsightConfig() InsightConfig {
	return InsightConfig{
		GenerateTimeout:  10 * time.Second,
		LockTTL:          30 * time.Second,
		LockWait:         12 * time.Second,
		LockPollInterval: 250 * time.Millisecond,
		RefreshBatchSize: 50,
		RefreshWorkers:   4,
	}
}

func normalizeInsightConfig(cfg InsightConfig) InsightConfig {
	def := DefaultInsightConfig()
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = def.GenerateTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	if cfg.LockWait < 0 {
		cfg.LockWait = 0
	}
	if cfg.LockPollInterval <= 0 {
		cfg.LockPollInterval = def.LockPollInterval
	}
	if cfg.RefreshBatchSize <= 0 {
		cfg.RefreshBatchSize = def.RefreshBatchSize
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = def.RefreshWorkers
	}
	return cfg
}

// PreparedInsight is either the stored insight of an industry or a freshly
// generated candidate that still has to be inserted. Release must be called
// once the candidate was persisted or abandoned; it is safe to call more
// than once.
type PreparedInsight struct {
	Insight insight.Insight
	Stored  bool
	Release func()
}

type InsightService struct {
	insights  insight.Repository
	generator insight.Generator
	ids       id.Generator
	locker    Locker
	flight    resilience.Group[PreparedInsight]
	cfg       InsightConfig
	metrics   *metrics.Metrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewInsightService(
	insights insight.Repository,
	generator insight.Generator,
	ids id.Generator,
	locker Locker,
	cfg InsightConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *InsightService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if locker == nil {
		locker = localLocker{}
	}

	return &InsightService{
		insights:  insights,
		generator: generator,
		ids:       ids,
		locker:    locker,
		cfg:       normalizeInsightConfig(cfg),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the stored insight for industry.
func (s *InsightService) Get(ctx context.Context, industry string) (insight.Insight, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return insight.Insight{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}

	item, found, err := s.insights.GetByIndustry(ctx, industry)
	if err != nil {
		return insight.Insight{}, fmt.Errorf("get insight by industry: %w", err)
	}
	if !found {
		return insight.Insight{}, fmt.Errorf("%w: no insight for industry %q", ErrNotFound, industry)
	}
	return item, nil
}

// Prepare makes sure an insight for industry is available without touching
// any transaction. On a miss the generator runs once per industry in this
// process and, when a distributed locker is configured, once across
// processes.
func (s *InsightService) Prepare(ctx context.Context, industry string) (PreparedInsight, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InsightService.Prepare", attribute.String("insight.industry", industry))
	defer span.End()

	if stored, found, err := s.insights.GetByIndustry(ctx, industry); err != nil {
		recordSpanError(span, err)
		return PreparedInsight{}, fmt.Errorf("get insight by industry: %w", err)
	} else if found {
		return PreparedInsight{Insight: stored, Stored: true, Release: func() {}}, nil
	}

	prepared, err, _ := s.flight.Do(industry, func() (PreparedInsight, error) {
		// Waiters share this call, so the leader's cancellation must not fail them.
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LockWait+s.cfg.GenerateTimeout+sharedPrepareSlack)
		defer cancel()
		return s.prepareLocked(sharedCtx, industry)
	})
	if err != nil {
		recordSpanError(span, err)
		return PreparedInsight{}, err
	}
	return prepared, nil
}

func (s *InsightService) prepareLocked(ctx context.Context, industry string) (PreparedInsight, error) {
	release, acquired, err := s.locker.TryLock(ctx, "insight-generate:"+strings.ToLower(industry), s.cfg.LockTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "insight lock unavailable, generating without it", "industry", industry, "error", err)
		acquired, release = false, nil
	} else if !acquired {
		stored, found, waitErr := s.awaitStored(ctx, industry)
		if waitErr != nil {
			return PreparedInsight{}, waitErr
		}
		if found {
			return PreparedInsight{Insight: stored, Stored: true, Release: func() {}}, nil
		}
		s.logger.WarnContext(ctx, "insight lock holder did not publish in time", "industry", industry)
	}

	done := func() {}
	if acquired && release != nil {
		var once sync.Once
		done = func() {
			once.Do(func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger.WarnContext(ctx, "release insight lock failed", "industry", industry, "error", err)
				}
			})
		}
	}

	// The lock holder before us may have finished already.
	if acquired {
		if stored, found, err := s.insights.GetByIndustry(ctx, industry); err != nil {
			done()
			return PreparedInsight{}, fmt.Errorf("get insight by industry: %w", err)
		} else if found {
			done()
			return PreparedInsight{Insight: stored, Stored: true, Release: func() {}}, nil
		}
	}

	content, err := s.generate(ctx, industry)
	if err != nil {
		done()
		return PreparedInsight{}, err
	}

	newID, err := s.ids.NewID()
	if err != nil {
		done()
		return PreparedInsight{}, fmt.Errorf("generate insight id: %w", err)
	}

	now := s.now().UTC()
	return PreparedInsight{
		Insight: insight.Insight{
			ID:          newID,
			Industry:    industry,
			Content:     content,
			LastUpdated: now,
			NextUpdate:  now.Add(insight.RefreshInterval),
		},
		Release: done,
	}, nil
}

func (s *InsightService) awaitStored(ctx context.Context, industry string) (insight.Insight, bool, error) {
	if s.cfg.LockWait <= 0 {
		return insight.Insight{}, false, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()

	ticker := time.NewTicker(s.cfg.LockPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return insight.Insight{}, false, err
			}
			return insight.Insight{}, false, nil
		case <-ticker.C:
			stored, found, err := s.insights.GetByIndustry(waitCtx, industry)
			if err != nil && waitCtx.Err() == nil {
				return insight.Insight{}, false, fmt.Errorf("get insight by industry: %w", err)
			}
			if found {
				return stored, true, nil
			}
		}
	}
}

func (s *InsightService) generate(ctx context.Context, industry string) (insight.Content, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	content, err := s.generator.Generate(genCtx, industry)
	s.metrics.InsightGenerated(time.Since(start), err)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return insight.Content{}, fmt.Errorf("generate insight for %q: %w: timed out after %s: %w", industry, ErrDependencyUnavailable, s.cfg.GenerateTimeout, err)
		}
		return insight.Content{}, fmt.Errorf("generate insight for %q: %w", industry, err)
	}
	if err := validateContent(content); err != nil {
		return insight.Content{}, fmt.Errorf("generate insight for %q: %w", industry, err)
	}
	return content, nil
}

func validateContent(c insight.Content) error {
	if _, ok := insight.ParseDemandLevel(string(c.DemandLevel)); !ok {
		return fmt.Errorf("%w: demand level %q", ErrMalformedResponse, c.DemandLevel)
	}
	if _, ok := insight.ParseMarketOutlook(string(c.MarketOutlook)); !ok {
		return fmt.Errorf("%w: market outlook %q", ErrMalformedResponse, c.MarketOutlook)
	}
	return nil
}

type RefreshFailure struct {
	Industry string
	Error    string
}

type RefreshResult struct {
	Scanned   int
	Refreshed int
	Failed    []RefreshFailure
}

// RefreshDue regenerates every insight whose next update is due, up to the
// configured batch size.
func (s *InsightService) RefreshDue(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InsightService.RefreshDue")
	defer span.End()

	due, err := s.insights.ListDue(ctx, s.now().UTC(), s.cfg.RefreshBatchSize)
	if err != nil {
		recordSpanError(span, err)
		return RefreshResult{}, fmt.Errorf("list due insights: %w", err)
	}

	result := RefreshResult{Scanned: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(s.cfg.RefreshWorkers)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for _, item := range due {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			var catcher panics.Catcher
			var refreshErr error
			catcher.Try(func() { refreshErr = s.refreshOne(ctx, item) })
			if recovered := catcher.Recovered(); recovered != nil {
				refreshErr = recovered.AsError()
			}
			s.metrics.InsightRefreshed(refreshErr)

			mu.Lock()
			defer mu.Unlock()
			if refreshErr != nil {
				s.logger.WarnContext(ctx, "refresh industry insight failed", "industry", item.Industry, "error", refreshErr)
				result.Failed = append(result.Failed, RefreshFailure{Industry: item.Industry, Error: refreshErr.Error()})
				return
			}
			result.Refreshed++
		}); err != nil {
			workers.Done()
			workers.Wait()
			return RefreshResult{}, fmt.Errorf("submit refresh task to worker pool: %w", err)
		}
	}
	workers.Wait()

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].Industry < result.Failed[j].Industry
	})

	s.logger.InfoContext(ctx, "industry insights refreshed",
		"scanned", result.Scanned,
		"refreshed", result.Refreshed,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *InsightService) refreshOne(ctx context.Context, item insight.Insight) error {
	content, err := s.generate(ctx, item.Industry)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if _, err := s.insights.UpdateContent(ctx, item.ID, content, now, now.Add(insight.RefreshInterval)); err != nil {
		return fmt.Errorf("update insight content: %w", err)
	}
	return nil
}
