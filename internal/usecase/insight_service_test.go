package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/infrastructure/repository/memory"
	insightmock "github.com/riskibarqy/career-coach/internal/mocks/domain/insight"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	acquired bool
	onLock   func()
	released atomic.Int32
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	if l.onLock != nil {
		l.onLock()
	}
	if !l.acquired {
		return nil, false, nil
	}
	return func(context.Context) error {
		l.released.Add(1)
		return nil
	}, true, nil
}

func TestInsightService_RefreshDue(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	generator := insightmock.NewGenerator(t)
	service := NewInsightService(store.Insights(), generator, nil, nil, InsightConfig{RefreshWorkers: 2}, nil, logging.NewNop())
	service.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	for _, item := range []insight.Insight{
		{ID: "i-tech", Industry: "tech", NextUpdate: fixedNow.Add(-time.Hour)},
		{ID: "i-finance", Industry: "finance", NextUpdate: fixedNow.Add(-time.Hour)},
		{ID: "i-health", Industry: "health", NextUpdate: fixedNow.Add(-time.Minute)},
		{ID: "i-retail", Industry: "retail", NextUpdate: fixedNow.Add(time.Hour)},
	} {
		_, _, err := store.Insights().CreateIfAbsent(ctx, item)
		require.NoError(t, err)
	}

	generator.On("Generate", mock.Anything, "tech").Return(sampleContent(), nil).Once()
	generator.On("Generate", mock.Anything, "finance").Return(insight.Content{}, errors.New("quota exceeded")).Once()
	generator.
		On("Generate", mock.Anything, "health").
		Return(func(context.Context, string) (insight.Content, error) { panic("unexpected candidate shape") }).
		Once()

	result, err := service.RefreshDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, result.Scanned)
	require.Equal(t, 1, result.Refreshed)
	require.Len(t, result.Failed, 2)
	require.Equal(t, "finance", result.Failed[0].Industry)
	require.Equal(t, "health", result.Failed[1].Industry)
	require.Contains(t, result.Failed[1].Error, "unexpected candidate shape")

	tech, _, err := store.Insights().GetByIndustry(ctx, "tech")
	require.NoError(t, err)
	require.Equal(t, fixedNow, tech.LastUpdated)
	require.Equal(t, fixedNow.Add(insight.RefreshInterval), tech.NextUpdate)
	require.Equal(t, insight.OutlookPositive, tech.Content.MarketOutlook)

	finance, _, err := store.Insights().GetByIndustry(ctx, "finance")
	require.NoError(t, err)
	require.True(t, finance.Due(fixedNow))
}

func TestInsightService_RefreshDue_NothingDue(t *testing.T) {
	t.Parallel()

	service := NewInsightService(memory.NewStore().Insights(), insightmock.NewGenerator(t), nil, nil, InsightConfig{}, nil, logging.NewNop())

	result, err := service.RefreshDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Scanned)
}

func TestInsightService_Prepare_WaitsForLockHolder(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	generator := insightmock.NewGenerator(t)
	locker := &fakeLocker{
		onLock: func() {
			// The holder in another process publishes shortly after.
			go func() {
				time.Sleep(20 * time.Millisecond)
				_, _, _ = store.Insights().CreateIfAbsent(context.Background(), insight.Insight{ID: "remote", Industry: "tech"})
			}()
		},
	}
	service := NewInsightService(store.Insights(), generator, nil, locker, InsightConfig{
		LockWait:         time.Second,
		LockPollInterval: 5 * time.Millisecond,
	}, nil, logging.NewNop())

	prepared, err := service.Prepare(context.Background(), "tech")
	require.NoError(t, err)
	require.True(t, prepared.Stored)
	require.Equal(t, "remote", prepared.Insight.ID)
}

func TestInsightService_Prepare_GeneratesWhenHolderNeverPublishes(t *testing.T) {
	t.Parallel()

	generator := insightmock.NewGenerator(t)
	generator.On("Generate", mock.Anything, "tech").Return(sampleContent(), nil).Once()
	service := NewInsightService(memory.NewStore().Insights(), generator, nil, &fakeLocker{}, InsightConfig{
		LockWait:         20 * time.Millisecond,
		LockPollInterval: 5 * time.Millisecond,
	}, nil, logging.NewNop())

	prepared, err := service.Prepare(context.Background(), "tech")
	require.NoError(t, err)
	require.False(t, prepared.Stored)
	require.Equal(t, "tech", prepared.Insight.Industry)
	prepared.Release()
}

func TestInsightService_LockReleasedAfterProfileUpdate(t *testing.T) {
	t.Parallel()

	locker := &fakeLocker{acquired: true}
	f := newProfileFixture(t, InsightConfig{}, locker)
	f.identity.On("FetchUser", mock.Anything, "user_a").Return(user.ExternalProfile{}, nil).Once()
	f.generator.On("Generate", mock.Anything, "tech").Return(sampleContent(), nil).Once()

	_, err := f.service.UpdateProfile(context.Background(), principal("user_a"), UpdateProfileInput{Industry: "tech"})
	require.NoError(t, err)
	require.Equal(t, int32(1), locker.released.Load())
}

func TestInsightService_RejectsMalformedContent(t *testing.T) {
	t.Parallel()

	generator := insightmock.NewGenerator(t)
	bad := sampleContent()
	bad.DemandLevel = "EXTREME"
	generator.On("Generate", mock.Anything, "tech").Return(bad, nil).Once()
	service := NewInsightService(memory.NewStore().Insights(), generator, nil, nil, InsightConfig{}, nil, logging.NewNop())

	_, err := service.Prepare(context.Background(), "tech")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestInsightService_Prepare_LeaderCancelDoesNotFailWaiters(t *testing.T) {
	t.Parallel()

	generator := insightmock.NewGenerator(t)
	started := make(chan struct{})
	generator.
		On("Generate", mock.Anything, "tech").
		Return(func(ctx context.Context, _ string) (insight.Content, error) {
			close(started)
			select {
			case <-time.After(100 * time.Millisecond):
				return sampleContent(), nil
			case <-ctx.Done():
				return insight.Content{}, ctx.Err()
			}
		}).
		Once()
	service := NewInsightService(memory.NewStore().Insights(), generator, nil, nil, InsightConfig{}, nil, logging.NewNop())

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	leaderDone := make(chan error, 1)
	go func() {
		_, err := service.Prepare(leaderCtx, "tech")
		leaderDone <- err
	}()

	<-started
	type outcome struct {
		prepared PreparedInsight
		err      error
	}
	followerDone := make(chan outcome, 1)
	go func() {
		prepared, err := service.Prepare(context.Background(), "tech")
		followerDone <- outcome{prepared: prepared, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	got := <-followerDone
	require.NoError(t, got.err)
	require.Equal(t, "tech", got.prepared.Insight.Industry)
	got.prepared.Release()
	<-leaderDone
}
