//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.Run(ctx, "postgres:16-alpine",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "career_coach",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/career_coach?sslmode=disable", host, port.Port())

	dir, err := filepath.Abs("../../../../db/migrations")
	require.NoError(t, err)
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStore_UserLifecycle(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	created, ok, err := store.Users().Create(ctx, user.User{
		ID:         "u-1",
		ExternalID: "user_abc",
		Email:      "a@example.com",
		Name:       "Ada",
		Skills:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, created.Industry)
	assert.Nil(t, created.Experience)

	_, ok, err = store.Users().Create(ctx, user.User{ID: "u-2", ExternalID: "user_abc", Email: "dup@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.False(t, ok, "second insert for the same clerk id must lose")

	experience := 5
	updated, err := store.Users().UpdateProfile(ctx, "u-1", user.Profile{
		Industry:   "tech-software",
		Experience: &experience,
		Bio:        "Backend engineer",
		Skills:     []string{"Go", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tech-software", updated.Industry)
	require.NotNil(t, updated.Experience)
	assert.Equal(t, 5, *updated.Experience)
	assert.Equal(t, []string{"Go", "SQL"}, updated.Skills)

	got, found, err := store.Users().GetByExternalID(ctx, "user_abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u-1", got.ID)
	assert.True(t, got.Onboarded())
}

func TestStore_InsightCreateIfAbsentKeepsWinner(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	candidate := func(id string, growth float64) insight.Insight {
		return insight.Insight{
			ID:       id,
			Industry: "tech-software",
			Content: insight.Content{
				SalaryRanges:      []insight.SalaryRange{{Role: "SRE", Min: 1, Max: 3, Median: 2, Location: "US"}},
				GrowthRate:        growth,
				DemandLevel:       insight.DemandHigh,
				TopSkills:         []string{"Go"},
				MarketOutlook:     insight.OutlookPositive,
				KeyTrends:         []string{"AI"},
				RecommendedSkills: []string{"Kubernetes"},
			},
			LastUpdated: now,
			NextUpdate:  now.Add(insight.RefreshInterval),
		}
	}

	var wg sync.WaitGroup
	results := make([]bool, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i], errs[i] = store.Insights().CreateIfAbsent(ctx, candidate(fmt.Sprintf("ins-%d", i), float64(i)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM industry_insights"))
	assert.Equal(t, 1, count)

	stored, found, err := store.Insights().GetByIndustry(ctx, "tech-software")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, insight.DemandHigh, stored.Content.DemandLevel)
	assert.Len(t, stored.Content.SalaryRanges, 1)
}

func TestStore_ListDueAndUpdateContent(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i, industry := range []string{"finance", "healthcare"} {
		_, _, err := store.Insights().CreateIfAbsent(ctx, insight.Insight{
			ID:          fmt.Sprintf("ins-%d", i),
			Industry:    industry,
			Content:     insight.Content{DemandLevel: insight.DemandLow, MarketOutlook: insight.OutlookNeutral},
			LastUpdated: now.Add(-8 * 24 * time.Hour),
			NextUpdate:  now.Add(time.Duration(2*i-1) * time.Hour),
		})
		require.NoError(t, err)
	}

	due, err := store.Insights().ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "finance", due[0].Industry)

	refreshed, err := store.Insights().UpdateContent(ctx, due[0].ID,
		insight.Content{DemandLevel: insight.DemandMedium, MarketOutlook: insight.OutlookPositive},
		now, now.Add(insight.RefreshInterval))
	require.NoError(t, err)
	assert.Equal(t, insight.DemandMedium, refreshed.Content.DemandLevel)
	assert.True(t, refreshed.NextUpdate.Equal(now.Add(insight.RefreshInterval)))
}

func TestStore_WithinTransactionRollsBack(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	errBoom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context, _ user.Repository, insights insight.Repository) error {
		if _, _, err := insights.CreateIfAbsent(ctx, insight.Insight{
			ID:          "ins-tx",
			Industry:    "retail",
			Content:     insight.Content{DemandLevel: insight.DemandLow, MarketOutlook: insight.OutlookNegative},
			LastUpdated: now,
			NextUpdate:  now.Add(insight.RefreshInterval),
		}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, found, err := store.Insights().GetByIndustry(ctx, "retail")
	require.NoError(t, err)
	assert.False(t, found, "insight insert must roll back with the transaction")
}
