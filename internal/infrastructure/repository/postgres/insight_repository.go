package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	qb "github.com/riskibarqy/career-coach/internal/platform/querybuilder"
)

type InsightRepository struct {
	db sqlx.ExtContext
}

func NewInsightRepository(db sqlx.ExtContext) *InsightRepository {
	return &InsightRepository{db: db}
}

func (r *InsightRepository) GetByIndustry(ctx context.Context, industry string) (insight.Insight, bool, error) {
	query, args, err := qb.Select(insightColumns...).
		From("industry_insights").
		Where(qb.Eq("industry", industry)).
		Limit(1).
		ToSQL()
	if err != nil {
		return insight.Insight{}, false, fmt.Errorf("build get insight query: %w", err)
	}

	var row insightTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return insight.Insight{}, false, nil
		}
		return insight.Insight{}, false, fmt.Errorf("get insight by industry: %w", err)
	}

	return insightFromRow(row), true, nil
}

func (r *InsightRepository) CreateIfAbsent(ctx context.Context, v insight.Insight) (insight.Insight, bool, error) {
	insert, err := qb.InsertModel("industry_insights", insightToRow(v))
	if err != nil {
		return insight.Insight{}, false, fmt.Errorf("build create insight query: %w", err)
	}
	query, args, err := insert.
		OnConflictDoNothing("industry").
		Returning(insightColumns...).
		ToSQL()
	if err != nil {
		return insight.Insight{}, false, fmt.Errorf("build create insight query: %w", err)
	}

	var row insightTableModel
	err = sqlx.GetContext(ctx, r.db, &row, query, args...)
	switch {
	case err == nil:
		return insightFromRow(row), true, nil
	case !isNotFound(err) && !isUniqueViolation(err):
		return insight.Insight{}, false, fmt.Errorf("create insight: %w", err)
	}

	existing, found, err := r.GetByIndustry(ctx, v.Industry)
	if err != nil {
		return insight.Insight{}, false, err
	}
	if !found {
		return insight.Insight{}, false, fmt.Errorf("insight for industry %q vanished after conflict", v.Industry)
	}
	return existing, false, nil
}

func (r *InsightRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]insight.Insight, error) {
	builder := qb.Select(insightColumns...).
		From("industry_insights").
		Where(qb.Lte("next_update", now.UTC())).
		OrderBy("next_update ASC", "industry ASC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list due insights query: %w", err)
	}

	var rows []insightTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list due insights: %w", err)
	}

	out := make([]insight.Insight, 0, len(rows))
	for _, row := range rows {
		out = append(out, insightFromRow(row))
	}
	return out, nil
}

func (r *InsightRepository) UpdateContent(ctx context.Context, id string, content insight.Content, lastUpdated, nextUpdate time.Time) (insight.Insight, error) {
	row := insightToRow(insight.Insight{Content: content})
	query, args, err := qb.Update("industry_insights").
		Set("salary_ranges", row.SalaryRanges).
		Set("growth_rate", row.GrowthRate).
		Set("demand_level", row.DemandLevel).
		Set("top_skills", row.TopSkills).
		Set("market_outlook", row.MarketOutlook).
		Set("key_trends", row.KeyTrends).
		Set("recommended_skills", row.RecommendedSkills).
		Set("last_updated", lastUpdated.UTC()).
		Set("next_update", nextUpdate.UTC()).
		Where(qb.Eq("id", id)).
		Returning(insightColumns...).
		ToSQL()
	if err != nil {
		return insight.Insight{}, fmt.Errorf("build update insight query: %w", err)
	}

	var updated insightTableModel
	if err := sqlx.GetContext(ctx, r.db, &updated, query, args...); err != nil {
		if isNotFound(err) {
			return insight.Insight{}, fmt.Errorf("insight %s not found", id)
		}
		return insight.Insight{}, fmt.Errorf("update insight content: %w", err)
	}
	return insightFromRow(updated), nil
}
