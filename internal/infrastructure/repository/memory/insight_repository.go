package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
)

type InsightRepository struct {
	access access
}

func (r *InsightRepository) GetByIndustry(_ context.Context, industry string) (insight.Insight, bool, error) {
	var (
		out   insight.Insight
		found bool
	)
	r.access.read(func(st *state) {
		id, ok := st.insightByName[industry]
		if !ok {
			return
		}
		out, found = cloneInsight(st.insights[id]), true
	})
	return out, found, nil
}

func (r *InsightRepository) CreateIfAbsent(_ context.Context, v insight.Insight) (insight.Insight, bool, error) {
	var (
		out     insight.Insight
		created bool
	)
	r.access.write(func(st *state) {
		if existingID, ok := st.insightByName[v.Industry]; ok {
			out = cloneInsight(st.insights[existingID])
			return
		}
		st.insights[v.ID] = cloneInsight(v)
		st.insightByName[v.Industry] = v.ID
		out, created = cloneInsight(v), true
	})
	return out, created, nil
}

func (r *InsightRepository) ListDue(_ context.Context, now time.Time, limit int) ([]insight.Insight, error) {
	var out []insight.Insight
	r.access.read(func(st *state) {
		for _, item := range st.insights {
			if item.Due(now) {
				out = append(out, cloneInsight(item))
			}
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextUpdate.Equal(out[j].NextUpdate) {
			return out[i].NextUpdate.Before(out[j].NextUpdate)
		}
		return out[i].Industry < out[j].Industry
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InsightRepository) UpdateContent(_ context.Context, id string, content insight.Content, lastUpdated, nextUpdate time.Time) (insight.Insight, error) {
	var (
		out insight.Insight
		err error
	)
	r.access.write(func(st *state) {
		item, ok := st.insights[id]
		if !ok {
			err = fmt.Errorf("insight %s not found", id)
			return
		}
		item.Content = content
		item.LastUpdated = lastUpdated
		item.NextUpdate = nextUpdate
		st.insights[id] = cloneInsight(item)
		out = cloneInsight(item)
	})
	return out, err
}

func cloneInsight(v insight.Insight) insight.Insight {
	copied := v
	copied.Content.SalaryRanges = append([]insight.SalaryRange(nil), v.Content.SalaryRanges...)
	copied.Content.TopSkills = append([]string(nil), v.Content.TopSkills...)
	copied.Content.KeyTrends = append([]string(nil), v.Content.KeyTrends...)
	copied.Content.RecommendedSkills = append([]string(nil), v.Content.RecommendedSkills...)
	return copied
}
