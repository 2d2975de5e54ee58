package insight

import (
	"context"
	"time"
)

type Repository interface {
	GetByIndustry(ctx context.Context, industry string) (Insight, bool, error)
	// CreateIfAbsent inserts v when no insight exists for its industry. The
	// flag is false when an existing row won; the returned value is then the
	// stored row.
	CreateIfAbsent(ctx context.Context, v Insight) (Insight, bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]Insight, error)
	UpdateContent(ctx context.Context, id string, content Content, lastUpdated, nextUpdate time.Time) (Insight, error)
}

// Generator produces insight content for an industry, typically from an AI
// model.
type Generator interface {
	Generate(ctx context.Context, industry string) (Content, error)
}
