package postgres

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
)

var insightColumns = []string{
	"id", "industry", "salary_ranges", "growth_rate", "demand_level",
	"top_skills", "market_outlook", "key_trends", "recommended_skills",
	"last_updated", "next_update",
}

type salaryRanges []insight.SalaryRange

type salaryRangeJSON struct {
	Role     string  `json:"role"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Location string  `json:"location"`
}

func (s salaryRanges) Value() (driver.Value, error) {
	rows := make([]salaryRangeJSON, 0, len(s))
	for _, r := range s {
		rows = append(rows, salaryRangeJSON(r))
	}
	raw, err := sonic.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode salary ranges: %w", err)
	}
	return string(raw), nil
}

func (s *salaryRanges) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = salaryRanges{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported salary ranges type %T", src)
	}

	var rows []salaryRangeJSON
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("decode salary ranges: %w", err)
	}
	out := make(salaryRanges, 0, len(rows))
	for _, r := range rows {
		out = append(out, insight.SalaryRange(r))
	}
	*s = out
	return nil
}

type insightTableModel struct {
	ID                string         `db:"id"`
	Industry          string         `db:"industry"`
	SalaryRanges      salaryRanges   `db:"salary_ranges"`
	GrowthRate        float64        `db:"growth_rate"`
	DemandLevel       string         `db:"demand_level"`
	TopSkills         pq.StringArray `db:"top_skills"`
	MarketOutlook     string         `db:"market_outlook"`
	KeyTrends         pq.StringArray `db:"key_trends"`
	RecommendedSkills pq.StringArray `db:"recommended_skills"`
	LastUpdated       time.Time      `db:"last_updated"`
	NextUpdate        time.Time      `db:"next_update"`
}

func insightToRow(v insight.Insight) insightTableModel {
	return insightTableModel{
		ID:                v.ID,
		Industry:          v.Industry,
		SalaryRanges:      salaryRanges(v.Content.SalaryRanges),
		GrowthRate:        v.Content.GrowthRate,
		DemandLevel:       string(v.Content.DemandLevel),
		TopSkills:         stringArray(v.Content.TopSkills),
		MarketOutlook:     string(v.Content.MarketOutlook),
		KeyTrends:         stringArray(v.Content.KeyTrends),
		RecommendedSkills: stringArray(v.Content.RecommendedSkills),
		LastUpdated:       v.LastUpdated,
		NextUpdate:        v.NextUpdate,
	}
}

func insightFromRow(row insightTableModel) insight.Insight {
	return insight.Insight{
		ID:       row.ID,
		Industry: row.Industry,
		Content: insight.Content{
			SalaryRanges:      append([]insight.SalaryRange{}, row.SalaryRanges...),
			GrowthRate:        row.GrowthRate,
			DemandLevel:       insight.DemandLevel(row.DemandLevel),
			TopSkills:         append([]string{}, row.TopSkills...),
			MarketOutlook:     insight.MarketOutlook(row.MarketOutlook),
			KeyTrends:         append([]string{}, row.KeyTrends...),
			RecommendedSkills: append([]string{}, row.RecommendedSkills...),
		},
		LastUpdated: row.LastUpdated,
		NextUpdate:  row.NextUpdate,
	}
}
