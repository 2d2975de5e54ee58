package insight

import (
	"strings"
	"time"
)

// RefreshInterval is the lifetime of generated content before the refresh
// job picks it up again.
const RefreshInterval = 7 * 24 * time.Hour

type DemandLevel string

const (
	DemandHigh   DemandLevel = "HIGH"
	DemandMedium DemandLevel = "MEDIUM"
	DemandLow    DemandLevel = "LOW"
)

type MarketOutlook string

const (
	OutlookPositive MarketOutlook = "POSITIVE"
	OutlookNeutral  MarketOutlook = "NEUTRAL"
	OutlookNegative MarketOutlook = "NEGATIVE"
)

// Insight is the cached market report for one industry. At most one exists
// per industry.
type Insight struct {
	ID          string
	Industry    string
	Content     Content
	LastUpdated time.Time
	NextUpdate  time.Time
}

// Due reports whether the content should be regenerated at now.
func (i Insight) Due(now time.Time) bool {
	return !i.NextUpdate.After(now)
}

type Content struct {
	SalaryRanges      []SalaryRange
	GrowthRate        float64
	DemandLevel       DemandLevel
	TopSkills         []string
	MarketOutlook     MarketOutlook
	KeyTrends         []string
	RecommendedSkills []string
}

type SalaryRange struct {
	Role     string
	Min      float64
	Max      float64
	Median   float64
	Location string
}

func ParseDemandLevel(v string) (DemandLevel, bool) {
	switch DemandLevel(strings.ToUpper(strings.TrimSpace(v))) {
	case DemandHigh:
		return DemandHigh, true
	case DemandMedium:
		return DemandMedium, true
	case DemandLow:
		return DemandLow, true
	default:
		return "", false
	}
}

func ParseMarketOutlook(v string) (MarketOutlook, bool) {
	switch MarketOutlook(strings.ToUpper(strings.TrimSpace(v))) {
	case OutlookPositive:
		return OutlookPositive, true
	case OutlookNeutral:
		return OutlookNeutral, true
	case OutlookNegative:
		return OutlookNegative, true
	default:
		return "", false
	}
}
