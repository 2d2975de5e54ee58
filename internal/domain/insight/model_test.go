package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDemandLevel(t *testing.T) {
	got, ok := ParseDemandLevel(" high ")
	require.True(t, ok)
	require.Equal(t, DemandHigh, got)

	_, ok = ParseDemandLevel("extreme")
	require.False(t, ok)
}

func TestParseMarketOutlook(t *testing.T) {
	got, ok := ParseMarketOutlook("Negative")
	require.True(t, ok)
	require.Equal(t, OutlookNegative, got)

	_, ok = ParseMarketOutlook("")
	require.False(t, ok)
}

func TestInsight_Due(t *testing.T) {
	now := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)

	require.True(t, Insight{NextUpdate: now}.Due(now))
	require.True(t, Insight{NextUpdate: now.Add(-time.Hour)}.Due(now))
	require.False(t, Insight{NextUpdate: now.Add(time.Minute)}.Due(now))
}
