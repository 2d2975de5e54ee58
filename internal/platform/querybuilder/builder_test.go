package querybuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "industry").
		From("industry_insights").
		Where(Lte("next_update", "2026-10-01"), Eq("industry", "tech")).
		OrderBy("next_update ASC").
		Limit(25).
		ToSQL()
	require.NoError(t, err)
	require.Equal(t,
		"SELECT id, industry FROM industry_insights WHERE next_update <= $1 AND industry = $2 ORDER BY next_update ASC LIMIT 25",
		query,
	)
	require.Equal(t, []any{"2026-10-01", "tech"}, args)
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	_, _, err := Select("id").ToSQL()
	require.Error(t, err)
}

func TestInsertBuilder_OnConflict(t *testing.T) {
	query, args, err := InsertInto("users").
		Columns("id", "clerk_user_id").
		Values("u1", "user_123").
		OnConflictDoNothing("clerk_user_id").
		Returning("id").
		ToSQL()
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO users (id, clerk_user_id) VALUES ($1, $2) ON CONFLICT (clerk_user_id) DO NOTHING RETURNING id",
		query,
	)
	require.Equal(t, []any{"u1", "user_123"}, args)
}

func TestInsertBuilder_ValueCountMismatch(t *testing.T) {
	_, _, err := InsertInto("users").Columns("id", "email").Values("u1").ToSQL()
	require.Error(t, err)
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("users").
		Set("industry", "tech-software").
		Set("updated_at", "2026-10-01T00:00:00Z").
		Where(Eq("id", "u1")).
		Returning("id", "industry").
		ToSQL()
	require.NoError(t, err)
	require.Equal(t,
		"UPDATE users SET industry = $1, updated_at = $2 WHERE id = $3 RETURNING id, industry",
		query,
	)
	require.Equal(t, []any{"tech-software", "2026-10-01T00:00:00Z", "u1"}, args)
}

func TestUpdateBuilder_RequiresWhere(t *testing.T) {
	_, _, err := Update("users").Set("bio", "x").ToSQL()
	require.Error(t, err)
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID        string    `db:"id"`
		Industry  string    `db:"industry"`
		Ignored   string    `db:"-"`
		CreatedAt time.Time `db:"created_at"`
		internal  string
	}

	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b, err := InsertModel("industry_insights", row{ID: "i1", Industry: "tech", CreatedAt: now, internal: "x"})
	require.NoError(t, err)

	query, args, err := b.OnConflictDoNothing("industry").ToSQL()
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO industry_insights (id, industry, created_at) VALUES ($1, $2, $3) ON CONFLICT (industry) DO NOTHING",
		query,
	)
	require.Equal(t, []any{"i1", "tech", now}, args)
}
