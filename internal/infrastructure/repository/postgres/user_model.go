package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/career-coach/internal/domain/user"
)

var userColumns = []string{
	"id", "clerk_user_id", "email", "name", "image_url", "industry",
	"experience", "bio", "skills", "created_at", "updated_at",
}

type userTableModel struct {
	ID          string         `db:"id"`
	ClerkUserID string         `db:"clerk_user_id"`
	Email       string         `db:"email"`
	Name        string         `db:"name"`
	ImageURL    sql.NullString `db:"image_url"`
	Industry    sql.NullString `db:"industry"`
	Experience  sql.NullInt64  `db:"experience"`
	Bio         sql.NullString `db:"bio"`
	Skills      pq.StringArray `db:"skills"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type userInsertModel struct {
	ID          string         `db:"id"`
	ClerkUserID string         `db:"clerk_user_id"`
	Email       string         `db:"email"`
	Name        string         `db:"name"`
	ImageURL    *string        `db:"image_url"`
	Skills      pq.StringArray `db:"skills"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func userFromRow(row userTableModel) user.User {
	out := user.User{
		ID:         row.ID,
		ExternalID: row.ClerkUserID,
		Email:      row.Email,
		Name:       row.Name,
		Industry:   strings.TrimSpace(row.Industry.String),
		Bio:        row.Bio.String,
		Skills:     append([]string{}, row.Skills...),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.ImageURL.Valid {
		v := row.ImageURL.String
		out.ImageURL = &v
	}
	if row.Experience.Valid {
		v := int(row.Experience.Int64)
		out.Experience = &v
	}
	return out
}
