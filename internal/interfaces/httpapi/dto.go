package httpapi

import (
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

// updateProfileRequest only checks shape. Length and count limits apply to
// trimmed, de-duplicated values and live in the profile service.
type updateProfileRequest struct {
	Industry   string   `json:"industry" validate:"required"`
	Experience *int     `json:"experience" validate:"omitnil,min=0,max=50"`
	Bio        string   `json:"bio"`
	Skills     []string `json:"skills"`
}

type userDTO struct {
	ID          string   `json:"id"`
	ClerkUserID string   `json:"clerkUserId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	ImageURL    *string  `json:"imageUrl"`
	Industry    *string  `json:"industry"`
	Experience  *int     `json:"experience"`
	Bio         *string  `json:"bio"`
	Skills      []string `json:"skills"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type onboardingStatusDTO struct {
	IsOnboarded bool `json:"isOnboarded"`
}

type salaryRangeDTO struct {
	Role     string  `json:"role"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Location string  `json:"location"`
}

type insightDTO struct {
	ID                string           `json:"id"`
	Industry          string           `json:"industry"`
	SalaryRanges      []salaryRangeDTO `json:"salaryRanges"`
	GrowthRate        float64          `json:"growthRate"`
	DemandLevel       string           `json:"demandLevel"`
	TopSkills         []string         `json:"topSkills"`
	MarketOutlook     string           `json:"marketOutlook"`
	KeyTrends         []string         `json:"keyTrends"`
	RecommendedSkills []string         `json:"recommendedSkills"`
	LastUpdated       string           `json:"lastUpdated"`
	NextUpdate        string           `json:"nextUpdate"`
}

type refreshFailureDTO struct {
	Industry string `json:"industry"`
	Error    string `json:"error"`
}

type refreshResultDTO struct {
	Scanned   int                 `json:"scanned"`
	Refreshed int                 `json:"refreshed"`
	Failed    []refreshFailureDTO `json:"failed"`
}

func userToDTO(v user.User) userDTO {
	return userDTO{
		ID:          v.ID,
		ClerkUserID: v.ExternalID,
		Email:       v.Email,
		Name:        v.Name,
		ImageURL:    v.ImageURL,
		Industry:    optionalText(v.Industry),
		Experience:  v.Experience,
		Bio:         optionalText(v.Bio),
		Skills:      nonNilStrings(v.Skills),
		CreatedAt:   formatTime(v.CreatedAt),
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func insightToDTO(v insight.Insight) insightDTO {
	ranges := make([]salaryRangeDTO, 0, len(v.Content.SalaryRanges))
	for _, r := range v.Content.SalaryRanges {
		ranges = append(ranges, salaryRangeDTO(r))
	}

	return insightDTO{
		ID:                v.ID,
		Industry:          v.Industry,
		SalaryRanges:      ranges,
		GrowthRate:        v.Content.GrowthRate,
		DemandLevel:       string(v.Content.DemandLevel),
		TopSkills:         nonNilStrings(v.Content.TopSkills),
		MarketOutlook:     string(v.Content.MarketOutlook),
		KeyTrends:         nonNilStrings(v.Content.KeyTrends),
		RecommendedSkills: nonNilStrings(v.Content.RecommendedSkills),
		LastUpdated:       formatTime(v.LastUpdated),
		NextUpdate:        formatTime(v.NextUpdate),
	}
}

func refreshResultToDTO(v usecase.RefreshResult) refreshResultDTO {
	failed := make([]refreshFailureDTO, 0, len(v.Failed))
	for _, f := range v.Failed {
		failed = append(failed, refreshFailureDTO{Industry: f.Industry, Error: f.Error})
	}
	return refreshResultDTO{Scanned: v.Scanned, Refreshed: v.Refreshed, Failed: failed}
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
