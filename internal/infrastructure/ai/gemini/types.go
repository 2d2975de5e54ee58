package gemini

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r generateResponse) firstText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	return r.Candidates[0].Content.Parts[0].Text, true
}

type insightPayload struct {
	SalaryRanges []struct {
		Role     string  `json:"role"`
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Median   float64 `json:"median"`
		Location string  `json:"location"`
	} `json:"salaryRanges"`
	GrowthRate        float64  `json:"growthRate"`
	DemandLevel       string   `json:"demandLevel"`
	TopSkills         []string `json:"topSkills"`
	MarketOutlook     string   `json:"marketOutlook"`
	KeyTrends         []string `json:"keyTrends"`
	RecommendedSkills []string `json:"recommendedSkills"`
}
