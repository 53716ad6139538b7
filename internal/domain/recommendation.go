package domain

type ScoredRecommendation struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
}

type RecommendationMeta struct {
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

type SuggestionMeta struct {
	ExactMatch bool `json:"exact_match"`
	TotalCount int  `json:"total_count"`
}
