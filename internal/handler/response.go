package handler

import (
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/suggest"
)

type RecommendationResponse struct {
	Title           string                        `json:"title"`
	Recommendations []domain.ScoredRecommendation `json:"recommendations"`
	Metadata        domain.RecommendationMeta     `json:"metadata"`
}

type SuggestionResponse struct {
	Query       string                `json:"query"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
	Metadata    domain.SuggestionMeta `json:"metadata"`
}

type BatchMetadataRequest struct {
	Titles []string `json:"titles" validate:"required,min=1,max=50,dive,required"`
}

type BatchMetadataResponse struct {
	Movies []domain.DisplayMovie `json:"movies"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
