package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/actuallystonmai/movie-recommender/internal/suggest"
	"github.com/actuallystonmai/movie-recommender/internal/tmdb"
)

// GET /api/suggest?q=
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	exact := query != "" && h.service.IsExact(query)

	suggestions := h.service.Suggest(query)
	if suggestions == nil {
		suggestions = []suggest.Suggestion{}
	}
	writeJSON(w, http.StatusOK, SuggestionResponse{
		Query:       query,
		Suggestions: suggestions,
		Metadata: domain.SuggestionMeta{
			ExactMatch: exact,
			TotalCount: len(suggestions),
		},
	})
}

// GET /api/recommendations?title=&n=
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing title parameter")
		return
	}

	// Parse and validate n
	n := h.service.RecommendCount()
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed < 1 || parsed > 50 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid n parameter")
			return
		}
		n = parsed
	}

	recs, err := h.service.Recommend(title, n)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTitle) {
			writeError(w, http.StatusNotFound, "title_not_found",
				fmt.Sprintf("Movie %q is not in the catalog", title))
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("recommend failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		Title:           title,
		Recommendations: recs,
		Metadata: domain.RecommendationMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(recs),
		},
	})
}

// GET /api/movies/metadata?title=
func (h *Handler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing title parameter")
		return
	}

	movie, err := h.service.Fetch(r.Context(), title)
	if err != nil {
		if tmdb.IsLookupError(err) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("metadata lookup failed")
			writeJSON(w, http.StatusOK, domain.NotFoundMovie(title))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}
