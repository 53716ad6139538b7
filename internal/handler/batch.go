package handler

import (
	"net/http"

	"github.com/goccy/go-json"
)

// POST /api/movies/metadata/batch
func (h *Handler) GetBatchMetadata(w http.ResponseWriter, r *http.Request) {
	var req BatchMetadataRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON with a titles array")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "titles must hold 1 to 50 non-empty strings")
		return
	}

	movies := h.service.FetchBatch(r.Context(), req.Titles)
	writeJSON(w, http.StatusOK, BatchMetadataResponse{Movies: movies})
}
