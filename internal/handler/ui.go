package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/actuallystonmai/movie-recommender/internal/logging"
)

const sessionCookie = "movie_session"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html").Funcs(template.FuncMap{
		"text":   textOrBlank,
		"rating": ratingOrBlank,
	}).ParseFS(templateFS, "templates/index.html"),
)

func textOrBlank(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}

func ratingOrBlank(r *float64) string {
	if r == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

// sessionID returns the visitor's session id, issuing a cookie on first visit.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	return id
}

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	view, err := h.service.View(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render view failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("template execute failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	if _, err := h.service.HandleSearch(r.Context(), id, r.PostFormValue("q")); err != nil {
		h.sessionFailed(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /select
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	if _, err := h.service.HandleSuggestion(r.Context(), id, r.PostFormValue("title")); err != nil {
		h.sessionFailed(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /more
func (h *Handler) ShowMore(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	if _, err := h.service.HandleShowMore(r.Context(), id); err != nil {
		h.sessionFailed(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GET /api/session returns the current session view as JSON.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	view, err := h.service.View(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render view failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) sessionFailed(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Msg("session update failed")
	http.Error(w, "session unavailable", http.StatusServiceUnavailable)
}

