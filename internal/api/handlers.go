package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/vaultlens/vaultlens/internal/analyze"
	"github.com/vaultlens/vaultlens/internal/apperr"
	"github.com/vaultlens/vaultlens/internal/autolink"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// noteName extracts the {name} URL parameter, decoding percent escapes
// so clients can address notes with spaces in their titles.
func noteName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Analysis handles GET /api/analysis.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analysis(r.Context())
	if err != nil {
		slog.Error("analysis failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Report handles GET /api/analysis/report, returning the Markdown
// rendering of a fresh analysis.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analysis(r.Context())
	if err != nil {
		slog.Error("report failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(analyze.ExportMarkdown(a)))
}

// Folders handles GET /api/folders.
func (h *Handler) Folders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.Folders(r.Context())
	if err != nil {
		slog.Error("folders failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// Suggestions handles GET /api/notes/{name}/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	s, err := h.svc.Suggestions(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("suggestions failed", slog.String("note", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Discover handles GET /api/discover, running the LLM classifier over
// unlinked note pairs. Returns 409 when no classifier is configured.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	connections, err := h.svc.Discover(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrClassifierDisabled) {
			writeJSON(w, http.StatusConflict, errorBody("classifier is not configured"))
			return
		}
		slog.Error("discover failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": connections})
}

// ApplyLinks handles POST /api/link. Mutation is opt-in: requests run
// as a dry run unless "apply" is true.
func (h *Handler) ApplyLinks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Folder    string  `json:"folder"`
		Threshold float64 `json:"threshold"`
		Apply     bool    `json:"apply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Threshold == 0 {
		req.Threshold = autolink.DefaultThreshold
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("threshold must be between 0 and 1"))
		return
	}

	res, err := h.svc.ApplyLinks(r.Context(), autolink.Options{
		Folder:              req.Folder,
		ConfidenceThreshold: req.Threshold,
		DryRun:              !req.Apply,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrSafetyLimit) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		slog.Error("apply links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Backups handles GET /api/backups.
func (h *Handler) Backups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.svc.Backups(r.Context())
	if err != nil {
		slog.Error("list backups failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if backups == nil {
		backups = []autolink.Manifest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}
