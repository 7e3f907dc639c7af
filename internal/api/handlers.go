package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/davidahmann/subscreen/internal/auth"
	"github.com/davidahmann/subscreen/internal/intake"
	"github.com/davidahmann/subscreen/internal/ledger"
	"github.com/davidahmann/subscreen/pkg/types"
)

// maxBodyBytes bounds a single review request.
const maxBodyBytes = 8 << 20

type Handler struct {
	Auth          auth.Authenticator
	ReviewService *ReviewService
	Metrics       http.Handler
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.ReviewService.Review)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.ReviewService.Validate)
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, fn func([]types.Record) (ReviewResponse, error)) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.ReviewService == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review service not configured"})
		return
	}

	records, err := intake.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resp, err := fn(records)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.ReviewService == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review service not configured"})
		return
	}

	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing run_id"})
		return
	}

	resp, err := h.ReviewService.GetRun(runID)
	if errors.Is(err, ledger.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.Auth == nil {
		return true
	}
	if _, err := h.Auth.Authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// NewRouter wires the review endpoints. Unknown paths and methods answer
// with JSON errors like every other route.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	r.Post("/v1/review", h.Review)
	r.Post("/v1/validate", h.Validate)
	r.Get("/v1/runs/", h.Runs)
	r.Get("/v1/runs/{runID}", h.Runs)
	r.Get("/healthz", h.Healthz)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	return r
}
