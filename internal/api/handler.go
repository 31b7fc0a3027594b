// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github-catalog-sync/internal/database"
	custom_errors "github-catalog-sync/internal/errors"
	"github-catalog-sync/internal/model"
)

// SyncRunner triggers one synchronization run; satisfied by syncer.Syncer.
type SyncRunner interface {
	RunSync(ctx context.Context) (model.SyncResult, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	db     database.Querier
	syncer SyncRunner
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db database.Querier, syncer SyncRunner, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		syncer: syncer,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sync", h.triggerSync)
		r.Get("/repos", h.listRepos)
		r.Patch("/repos/{id}/active", h.setRepoActive)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerSync runs a synchronization synchronously and returns its result.
// POST /v1/sync
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.RunSync(r.Context())
	if err != nil {
		var rlErr *custom_errors.RateLimitError
		var unavailErr *custom_errors.ErrEndpointUnavailable
		switch {
		case errors.As(err, &rlErr):
			msg := "GitHub rate limited the sync"
			if !rlErr.RateLimit.Reset.IsZero() {
				msg += ", retry after " + rlErr.RateLimit.Reset.Format(time.RFC3339)
			}
			respondWithError(w, http.StatusTooManyRequests, msg)
		case errors.As(err, &unavailErr):
			respondWithError(w, http.StatusBadGateway, "GitHub is unreachable, catalog left untouched")
		default:
			h.logger.Error("Sync failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// listRepos returns catalog entries.
// GET /v1/repos?active=true
func (h *Handler) listRepos(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	entries, err := h.db.ListEntries(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list catalog entries", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, toRepoResponses(entries))
}

// setRepoActive flips the active flag on one catalog entry. This is the
// operator's review step for repositories inserted inactive by a sync.
// PATCH /v1/repos/{id}/active
func (h *Handler) setRepoActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Request body must be JSON with an 'active' field")
		return
	}

	entry, err := h.db.SetEntryActive(r.Context(), id, body.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Catalog entry not found")
			return
		}
		h.logger.Error("Failed to update entry", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, toRepoResponse(entry))
}
