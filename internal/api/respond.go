// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github-catalog-sync/internal/database"
)

// repoResponse is the JSON shape of one catalog entry.
type repoResponse struct {
	ID           int64      `json:"id"`
	RemoteID     int64      `json:"remote_id"`
	Name         string     `json:"name"`
	FullName     string     `json:"full_name"`
	Description  *string    `json:"description,omitempty"`
	HTMLURL      string     `json:"html_url"`
	CloneURL     string     `json:"clone_url"`
	Language     string     `json:"language"`
	Visibility   string     `json:"visibility"`
	Active       bool       `json:"active"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func toRepoResponse(e database.CatalogEntry) repoResponse {
	resp := repoResponse{
		ID:         e.ID,
		RemoteID:   e.RemoteID,
		Name:       e.Name,
		FullName:   e.FullName,
		HTMLURL:    e.HTMLURL,
		CloneURL:   e.CloneURL,
		Language:   e.Language,
		Visibility: e.Visibility,
		Active:     e.Active,
	}
	if e.Description.Valid {
		resp.Description = &e.Description.String
	}
	if e.LastSyncedAt.Valid {
		resp.LastSyncedAt = &e.LastSyncedAt.Time
	}
	return resp
}

func toRepoResponses(entries []database.CatalogEntry) []repoResponse {
	out := make([]repoResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRepoResponse(e))
	}
	return out
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
