package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/infra/credentials"
)

// GenerationStore is the slice of generation persistence the API needs.
type GenerationStore interface {
	domain.GenerationRepository
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.GenerationRecord, error)
}

// App carries the wired dependencies every handler needs.
type App struct {
	SQL          infra.SQLExecutor
	Generations  GenerationStore
	Assets       domain.AssetRepository
	Credentials  *credentials.Store
	Capabilities domain.Capabilities
	Logger       infra.Logger
	AdminToken   string
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}

// currentUserID extracts the caller identity set by the gateway. Empty means
// the request is anonymous.
func (a *App) currentUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// isAdmin reports whether the request carries the configured admin token.
func (a *App) isAdmin(r *http.Request) bool {
	if a.AdminToken == "" {
		return false
	}
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token == a.AdminToken
}
