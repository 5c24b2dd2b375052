package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// ProvidersList reports which providers are configured per tier. Key material
// never leaves the server; only presence is exposed.
func (a *App) ProvidersList(w http.ResponseWriter, r *http.Request) {
	premium := make([]string, 0, len(a.Capabilities.Premium))
	for name := range a.Capabilities.Premium {
		premium = append(premium, name)
	}
	sort.Strings(premium)
	free := make([]string, 0, len(a.Capabilities.Free))
	for name := range a.Capabilities.Free {
		free = append(free, name)
	}
	sort.Strings(free)
	a.json(w, http.StatusOK, map[string]any{
		"selfhosted": a.Capabilities.SelfHosted,
		"premium":    premium,
		"free":       free,
	})
}

type providerKeyRequest struct {
	Token string `json:"token"`
}

// ProviderKeySet stores an API key for a premium provider. Takes effect on
// the next worker restart; capabilities are snapshotted at startup.
func (a *App) ProviderKeySet(w http.ResponseWriter, r *http.Request) {
	if !a.isAdmin(r) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "admin token required")
		return
	}
	provider := chi.URLParam(r, "provider")
	var req providerKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Credentials.SetToken(r.Context(), provider, req.Token); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"provider": provider, "stored": true})
}

// ProviderKeyDelete removes a stored API key for a premium provider.
func (a *App) ProviderKeyDelete(w http.ResponseWriter, r *http.Request) {
	if !a.isAdmin(r) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "admin token required")
		return
	}
	provider := chi.URLParam(r, "provider")
	if err := a.Credentials.DeleteToken(r.Context(), provider); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"provider": provider, "stored": false})
}
