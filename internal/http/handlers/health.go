package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"providers": map[string]any{
			"selfhosted": a.Capabilities.SelfHosted,
			"premium":    len(a.Capabilities.Premium),
			"free":       len(a.Capabilities.Free),
		},
	})
}
