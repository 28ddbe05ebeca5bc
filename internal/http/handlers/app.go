package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"posterlab/internal/infra"
	"posterlab/internal/jobs"
)

// App carries the dependencies shared by all HTTP handlers.
type App struct {
	Registry     *jobs.Registry
	Orchestrator *jobs.Orchestrator
	SQL          infra.SQLExecutor
	Config       infra.Config
	Logger       zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
