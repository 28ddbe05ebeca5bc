package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"posterlab/internal/domain"
	"posterlab/pkg/zip"
)

type posterRequest struct {
	Theme   string `json:"theme"`
	Level   string `json:"level"`
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// PostersCreate accepts a generation request and returns the job id right
// away; clients poll PosterStatus for progress. A complete pre-supplied
// text triple is echoed back as "partial" so the UI can render immediately.
func (a *App) PostersCreate(w http.ResponseWriter, r *http.Request) {
	var req posterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "theme is required")
		return
	}
	level := strings.TrimSpace(req.Level)
	if level == "" {
		level = "medium"
	}

	resp := map[string]any{}
	var supplied *domain.WordText
	if req.Word != "" && req.Meaning != "" && req.Example != "" {
		supplied = &domain.WordText{Word: req.Word, Meaning: req.Meaning, Example: req.Example}
		resp["partial"] = supplied
	}
	resp["job_id"] = a.Orchestrator.Create(req.Theme, level, supplied)
	a.json(w, http.StatusAccepted, resp)
}

func (a *App) PosterStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.Registry.Get(chi.URLParam(r, "job_id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown job")
		return
	}
	a.json(w, http.StatusOK, job)
}

func (a *App) PostersList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Registry.List()})
}

// PosterArchive bundles a completed poster's artifacts (raster png, vector
// overlay, text payload) into a zip download.
func (a *App) PosterArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")
	job, ok := a.Registry.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown job")
		return
	}
	if job.Status != domain.JobStatusCompleted || job.Result == nil {
		a.error(w, http.StatusConflict, "not_ready", "job has not completed")
		return
	}

	var assets []zip.Asset
	if raw, found := strings.CutPrefix(job.Result.Image, "data:image/png;base64,"); found {
		if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
			assets = append(assets, zip.Asset{Filename: fmt.Sprintf("poster-%s.png", id), Data: data})
		}
	}
	if job.Result.Overlay != "" {
		assets = append(assets, zip.Asset{Filename: fmt.Sprintf("overlay-%s.svg", id), Data: []byte(job.Result.Overlay)})
	}
	if text, err := json.Marshal(job.Result.Text); err == nil {
		assets = append(assets, zip.Asset{Filename: fmt.Sprintf("text-%s.json", id), Data: text})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=poster-%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(zip.ArchiveAssets(assets))
}
