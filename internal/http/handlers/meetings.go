package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
	"posterlab/internal/sqlinline"
)

type meetingRequest struct {
	Name      string              `json:"name"`
	Date      string              `json:"date"`
	ClubName  string              `json:"club_name"`
	CreatedBy string              `json:"created_by"`
	Roles     []domain.VotingRole `json:"roles"`
	// Code pins the public slug instead of deriving one.
	Code string `json:"code"`
}

func (a *App) MeetingsCreate(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "date is required")
		return
	}
	if len(req.Roles) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "at least one role is required")
		return
	}

	slug := strings.TrimSpace(req.Code)
	if slug == "" {
		slug = domain.NewMeetingSlug(req.Name, req.ClubName)
	} else if !domain.ValidSlug(slug) {
		a.error(w, http.StatusBadRequest, "bad_request", "code must be 3-100 chars of [a-z0-9-]")
		return
	}

	rolesJSON, err := json.Marshal(req.Roles)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid roles")
		return
	}

	meeting := domain.Meeting{
		Slug:      slug,
		Name:      req.Name,
		Date:      req.Date,
		ClubName:  req.ClubName,
		CreatedBy: req.CreatedBy,
		Roles:     req.Roles,
		IsActive:  true,
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertMeeting,
		slug, req.Name, req.Date, req.ClubName, req.CreatedBy, rolesJSON)
	if err := row.Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			a.error(w, http.StatusConflict, "conflict", "slug already in use")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to create meeting")
		return
	}
	a.json(w, http.StatusCreated, meeting)
}

func (a *App) MeetingsList(w http.ResponseWriter, r *http.Request) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListMeetings, 100)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load meetings")
		return
	}
	defer rows.Close()

	items := make([]domain.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			continue
		}
		items = append(items, meeting)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) MeetingGet(w http.ResponseWriter, r *http.Request) {
	meeting, err := a.meetingBySlug(r, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "meeting not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load meeting")
		return
	}
	a.json(w, http.StatusOK, meeting)
}

type meetingPatch struct {
	IsActive *bool                `json:"is_active"`
	Roles    *[]domain.VotingRole `json:"roles"`
}

func (a *App) MeetingUpdate(w http.ResponseWriter, r *http.Request) {
	var req meetingPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var rolesJSON any
	if req.Roles != nil {
		data, err := json.Marshal(*req.Roles)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid roles")
			return
		}
		rolesJSON = data
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpdateMeeting,
		chi.URLParam(r, "slug"), req.IsActive, rolesJSON)
	meeting, err := scanMeeting(row)
	if err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "meeting not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to update meeting")
		return
	}
	a.json(w, http.StatusOK, meeting)
}

func (a *App) meetingBySlug(r *http.Request, slug string) (domain.Meeting, error) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectMeetingBySlug, slug)
	meeting, err := scanMeeting(row)
	if infra.IsNoRows(err) {
		return domain.Meeting{}, domain.ErrNotFound
	}
	return meeting, err
}

func scanMeeting(row pgx.Row) (domain.Meeting, error) {
	var m domain.Meeting
	var roles []byte
	if err := row.Scan(&m.ID, &m.Slug, &m.Name, &m.Date, &m.ClubName, &m.CreatedBy,
		&roles, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return domain.Meeting{}, err
	}
	if len(roles) > 0 {
		_ = json.Unmarshal(roles, &m.Roles)
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
