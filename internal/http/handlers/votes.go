package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
	"posterlab/internal/middleware"
	"posterlab/internal/sqlinline"
)

type voteRequest struct {
	MeetingSlug string         `json:"meeting_slug"`
	RoleID      string         `json:"role_id"`
	Nominee     domain.Nominee `json:"nominee"`
	VoterEmail  string         `json:"voter_email"`
	VoterName   string         `json:"voter_name"`
}

func (a *App) VotesCreate(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.MeetingSlug == "" || req.RoleID == "" || req.Nominee.Name == "" || strings.TrimSpace(req.VoterEmail) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "meeting_slug, role_id, nominee and voter_email are required")
		return
	}

	meeting, err := a.meetingBySlug(r, req.MeetingSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "meeting not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load meeting")
		return
	}
	if !meeting.IsActive {
		a.error(w, http.StatusConflict, "meeting_closed", "voting has closed for this meeting")
		return
	}

	nomineeJSON, err := json.Marshal(req.Nominee)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid nominee")
		return
	}

	vote := domain.Vote{
		MeetingID:    meeting.ID,
		RoleID:       req.RoleID,
		Nominee:      req.Nominee,
		VoterEmail:   strings.ToLower(strings.TrimSpace(req.VoterEmail)),
		VoterName:    req.VoterName,
		VoterLocale:  middleware.LocaleFromContext(r.Context()),
		VoterCountry: middleware.CountryFromContext(r.Context()),
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertVote,
		meeting.ID, req.RoleID, nomineeJSON, vote.VoterEmail, req.VoterName,
		vote.VoterLocale, vote.VoterCountry)
	if err := row.Scan(&vote.ID, &vote.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			a.error(w, http.StatusConflict, "duplicate_vote", "this voter already voted for this role")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to record vote")
		return
	}
	a.json(w, http.StatusCreated, vote)
}

// VoteCheck reports whether a voter has already voted for a role, so the
// client can disable the ballot before submitting.
func (a *App) VoteCheck(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("meeting_slug")
	roleID := r.URL.Query().Get("role_id")
	email := r.URL.Query().Get("voter_email")
	if slug == "" || roleID == "" || email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "meeting_slug, role_id and voter_email are required")
		return
	}

	meeting, err := a.meetingBySlug(r, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "meeting not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load meeting")
		return
	}

	var voteID string
	err = a.SQL.QueryRow(r.Context(), sqlinline.QSelectVoteByVoter, meeting.ID, roleID, email).Scan(&voteID)
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]bool{"voted": true})
	case infra.IsNoRows(err):
		a.json(w, http.StatusOK, map[string]bool{"voted": false})
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to check vote")
	}
}

// VoteResults tallies every role of a meeting with per-nominee percentages.
func (a *App) VoteResults(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("meeting_slug")
	if slug == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "meeting_slug is required")
		return
	}
	meeting, err := a.meetingBySlug(r, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "meeting not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load meeting")
		return
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListVotesForMeeting, meeting.ID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load votes")
		return
	}
	defer rows.Close()

	type tallyKey struct{ roleID, nominee string }
	counts := make(map[tallyKey]int)
	nominees := make(map[tallyKey]domain.Nominee)
	totals := make(map[string]int)
	for rows.Next() {
		var roleID string
		var nomineeJSON []byte
		if err := rows.Scan(&roleID, &nomineeJSON); err != nil {
			continue
		}
		var nominee domain.Nominee
		if err := json.Unmarshal(nomineeJSON, &nominee); err != nil {
			continue
		}
		key := tallyKey{roleID: roleID, nominee: string(nomineeJSON)}
		counts[key]++
		nominees[key] = nominee
		totals[roleID]++
	}

	results := make([]domain.RoleResult, 0, len(meeting.Roles))
	for _, role := range meeting.Roles {
		roleResult := domain.RoleResult{
			RoleID:     role.ID,
			RoleName:   role.Name,
			TotalVotes: totals[role.ID],
			Results:    []domain.NomineeTally{},
		}
		for key, count := range counts {
			if key.roleID != role.ID {
				continue
			}
			tally := domain.NomineeTally{Nominee: nominees[key], Votes: count}
			if roleResult.TotalVotes > 0 {
				tally.Percentage = float64(count) * 100 / float64(roleResult.TotalVotes)
			}
			roleResult.Results = append(roleResult.Results, tally)
		}
		sortTallies(roleResult.Results)
		results = append(results, roleResult)
	}

	a.json(w, http.StatusOK, map[string]any{
		"meeting_slug": meeting.Slug,
		"results":      results,
	})
}

// sortTallies orders by votes descending, then nominee name for stability.
func sortTallies(tallies []domain.NomineeTally) {
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Votes != tallies[j].Votes {
			return tallies[i].Votes > tallies[j].Votes
		}
		return tallies[i].Nominee.Name < tallies[j].Nominee.Name
	})
}
