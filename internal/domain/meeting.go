package domain

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Nominee is a candidate for a meeting role. Prefix is "TM" for members or
// "Guest" for visitors.
type Nominee struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix,omitempty"`
}

// VotingRole groups the nominees competing for one meeting role.
type VotingRole struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Nominees []Nominee `json:"nominees"`
}

// Meeting is one voting session, addressed by its public slug.
type Meeting struct {
	ID        string       `json:"id"`
	Slug      string       `json:"slug"`
	Name      string       `json:"name"`
	Date      string       `json:"date"`
	ClubName  string       `json:"club_name"`
	CreatedBy string       `json:"created_by"`
	Roles     []VotingRole `json:"roles"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Vote records one ballot. A voter may vote at most once per (meeting, role).
type Vote struct {
	ID           string    `json:"id"`
	MeetingID    string    `json:"meeting_id"`
	RoleID       string    `json:"role_id"`
	Nominee      Nominee   `json:"nominee"`
	VoterEmail   string    `json:"voter_email"`
	VoterName    string    `json:"voter_name"`
	VoterLocale  string    `json:"voter_locale,omitempty"`
	VoterCountry string    `json:"voter_country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NomineeTally is one nominee's share of a role's votes.
type NomineeTally struct {
	Nominee    Nominee `json:"nominee"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// RoleResult is the tallied outcome for a single role.
type RoleResult struct {
	RoleID     string         `json:"role_id"`
	RoleName   string         `json:"role_name"`
	TotalVotes int            `json:"total_votes"`
	Results    []NomineeTally `json:"results"`
}

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugStrip     = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespce = regexp.MustCompile(`\s+`)
	slugDashes    = regexp.MustCompile(`-+`)
)

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewMeetingSlug derives a URL-safe identifier from the meeting and club
// names with a random suffix for uniqueness.
func NewMeetingSlug(meetingName, clubName string) string {
	base := strings.ToLower(meetingName + "-" + clubName)
	base = slugStrip.ReplaceAllString(base, "")
	base = slugWhitespce.ReplaceAllString(base, "-")
	base = slugDashes.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = slugAlphabet[rand.Intn(len(slugAlphabet))]
	}
	if base == "" {
		return string(suffix)
	}
	return base + "-" + string(suffix)
}

// ValidSlug reports whether a slug is acceptable as a meeting address.
func ValidSlug(slug string) bool {
	return len(slug) >= 3 && len(slug) <= 100 && slugPattern.MatchString(slug)
}
