package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// Match is the canonical record for one external sporting event. Exactly one
// record exists per ExternalID; the reconciler creates it on first sighting
// and mutates it in place afterwards.
type Match struct {
	ID            string
	ExternalID    string
	LeagueID      string
	HomeTeam      string
	AwayTeam      string
	Date          string // ISO-8601 combined date+time
	Status        string
	HomeScore     *int
	AwayScore     *int
	HomeTeamBadge string
	AwayTeamBadge string
}

// MapFeedStatus converts a provider status string to the canonical status.
// Unrecognized values fall back to scheduled so an unknown vocabulary never
// blocks ingestion.
func MapFeedStatus(value string) string {
	switch strings.TrimSpace(value) {
	case "Match Finished", "FT", "AET", "PEN":
		return StatusCompleted
	case "Live", "In Progress", "1H", "2H", "HT":
		return StatusInProgress
	case "Cancelled", "Canceled", "Postponed", "Abandoned":
		return StatusCanceled
	default:
		return StatusScheduled
	}
}

func (m Match) IsCompleted() bool {
	return m.Status == StatusCompleted
}

func (m Match) HasFinalScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// StartTime parses the stored date string. Feed variants deliver both plain
// combined timestamps and zoned RFC3339 strings.
func (m Match) StartTime() (time.Time, bool) {
	raw := strings.TrimSpace(m.Date)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// PredictionLockLead is how close to kickoff predictions close.
const PredictionLockLead = 2 * time.Minute

// IsLockedAt reports whether predictions for this match are closed: the match
// has left the scheduled state, or kickoff is less than the lock lead away.
func (m Match) IsLockedAt(now time.Time) bool {
	if m.Status != StatusScheduled {
		return true
	}
	start, ok := m.StartTime()
	if !ok {
		return false
	}
	return now.After(start.Add(-PredictionLockLead))
}
