package usecase

import "context"

// ExternalEvent is one raw event row from the feed, transport-parsed but not
// yet canonicalized: Status carries the provider vocabulary and ExternalID
// may be empty when the feed returned a malformed row.
type ExternalEvent struct {
	ExternalID    string
	HomeTeam      string
	AwayTeam      string
	Date          string // combined ISO-8601 date+time
	Status        string // provider vocabulary, mapped later
	HomeScore     *int
	AwayScore     *int
	HomeTeamBadge string
	AwayTeamBadge string
}

// ExternalMatchProvider fetches raw events from the configured feed.
type ExternalMatchProvider interface {
	FetchPastLeagueEvents(ctx context.Context, leagueID string) ([]ExternalEvent, error)
	FetchUpcomingLeagueEvents(ctx context.Context, leagueID string) ([]ExternalEvent, error)
	FetchSeasonEvents(ctx context.Context, leagueID, season string) ([]ExternalEvent, error)
}
