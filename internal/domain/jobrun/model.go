package jobrun

import "time"

type RunStatus string

const (
	StatusSent      RunStatus = "sent"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunEvent records one sync job invocation for observability and for
// deduplicating self-scheduled triggers.
type RunEvent struct {
	RunID        string
	JobName      string
	LeagueID     string
	Status       RunStatus
	Stats        map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
