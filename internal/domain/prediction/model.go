package prediction

// Prediction is one user's forecast for one match. The sync job only reads
// predictions; they are written by the prediction flow of the app.
type Prediction struct {
	ID        string
	MatchID   string // match store id, not the feed external id
	UserID    string
	HomeScore *int
	AwayScore *int
}

func (p Prediction) IsComplete() bool {
	return p.HomeScore != nil && p.AwayScore != nil
}
