package profile

// Profile is one user's aggregate standing. The recalculator only ever
// touches TotalPoints; the cosmetic fields belong to the app.
type Profile struct {
	ID          string
	UserID      string
	Nickname    string
	AvatarURL   string
	TotalPoints int
}
