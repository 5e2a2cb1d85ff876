package scoring

import (
	"testing"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/domain/prediction"
)

func intPtr(v int) *int { return &v }

func completedMatch(home, away int) match.Match {
	return match.Match{
		Status:    match.StatusCompleted,
		HomeScore: intPtr(home),
		AwayScore: intPtr(away),
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	m := completedMatch(3, 1)

	cases := []struct {
		name string
		home int
		away int
		want int
	}{
		{name: "exact score", home: 3, away: 1, want: 6},
		{name: "same direction same diff", home: 2, away: 0, want: 4},
		{name: "same direction same diff higher", home: 4, away: 2, want: 4},
		{name: "correct winner different diff", home: 2, away: 1, want: 2},
		{name: "wrong winner", home: 1, away: 2, want: 0},
		{name: "predicted draw on decided match", home: 1, away: 1, want: 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := prediction.Prediction{HomeScore: intPtr(tc.home), AwayScore: intPtr(tc.away)}
			if got := Score(p, m); got != tc.want {
				t.Fatalf("Score(%d-%d vs 3-1) = %d, want %d", tc.home, tc.away, got, tc.want)
			}
		})
	}
}

func TestScore_DrawPredictionOnDraw(t *testing.T) {
	t.Parallel()

	m := completedMatch(2, 2)
	p := prediction.Prediction{HomeScore: intPtr(1), AwayScore: intPtr(1)}
	if got := Score(p, m); got != 4 {
		t.Fatalf("predicted draw against actual draw should score 4 (diff 0 == diff 0), got %d", got)
	}
}

func TestScore_MissingMatchScore(t *testing.T) {
	t.Parallel()

	m := match.Match{Status: match.StatusCompleted, AwayScore: intPtr(1)}
	p := prediction.Prediction{HomeScore: intPtr(3), AwayScore: intPtr(1)}
	if got := Score(p, m); got != 0 {
		t.Fatalf("match without home score must yield 0, got %d", got)
	}
}

func TestScore_MissingPredictionScore(t *testing.T) {
	t.Parallel()

	m := completedMatch(3, 1)
	p := prediction.Prediction{HomeScore: intPtr(3)}
	if got := Score(p, m); got != 0 {
		t.Fatalf("incomplete prediction must yield 0, got %d", got)
	}
}

func TestScore_NonCompletedMatch(t *testing.T) {
	t.Parallel()

	m := match.Match{
		Status:    match.StatusInProgress,
		HomeScore: intPtr(3),
		AwayScore: intPtr(1),
	}
	p := prediction.Prediction{HomeScore: intPtr(3), AwayScore: intPtr(1)}
	if got := Score(p, m); got != 0 {
		t.Fatalf("non-completed match must yield 0, got %d", got)
	}
}
