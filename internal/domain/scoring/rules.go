package scoring

import (
	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/domain/prediction"
)

const (
	PointsExactScore      = 6
	PointsCorrectGoalDiff = 4
	PointsCorrectOutcome  = 2
)

// Score awards points for one prediction against one match. It is a pure
// function: a missing score on either side yields zero, never an error, and
// only completed matches with a reported final score can award points.
func Score(p prediction.Prediction, m match.Match) int {
	if !m.IsCompleted() || !m.HasFinalScore() || !p.IsComplete() {
		return 0
	}

	predHome, predAway := *p.HomeScore, *p.AwayScore
	matchHome, matchAway := *m.HomeScore, *m.AwayScore

	if predHome == matchHome && predAway == matchAway {
		return PointsExactScore
	}

	predDiff := predHome - predAway
	matchDiff := matchHome - matchAway
	if sign(predDiff) != sign(matchDiff) {
		return 0
	}
	if predDiff == matchDiff {
		return PointsCorrectGoalDiff
	}
	return PointsCorrectOutcome
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
