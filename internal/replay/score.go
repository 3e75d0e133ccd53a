package replay

import (
	"sort"

	"github.com/your-org/rallyscope/internal/models"
)

// ScoreAt resolves the scoreboard for a position from the momentum timeline:
// the score is a step function that holds each sample's value until the next
// one. Positions before the first sample read 0-0.
func ScoreAt(timeline []models.MomentumSample, positionMs int64) models.ScoreState {
	idx := sort.Search(len(timeline), func(i int) bool {
		return timeline[i].TimestampMs > positionMs
	})
	if idx == 0 {
		return models.ScoreState{}
	}
	return timeline[idx-1].ScoreAfter
}

// LeadAt is the point differential at a position, positive when player 1
// leads.
func LeadAt(timeline []models.MomentumSample, positionMs int64) int {
	score := ScoreAt(timeline, positionMs)
	return score.Player1 - score.Player2
}
