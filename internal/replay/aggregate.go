package replay

import (
	"sort"

	"github.com/your-org/rallyscope/internal/models"
)

// LiveStats is the elapsed-to-date aggregate for a position: only shots whose
// timestamp is at or before the position count. An empty prefix yields the
// zero value, not an error.
type LiveStats struct {
	TotalShots   int     `json:"totalShots"`
	MaxSpeed     float64 `json:"maxSpeed"`
	AverageSpeed float64 `json:"averageSpeed"`
	Player1Shots int     `json:"player1Shots"`
	Player2Shots int     `json:"player2Shots"`
}

// Aggregate computes live statistics over the timestamp-sorted shot prefix
// ending at positionMs. The average is the exact arithmetic mean; rounding
// for display is the presentation layer's call.
func Aggregate(shots []models.Shot, positionMs int64) LiveStats {
	cut := sort.Search(len(shots), func(i int) bool {
		return shots[i].TimestampMs > positionMs
	})

	stats := LiveStats{TotalShots: cut}
	if cut == 0 {
		return stats
	}

	var sum float64
	for _, shot := range shots[:cut] {
		sum += shot.Speed
		if shot.Speed > stats.MaxSpeed {
			stats.MaxSpeed = shot.Speed
		}
		if shot.Player == 2 {
			stats.Player2Shots++
		} else {
			stats.Player1Shots++
		}
	}
	stats.AverageSpeed = sum / float64(cut)
	return stats
}
