package analysis

import (
	"math"

	"github.com/your-org/rallyscope/internal/models"
)

// BuildStatistics computes the whole-match aggregates. Model-provided values
// win; anything missing is derived from the normalized shots and events.
// Averages are rounded to one decimal. As a side effect the momentum pass
// stamps score_after metadata on SCORE events.
func BuildStatistics(modelStats *ModelStatistics, shots []models.Shot, events []models.Event) *models.Statistics {
	momentum := buildMomentumTimeline(events)

	stats := &models.Statistics{
		TotalRallies:     len(events),
		AvgBallSpeed:     round1(averageSpeed(shots)),
		MaxBallSpeed:     round1(maxSpeed(shots)),
		MomentumTimeline: momentum,
	}
	if n := len(momentum); n > 0 {
		stats.Player1Score = momentum[n-1].ScoreAfter.Player1
		stats.Player2Score = momentum[n-1].ScoreAfter.Player2
	}

	if modelStats != nil {
		if modelStats.Player1Score != nil {
			stats.Player1Score = *modelStats.Player1Score
		}
		if modelStats.Player2Score != nil {
			stats.Player2Score = *modelStats.Player2Score
		}
		if modelStats.TotalRallies != nil {
			stats.TotalRallies = *modelStats.TotalRallies
		}
		if modelStats.AvgBallSpeed != nil {
			stats.AvgBallSpeed = round1(*modelStats.AvgBallSpeed)
		}
		if modelStats.MaxBallSpeed != nil {
			stats.MaxBallSpeed = round1(*modelStats.MaxBallSpeed)
		}
		if modelStats.AvgRallyLength != nil {
			stats.AvgRallyLength = round1(*modelStats.AvgRallyLength)
		}
	}

	stats.RallyMetrics = buildRallyMetrics(shots, events)
	if stats.AvgRallyLength == 0 {
		stats.AvgRallyLength = stats.RallyMetrics.AverageRallyLength
	}
	stats.ShotSpeedMetrics = buildShotSpeedMetrics(shots)
	stats.ServeMetrics = buildServeMetrics(shots)
	stats.ReturnMetrics = buildReturnMetrics(shots)
	stats.ShotTypeBreakdown = buildShotTypeBreakdown(shots)
	stats.PlayerBreakdown = buildPlayerBreakdown(shots, events)

	return stats
}

// buildMomentumTimeline emits one sample per SCORE event, never per frame.
// Events must already be timestamp-ordered.
func buildMomentumTimeline(events []models.Event) []models.MomentumSample {
	var samples []models.MomentumSample
	score := models.ScoreState{}
	for i := range events {
		event := &events[i]
		if event.Type != models.EventTypeScore {
			continue
		}
		player := 1
		if event.Player != nil {
			player = *event.Player
		}
		if player == 2 {
			score.Player2++
		} else {
			score.Player1++
		}
		after := score
		if event.Metadata != nil {
			event.Metadata.ScoreAfter = &after
		}
		samples = append(samples, models.MomentumSample{
			TimestampMs:   event.TimestampMs,
			ScoringPlayer: player,
			ScoreAfter:    after,
			Lead:          after.Player1 - after.Player2,
		})
	}
	return samples
}

func buildRallyMetrics(shots []models.Shot, events []models.Event) *models.RallyMetrics {
	metrics := &models.RallyMetrics{}
	gap := averageShotGapSeconds(shots)

	var lengths []int
	var speedSum float64
	var speedCount int
	for _, event := range events {
		if event.Metadata == nil || event.Metadata.RallyLength == nil {
			continue
		}
		lengths = append(lengths, *event.Metadata.RallyLength)
		if event.Metadata.ShotSpeed != nil {
			speedSum += *event.Metadata.ShotSpeed
			speedCount++
		}
	}

	metrics.TotalRallies = len(events)
	if len(lengths) > 0 {
		sum, longest := 0, 0
		for _, l := range lengths {
			sum += l
			if l > longest {
				longest = l
			}
		}
		metrics.AverageRallyLength = round1(float64(sum) / float64(len(lengths)))
		metrics.LongestRallyLength = longest
		metrics.AverageRallySeconds = round1(metrics.AverageRallyLength * gap)
		metrics.LongestRallySeconds = round1(float64(longest) * gap)
	}
	if speedCount > 0 {
		metrics.AverageRallyShotSpeed = round1(speedSum / float64(speedCount))
	}
	return metrics
}

func buildShotSpeedMetrics(shots []models.Shot) *models.ShotSpeedMetrics {
	metrics := &models.ShotSpeedMetrics{
		FastestShot: round1(maxSpeed(shots)),
		AverageShot: round1(averageSpeed(shots)),
	}

	var serveSum, rallySum float64
	var serveCount, rallyCount int
	for _, shot := range shots {
		if shot.ShotType == models.ShotTypeServe {
			serveSum += shot.Speed
			serveCount++
		} else {
			rallySum += shot.Speed
			rallyCount++
		}
	}
	if serveCount > 0 {
		metrics.AverageServe = round1(serveSum / float64(serveCount))
	}
	if rallyCount > 0 {
		metrics.AverageRally = round1(rallySum / float64(rallyCount))
	}
	return metrics
}

func buildServeMetrics(shots []models.Shot) *models.ServeMetrics {
	metrics := &models.ServeMetrics{}
	var speedSum float64
	for _, shot := range shots {
		if shot.ShotType != models.ShotTypeServe {
			continue
		}
		metrics.TotalServes++
		speedSum += shot.Speed
		if shot.Speed > metrics.FastestServeSpeed {
			metrics.FastestServeSpeed = round1(shot.Speed)
		}
		if shot.Result == models.ShotResultIn {
			metrics.SuccessfulServes++
		} else {
			metrics.Faults++
		}
	}
	if metrics.TotalServes > 0 {
		metrics.SuccessRate = round1(float64(metrics.SuccessfulServes) / float64(metrics.TotalServes) * 100)
		metrics.AverageServeSpeed = round1(speedSum / float64(metrics.TotalServes))
	}
	return metrics
}

// buildReturnMetrics treats the first shot after an opposing serve as the
// return of that serve.
func buildReturnMetrics(shots []models.Shot) *models.ReturnMetrics {
	metrics := &models.ReturnMetrics{}
	var speedSum float64
	for i := 1; i < len(shots); i++ {
		prev, cur := shots[i-1], shots[i]
		if prev.ShotType != models.ShotTypeServe || cur.Player == prev.Player {
			continue
		}
		metrics.TotalReturns++
		speedSum += cur.Speed
		if cur.Result == models.ShotResultIn {
			metrics.SuccessfulReturns++
		}
	}
	if metrics.TotalReturns > 0 {
		metrics.SuccessRate = round1(float64(metrics.SuccessfulReturns) / float64(metrics.TotalReturns) * 100)
		metrics.AverageReturnSpeed = round1(speedSum / float64(metrics.TotalReturns))
	}
	return metrics
}

func buildShotTypeBreakdown(shots []models.Shot) []models.ShotTypeBreakdownItem {
	order := []models.ShotType{
		models.ShotTypeServe, models.ShotTypeForehand, models.ShotTypeBackhand,
		models.ShotTypeSmash, models.ShotTypeDefensive,
	}
	type acc struct {
		count    int
		speed    float64
		accuracy float64
	}
	byType := make(map[models.ShotType]*acc)
	for _, shot := range shots {
		a := byType[shot.ShotType]
		if a == nil {
			a = &acc{}
			byType[shot.ShotType] = a
		}
		a.count++
		a.speed += shot.Speed
		a.accuracy += shot.Accuracy
	}

	var breakdown []models.ShotTypeBreakdownItem
	for _, t := range order {
		a := byType[t]
		if a == nil {
			continue
		}
		breakdown = append(breakdown, models.ShotTypeBreakdownItem{
			ShotType:        t,
			Count:           a.count,
			AverageSpeed:    round1(a.speed / float64(a.count)),
			AverageAccuracy: round1(a.accuracy / float64(a.count)),
		})
	}
	return breakdown
}

func buildPlayerBreakdown(shots []models.Shot, events []models.Event) []models.PlayerBreakdown {
	breakdown := make([]models.PlayerBreakdown, 2)
	speedSum := make([]float64, 2)
	accuracySum := make([]float64, 2)

	for i := range breakdown {
		breakdown[i].Player = i + 1
	}

	for i, shot := range shots {
		p := playerIndex(shot.Player)
		b := &breakdown[p]
		b.TotalShots++
		speedSum[p] += shot.Speed
		accuracySum[p] += shot.Accuracy
		if shot.ShotType == models.ShotTypeServe {
			b.TotalServes++
			if shot.Result == models.ShotResultIn {
				b.SuccessfulServes++
			}
		} else if i > 0 && shots[i-1].ShotType == models.ShotTypeServe && shots[i-1].Player != shot.Player {
			b.TotalReturns++
			if shot.Result == models.ShotResultIn {
				b.SuccessfulReturns++
			}
		}
	}

	for _, event := range events {
		if event.Player == nil {
			continue
		}
		p := playerIndex(*event.Player)
		switch event.Type {
		case models.EventTypeScore:
			breakdown[p].TotalPointsWon++
			breakdown[p].Winners++
		case models.EventTypeMiss:
			breakdown[p].Errors++
		}
	}

	totalPoints := breakdown[0].TotalPointsWon + breakdown[1].TotalPointsWon
	for i := range breakdown {
		b := &breakdown[i]
		if b.TotalShots > 0 {
			b.AverageShotSpeed = round1(speedSum[i] / float64(b.TotalShots))
			b.AverageAccuracy = round1(accuracySum[i] / float64(b.TotalShots))
		}
		if totalPoints > 0 {
			b.PointWinRate = round1(float64(b.TotalPointsWon) / float64(totalPoints) * 100)
		}
		if b.TotalServes > 0 {
			b.ServeSuccessRate = round1(float64(b.SuccessfulServes) / float64(b.TotalServes) * 100)
		}
		if b.TotalReturns > 0 {
			b.ReturnSuccessRate = round1(float64(b.SuccessfulReturns) / float64(b.TotalReturns) * 100)
		}
	}
	return breakdown
}

// averageShotGapSeconds estimates the cadence between consecutive shots,
// used to turn rally lengths into durations.
func averageShotGapSeconds(shots []models.Shot) float64 {
	if len(shots) < 2 {
		return 1.5
	}
	total := float64(shots[len(shots)-1].TimestampMs-shots[0].TimestampMs) / 1000.0
	gap := total / float64(len(shots)-1)
	if gap <= 0 {
		return 1.5
	}
	return gap
}

func playerIndex(player int) int {
	if player == 2 {
		return 1
	}
	return 0
}

func averageSpeed(shots []models.Shot) float64 {
	if len(shots) == 0 {
		return 0
	}
	var sum float64
	for _, shot := range shots {
		sum += shot.Speed
	}
	return sum / float64(len(shots))
}

func maxSpeed(shots []models.Shot) float64 {
	var max float64
	for _, shot := range shots {
		if shot.Speed > max {
			max = shot.Speed
		}
	}
	return max
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
