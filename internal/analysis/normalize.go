package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
)

const (
	defaultImportance   = 6
	defaultShotAccuracy = 80.0
	synthShotSpeed      = 30.0
	synthShotAccuracy   = 85.0
)

// Normalize turns the model's raw output into ordered domain shots and
// events. Timestamps missing on the wire are derived from frame numbers via
// fps; both sequences come back sorted by timestamp with production order
// kept for ties.
func Normalize(result *ModelResult, fallbackFPS float64) ([]models.Shot, []models.Event) {
	fps := fallbackFPS
	if result.FPS != nil && *result.FPS > 0 {
		fps = *result.FPS
	}

	shots := make([]models.Shot, 0, len(result.Shots))
	for _, ms := range result.Shots {
		shot := models.Shot{
			TimestampMs: resolveTimestamp(ms.Frame, ms.TimestampMs, fps),
			Player:      playerOrDefault(ms.Player, 1),
			ShotType:    resolveShotType(ms.ShotType),
			Speed:       floatOrDefault(ms.Speed, 0),
			Accuracy:    floatOrDefault(ms.Accuracy, defaultShotAccuracy),
			Result:      resolveShotResult(ms.Result),
			Detections:  convertDetections(ms.Detections, ms.Frame, ms.Confidence),
		}
		shots = append(shots, shot)
	}

	events := make([]models.Event, 0, len(result.Events))
	for _, me := range result.Events {
		eventType := resolveEventType(me.Type, me.Label)
		timestampMs := resolveTimestamp(me.Frame, me.TimestampMs, fps)

		meta := &models.EventMetadata{
			ShotSpeed:      me.ShotSpeed,
			RallyLength:    me.RallyLength,
			ShotType:       string(resolveShotType(me.ShotType)),
			BallTrajectory: me.BallTrajectory,
			FrameNumber:    resolveFrameNumber(me, timestampMs, fps),
			Confidence:     me.Confidence,
			Source:         "MODEL",
		}

		event := models.Event{
			ID:          uuid.New().String(),
			TimestampMs: timestampMs,
			Type:        eventType,
			Title:       eventTitle(eventType),
			Description: eventDescription(eventType, me.Label),
			Player:      me.Player,
			Importance:  intOrDefault(me.Importance, defaultImportance),
			Metadata:    meta,
		}
		events = append(events, event)
	}

	sort.SliceStable(shots, func(i, j int) bool { return shots[i].TimestampMs < shots[j].TimestampMs })
	sort.SliceStable(events, func(i, j int) bool { return events[i].TimestampMs < events[j].TimestampMs })

	if len(shots) == 0 && len(events) > 0 {
		shots = SynthesizeShots(events)
	}

	return shots, events
}

// SynthesizeShots derives a shot per event when the model emits events but no
// shot data, so downstream aggregation always has something to chew on.
func SynthesizeShots(events []models.Event) []models.Shot {
	shots := make([]models.Shot, 0, len(events))
	for i, event := range events {
		shot := models.Shot{
			TimestampMs: event.TimestampMs,
			Player:      (i % 2) + 1,
			ShotType:    models.ShotTypeForehand,
			Speed:       synthShotSpeed,
			Accuracy:    synthShotAccuracy,
			Result:      models.ShotResultIn,
		}
		if event.Player != nil {
			shot.Player = *event.Player
		}
		if event.Metadata != nil {
			if event.Metadata.ShotSpeed != nil {
				shot.Speed = *event.Metadata.ShotSpeed
			}
			if event.Metadata.ShotType != "" {
				shot.ShotType = resolveShotType(event.Metadata.ShotType)
			}
		}
		shots = append(shots, shot)
	}
	return shots
}

func resolveTimestamp(frame *int64, timestampMs *float64, fps float64) int64 {
	if timestampMs != nil {
		return int64(math.Round(*timestampMs))
	}
	if frame != nil && *frame >= 0 && fps > 0 {
		return int64(math.Round(float64(*frame) / fps * 1000.0))
	}
	return 0
}

func resolveFrameNumber(me ModelEvent, timestampMs int64, fps float64) int {
	if me.FrameNumber != nil {
		return *me.FrameNumber
	}
	if me.Frame != nil {
		return int(*me.Frame)
	}
	return int(math.Round(float64(timestampMs) / 1000.0 * fps))
}

func resolveShotType(s string) models.ShotType {
	switch strings.ToUpper(s) {
	case "SERVE":
		return models.ShotTypeServe
	case "BACKHAND":
		return models.ShotTypeBackhand
	case "SMASH":
		return models.ShotTypeSmash
	case "DEFENSIVE":
		return models.ShotTypeDefensive
	default:
		return models.ShotTypeForehand
	}
}

func resolveShotResult(s string) models.ShotResult {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "out"):
		return models.ShotResultOut
	case strings.Contains(lower, "net"):
		return models.ShotResultNet
	default:
		return models.ShotResultIn
	}
}

// resolveEventType prefers the explicit type tag; failing that it guesses
// from the model's free-form label.
func resolveEventType(typeTag, label string) models.EventType {
	switch models.EventType(strings.ToUpper(typeTag)) {
	case models.EventTypeScore, models.EventTypeMiss, models.EventTypeRallyHighlight,
		models.EventTypeFastestShot, models.EventTypeServeAce, models.EventTypePlayOfTheGame:
		return models.EventType(strings.ToUpper(typeTag))
	}

	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "score"), strings.Contains(lower, "point"), strings.Contains(lower, "bounce"):
		return models.EventTypeScore
	case strings.Contains(lower, "ace"):
		return models.EventTypeServeAce
	case strings.Contains(lower, "fast"):
		return models.EventTypeFastestShot
	case strings.Contains(lower, "miss"), strings.Contains(lower, "error"):
		return models.EventTypeMiss
	case strings.Contains(lower, "rally"), strings.Contains(lower, "highlight"):
		return models.EventTypeRallyHighlight
	default:
		return models.EventTypePlayOfTheGame
	}
}

func eventTitle(t models.EventType) string {
	switch t {
	case models.EventTypeScore:
		return "Point Scored"
	case models.EventTypeRallyHighlight:
		return "Rally Highlight"
	case models.EventTypeFastestShot:
		return "Fastest Shot"
	case models.EventTypeServeAce:
		return "Serve Ace"
	case models.EventTypeMiss:
		return "Missed Return"
	default:
		return "Play of the Game"
	}
}

func eventDescription(t models.EventType, label string) string {
	if label != "" {
		return capitalize(label)
	}
	switch t {
	case models.EventTypeScore:
		return "Point concluded after intense exchange"
	case models.EventTypeRallyHighlight:
		return "Extended rally with high tempo"
	case models.EventTypeFastestShot:
		return "High-speed shot registered"
	case models.EventTypeServeAce:
		return "Serve led directly to a point"
	case models.EventTypeMiss:
		return "Return attempt was unsuccessful"
	default:
		return "Most impactful rally detected"
	}
}

func convertDetections(raw []ModelDetection, fallbackFrame *int64, fallbackConfidence *float64) []models.Detection {
	detections := make([]models.Detection, 0, len(raw))
	for _, d := range raw {
		detections = append(detections, models.Detection{
			FrameNumber: d.FrameNumber,
			X:           d.X,
			Y:           d.Y,
			Width:       d.Width,
			Height:      d.Height,
			Confidence:  d.Confidence,
		})
	}
	if len(detections) == 0 && fallbackFrame != nil {
		detections = append(detections, models.Detection{
			FrameNumber: int(*fallbackFrame),
			Confidence:  floatOrDefault(fallbackConfidence, 0),
		})
	}
	return detections
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func playerOrDefault(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func floatOrDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func intOrDefault(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
