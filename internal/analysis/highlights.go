package analysis

import (
	"sort"

	"github.com/your-org/rallyscope/internal/models"
)

const maxRefsPerCategory = 3

// BuildHighlights curates event references: play of the game is the single
// most important event, top rallies and fastest shots are the top three of
// their types by importance, best serves the first three aces.
func BuildHighlights(events []models.Event) *models.Highlights {
	highlights := &models.Highlights{}
	if len(events) == 0 {
		return highlights
	}

	best := events[0]
	for _, event := range events[1:] {
		if event.Importance > best.Importance {
			best = event
		}
	}
	ref := highlightRef(best)
	highlights.PlayOfTheGame = &ref

	highlights.TopRallies = topByImportance(events, models.EventTypeRallyHighlight)
	highlights.FastestShots = topByImportance(events, models.EventTypeFastestShot)

	for _, event := range events {
		if event.Type != models.EventTypeServeAce {
			continue
		}
		highlights.BestServes = append(highlights.BestServes, highlightRef(event))
		if len(highlights.BestServes) == maxRefsPerCategory {
			break
		}
	}

	return highlights
}

func topByImportance(events []models.Event, t models.EventType) []models.HighlightRef {
	var matching []models.Event
	for _, event := range events {
		if event.Type == t {
			matching = append(matching, event)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Importance > matching[j].Importance
	})
	if len(matching) > maxRefsPerCategory {
		matching = matching[:maxRefsPerCategory]
	}

	refs := make([]models.HighlightRef, 0, len(matching))
	for _, event := range matching {
		refs = append(refs, highlightRef(event))
	}
	return refs
}

func highlightRef(event models.Event) models.HighlightRef {
	return models.HighlightRef{
		EventID:     event.ID,
		TimestampMs: event.TimestampMs,
	}
}
