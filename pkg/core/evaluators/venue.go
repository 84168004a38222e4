package evaluators

import (
	"context"
	"fmt"
	"time"

	"github.com/courtline/engine/pkg/core/model"
)

// GameWindow is the time interval a game occupies its venue, including
// the post-game turnaround buffer
func GameWindow(g model.Game, durationMinutes, bufferMinutes int) model.TimeWindow {
	return model.TimeWindow{
		Start: g.Date,
		End:   g.Date.Add(time.Duration(durationMinutes+bufferMinutes) * time.Minute),
	}
}

// VenueConflictEvaluator checks venue double-bookings and bookings inside
// a venue's declared unavailable windows.
//
// Scoring:
//   - Each game is one checked unit
//   - A game overlapping another game at the same venue is a critical
//     violation (reported once per pair)
//   - A game inside an unavailable window is a critical violation
type VenueConflictEvaluator struct{}

func (e *VenueConflictEvaluator) Name() string { return StrategyVenueConflict }

func (e *VenueConflictEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.Venue
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: venue_conflict strategy requires venue params", c.ID)
	}

	byVenue := make(map[string][]model.Game)
	for _, g := range s.Games {
		if !dimensionMatchesVenue(c.Scope.Venues, g.VenueID) {
			continue
		}
		byVenue[g.VenueID] = append(byVenue[g.VenueID], g)
	}

	checked := 0
	var violations []model.Violation

	for venueID, games := range byVenue {
		venue := s.Venues[venueID]
		for i, g := range games {
			checked++
			window := GameWindow(g, params.GameDurationMinutes, params.BufferMinutes)

			// Double bookings; games are date-sorted so later indices suffice
			for _, other := range games[i+1:] {
				otherWindow := GameWindow(other, params.GameDurationMinutes, params.BufferMinutes)
				if !window.Overlaps(otherWindow) {
					continue
				}
				violations = append(violations, model.Violation{
					Severity: model.SeverityCritical,
					Description: fmt.Sprintf("venue %s double-booked: games %s and %s overlap",
						venueID, g.ID, other.ID),
					GameIDs:  []string{g.ID, other.ID},
					VenueIDs: []string{venueID},
				})
			}

			// Declared unavailable windows
			for _, blocked := range venue.Unavailable {
				if window.Overlaps(blocked) {
					violations = append(violations, model.Violation{
						Severity: model.SeverityCritical,
						Description: fmt.Sprintf("game %s booked at venue %s during an unavailable window",
							g.ID, venueID),
						GameIDs:  []string{g.ID},
						VenueIDs: []string{venueID},
					})
				}
			}
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, nil), nil
}

func dimensionMatchesVenue(scoped []string, venueID string) bool {
	if len(scoped) == 0 {
		return true
	}
	for _, id := range scoped {
		if id == venueID {
			return true
		}
	}
	return false
}
