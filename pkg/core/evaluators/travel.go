package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// TravelDistanceEvaluator limits the distance a team travels between
// consecutive games relative to the time available.
//
// Scoring:
//   - Each consecutive game pair of an in-scope team is one checked unit
//   - The geodesic distance between the two venues must stay under
//     MaxKilometres; with MaxKmPerDayGap set, the budget additionally
//     scales with the days between the games
//   - Severity grows with how far the distance exceeds the budget
type TravelDistanceEvaluator struct{}

func (e *TravelDistanceEvaluator) Name() string { return StrategyTravelDistance }

func (e *TravelDistanceEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.Travel
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: travel_distance strategy requires travel params", c.ID)
	}

	checked := 0
	var violations []model.Violation

	for _, teamID := range scopedTeams(s, c) {
		games := s.GamesForTeam(teamID)
		for i := 1; i < len(games); i++ {
			from, okFrom := s.Venues[games[i-1].VenueID]
			to, okTo := s.Venues[games[i].VenueID]
			if !okFrom || !okTo {
				continue
			}
			checked++

			dist := Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
			budget := params.MaxKilometres
			if params.MaxKmPerDayGap > 0 {
				if scaled := params.MaxKmPerDayGap * float64(daysBetween(games[i-1], games[i])); scaled > budget {
					budget = scaled
				}
			}
			if budget <= 0 || dist <= budget {
				continue
			}

			severity := model.SeverityMinor
			switch {
			case dist > budget*2:
				severity = model.SeverityCritical
			case dist > budget*1.5:
				severity = model.SeverityMajor
			}
			violations = append(violations, model.Violation{
				Severity: severity,
				Description: fmt.Sprintf("team %s travels %.0f km from %s to %s (budget %.0f km)",
					teamID, dist, from.ID, to.ID, budget),
				GameIDs:  []string{games[i-1].ID, games[i].ID},
				TeamIDs:  []string{teamID},
				VenueIDs: []string{from.ID, to.ID},
			})
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, nil), nil
}
