package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// daysBetween returns the whole days separating two game dates
func daysBetween(a, b model.Game) int {
	diff := b.Date.Sub(a.Date)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// shortfallSeverity grades how badly a gap falls short of the required
// minimum: the smaller the remaining gap, the higher the severity
func shortfallSeverity(gap, required int) model.Severity {
	if required <= 0 {
		return model.SeverityMinor
	}
	ratio := float64(required-gap) / float64(required)
	switch {
	case ratio >= 0.66:
		return model.SeverityCritical
	case ratio >= 0.33:
		return model.SeverityMajor
	default:
		return model.SeverityMinor
	}
}

// RestDaysEvaluator enforces a minimum number of rest days between a
// team's consecutive games.
//
// Scoring:
//   - Each consecutive game pair of an in-scope team is one checked unit
//   - A pair separated by fewer than MinRestDays rest days is a violation
//   - Violation severity grows as the gap shrinks relative to the minimum
type RestDaysEvaluator struct{}

func (e *RestDaysEvaluator) Name() string { return StrategyRestDays }

func (e *RestDaysEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.RestDays
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: rest_days strategy requires restDays params", c.ID)
	}

	checked := 0
	var violations []model.Violation
	var suggestions []string

	for _, teamID := range scopedTeams(s, c) {
		games := s.GamesForTeam(teamID)
		for i := 1; i < len(games); i++ {
			checked++
			gap := daysBetween(games[i-1], games[i])
			if gap >= params.MinRestDays {
				continue
			}
			violations = append(violations, model.Violation{
				Severity: shortfallSeverity(gap, params.MinRestDays),
				Description: fmt.Sprintf("team %s has %d rest day(s) between games %s and %s (minimum %d)",
					teamID, gap, games[i-1].ID, games[i].ID, params.MinRestDays),
				GameIDs: []string{games[i-1].ID, games[i].ID},
				TeamIDs: []string{teamID},
			})
			suggestions = append(suggestions,
				fmt.Sprintf("move game %s at least %d day(s) later", games[i].ID, params.MinRestDays-gap))
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, suggestions), nil
}
