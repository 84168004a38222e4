package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// RivalrySpacingEvaluator checks that rivalry matchups are spread across
// the season: not bunched together, not pushed apart.
//
// Scoring:
//   - Each consecutive pair of games between a rivalry pairing is one
//     checked unit
//   - A pair closer than MinDaysBetween or (when MaxDaysBetween is set)
//     further apart than MaxDaysBetween is a violation
type RivalrySpacingEvaluator struct{}

func (e *RivalrySpacingEvaluator) Name() string { return StrategyRivalrySpacing }

func (e *RivalrySpacingEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.Rivalry
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: rivalry_spacing strategy requires rivalry params", c.ID)
	}

	checked := 0
	var violations []model.Violation

	for _, rivalry := range s.Rivalries {
		var matchups []model.Game
		for _, g := range s.Games {
			if rivalry.Matches(g.HomeTeamID, g.AwayTeamID) {
				matchups = append(matchups, g)
			}
		}
		for i := 1; i < len(matchups); i++ {
			checked++
			gap := daysBetween(matchups[i-1], matchups[i])

			switch {
			case gap < params.MinDaysBetween:
				violations = append(violations, model.Violation{
					Severity: model.SeverityMajor,
					Description: fmt.Sprintf("rivalry games %s and %s are %d day(s) apart (minimum %d)",
						matchups[i-1].ID, matchups[i].ID, gap, params.MinDaysBetween),
					GameIDs: []string{matchups[i-1].ID, matchups[i].ID},
					TeamIDs: []string{rivalry.TeamA, rivalry.TeamB},
				})
			case params.MaxDaysBetween > 0 && gap > params.MaxDaysBetween:
				violations = append(violations, model.Violation{
					Severity: model.SeverityMinor,
					Description: fmt.Sprintf("rivalry games %s and %s are %d day(s) apart (maximum %d)",
						matchups[i-1].ID, matchups[i].ID, gap, params.MaxDaysBetween),
					GameIDs: []string{matchups[i-1].ID, matchups[i].ID},
					TeamIDs: []string{rivalry.TeamA, rivalry.TeamB},
				})
			}
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, nil), nil
}
