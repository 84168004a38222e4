package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// TeamAvailabilityEvaluator flags games scheduled during a team's declared
// unavailable windows.
//
// Scoring:
//   - Each (game, participating in-scope team) pair is one checked unit
//   - A game starting inside a team's unavailable window is a critical
//     violation
type TeamAvailabilityEvaluator struct{}

func (e *TeamAvailabilityEvaluator) Name() string { return StrategyTeamAvailability }

func (e *TeamAvailabilityEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	checked := 0
	var violations []model.Violation

	for _, teamID := range scopedTeams(s, c) {
		team := s.Teams[teamID]
		if len(team.Unavailable) == 0 {
			continue
		}
		for _, g := range s.GamesForTeam(teamID) {
			checked++
			for _, blocked := range team.Unavailable {
				if blocked.Contains(g.Date) {
					violations = append(violations, model.Violation{
						Severity: model.SeverityCritical,
						Description: fmt.Sprintf("game %s falls inside team %s's unavailable window",
							g.ID, teamID),
						GameIDs: []string{g.ID},
						TeamIDs: []string{teamID},
					})
					break
				}
			}
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, nil), nil
}
