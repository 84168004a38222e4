package evaluators

import (
	"context"
	"fmt"
	"math"

	"github.com/courtline/engine/pkg/core/model"
)

// HomeAwayBalanceEvaluator checks each team's home/away split against
// parity.
//
// Scoring:
//   - Each in-scope team with at least two games is one checked unit
//   - A team whose home-game share deviates from 0.5 beyond the configured
//     tolerance is a violation; severity grows with the deviation
type HomeAwayBalanceEvaluator struct{}

func (e *HomeAwayBalanceEvaluator) Name() string { return StrategyHomeAwayBalance }

func (e *HomeAwayBalanceEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.Balance
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: home_away_balance strategy requires balance params", c.ID)
	}

	checked := 0
	var violations []model.Violation
	var suggestions []string

	for _, teamID := range scopedTeams(s, c) {
		games := s.GamesForTeam(teamID)
		if len(games) < 2 {
			continue
		}
		checked++

		home := 0
		for _, g := range games {
			if g.HomeTeamID == teamID {
				home++
			}
		}
		share := float64(home) / float64(len(games))
		deviation := math.Abs(share - 0.5)
		if deviation <= params.Tolerance {
			continue
		}

		severity := model.SeverityMinor
		if deviation > params.Tolerance*2 {
			severity = model.SeverityMajor
		}
		violations = append(violations, model.Violation{
			Severity: severity,
			Description: fmt.Sprintf("team %s plays %d of %d games at home (%.0f%%, tolerance ±%.0f%%)",
				teamID, home, len(games), share*100, params.Tolerance*100),
			TeamIDs: []string{teamID},
		})
		if share > 0.5 {
			suggestions = append(suggestions, fmt.Sprintf("swap a home game of team %s to away", teamID))
		} else {
			suggestions = append(suggestions, fmt.Sprintf("swap an away game of team %s to home", teamID))
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, suggestions), nil
}
