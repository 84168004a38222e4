package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// ConsecutiveGamesEvaluator limits runs of home-only or away-only games.
//
// Scoring:
//   - Each in-scope team is one checked unit
//   - A run of consecutive home games or away games longer than MaxRun is
//     a violation; one violation per excessive run
type ConsecutiveGamesEvaluator struct{}

func (e *ConsecutiveGamesEvaluator) Name() string { return StrategyConsecutiveGames }

func (e *ConsecutiveGamesEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.RunLength
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: consecutive_games strategy requires runLength params", c.ID)
	}

	checked := 0
	violated := 0
	var violations []model.Violation

	for _, teamID := range scopedTeams(s, c) {
		games := s.GamesForTeam(teamID)
		if len(games) == 0 {
			continue
		}
		checked++
		teamViolations := excessiveRuns(teamID, games, params.MaxRun)
		if len(teamViolations) > 0 {
			violated++
			violations = append(violations, teamViolations...)
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(violated, checked), violations, nil), nil
}

// excessiveRuns finds maximal home-only/away-only runs longer than maxRun
// in a team's chronological games
func excessiveRuns(teamID string, games []model.Game, maxRun int) []model.Violation {
	var violations []model.Violation

	flush := func(run []model.Game, home bool) {
		if len(run) <= maxRun {
			return
		}
		side := "away"
		if home {
			side = "home"
		}
		ids := make([]string, len(run))
		for i, g := range run {
			ids[i] = g.ID
		}
		severity := model.SeverityMinor
		if len(run) > maxRun+1 {
			severity = model.SeverityMajor
		}
		violations = append(violations, model.Violation{
			Severity: severity,
			Description: fmt.Sprintf("team %s plays %d consecutive %s games (maximum %d)",
				teamID, len(run), side, maxRun),
			GameIDs: ids,
			TeamIDs: []string{teamID},
		})
	}

	var run []model.Game
	runHome := false
	for _, g := range games {
		home := g.HomeTeamID == teamID
		if len(run) > 0 && home != runHome {
			flush(run, runHome)
			run = run[:0]
		}
		run = append(run, g)
		runHome = home
	}
	flush(run, runHome)

	return violations
}
