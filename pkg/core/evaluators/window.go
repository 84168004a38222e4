package evaluators

import (
	"context"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// ChampionshipWindowEvaluator keeps non-championship games out of reserved
// windows.
//
// Scoring:
//   - Each non-championship game is one checked unit
//   - A game starting inside any reserved window is a critical violation;
//     championship-type games are exempt, the windows exist for them
type ChampionshipWindowEvaluator struct{}

func (e *ChampionshipWindowEvaluator) Name() string { return StrategyChampionshipWindow }

func (e *ChampionshipWindowEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	params := c.Params.Window
	if params == nil {
		return model.ConstraintResult{}, fmt.Errorf("constraint %q: championship_window strategy requires window params", c.ID)
	}

	checked := 0
	var violations []model.Violation

	for _, g := range s.Games {
		if g.Type == model.GameChampionship {
			continue
		}
		checked++
		for _, window := range params.Windows {
			if window.Contains(g.Date) {
				violations = append(violations, model.Violation{
					Severity: model.SeverityCritical,
					Description: fmt.Sprintf("game %s is scheduled inside a reserved championship window (%s – %s)",
						g.ID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02")),
					GameIDs: []string{g.ID},
				})
				break
			}
		}
	}

	return model.NewConstraintResult(c.ID, scoreFromViolations(len(violations), checked), violations, nil), nil
}
