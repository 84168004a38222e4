package registry

import (
	"sort"

	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
)

// Template is a reusable constraint prototype. Instantiation copies the
// prototype, applies the caller's parameters and registers the result.
type Template struct {
	Name     string
	Type     model.ConstraintType
	Hardness model.Hardness
	Weight   float64

	Evaluator      string
	Cacheable      bool
	Parallelizable bool
	Priority       int

	// Defaults are applied when the caller provides no parameters
	Defaults model.Params
}

// builtinTemplates covers the common league rules; custom templates can be
// registered through whatever store the platform layer provides.
var builtinTemplates = map[string]Template{
	"minimum_rest": {
		Name:           "Minimum rest days",
		Type:           model.ConstraintTemporal,
		Hardness:       model.HardnessHard,
		Weight:         100,
		Evaluator:      evaluators.StrategyRestDays,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       100,
		Defaults:       model.Params{RestDays: &model.RestDaysParams{MinRestDays: 2}},
	},
	"travel_limit": {
		Name:           "Travel distance limit",
		Type:           model.ConstraintSpatial,
		Hardness:       model.HardnessSoft,
		Weight:         70,
		Evaluator:      evaluators.StrategyTravelDistance,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       50,
		Defaults:       model.Params{Travel: &model.TravelParams{MaxKilometres: 1500}},
	},
	"venue_booking": {
		Name:           "Venue availability",
		Type:           model.ConstraintLogical,
		Hardness:       model.HardnessHard,
		Weight:         100,
		Evaluator:      evaluators.StrategyVenueConflict,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       100,
		Defaults:       model.Params{Venue: &model.VenueParams{GameDurationMinutes: 180, BufferMinutes: 60}},
	},
	"team_availability": {
		Name:           "Team availability",
		Type:           model.ConstraintLogical,
		Hardness:       model.HardnessHard,
		Weight:         100,
		Evaluator:      evaluators.StrategyTeamAvailability,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       90,
	},
	"home_away_balance": {
		Name:           "Home/away balance",
		Type:           model.ConstraintPerformance,
		Hardness:       model.HardnessSoft,
		Weight:         60,
		Evaluator:      evaluators.StrategyHomeAwayBalance,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       40,
		Defaults:       model.Params{Balance: &model.BalanceParams{Tolerance: 0.15}},
	},
	"rivalry_spread": {
		Name:           "Rivalry spacing",
		Type:           model.ConstraintTemporal,
		Hardness:       model.HardnessPreference,
		Weight:         40,
		Evaluator:      evaluators.StrategyRivalrySpacing,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       30,
		Defaults:       model.Params{Rivalry: &model.RivalryParams{MinDaysBetween: 14, MaxDaysBetween: 90}},
	},
	"max_streak": {
		Name:           "Consecutive home/away limit",
		Type:           model.ConstraintPerformance,
		Hardness:       model.HardnessSoft,
		Weight:         50,
		Evaluator:      evaluators.StrategyConsecutiveGames,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       40,
		Defaults:       model.Params{RunLength: &model.RunLengthParams{MaxRun: 3}},
	},
	"championship_blackout": {
		Name:           "Championship window blackout",
		Type:           model.ConstraintCompliance,
		Hardness:       model.HardnessHard,
		Weight:         100,
		Evaluator:      evaluators.StrategyChampionshipWindow,
		Cacheable:      true,
		Parallelizable: true,
		Priority:       80,
	},
}

// Templates lists the names of available constraint templates, sorted
func Templates() []string {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstantiateTemplate builds a constraint from a named template with the
// given ID and parameters (zero-valued params fall back to the template's
// defaults) and registers it
func (r *Registry) InstantiateTemplate(templateName, constraintID string, params model.Params) (model.Constraint, error) {
	tmpl, ok := builtinTemplates[templateName]
	if !ok {
		return model.Constraint{}, model.NewValidationError("unknown_template",
			"no constraint template named %q", templateName)
	}

	if params.IsZero() {
		params = tmpl.Defaults
	}
	c := model.Constraint{
		ID:             constraintID,
		Name:           tmpl.Name,
		Type:           tmpl.Type,
		Hardness:       tmpl.Hardness,
		Weight:         tmpl.Weight,
		Params:         params,
		Evaluator:      tmpl.Evaluator,
		Cacheable:      tmpl.Cacheable,
		Parallelizable: tmpl.Parallelizable,
		Priority:       tmpl.Priority,
	}
	if err := r.Register(c); err != nil {
		return model.Constraint{}, err
	}
	return c, nil
}
