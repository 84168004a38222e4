package evaluators

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/courtline/engine/pkg/core/model"
)

// Evaluator is a named evaluation strategy: a pure function of a schedule
// snapshot and a constraint's parameters. Constraints reference strategies
// by name so definitions stay serializable; custom logic is added by
// registering a new strategy, not by embedding function values in
// constraint definitions.
//
// Evaluate must not perform blocking I/O; any external data an evaluator
// needs arrives inside the constraint's parameter bag. deps carries the
// results of the constraint's declared dependencies, which are guaranteed
// to have been evaluated first.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error)
}

// Built-in strategy names
const (
	StrategyRestDays           = "rest_days"
	StrategyTravelDistance     = "travel_distance"
	StrategyVenueConflict      = "venue_conflict"
	StrategyTeamAvailability   = "team_availability"
	StrategyHomeAwayBalance    = "home_away_balance"
	StrategyRivalrySpacing     = "rivalry_spacing"
	StrategyConsecutiveGames   = "consecutive_games"
	StrategyChampionshipWindow = "championship_window"
)

// Registry is the strategy table mapping evaluator names to
// implementations. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Evaluator
}

// NewRegistry creates a registry pre-populated with the built-in strategies
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Evaluator)}
	for _, ev := range []Evaluator{
		&RestDaysEvaluator{},
		&TravelDistanceEvaluator{},
		&VenueConflictEvaluator{},
		&TeamAvailabilityEvaluator{},
		&HomeAwayBalanceEvaluator{},
		&RivalrySpacingEvaluator{},
		&ConsecutiveGamesEvaluator{},
		&ChampionshipWindowEvaluator{},
	} {
		r.byName[ev.Name()] = ev
	}
	return r
}

// Register adds a plugin strategy. Names must be unique.
func (r *Registry) Register(ev Evaluator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[ev.Name()]; exists {
		return fmt.Errorf("evaluator %q already registered", ev.Name())
	}
	r.byName[ev.Name()] = ev
	return nil
}

// Get resolves a strategy by name
func (r *Registry) Get(name string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.byName[name]
	return ev, ok
}

// Names lists the registered strategy names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scopedTeams returns the team IDs the constraint applies to, in stable
// order. An empty team scope means every team in the schedule.
func scopedTeams(s *model.Schedule, c model.Constraint) []string {
	var ids []string
	if len(c.Scope.Teams) > 0 {
		for _, id := range c.Scope.Teams {
			if _, ok := s.Teams[id]; ok {
				ids = append(ids, id)
			}
		}
	} else {
		for id := range s.Teams {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// scoreFromViolations converts a violation count over a population of
// checked units into a [0,1] score
func scoreFromViolations(violated, checked int) float64 {
	if checked == 0 {
		return 1
	}
	return model.ClampScore(1 - float64(violated)/float64(checked))
}
