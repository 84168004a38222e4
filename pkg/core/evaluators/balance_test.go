package evaluators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/engine/pkg/core/model"
)

func balanceSchedule(homeGames, awayGames int) *model.Schedule {
	var games []model.Game
	id := 0
	for i := 0; i < homeGames; i++ {
		games = append(games, model.Game{
			ID: "h" + string(rune('0'+id)), HomeTeamID: "t1", AwayTeamID: "t2",
			VenueID: "v1", Date: day(1 + id*7),
		})
		id++
	}
	for i := 0; i < awayGames; i++ {
		games = append(games, model.Game{
			ID: "a" + string(rune('0'+id)), HomeTeamID: "t2", AwayTeamID: "t1",
			VenueID: "v1", Date: day(1 + id*7),
		})
		id++
	}
	teams := []model.Team{{ID: "t1"}, {ID: "t2"}}
	venues := []model.Venue{{ID: "v1"}}
	return model.NewSchedule("s", "basketball", "2026", games, teams, venues, nil)
}

func balanceConstraint(tolerance float64) model.Constraint {
	return model.Constraint{
		ID:        "balance",
		Evaluator: StrategyHomeAwayBalance,
		Hardness:  model.HardnessSoft,
		Scope:     model.Scope{Teams: []string{"t1"}},
		Params:    model.Params{Balance: &model.BalanceParams{Tolerance: tolerance}},
	}
}

func TestHomeAwayBalanceEvaluator_BalancedScheduleSatisfied(t *testing.T) {
	s := balanceSchedule(2, 2)
	ev := &HomeAwayBalanceEvaluator{}

	res, err := ev.Evaluate(context.Background(), s, balanceConstraint(0.15), nil)
	require.NoError(t, err)

	assert.True(t, res.Satisfied)
	assert.Equal(t, 1.0, res.Score)
}

func TestHomeAwayBalanceEvaluator_FlagsImbalance(t *testing.T) {
	// 4 home, 0 away: share 1.0, deviation 0.5
	s := balanceSchedule(4, 0)
	ev := &HomeAwayBalanceEvaluator{}

	res, err := ev.Evaluate(context.Background(), s, balanceConstraint(0.15), nil)
	require.NoError(t, err)

	assert.False(t, res.Satisfied)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, model.SeverityMajor, res.Violations[0].Severity, "deviation beyond twice the tolerance")
	assert.Contains(t, res.Suggestions[0], "swap a home game")
}

func TestHomeAwayBalanceEvaluator_SkipsTeamsWithOneGame(t *testing.T) {
	// t2 appears in every game too, but scope limits to t1
	s := balanceSchedule(1, 0)
	ev := &HomeAwayBalanceEvaluator{}

	res, err := ev.Evaluate(context.Background(), s, balanceConstraint(0.15), nil)
	require.NoError(t, err)

	assert.True(t, res.Satisfied)
	assert.Equal(t, 1.0, res.Score, "no checked units")
}

func TestHaversine_KnownDistance(t *testing.T) {
	// London to Paris is roughly 344 km
	dist := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344, dist, 5)
}

func TestHaversine_ZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(40, -70, 40, -70))
}

func TestEvaluatorRegistry_BuiltinsPreRegistered(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{
		StrategyRestDays, StrategyTravelDistance, StrategyVenueConflict,
		StrategyTeamAvailability, StrategyHomeAwayBalance, StrategyRivalrySpacing,
		StrategyConsecutiveGames, StrategyChampionshipWindow,
	} {
		_, ok := r.Get(name)
		assert.True(t, ok, name)
	}
}

func TestEvaluatorRegistry_RejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&RestDaysEvaluator{})
	assert.Error(t, err)
}
