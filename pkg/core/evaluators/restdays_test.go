package evaluators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/engine/pkg/core/model"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 19, 0, 0, 0, time.UTC)
}

func scheduleWithGaps(gaps ...int) *model.Schedule {
	games := []model.Game{{ID: "g0", HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1", Date: day(1)}}
	date := 1
	for i, gap := range gaps {
		date += gap
		games = append(games, model.Game{
			ID:         "g" + string(rune('1'+i)),
			HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1",
			Date: day(date),
		})
	}
	teams := []model.Team{{ID: "t1"}, {ID: "t2"}}
	venues := []model.Venue{{ID: "v1"}}
	return model.NewSchedule("s", "basketball", "2026", games, teams, venues, nil)
}

func restConstraint(minRest int) model.Constraint {
	return model.Constraint{
		ID:        "rest",
		Evaluator: StrategyRestDays,
		Hardness:  model.HardnessHard,
		Scope:     model.Scope{Teams: []string{"t1"}},
		Params:    model.Params{RestDays: &model.RestDaysParams{MinRestDays: minRest}},
	}
}

func TestRestDaysEvaluator_SatisfiedWithEnoughRest(t *testing.T) {
	s := scheduleWithGaps(5, 5)
	ev := &RestDaysEvaluator{}

	res, err := ev.Evaluate(context.Background(), s, restConstraint(2), nil)
	require.NoError(t, err)

	assert.True(t, res.Satisfied)
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Violations)
}

func TestRestDaysEvaluator_FlagsShortGaps(t *testing.T) {
	// Second pair is consecutive days: one rest-day gap below the minimum
	s := scheduleWithGaps(5, 1)
	ev := &RestDaysEvaluator{}

	res, err := ev.Evaluate(context.Background(), s, restConstraint(2), nil)
	require.NoError(t, err)

	assert.False(t, res.Satisfied)
	require.Len(t, res.Violations, 1)
	assert.Len(t, res.Violations[0].GameIDs, 2)
	assert.Equal(t, []string{"t1"}, res.Violations[0].TeamIDs)
	// One of two pairs violated
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.NotEmpty(t, res.Suggestions)
}

func TestRestDaysEvaluator_SeverityGrowsAsGapShrinks(t *testing.T) {
	ev := &RestDaysEvaluator{}

	// Zero-day gap against a minimum of 3: critical
	res, err := ev.Evaluate(context.Background(), scheduleWithGaps(0), restConstraint(3), nil)
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, model.SeverityCritical, res.Violations[0].Severity)

	// Three-day gap against a minimum of 4: minor shortfall
	res, err = ev.Evaluate(context.Background(), scheduleWithGaps(3), restConstraint(4), nil)
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, model.SeverityMinor, res.Violations[0].Severity)
}

func TestRestDaysEvaluator_RequiresParams(t *testing.T) {
	s := scheduleWithGaps(5)
	ev := &RestDaysEvaluator{}

	c := restConstraint(2)
	c.Params = model.Params{}

	_, err := ev.Evaluate(context.Background(), s, c, nil)
	assert.Error(t, err)
}

func TestScoreFromViolations(t *testing.T) {
	assert.Equal(t, 1.0, scoreFromViolations(0, 0), "no checked units is trivially satisfied")
	assert.Equal(t, 1.0, scoreFromViolations(0, 4))
	assert.Equal(t, 0.75, scoreFromViolations(1, 4))
	assert.Equal(t, 0.0, scoreFromViolations(4, 4))
}
