package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/cache"
	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/engine"
	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 19, 0, 0, 0, time.UTC)
}

func newTestPlanner(thresholds analyzer.Thresholds) (*Planner, *analyzer.Analyzer) {
	logger := zap.NewNop()
	an := analyzer.New(thresholds, events.NopPublisher{}, logger)
	eng := engine.New(evaluators.NewRegistry(), cache.NewMemoryCache(), events.NopPublisher{}, logger, engine.Options{})
	return NewPlanner(eng, an, logger), an
}

// doubleBookedSchedule has two games at the same venue on the same evening
// and a free alternative venue
func doubleBookedSchedule() *model.Schedule {
	kickoff := day(1)
	games := []model.Game{
		{ID: "g1", HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1", Date: kickoff},
		{ID: "g2", HomeTeamID: "t3", AwayTeamID: "t4", VenueID: "v1", Date: kickoff.Add(time.Hour)},
	}
	teams := []model.Team{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}, {ID: "t4"}}
	venues := []model.Venue{
		{ID: "v1", Latitude: 51.5, Longitude: -0.12},
		{ID: "v2", Latitude: 51.6, Longitude: -0.2},
	}
	return model.NewSchedule("s", "basketball", "2026", games, teams, venues, nil)
}

func TestPlanner_RanksCandidatesByProjectedImprovement(t *testing.T) {
	s := doubleBookedSchedule()
	planner, an := newTestPlanner(analyzer.DefaultThresholds())

	analysis, err := an.Probe(context.Background(), s, nil)
	require.NoError(t, err)
	conflicts := analysis.ConflictsOfType(model.ConflictVenueAvailability)
	require.Len(t, conflicts, 1)

	ranked, err := planner.Plan(context.Background(), s, conflicts[0], nil)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].ProjectedDelta, ranked[i].ProjectedDelta)
	}

	// The best candidate removes the critical double booking
	assert.Greater(t, ranked[0].ProjectedDelta, 0.0)

	for _, res := range ranked {
		assert.Equal(t, model.ResolutionPending, res.Status)
		assert.Equal(t, conflicts[0].ID, res.ConflictID)
		assert.Equal(t, s.Fingerprint(), res.ScheduleFingerprint)
	}
}

func TestPlanner_GeneratesBothVenueAndDateCandidates(t *testing.T) {
	s := doubleBookedSchedule()
	planner, an := newTestPlanner(analyzer.DefaultThresholds())

	analysis, err := an.Probe(context.Background(), s, nil)
	require.NoError(t, err)
	conflict := analysis.ConflictsOfType(model.ConflictVenueAvailability)[0]

	ranked, err := planner.Plan(context.Background(), s, conflict, nil)
	require.NoError(t, err)

	kinds := make(map[model.ResolutionType]bool)
	for _, res := range ranked {
		kinds[res.Type] = true
	}
	assert.True(t, kinds[model.ResolutionChangeVenue])
	assert.True(t, kinds[model.ResolutionMoveGame])
}

func TestPlanner_DropsUnapplicableCandidates(t *testing.T) {
	s := doubleBookedSchedule()
	planner, _ := newTestPlanner(analyzer.DefaultThresholds())

	ghost := model.NewConflict(model.ConflictHomeAwayBalance, model.SeverityMajor,
		[]string{"no-such-game"}, nil, nil, "synthetic")
	ghost.Candidates = model.CandidateResolutions(ghost.Type)

	ranked, err := planner.Plan(context.Background(), s, ghost, nil)
	require.NoError(t, err)
	assert.Empty(t, ranked, "swap of an unknown game cannot be applied")
}

func TestPlanner_IncludesConstraintScoresWhenProvided(t *testing.T) {
	s := doubleBookedSchedule()
	planner, an := newTestPlanner(analyzer.DefaultThresholds())

	constraints := []model.Constraint{{
		ID:             "venue-hard",
		Type:           model.ConstraintLogical,
		Hardness:       model.HardnessHard,
		Weight:         100,
		Evaluator:      evaluators.StrategyVenueConflict,
		Parallelizable: true,
		Params:         model.Params{Venue: &model.VenueParams{GameDurationMinutes: 180, BufferMinutes: 60}},
	}}

	analysis, err := an.Probe(context.Background(), s, nil)
	require.NoError(t, err)
	conflict := analysis.ConflictsOfType(model.ConflictVenueAvailability)[0]

	ranked, err := planner.Plan(context.Background(), s, conflict, constraints)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)

	// Fixing the double booking lifts the hard-gated overall score from 0 to
	// 1 on top of removing the critical conflict, so the best candidate's
	// delta exceeds the severity weight alone.
	assert.Greater(t, ranked[0].ProjectedDelta, model.SeverityWeight(model.SeverityCritical))
}
