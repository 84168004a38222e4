package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/cache"
	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

// stubEvaluator is a named strategy backed by a test function
type stubEvaluator struct {
	name string
	fn   func(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error)
}

func (e *stubEvaluator) Name() string { return e.name }

func (e *stubEvaluator) Evaluate(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	return e.fn(ctx, s, c, deps)
}

func scoring(score float64) func(context.Context, *model.Schedule, model.Constraint, map[string]model.ConstraintResult) (model.ConstraintResult, error) {
	return func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
		var violations []model.Violation
		if score < 1 {
			violations = []model.Violation{{Severity: model.SeverityMajor, Description: "stub violation"}}
		}
		return model.NewConstraintResult(c.ID, score, violations, nil), nil
	}
}

func engineSchedule() *model.Schedule {
	games := []model.Game{
		{ID: "g1", HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1", Date: time.Date(2026, 1, 3, 19, 0, 0, 0, time.UTC)},
		{ID: "g2", HomeTeamID: "t2", AwayTeamID: "t1", VenueID: "v1", Date: time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC)},
	}
	teams := []model.Team{{ID: "t1"}, {ID: "t2"}}
	venues := []model.Venue{{ID: "v1"}}
	return model.NewSchedule("s", "basketball", "2026", games, teams, venues, nil)
}

func newTestEngine(t *testing.T, stubs []*stubEvaluator, opts Options) *Engine {
	t.Helper()
	reg := evaluators.NewRegistry()
	for _, stub := range stubs {
		require.NoError(t, reg.Register(stub))
	}
	return New(reg, cache.NewMemoryCache(), events.NopPublisher{}, zap.NewNop(), opts)
}

func stubConstraint(id, strategy string, hardness model.Hardness, weight float64) model.Constraint {
	return model.Constraint{
		ID:             id,
		Type:           model.ConstraintTemporal,
		Hardness:       hardness,
		Weight:         weight,
		Evaluator:      strategy,
		Parallelizable: true,
	}
}

func TestEngine_NilScheduleIsaValidationError(t *testing.T) {
	e := newTestEngine(t, nil, Options{})

	_, err := e.Evaluate(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestEngine_UnknownEvaluatorIsaValidationError(t *testing.T) {
	e := newTestEngine(t, nil, Options{})

	_, err := e.Evaluate(context.Background(), engineSchedule(),
		[]model.Constraint{stubConstraint("c1", "unknown_strategy", model.HardnessSoft, 50)})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestEngine_HardViolationGatesOverallScore(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{
		{name: "always_fails", fn: scoring(0)},
		{name: "always_passes", fn: scoring(1)},
	}, Options{})

	result, err := e.Evaluate(context.Background(), engineSchedule(), []model.Constraint{
		stubConstraint("hard-1", "always_fails", model.HardnessHard, 100),
		stubConstraint("soft-1", "always_passes", model.HardnessSoft, 50),
	})
	require.NoError(t, err)

	assert.False(t, result.HardConstraintsSatisfied)
	assert.Equal(t, 0.0, result.OverallScore)
	// Soft score is still reported even though the overall is gated
	assert.Equal(t, 1.0, result.SoftConstraintsScore)
}

func TestEngine_BlendsSoftAndPreferenceScores(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{
		{name: "half", fn: scoring(0.5)},
		{name: "full", fn: scoring(1)},
	}, Options{})

	result, err := e.Evaluate(context.Background(), engineSchedule(), []model.Constraint{
		stubConstraint("soft-a", "half", model.HardnessSoft, 60),
		stubConstraint("soft-b", "full", model.HardnessSoft, 20),
		stubConstraint("pref-a", "full", model.HardnessPreference, 40),
	})
	require.NoError(t, err)

	assert.True(t, result.HardConstraintsSatisfied)
	// Weighted soft mean: (0.5*60 + 1.0*20) / 80 = 0.625
	assert.InDelta(t, 0.625, result.SoftConstraintsScore, 1e-9)
	assert.InDelta(t, 1.0, result.PreferenceScore, 1e-9)
	assert.InDelta(t, 0.7*0.625+0.3*1.0, result.OverallScore, 1e-9)
}

func TestEngine_EmptyTiersScoreNeutral(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{{name: "full", fn: scoring(1)}}, Options{})

	result, err := e.Evaluate(context.Background(), engineSchedule(),
		[]model.Constraint{stubConstraint("hard-1", "full", model.HardnessHard, 100)})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.SoftConstraintsScore)
	assert.Equal(t, 1.0, result.PreferenceScore)
	assert.Equal(t, 1.0, result.OverallScore)
}

func TestEngine_CacheableResultsAreReused(t *testing.T) {
	var calls atomic.Int64
	e := newTestEngine(t, []*stubEvaluator{{
		name: "counting",
		fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			calls.Add(1)
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		},
	}}, Options{})

	c := stubConstraint("c1", "counting", model.HardnessSoft, 50)
	c.Cacheable = true
	s := engineSchedule()

	first, err := e.Evaluate(context.Background(), s, []model.Constraint{c})
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.CacheHitRate)
	assert.Equal(t, int64(1), calls.Load())

	second, err := e.Evaluate(context.Background(), s, []model.Constraint{c})
	require.NoError(t, err)
	assert.Equal(t, 1.0, second.CacheHitRate)
	assert.Equal(t, int64(1), calls.Load(), "cached result, evaluator not invoked again")
}

func TestEngine_CacheKeyedByParamsAndSchedule(t *testing.T) {
	var calls atomic.Int64
	e := newTestEngine(t, []*stubEvaluator{{
		name: "counting",
		fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			calls.Add(1)
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		},
	}}, Options{})

	c := stubConstraint("c1", "counting", model.HardnessSoft, 50)
	c.Cacheable = true
	c.Params = model.Params{RestDays: &model.RestDaysParams{MinRestDays: 2}}
	s := engineSchedule()

	_, err := e.Evaluate(context.Background(), s, []model.Constraint{c})
	require.NoError(t, err)

	// Changed parameters miss the cache
	c.Params = model.Params{RestDays: &model.RestDaysParams{MinRestDays: 3}}
	_, err = e.Evaluate(context.Background(), s, []model.Constraint{c})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())

	// Changed schedule content misses the cache too
	moved, err := s.WithGameDate("g1", time.Date(2026, 1, 5, 19, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), moved, []model.Constraint{c})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestEngine_PanicIsIsolatedToOneConstraint(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{
		{name: "panics", fn: func(context.Context, *model.Schedule, model.Constraint, map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			panic("boom")
		}},
		{name: "fine", fn: scoring(1)},
	}, Options{})

	result, err := e.Evaluate(context.Background(), engineSchedule(), []model.Constraint{
		stubConstraint("bad", "panics", model.HardnessSoft, 50),
		stubConstraint("good", "fine", model.HardnessSoft, 50),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusNotEvaluated, result.Results["bad"].Status)
	assert.Contains(t, result.Results["bad"].Error, "panicked")
	assert.Equal(t, model.StatusSatisfied, result.Results["good"].Status)
}

func TestEngine_TimeoutProducesNotEvaluated(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{
		{name: "slow", fn: func(ctx context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return model.ConstraintResult{}, ctx.Err()
			}
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		}},
	}, Options{ConstraintTimeout: 20 * time.Millisecond})

	result, err := e.Evaluate(context.Background(), engineSchedule(),
		[]model.Constraint{stubConstraint("slow-1", "slow", model.HardnessHard, 100)})
	require.NoError(t, err)

	assert.Equal(t, model.StatusNotEvaluated, result.Results["slow-1"].Status)
	// A hard constraint that failed to evaluate gates the overall score
	assert.False(t, result.HardConstraintsSatisfied)
	assert.Equal(t, 0.0, result.OverallScore)
}

func TestEngine_DependencyResultsAreAvailable(t *testing.T) {
	e := newTestEngine(t, []*stubEvaluator{
		{name: "base", fn: scoring(1)},
		{name: "needs_dep", fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			dep, ok := deps["base-1"]
			if !ok || !dep.Satisfied {
				return model.NewConstraintResult(c.ID, 0,
					[]model.Violation{{Severity: model.SeverityCritical, Description: "dependency result missing"}}, nil), nil
			}
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		}},
	}, Options{})

	dependent := stubConstraint("dep-1", "needs_dep", model.HardnessSoft, 50)
	dependent.Dependencies = []string{"base-1"}

	result, err := e.Evaluate(context.Background(), engineSchedule(), []model.Constraint{
		dependent,
		stubConstraint("base-1", "base", model.HardnessSoft, 50),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSatisfied, result.Results["dep-1"].Status)
}

func TestEngine_EvaluateOneRunsDependencyClosure(t *testing.T) {
	var baseRan atomic.Bool
	e := newTestEngine(t, []*stubEvaluator{
		{name: "base", fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			baseRan.Store(true)
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		}},
		{name: "leaf", fn: scoring(1)},
	}, Options{})

	leaf := stubConstraint("leaf-1", "leaf", model.HardnessSoft, 50)
	leaf.Dependencies = []string{"base-1"}
	set := []model.Constraint{leaf, stubConstraint("base-1", "base", model.HardnessSoft, 50)}

	res, err := e.EvaluateOne(context.Background(), engineSchedule(), "leaf-1", set)
	require.NoError(t, err)

	assert.Equal(t, "leaf-1", res.ConstraintID)
	assert.True(t, baseRan.Load(), "dependency evaluated as part of the closure")
}

func TestEngine_EvaluateOneUnknownConstraint(t *testing.T) {
	e := newTestEngine(t, nil, Options{})

	_, err := e.EvaluateOne(context.Background(), engineSchedule(), "ghost", nil)
	assert.ErrorIs(t, err, model.ErrConstraintNotFound)
}

func TestEngine_CancellationDiscardsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newTestEngine(t, []*stubEvaluator{
		{name: "cancels_midway", fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			cancel()
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		}},
	}, Options{})

	result, err := e.Evaluate(ctx, engineSchedule(),
		[]model.Constraint{stubConstraint("c1", "cancels_midway", model.HardnessSoft, 50)})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result, "partial results are discarded, not returned")
}

func TestEngine_ConcurrentIdenticalEvaluationsCoalesce(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	e := newTestEngine(t, []*stubEvaluator{
		{name: "gated", fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
			if calls.Add(1) == 1 {
				close(entered)
			}
			<-release
			return model.NewConstraintResult(c.ID, 1, nil, nil), nil
		}},
	}, Options{})

	s := engineSchedule()
	constraints := []model.Constraint{stubConstraint("c1", "gated", model.HardnessSoft, 50)}

	results := make([]*model.EvaluationResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = e.Evaluate(context.Background(), s, constraints)
		}()
	}

	<-entered
	// Let the second call reach the in-flight computation before releasing
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}
	assert.Equal(t, int32(1), calls.Load(), "one computation shared by both callers")
	assert.Same(t, results[0], results[1])
}

// failingCache reports unavailability on every operation
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) InvalidatePattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestEngine_CacheFailureDegradesToDirectCompute(t *testing.T) {
	var calls atomic.Int32
	reg := evaluators.NewRegistry()
	require.NoError(t, reg.Register(&stubEvaluator{name: "counting", fn: func(_ context.Context, _ *model.Schedule, c model.Constraint, _ map[string]model.ConstraintResult) (model.ConstraintResult, error) {
		calls.Add(1)
		return model.NewConstraintResult(c.ID, 1, nil, nil), nil
	}}))
	e := New(reg, failingCache{}, events.NopPublisher{}, zap.NewNop(), Options{})

	c := stubConstraint("c1", "counting", model.HardnessSoft, 50)
	c.Cacheable = true

	for i := 0; i < 2; i++ {
		result, err := e.Evaluate(context.Background(), engineSchedule(), []model.Constraint{c})
		require.NoError(t, err)
		assert.True(t, result.Results["c1"].Satisfied)
		assert.Equal(t, 0.0, result.CacheHitRate)
	}

	// Both calls computed directly; the broken cache never fails the call
	assert.Equal(t, int32(2), calls.Load())
}
