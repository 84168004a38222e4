// Package engine scores schedule snapshots against constraint sets:
// dependency-ordered, parallel within layers, cached and deduplicated.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/courtline/engine/pkg/cache"
	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

// Options tunes the engine's resource model
type Options struct {
	// Workers bounds concurrent evaluator invocations within a layer
	Workers int

	// ConstraintTimeout bounds a single evaluator invocation
	ConstraintTimeout time.Duration

	// CacheTTL bounds how long cacheable results live
	CacheTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.ConstraintTimeout <= 0 {
		o.ConstraintTimeout = 5 * time.Second
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	return o
}

// Engine evaluates schedules against constraint sets. All collaborators
// are injected; cache may be nil to disable caching entirely.
type Engine struct {
	evaluators *evaluators.Registry
	cache      cache.Cache
	publisher  events.Publisher
	logger     *zap.Logger
	opts       Options

	// flight coalesces concurrent identical evaluate calls so a
	// (schedule, constraint set) pair is computed at most once at a time
	flight singleflight.Group
}

// New creates an evaluation engine
func New(evalRegistry *evaluators.Registry, c cache.Cache, publisher events.Publisher, logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		evaluators: evalRegistry,
		cache:      c,
		publisher:  publisher,
		logger:     logger,
		opts:       opts.withDefaults(),
	}
}

// Evaluate scores the schedule against the constraint set. A single
// evaluator failure never fails the call; only invalid input (nil
// schedule, unknown evaluator, cyclic dependencies) returns an error.
func (e *Engine) Evaluate(ctx context.Context, s *model.Schedule, constraints []model.Constraint) (*model.EvaluationResult, error) {
	if s == nil {
		return nil, model.NewValidationError("malformed_schedule", "schedule is nil")
	}
	for _, c := range constraints {
		if _, ok := e.evaluators.Get(c.Evaluator); !ok {
			return nil, model.NewValidationError("missing_evaluator",
				"constraint %q references unknown evaluator %q", c.ID, c.Evaluator)
		}
	}

	// Duplicate concurrent requests share one in-flight computation. The
	// shared result is safe to hand to every caller: EvaluationResult is
	// immutable once returned.
	key := s.Fingerprint() + ":" + constraintSetFingerprint(constraints)
	v, err, _ := e.flight.Do(key, func() (any, error) {
		return e.evaluate(ctx, s, constraints)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.EvaluationResult), nil
}

// EvaluateOne evaluates a single constraint of the given set, running its
// in-set dependencies first so their results are available to it
func (e *Engine) EvaluateOne(ctx context.Context, s *model.Schedule, constraintID string, constraints []model.Constraint) (model.ConstraintResult, error) {
	closure, err := dependencyClosure(constraintID, constraints)
	if err != nil {
		return model.ConstraintResult{}, err
	}
	result, err := e.Evaluate(ctx, s, closure)
	if err != nil {
		return model.ConstraintResult{}, err
	}
	res, ok := result.Results[constraintID]
	if !ok {
		return model.ConstraintResult{}, fmt.Errorf("evaluate constraint %q: %w", constraintID, model.ErrConstraintNotFound)
	}
	e.publisher.Publish(events.New(events.ConstraintEvaluated, map[string]any{
		"constraintId": constraintID,
		"schedule":     s.Fingerprint(),
		"status":       string(res.Status),
	}))
	return res, nil
}

// dependencyClosure returns the target and its transitive in-set
// dependencies
func dependencyClosure(target string, constraints []model.Constraint) ([]model.Constraint, error) {
	byID := make(map[string]model.Constraint, len(constraints))
	for _, c := range constraints {
		byID[c.ID] = c
	}
	if _, ok := byID[target]; !ok {
		return nil, fmt.Errorf("constraint %q: %w", target, model.ErrConstraintNotFound)
	}

	seen := make(map[string]bool)
	var closure []model.Constraint
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		c, ok := byID[id]
		if !ok {
			return
		}
		for _, dep := range c.Dependencies {
			walk(dep)
		}
		closure = append(closure, c)
	}
	walk(target)
	return closure, nil
}

func (e *Engine) evaluate(ctx context.Context, s *model.Schedule, constraints []model.Constraint) (*model.EvaluationResult, error) {
	start := time.Now()

	layers, err := topoLayers(constraints)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make(map[string]model.ConstraintResult, len(constraints))
	cacheLookups := 0
	cacheHits := 0

	record := func(c model.Constraint, res model.ConstraintResult, fromCache bool) {
		res.Hardness = c.Hardness
		mu.Lock()
		defer mu.Unlock()
		results[c.ID] = res
		if c.Cacheable {
			cacheLookups++
			if fromCache {
				cacheHits++
			}
		}
	}

	depsFor := func(c model.Constraint) map[string]model.ConstraintResult {
		if len(c.Dependencies) == 0 {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		deps := make(map[string]model.ConstraintResult, len(c.Dependencies))
		for _, dep := range c.Dependencies {
			if res, ok := results[dep]; ok {
				deps[dep] = res
			}
		}
		return deps
	}

	for _, layer := range layers {
		// Cancellation stops dispatching new layers; partial results are
		// discarded below, never returned.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var parallel, serial []model.Constraint
		for _, c := range layer {
			if c.Parallelizable {
				parallel = append(parallel, c)
			} else {
				serial = append(serial, c)
			}
		}

		group := new(errgroup.Group)
		group.SetLimit(e.opts.Workers)
		for _, c := range parallel {
			c := c
			group.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				res, fromCache := e.runOne(ctx, s, c, depsFor(c))
				record(c, res, fromCache)
				return nil
			})
		}
		_ = group.Wait()

		// Non-parallelizable constraints run one at a time, already in
		// priority order within the layer.
		for _, c := range serial {
			if ctx.Err() != nil {
				break
			}
			res, fromCache := e.runOne(ctx, s, c, depsFor(c))
			record(c, res, fromCache)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hitRate := 0.0
	if cacheLookups > 0 {
		hitRate = float64(cacheHits) / float64(cacheLookups)
	}
	// No event here: the planner evaluates scratch snapshots through this
	// path, and discarded snapshots must stay invisible to consumers. The
	// service layer announces caller-visible evaluations.
	return aggregate(s, constraints, results, hitRate, time.Since(start)), nil
}

// runOne evaluates a single constraint with read-through caching, a
// bounded timeout and panic isolation. The second return value reports a
// cache hit.
func (e *Engine) runOne(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) (model.ConstraintResult, bool) {
	cacheKey := fmt.Sprintf("eval:%s:%s:%s", c.ID, c.Params.Fingerprint(), s.Fingerprint())

	if c.Cacheable && e.cache != nil {
		data, found, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			// Degrade to direct compute; the cache being down is never fatal
			e.logger.Warn("cache unavailable, evaluating directly",
				zap.String("constraint_id", c.ID),
				zap.Error(fmt.Errorf("%w: %v", model.ErrCacheUnavailable, err)))
		} else if found {
			var res model.ConstraintResult
			if err := json.Unmarshal(data, &res); err == nil {
				return res, true
			}
			e.logger.Warn("discarding undecodable cache entry", zap.String("key", cacheKey))
		}
	}

	start := time.Now()
	res := e.invoke(ctx, s, c, deps)
	res.ExecutionTime = time.Since(start)

	if c.Cacheable && e.cache != nil && res.Status != model.StatusNotEvaluated {
		if data, err := json.Marshal(res); err == nil {
			if err := e.cache.Set(ctx, cacheKey, data, e.opts.CacheTTL); err != nil {
				e.logger.Warn("cache write failed", zap.String("key", cacheKey),
					zap.Error(fmt.Errorf("%w: %v", model.ErrCacheUnavailable, err)))
			}
		}
	}
	return res, false
}

// invoke runs the evaluator under the per-constraint timeout. A timeout,
// error or panic produces a not_evaluated result; the failure is isolated
// to this constraint.
func (e *Engine) invoke(ctx context.Context, s *model.Schedule, c model.Constraint, deps map[string]model.ConstraintResult) model.ConstraintResult {
	ev, ok := e.evaluators.Get(c.Evaluator)
	if !ok {
		return model.NotEvaluatedResult(c.ID, fmt.Errorf("unknown evaluator %q", c.Evaluator))
	}

	evalCtx, cancel := context.WithTimeout(ctx, e.opts.ConstraintTimeout)
	defer cancel()

	type outcome struct {
		res model.ConstraintResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: fmt.Errorf("evaluator %q panicked: %v", c.Evaluator, p)}
			}
		}()
		res, err := ev.Evaluate(evalCtx, s, c, deps)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case <-evalCtx.Done():
		return model.NotEvaluatedResult(c.ID, fmt.Errorf("evaluation of %q: %w", c.ID, evalCtx.Err()))
	case o := <-ch:
		if o.err != nil {
			e.logger.Warn("evaluator failed",
				zap.String("constraint_id", c.ID), zap.Error(o.err))
			return model.NotEvaluatedResult(c.ID, o.err)
		}
		o.res.Score = model.ClampScore(o.res.Score)
		return o.res
	}
}

// constraintSetFingerprint hashes the identity and parameters of a
// constraint set, order-independently
func constraintSetFingerprint(constraints []model.Constraint) string {
	parts := make([]string, 0, len(constraints))
	for _, c := range constraints {
		parts = append(parts, c.ID+":"+c.Params.Fingerprint())
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}
