package resolution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

// Options bounds the automatic resolution loop
type Options struct {
	// MaxIterations caps how many fixes the loop may apply
	MaxIterations int

	// SeverityThreshold is the lowest severity the loop still tries to
	// resolve; conflicts below it are left for manual review
	SeverityThreshold model.Severity
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 10
	}
	if o.SeverityThreshold == "" {
		o.SeverityThreshold = model.SeverityMajor
	}
	return o
}

// Outcome is the result of an automatic resolution run
type Outcome struct {
	// Schedule is the final snapshot; the input schedule is untouched
	Schedule *model.Schedule

	// Applied lists the resolutions committed, in application order
	Applied []*model.Resolution

	// Remaining lists the conflicts still present in the final snapshot
	Remaining []model.Conflict

	// Iterations is how many loop iterations ran
	Iterations int
}

// Executor owns the production of new schedule snapshots. Every apply is
// copy-on-write: rollback is discarding the rejected snapshot and keeping
// the prior one.
type Executor struct {
	planner   *Planner
	analyzer  *analyzer.Analyzer
	publisher events.Publisher
	logger    *zap.Logger
	opts      Options
}

// NewExecutor creates an executor with injected collaborators
func NewExecutor(planner *Planner, a *analyzer.Analyzer, publisher events.Publisher, logger *zap.Logger, opts Options) *Executor {
	return &Executor{
		planner:   planner,
		analyzer:  a,
		publisher: publisher,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// loopState is the explicit state machine of one automatic run: the
// current snapshot, its analysis, and the conflicts already found
// unresolvable automatically
type loopState struct {
	current   *model.Schedule
	analysis  *model.ConflictAnalysisResult
	blocked   map[string]bool
	applied   []*model.Resolution
	iteration int
}

// ResolveAutomatically repeatedly applies the globally best-ranked
// candidate fix until no conflicts above the severity threshold remain,
// the iteration budget is spent, or no candidate improves the schedule.
// A candidate whose application increases the severity-weighted conflict
// total is rolled back and its conflict marked unresolvable.
func (e *Executor) ResolveAutomatically(ctx context.Context, s *model.Schedule, analysis *model.ConflictAnalysisResult, constraints []model.Constraint) (*Outcome, error) {
	if s == nil {
		return nil, model.NewValidationError("malformed_schedule", "schedule is nil")
	}
	if analysis == nil {
		var err error
		analysis, err = e.analyzer.Analyze(ctx, s, nil)
		if err != nil {
			return nil, err
		}
	}

	state := &loopState{
		current:  s,
		analysis: analysis,
		blocked:  make(map[string]bool),
	}

	for state.iteration < e.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pending := e.pendingConflicts(state)
		if len(pending) == 0 {
			break
		}
		state.iteration++

		best, bestConflict, err := e.bestCandidate(ctx, state, pending, constraints)
		if err != nil {
			return nil, err
		}
		if best == nil {
			// No conflict produced an applicable candidate; block them all
			// so the loop terminates.
			for _, c := range pending {
				state.blocked[c.ID] = true
			}
			continue
		}

		next, err := best.Mutation.Apply(state.current)
		if err != nil {
			state.blocked[bestConflict.ID] = true
			continue
		}
		// Candidate snapshots are probed silently; conflicts are announced
		// below only for the snapshot actually committed.
		nextAnalysis, err := e.analyzer.Probe(ctx, next, nil)
		if err != nil {
			return nil, err
		}

		if nextAnalysis.WeightedTotal() > state.analysis.WeightedTotal() {
			// Regression: discard the new snapshot and keep the prior one
			e.logger.Info("rolling back candidate that increased conflict total",
				zap.String("conflict_id", bestConflict.ID),
				zap.String("resolution_type", string(best.Type)))
			state.blocked[bestConflict.ID] = true
			continue
		}

		if err := best.MarkApplied(); err != nil {
			return nil, err
		}
		e.publisher.Publish(events.New(events.ResolutionApplied, map[string]any{
			"resolutionId": best.ID.String(),
			"conflictId":   best.ConflictID,
			"type":         string(best.Type),
			"schedule":     next.Fingerprint(),
		}))
		for _, c := range nextAnalysis.Conflicts {
			e.publisher.Publish(events.New(events.ConflictDetected, map[string]any{
				"conflictId": c.ID,
				"type":       string(c.Type),
				"severity":   string(c.Severity),
				"schedule":   next.Fingerprint(),
			}))
		}
		state.applied = append(state.applied, best)
		state.current = next
		state.analysis = nextAnalysis
	}

	return &Outcome{
		Schedule:   state.current,
		Applied:    state.applied,
		Remaining:  state.analysis.Conflicts,
		Iterations: state.iteration,
	}, nil
}

// pendingConflicts filters the current analysis down to unblocked
// conflicts at or above the severity threshold
func (e *Executor) pendingConflicts(state *loopState) []model.Conflict {
	threshold := model.SeverityWeight(e.opts.SeverityThreshold)
	var pending []model.Conflict
	for _, c := range state.analysis.Conflicts {
		if state.blocked[c.ID] {
			continue
		}
		if model.SeverityWeight(c.Severity) >= threshold {
			pending = append(pending, c)
		}
	}
	return pending
}

// bestCandidate ranks candidates across all pending conflicts and returns
// the single highest-ranked one
func (e *Executor) bestCandidate(ctx context.Context, state *loopState, pending []model.Conflict, constraints []model.Constraint) (*model.Resolution, model.Conflict, error) {
	var best *model.Resolution
	var bestConflict model.Conflict

	for _, conflict := range pending {
		ranked, err := e.planner.Plan(ctx, state.current, conflict, constraints)
		if err != nil {
			if ctx.Err() != nil {
				return nil, model.Conflict{}, err
			}
			e.logger.Warn("planning failed for conflict",
				zap.String("conflict_id", conflict.ID), zap.Error(err))
			continue
		}
		if len(ranked) == 0 {
			state.blocked[conflict.ID] = true
			continue
		}
		if best == nil || ranked[0].ProjectedDelta > best.ProjectedDelta {
			best = ranked[0]
			bestConflict = conflict
		}
	}
	return best, bestConflict, nil
}

// ApplyResolution applies a single approved resolution and returns the new
// snapshot. It is the manual counterpart of the automatic loop and does
// not trigger re-resolution.
func (e *Executor) ApplyResolution(ctx context.Context, s *model.Schedule, res *model.Resolution) (*model.Schedule, error) {
	if res.Status != model.ResolutionPending {
		return nil, fmt.Errorf("apply resolution %s: status is %s, want pending", res.ID, res.Status)
	}
	next, err := res.Mutation.Apply(s)
	if err != nil {
		return nil, fmt.Errorf("apply resolution %s: %w", res.ID, err)
	}
	if err := res.MarkApplied(); err != nil {
		return nil, err
	}
	e.publisher.Publish(events.New(events.ResolutionApplied, map[string]any{
		"resolutionId": res.ID.String(),
		"conflictId":   res.ConflictID,
		"type":         string(res.Type),
		"schedule":     next.Fingerprint(),
	}))
	return next, nil
}

// RejectResolution marks a proposed resolution rejected
func (e *Executor) RejectResolution(res *model.Resolution) error {
	if err := res.MarkRejected(); err != nil {
		return err
	}
	e.publisher.Publish(events.New(events.ResolutionRejected, map[string]any{
		"resolutionId": res.ID.String(),
		"conflictId":   res.ConflictID,
	}))
	return nil
}
