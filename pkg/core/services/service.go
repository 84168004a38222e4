// Package services is the caller API surface of the scheduling engine:
// transport-free operations over the data model, wiring the registry,
// evaluation engine, conflict analyzer and resolution machinery together.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/engine"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/core/registry"
	"github.com/courtline/engine/pkg/core/resolution"
	"github.com/courtline/engine/pkg/events"
)

// Store persists constraints and the append-only resolution history.
// Optional: a nil store disables persistence without changing behavior.
type Store interface {
	SaveConstraint(ctx context.Context, c model.Constraint) error
	DeleteConstraint(ctx context.Context, id string) error
	InsertResolution(ctx context.Context, res *model.Resolution) error
}

// Service exposes the engine's operations to the platform layer. All
// collaborators are injected at construction.
type Service struct {
	registry  *registry.Registry
	engine    *engine.Engine
	analyzer  *analyzer.Analyzer
	planner   *resolution.Planner
	executor  *resolution.Executor
	store     Store
	publisher events.Publisher
	logger    *zap.Logger
}

// New wires a service from its components. store may be nil.
func New(reg *registry.Registry, eng *engine.Engine, an *analyzer.Analyzer, planner *resolution.Planner, executor *resolution.Executor, store Store, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		registry:  reg,
		engine:    eng,
		analyzer:  an,
		planner:   planner,
		executor:  executor,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// persist runs a store operation when a store is configured, logging
// failures rather than surfacing them: persistence is a side effect of the
// operation, not part of its contract
func (s *Service) persist(op string, fn func() error) {
	if s.store == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("persistence failed", zap.String("operation", op), zap.Error(err))
	}
}

// RegisterConstraint validates and registers a constraint definition
func (s *Service) RegisterConstraint(ctx context.Context, c model.Constraint) error {
	if err := s.registry.Register(c); err != nil {
		return err
	}
	s.persist("save constraint", func() error { return s.store.SaveConstraint(ctx, c) })
	return nil
}

// UpdateConstraint replaces an existing constraint definition
func (s *Service) UpdateConstraint(ctx context.Context, c model.Constraint) error {
	if err := s.registry.Update(c); err != nil {
		return err
	}
	s.persist("save constraint", func() error { return s.store.SaveConstraint(ctx, c) })
	return nil
}

// RemoveConstraint deletes a constraint definition
func (s *Service) RemoveConstraint(ctx context.Context, id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	s.persist("delete constraint", func() error { return s.store.DeleteConstraint(ctx, id) })
	return nil
}

// GetConstraint looks up a constraint by ID
func (s *Service) GetConstraint(id string) (model.Constraint, error) {
	return s.registry.Get(id)
}

// ListByCategory lists constraints of one type
func (s *Service) ListByCategory(ct model.ConstraintType) []model.Constraint {
	return s.registry.ListByCategory(ct)
}

// ListApplicable lists constraints whose scope admits the query
func (s *Service) ListApplicable(q model.ScopeQuery) []model.Constraint {
	return s.registry.ListApplicable(q)
}

// InstantiateTemplate registers a constraint built from a named template
func (s *Service) InstantiateTemplate(ctx context.Context, templateName, constraintID string, params model.Params) (model.Constraint, error) {
	c, err := s.registry.InstantiateTemplate(templateName, constraintID, params)
	if err != nil {
		return model.Constraint{}, err
	}
	s.persist("save constraint", func() error { return s.store.SaveConstraint(ctx, c) })
	return c, nil
}

// Evaluate scores the schedule against every registered constraint
func (s *Service) Evaluate(ctx context.Context, sched *model.Schedule) (*model.EvaluationResult, error) {
	result, err := s.engine.Evaluate(ctx, sched, s.registry.All())
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.New(events.ConstraintEvaluated, map[string]any{
		"schedule":     result.ScheduleFingerprint,
		"constraints":  len(result.Results),
		"overallScore": result.OverallScore,
	}))
	return result, nil
}

// EvaluateOne scores a single registered constraint (with its dependency
// closure) against the schedule
func (s *Service) EvaluateOne(ctx context.Context, sched *model.Schedule, constraintID string) (model.ConstraintResult, error) {
	return s.engine.EvaluateOne(ctx, sched, constraintID, s.registry.All())
}

// EvaluateBulk scores several schedule snapshots in sequence. Evaluation
// failures on individual schedules abort the batch only for structurally
// invalid input, mirroring the single-schedule contract.
func (s *Service) EvaluateBulk(ctx context.Context, schedules []*model.Schedule) ([]*model.EvaluationResult, error) {
	results := make([]*model.EvaluationResult, 0, len(schedules))
	for _, sched := range schedules {
		result, err := s.Evaluate(ctx, sched)
		if err != nil {
			if sched == nil {
				return nil, fmt.Errorf("bulk evaluation: %w", err)
			}
			return nil, fmt.Errorf("bulk evaluation of schedule %q: %w", sched.ID, err)
		}
		results = append(results, result)
	}
	s.publisher.Publish(events.New(events.BulkEvaluated, map[string]any{
		"schedules": len(schedules),
	}))
	return results, nil
}

// AnalyzeConflicts evaluates the schedule and then scans it for structural
// conflicts, so violated hard constraints surface alongside the structural
// detections
func (s *Service) AnalyzeConflicts(ctx context.Context, sched *model.Schedule) (*model.ConflictAnalysisResult, error) {
	eval, err := s.Evaluate(ctx, sched)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, sched, eval)
}

// PlanResolution returns ranked candidate fixes for one conflict
func (s *Service) PlanResolution(ctx context.Context, sched *model.Schedule, conflict model.Conflict) ([]*model.Resolution, error) {
	return s.planner.Plan(ctx, sched, conflict, s.registry.All())
}

// ResolveAutomatically runs the bounded automatic resolution loop and
// persists every applied resolution to the history
func (s *Service) ResolveAutomatically(ctx context.Context, sched *model.Schedule) (*resolution.Outcome, error) {
	analysis, err := s.AnalyzeConflicts(ctx, sched)
	if err != nil {
		return nil, err
	}
	outcome, err := s.executor.ResolveAutomatically(ctx, sched, analysis, s.registry.All())
	if err != nil {
		return nil, err
	}
	for _, res := range outcome.Applied {
		s.persist("insert resolution", func() error { return s.store.InsertResolution(ctx, res) })
	}
	return outcome, nil
}

// ApplyResolution applies one approved resolution and records it
func (s *Service) ApplyResolution(ctx context.Context, sched *model.Schedule, res *model.Resolution) (*model.Schedule, error) {
	next, err := s.executor.ApplyResolution(ctx, sched, res)
	if err != nil {
		return nil, err
	}
	s.persist("insert resolution", func() error { return s.store.InsertResolution(ctx, res) })
	return next, nil
}

// RejectResolution marks one proposed resolution rejected and records it
func (s *Service) RejectResolution(ctx context.Context, res *model.Resolution) error {
	if err := s.executor.RejectResolution(res); err != nil {
		return err
	}
	s.persist("insert resolution", func() error { return s.store.InsertResolution(ctx, res) })
	return nil
}
