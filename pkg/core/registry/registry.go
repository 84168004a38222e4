// Package registry owns constraint definitions: validation on
// registration, scope-matching queries and template instantiation.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

// Registry holds the active constraint set. All collaborators are
// injected; registration side effects (lifecycle events) are
// fire-and-forget and never block or fail the operation.
type Registry struct {
	mu          sync.RWMutex
	constraints map[string]model.Constraint

	evaluators *evaluators.Registry
	publisher  events.Publisher
	logger     *zap.Logger
	validate   *validator.Validate
}

// New creates an empty registry
func New(evalRegistry *evaluators.Registry, publisher events.Publisher, logger *zap.Logger) *Registry {
	return &Registry{
		constraints: make(map[string]model.Constraint),
		evaluators:  evalRegistry,
		publisher:   publisher,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Register validates and adds a constraint. Violations are reported as a
// ValidationError naming the broken rule; the registry is left unchanged
// on failure.
func (r *Registry) Register(c model.Constraint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constraints[c.ID]; exists {
		return model.NewValidationError("duplicate_id", "constraint %q is already registered", c.ID)
	}
	if err := r.validateLocked(c); err != nil {
		return err
	}

	r.constraints[c.ID] = c
	r.logger.Info("constraint registered",
		zap.String("constraint_id", c.ID),
		zap.String("hardness", string(c.Hardness)))
	r.publisher.Publish(events.New(events.ConstraintCreated, map[string]any{"constraintId": c.ID}))
	return nil
}

// Update replaces an existing constraint after re-validation
func (r *Registry) Update(c model.Constraint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constraints[c.ID]; !exists {
		return fmt.Errorf("update constraint %q: %w", c.ID, model.ErrConstraintNotFound)
	}
	if err := r.validateLocked(c); err != nil {
		return err
	}

	r.constraints[c.ID] = c
	r.publisher.Publish(events.New(events.ConstraintUpdated, map[string]any{"constraintId": c.ID}))
	return nil
}

// Remove deletes a constraint by ID
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constraints[id]; !exists {
		return fmt.Errorf("remove constraint %q: %w", id, model.ErrConstraintNotFound)
	}
	delete(r.constraints, id)
	r.publisher.Publish(events.New(events.ConstraintDeleted, map[string]any{"constraintId": id}))
	return nil
}

// Get looks up a constraint by ID
func (r *Registry) Get(id string) (model.Constraint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.constraints[id]
	if !ok {
		return model.Constraint{}, fmt.Errorf("get constraint %q: %w", id, model.ErrConstraintNotFound)
	}
	return c, nil
}

// All returns every registered constraint, sorted by ID
func (r *Registry) All() []model.Constraint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortByID(r.constraints)
}

// ListByCategory returns constraints of the given type, sorted by ID
func (r *Registry) ListByCategory(ct model.ConstraintType) []model.Constraint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := make(map[string]model.Constraint)
	for id, c := range r.constraints {
		if c.Type == ct {
			filtered[id] = c
		}
	}
	return sortByID(filtered)
}

// ListApplicable returns the constraints whose scope admits the query,
// sorted by ID
func (r *Registry) ListApplicable(q model.ScopeQuery) []model.Constraint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := make(map[string]model.Constraint)
	for id, c := range r.constraints {
		if c.Scope.Matches(q) {
			filtered[id] = c
		}
	}
	return sortByID(filtered)
}

func sortByID(m map[string]model.Constraint) []model.Constraint {
	out := make([]model.Constraint, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// validateLocked runs all registration rules. Caller holds the lock.
func (r *Registry) validateLocked(c model.Constraint) error {
	if err := r.validate.Struct(c); err != nil {
		return model.NewValidationError("struct", "constraint %q: %v", c.ID, err)
	}
	if _, ok := r.evaluators.Get(c.Evaluator); !ok {
		return model.NewValidationError("missing_evaluator",
			"constraint %q references unknown evaluator %q", c.ID, c.Evaluator)
	}
	for _, dep := range c.Dependencies {
		if dep == c.ID {
			return model.NewValidationError("cyclic_dependency",
				"constraint %q depends on itself", c.ID)
		}
		if _, exists := r.constraints[dep]; !exists {
			return model.NewValidationError("unknown_reference",
				"constraint %q depends on unregistered constraint %q", c.ID, dep)
		}
	}
	for _, other := range c.ConflictsWith {
		if _, exists := r.constraints[other]; !exists && other != c.ID {
			return model.NewValidationError("unknown_reference",
				"constraint %q conflicts with unregistered constraint %q", c.ID, other)
		}
	}
	if err := r.checkAcyclicLocked(c); err != nil {
		return err
	}
	return nil
}

// checkAcyclicLocked rejects the candidate if adding (or replacing) it
// would introduce a dependency cycle
func (r *Registry) checkAcyclicLocked(candidate model.Constraint) error {
	deps := make(map[string][]string, len(r.constraints)+1)
	for id, c := range r.constraints {
		deps[id] = c.Dependencies
	}
	deps[candidate.ID] = candidate.Dependencies

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return model.NewValidationError("cyclic_dependency",
				"constraint %q participates in a dependency cycle", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	return visit(candidate.ID)
}
