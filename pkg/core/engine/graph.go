package engine

import (
	"sort"

	"github.com/courtline/engine/pkg/core/model"
)

// topoLayers orders the requested constraint set into dependency layers
// using Kahn's algorithm. Constraints in the same layer share no
// dependency edge and may run concurrently; every constraint runs after
// all of its dependencies. Within a layer, constraints are ordered by
// descending priority (ties by ID) so the serial portion is deterministic.
//
// Dependencies pointing outside the requested set are ignored: the caller
// chose not to evaluate them, so they impose no ordering here.
func topoLayers(constraints []model.Constraint) ([][]model.Constraint, error) {
	byID := make(map[string]model.Constraint, len(constraints))
	for _, c := range constraints {
		byID[c.ID] = c
	}

	indegree := make(map[string]int, len(constraints))
	dependents := make(map[string][]string, len(constraints))
	for _, c := range constraints {
		indegree[c.ID] = 0
	}
	for _, c := range constraints {
		for _, dep := range c.Dependencies {
			if _, inSet := byID[dep]; !inSet {
				continue
			}
			indegree[c.ID]++
			dependents[dep] = append(dependents[dep], c.ID)
		}
	}

	var layers [][]model.Constraint
	remaining := len(constraints)

	current := make([]string, 0, len(constraints))
	for id, deg := range indegree {
		if deg == 0 {
			current = append(current, id)
		}
	}

	for len(current) > 0 {
		layer := make([]model.Constraint, 0, len(current))
		for _, id := range current {
			layer = append(layer, byID[id])
		}
		sortLayer(layer)
		layers = append(layers, layer)
		remaining -= len(layer)

		var next []string
		for _, id := range current {
			for _, dependent := range dependents[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}

	if remaining > 0 {
		return nil, model.NewValidationError("cyclic_dependency",
			"constraint set contains a dependency cycle (%d constraints unreachable)", remaining)
	}
	return layers, nil
}

func sortLayer(layer []model.Constraint) {
	sort.Slice(layer, func(i, j int) bool {
		if layer[i].Priority != layer[j].Priority {
			return layer[i].Priority > layer[j].Priority
		}
		return layer[i].ID < layer[j].ID
	})
}
