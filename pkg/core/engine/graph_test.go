package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/engine/pkg/core/model"
)

func node(id string, priority int, deps ...string) model.Constraint {
	return model.Constraint{ID: id, Priority: priority, Dependencies: deps}
}

func layerIDs(layer []model.Constraint) []string {
	ids := make([]string, len(layer))
	for i, c := range layer {
		ids[i] = c.ID
	}
	return ids
}

func TestTopoLayers_IndependentConstraintsShareOneLayer(t *testing.T) {
	layers, err := topoLayers([]model.Constraint{node("a", 0), node("b", 0), node("c", 0)})
	require.NoError(t, err)

	require.Len(t, layers, 1)
	assert.Equal(t, []string{"a", "b", "c"}, layerIDs(layers[0]))
}

func TestTopoLayers_DependentsRunAfterDependencies(t *testing.T) {
	layers, err := topoLayers([]model.Constraint{
		node("c", 0, "b"),
		node("b", 0, "a"),
		node("a", 0),
	})
	require.NoError(t, err)

	require.Len(t, layers, 3)
	assert.Equal(t, []string{"a"}, layerIDs(layers[0]))
	assert.Equal(t, []string{"b"}, layerIDs(layers[1]))
	assert.Equal(t, []string{"c"}, layerIDs(layers[2]))
}

func TestTopoLayers_DiamondDependency(t *testing.T) {
	layers, err := topoLayers([]model.Constraint{
		node("a", 0),
		node("b", 0, "a"),
		node("c", 0, "a"),
		node("d", 0, "b", "c"),
	})
	require.NoError(t, err)

	require.Len(t, layers, 3)
	assert.Equal(t, []string{"a"}, layerIDs(layers[0]))
	assert.Equal(t, []string{"b", "c"}, layerIDs(layers[1]))
	assert.Equal(t, []string{"d"}, layerIDs(layers[2]))
}

func TestTopoLayers_PriorityOrdersWithinLayer(t *testing.T) {
	layers, err := topoLayers([]model.Constraint{
		node("low", 10),
		node("high", 90),
		node("mid", 50),
	})
	require.NoError(t, err)

	require.Len(t, layers, 1)
	assert.Equal(t, []string{"high", "mid", "low"}, layerIDs(layers[0]))
}

func TestTopoLayers_OutOfSetDependenciesIgnored(t *testing.T) {
	layers, err := topoLayers([]model.Constraint{node("a", 0, "not-requested")})
	require.NoError(t, err)

	require.Len(t, layers, 1)
	assert.Equal(t, []string{"a"}, layerIDs(layers[0]))
}

func TestTopoLayers_CycleIsaValidationError(t *testing.T) {
	_, err := topoLayers([]model.Constraint{
		node("a", 0, "b"),
		node("b", 0, "a"),
	})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}
