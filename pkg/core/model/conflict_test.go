package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConflict_StableIDIgnoresEntityOrder(t *testing.T) {
	a := NewConflict(ConflictRestDays, SeverityMajor, []string{"g1", "g2"}, []string{"t1"}, nil, "desc")
	b := NewConflict(ConflictRestDays, SeverityMajor, []string{"g2", "g1"}, []string{"t1"}, nil, "different desc")

	assert.Equal(t, a.ID, b.ID, "ID depends on type and entities, not description or order")
}

func TestNewConflict_IDChangesWithTypeAndEntities(t *testing.T) {
	a := NewConflict(ConflictRestDays, SeverityMajor, []string{"g1"}, nil, nil, "")
	b := NewConflict(ConflictTravelDistance, SeverityMajor, []string{"g1"}, nil, nil, "")
	c := NewConflict(ConflictRestDays, SeverityMajor, []string{"g2"}, nil, nil, "")

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestCandidateResolutions(t *testing.T) {
	assert.Equal(t,
		[]ResolutionType{ResolutionChangeVenue, ResolutionMoveGame},
		CandidateResolutions(ConflictVenueAvailability))
	assert.Equal(t,
		[]ResolutionType{ResolutionSwapHomeAway},
		CandidateResolutions(ConflictHomeAwayBalance))
	assert.Contains(t, CandidateResolutions(ConflictRestDays), ResolutionAdjustDates)
	assert.Len(t, CandidateResolutions(ConflictConstraint), 3)
}

func TestConflictAnalysisResult_WeightedTotal(t *testing.T) {
	result := &ConflictAnalysisResult{
		Conflicts: []Conflict{
			{Severity: SeverityCritical},
			{Severity: SeverityMajor},
			{Severity: SeverityMinor},
		},
	}
	assert.Equal(t, 8.0, result.WeightedTotal())
}

func TestConflictAnalysisResult_ConflictsOfType(t *testing.T) {
	result := &ConflictAnalysisResult{
		Conflicts: []Conflict{
			{ID: "a", Type: ConflictRestDays},
			{ID: "b", Type: ConflictTravelDistance},
			{ID: "c", Type: ConflictRestDays},
		},
	}
	rest := result.ConflictsOfType(ConflictRestDays)
	assert.Len(t, rest, 2)
	assert.Empty(t, result.ConflictsOfType(ConflictVenueAvailability))
}
