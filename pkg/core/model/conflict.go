package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ConflictType is one of the nine fixed structural conflict kinds
type ConflictType string

const (
	ConflictRestDays              ConflictType = "rest_days"
	ConflictTravelDistance        ConflictType = "travel_distance"
	ConflictVenueAvailability     ConflictType = "venue_availability"
	ConflictTeamAvailability      ConflictType = "team_availability"
	ConflictHomeAwayBalance       ConflictType = "home_away_balance"
	ConflictRivalrySpacing        ConflictType = "rivalry_spacing"
	ConflictConsecutiveGames      ConflictType = "consecutive_games"
	ConflictChampionshipAlignment ConflictType = "championship_alignment"
	ConflictConstraint            ConflictType = "constraint_conflict"
)

// Conflict is a detected structural problem in a schedule. Its ID is a
// stable content hash of the type and affected entities, so overlapping
// detectors reporting the same problem merge to one conflict.
type Conflict struct {
	ID          string           `json:"id"`
	Type        ConflictType     `json:"type"`
	Severity    Severity         `json:"severity"`
	GameIDs     []string         `json:"gameIds,omitempty"`
	TeamIDs     []string         `json:"teamIds,omitempty"`
	VenueIDs    []string         `json:"venueIds,omitempty"`
	Description string           `json:"description"`
	Candidates  []ResolutionType `json:"candidates,omitempty"`
}

// NewConflict builds a conflict with its stable ID derived from the type
// and the sorted affected entity IDs
func NewConflict(ct ConflictType, severity Severity, gameIDs, teamIDs, venueIDs []string, description string) Conflict {
	c := Conflict{
		Type:        ct,
		Severity:    severity,
		GameIDs:     sortedCopy(gameIDs),
		TeamIDs:     sortedCopy(teamIDs),
		VenueIDs:    sortedCopy(venueIDs),
		Description: description,
	}
	c.ID = conflictID(c)
	return c
}

func sortedCopy(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

func conflictID(c Conflict) string {
	var b strings.Builder
	b.WriteString(string(c.Type))
	for _, id := range c.GameIDs {
		b.WriteByte('|')
		b.WriteString(id)
	}
	for _, id := range c.TeamIDs {
		b.WriteByte('|')
		b.WriteString(id)
	}
	for _, id := range c.VenueIDs {
		b.WriteByte('|')
		b.WriteString(id)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// CandidateResolutions maps a conflict type to the mutation kinds that can
// address it. The planner turns these descriptors into concrete scored
// candidates.
func CandidateResolutions(ct ConflictType) []ResolutionType {
	switch ct {
	case ConflictVenueAvailability:
		return []ResolutionType{ResolutionChangeVenue, ResolutionMoveGame}
	case ConflictHomeAwayBalance, ConflictConsecutiveGames:
		return []ResolutionType{ResolutionSwapHomeAway}
	case ConflictRestDays, ConflictTravelDistance, ConflictTeamAvailability,
		ConflictRivalrySpacing, ConflictChampionshipAlignment:
		return []ResolutionType{ResolutionAdjustDates, ResolutionMoveGame}
	case ConflictConstraint:
		return []ResolutionType{ResolutionAdjustDates, ResolutionChangeVenue, ResolutionSwapHomeAway}
	default:
		return nil
	}
}

// ConflictSummary tallies conflicts by type and severity. IncompleteTypes
// lists detectors that failed; their conflicts are missing from the result.
type ConflictSummary struct {
	Total           int                  `json:"total"`
	ByType          map[ConflictType]int `json:"byType"`
	BySeverity      map[Severity]int     `json:"bySeverity"`
	IncompleteTypes []ConflictType       `json:"incompleteTypes,omitempty"`
}

// ConflictAnalysisResult is the ordered output of one analysis pass
type ConflictAnalysisResult struct {
	ScheduleFingerprint string          `json:"scheduleFingerprint"`
	Conflicts           []Conflict      `json:"conflicts"`
	Summary             ConflictSummary `json:"summary"`
	Elapsed             time.Duration   `json:"elapsed"`
}

// WeightedTotal is the severity-weighted conflict count used by the
// automatic resolver's accept/rollback decision
func (r *ConflictAnalysisResult) WeightedTotal() float64 {
	total := 0.0
	for _, c := range r.Conflicts {
		total += SeverityWeight(c.Severity)
	}
	return total
}

// ConflictsOfType filters the analysis output by conflict kind
func (r *ConflictAnalysisResult) ConflictsOfType(ct ConflictType) []Conflict {
	var out []Conflict
	for _, c := range r.Conflicts {
		if c.Type == ct {
			out = append(out, c)
		}
	}
	return out
}
