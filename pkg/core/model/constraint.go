package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ConstraintType categorizes what a constraint reasons about
type ConstraintType string

const (
	ConstraintTemporal    ConstraintType = "temporal"
	ConstraintSpatial     ConstraintType = "spatial"
	ConstraintLogical     ConstraintType = "logical"
	ConstraintPerformance ConstraintType = "performance"
	ConstraintCompliance  ConstraintType = "compliance"
)

// Hardness tiers: hard must hold for a schedule to be valid, soft
// contributes to the weighted quality score, preference is advisory only
type Hardness string

const (
	HardnessHard       Hardness = "hard"
	HardnessSoft       Hardness = "soft"
	HardnessPreference Hardness = "preference"
)

// Scope restricts which parts of a schedule a constraint applies to.
// Every dimension is optional; an empty dimension means unrestricted.
type Scope struct {
	Sports      []string     `yaml:"sports,omitempty" json:"sports,omitempty"`
	Teams       []string     `yaml:"teams,omitempty" json:"teams,omitempty"`
	Venues      []string     `yaml:"venues,omitempty" json:"venues,omitempty"`
	Conferences []string     `yaml:"conferences,omitempty" json:"conferences,omitempty"`
	Divisions   []string     `yaml:"divisions,omitempty" json:"divisions,omitempty"`
	Timeframes  []TimeWindow `yaml:"timeframes,omitempty" json:"timeframes,omitempty"`
}

// ScopeQuery describes the entity a caller wants applicable constraints for.
// Zero-valued fields are wildcards.
type ScopeQuery struct {
	Sport   string
	TeamID  string
	VenueID string
	Date    time.Time
}

func dimensionMatches(scoped []string, value string) bool {
	if len(scoped) == 0 || value == "" {
		return true
	}
	for _, s := range scoped {
		if s == value {
			return true
		}
	}
	return false
}

// Matches reports whether a constraint with this scope applies to the
// queried entity. Each populated scope dimension must admit the
// corresponding query value.
func (s Scope) Matches(q ScopeQuery) bool {
	if !dimensionMatches(s.Sports, q.Sport) {
		return false
	}
	if !dimensionMatches(s.Teams, q.TeamID) {
		return false
	}
	if !dimensionMatches(s.Venues, q.VenueID) {
		return false
	}
	if len(s.Timeframes) > 0 && !q.Date.IsZero() {
		inWindow := false
		for _, w := range s.Timeframes {
			if w.Contains(q.Date) {
				inWindow = true
				break
			}
		}
		if !inWindow {
			return false
		}
	}
	return true
}

// RestDaysParams configures minimum rest between a team's games
type RestDaysParams struct {
	MinRestDays int `yaml:"minRestDays" json:"minRestDays" validate:"min=0"`
}

// TravelParams configures the maximum acceptable travel between a team's
// consecutive games given the days available to travel
type TravelParams struct {
	MaxKilometres  float64 `yaml:"maxKilometres" json:"maxKilometres" validate:"min=0"`
	MaxKmPerDayGap float64 `yaml:"maxKmPerDayGap,omitempty" json:"maxKmPerDayGap,omitempty"`
}

// VenueParams configures venue booking checks. Two games at one venue must
// be separated by at least the game duration plus the turnaround buffer.
type VenueParams struct {
	GameDurationMinutes int `yaml:"gameDurationMinutes" json:"gameDurationMinutes" validate:"min=1"`
	BufferMinutes       int `yaml:"bufferMinutes,omitempty" json:"bufferMinutes,omitempty"`
}

// BalanceParams configures the tolerated deviation of a team's home share
// from parity (0.1 means 40-60% home is acceptable)
type BalanceParams struct {
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"min=0,max=0.5"`
}

// RivalryParams configures preferred spacing between rivalry matchups
type RivalryParams struct {
	MinDaysBetween int `yaml:"minDaysBetween" json:"minDaysBetween" validate:"min=0"`
	MaxDaysBetween int `yaml:"maxDaysBetween" json:"maxDaysBetween" validate:"min=0"`
}

// RunLengthParams configures the maximum run of consecutive home-only or
// away-only games
type RunLengthParams struct {
	MaxRun int `yaml:"maxRun" json:"maxRun" validate:"min=1"`
}

// WindowParams configures reserved windows (championship weeks, blackout
// dates) that regular games must not fall inside
type WindowParams struct {
	Windows []TimeWindow `yaml:"windows" json:"windows"`
}

// Params is the closed set of parameter shapes, keyed by the evaluation
// strategy that consumes them. Exactly the field matching the constraint's
// Evaluator is expected to be populated. Custom carries opaque data for
// plugin evaluators, including knowledge-collaborator insights embedded by
// the caller before evaluation.
type Params struct {
	RestDays  *RestDaysParams  `yaml:"restDays,omitempty" json:"restDays,omitempty"`
	Travel    *TravelParams    `yaml:"travel,omitempty" json:"travel,omitempty"`
	Venue     *VenueParams     `yaml:"venue,omitempty" json:"venue,omitempty"`
	Balance   *BalanceParams   `yaml:"balance,omitempty" json:"balance,omitempty"`
	Rivalry   *RivalryParams   `yaml:"rivalry,omitempty" json:"rivalry,omitempty"`
	RunLength *RunLengthParams `yaml:"runLength,omitempty" json:"runLength,omitempty"`
	Window    *WindowParams    `yaml:"window,omitempty" json:"window,omitempty"`
	Custom    map[string]any   `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// IsZero reports whether no parameter shape is populated
func (p Params) IsZero() bool {
	return p.RestDays == nil && p.Travel == nil && p.Venue == nil &&
		p.Balance == nil && p.Rivalry == nil && p.RunLength == nil &&
		p.Window == nil && len(p.Custom) == 0
}

// Fingerprint returns a stable content hash of the parameter bag, used as
// one dimension of the evaluation cache key. JSON encoding is canonical
// here: struct fields have a fixed order and map keys are sorted.
func (p Params) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		// Params are plain data; marshalling only fails on exotic Custom
		// values. Fall back to an uncacheable unique-ish key.
		return "unmarshalable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Constraint is a single weighted scheduling rule. Evaluator names a
// registered evaluation strategy; the engine resolves it through the
// strategy table rather than carrying function values, so constraints stay
// serializable.
type Constraint struct {
	ID             string         `yaml:"id" json:"id" validate:"required"`
	Name           string         `yaml:"name" json:"name"`
	Type           ConstraintType `yaml:"type" json:"type" validate:"required,oneof=temporal spatial logical performance compliance"`
	Hardness       Hardness       `yaml:"hardness" json:"hardness" validate:"required,oneof=hard soft preference"`
	Weight         float64        `yaml:"weight" json:"weight" validate:"min=0,max=100"`
	Scope          Scope          `yaml:"scope,omitempty" json:"scope,omitempty"`
	Params         Params         `yaml:"params,omitempty" json:"params,omitempty"`
	Evaluator      string         `yaml:"evaluator" json:"evaluator" validate:"required"`
	Dependencies   []string       `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	ConflictsWith  []string       `yaml:"conflictsWith,omitempty" json:"conflictsWith,omitempty"`
	Cacheable      bool           `yaml:"cacheable" json:"cacheable"`
	Parallelizable bool           `yaml:"parallelizable" json:"parallelizable"`
	Priority       int            `yaml:"priority" json:"priority"`
}
