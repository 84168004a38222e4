package model

import "time"

// ResultStatus is the outcome of evaluating one constraint
type ResultStatus string

const (
	StatusSatisfied          ResultStatus = "satisfied"
	StatusViolated           ResultStatus = "violated"
	StatusPartiallySatisfied ResultStatus = "partially_satisfied"
	StatusNotEvaluated       ResultStatus = "not_evaluated"
)

// Severity tiers a violation or conflict for prioritization
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// SeverityWeight maps a severity tier to its contribution in
// severity-weighted conflict totals
func SeverityWeight(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityMajor:
		return 2
	default:
		return 1
	}
}

// Violation is a single typed rule breach with the entities it touches
type Violation struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	GameIDs     []string `json:"gameIds,omitempty"`
	TeamIDs     []string `json:"teamIds,omitempty"`
	VenueIDs    []string `json:"venueIds,omitempty"`
}

// ConstraintResult is the outcome of one constraint evaluation.
// Invariants held by the constructors below: Satisfied mirrors
// Status == satisfied, and Score is clamped to [0,1].
type ConstraintResult struct {
	ConstraintID  string        `json:"constraintId"`
	Hardness      Hardness      `json:"hardness,omitempty"`
	Status        ResultStatus  `json:"status"`
	Satisfied     bool          `json:"satisfied"`
	Score         float64       `json:"score"`
	Violations    []Violation   `json:"violations,omitempty"`
	Suggestions   []string      `json:"suggestions,omitempty"`
	ExecutionTime time.Duration `json:"executionTime"`
	Confidence    float64       `json:"confidence"`
	Error         string        `json:"error,omitempty"`
}

// ClampScore bounds a score to [0,1], guarding against evaluators that
// return out-of-range values
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// NewConstraintResult builds a result with the invariants enforced: status
// is derived from the violation set and score, Satisfied mirrors it, and
// the score is clamped.
func NewConstraintResult(constraintID string, score float64, violations []Violation, suggestions []string) ConstraintResult {
	score = ClampScore(score)
	status := StatusSatisfied
	if len(violations) > 0 {
		status = StatusViolated
		if score > 0 {
			status = StatusPartiallySatisfied
		}
	}
	return ConstraintResult{
		ConstraintID: constraintID,
		Status:       status,
		Satisfied:    status == StatusSatisfied,
		Score:        score,
		Violations:   violations,
		Suggestions:  suggestions,
		Confidence:   1.0,
	}
}

// NotEvaluatedResult records an evaluator failure (error, panic or timeout)
// as data. A hard constraint carrying this result counts as violated for
// hard-constraint gating.
func NotEvaluatedResult(constraintID string, err error) ConstraintResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ConstraintResult{
		ConstraintID: constraintID,
		Status:       StatusNotEvaluated,
		Satisfied:    false,
		Score:        0,
		Confidence:   0,
		Error:        msg,
	}
}

// EvaluationResult aggregates all constraint results for one schedule
// snapshot. Immutable once returned; never mutated in place.
type EvaluationResult struct {
	ScheduleFingerprint      string                      `json:"scheduleFingerprint"`
	HardConstraintsSatisfied bool                        `json:"hardConstraintsSatisfied"`
	SoftConstraintsScore     float64                     `json:"softConstraintsScore"`
	PreferenceScore          float64                     `json:"preferenceScore"`
	OverallScore             float64                     `json:"overallScore"`
	Results                  map[string]ConstraintResult `json:"results"`
	Suggestions              []string                    `json:"suggestions,omitempty"`
	CacheHitRate             float64                     `json:"cacheHitRate"`
	Elapsed                  time.Duration               `json:"elapsed"`
}
