package engine

import (
	"sort"
	"time"

	"github.com/courtline/engine/pkg/core/model"
)

// Pinned overall-score contract: hard constraints gate, then soft and
// preference scores blend 70/30. A tier with no constraints contributes a
// neutral 1.0.
const (
	softBlendWeight       = 0.7
	preferenceBlendWeight = 0.3
)

// aggregate folds per-constraint results into an EvaluationResult. It
// iterates the requested set in sorted ID order, so the aggregate is
// deterministic regardless of the order evaluations completed in.
func aggregate(s *model.Schedule, constraints []model.Constraint, results map[string]model.ConstraintResult, cacheHitRate float64, elapsed time.Duration) *model.EvaluationResult {
	ordered := make([]model.Constraint, len(constraints))
	copy(ordered, constraints)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	hardOK := true
	softSum, softWeight := 0.0, 0.0
	prefSum, prefWeight := 0.0, 0.0
	var suggestions []string

	for _, c := range ordered {
		res, ok := results[c.ID]
		if !ok {
			continue
		}
		suggestions = append(suggestions, res.Suggestions...)

		switch c.Hardness {
		case model.HardnessHard:
			// A hard constraint that failed to evaluate counts as violated
			// here: Satisfied is false for not_evaluated results.
			if !res.Satisfied {
				hardOK = false
			}
		case model.HardnessSoft:
			softSum += res.Score * c.Weight
			softWeight += c.Weight
		case model.HardnessPreference:
			prefSum += res.Score * c.Weight
			prefWeight += c.Weight
		}
	}

	softScore := 1.0
	if softWeight > 0 {
		softScore = softSum / softWeight
	}
	prefScore := 1.0
	if prefWeight > 0 {
		prefScore = prefSum / prefWeight
	}

	overall := 0.0
	if hardOK {
		overall = softBlendWeight*softScore + preferenceBlendWeight*prefScore
	}

	return &model.EvaluationResult{
		ScheduleFingerprint:      s.Fingerprint(),
		HardConstraintsSatisfied: hardOK,
		SoftConstraintsScore:     softScore,
		PreferenceScore:          prefScore,
		OverallScore:             overall,
		Results:                  results,
		Suggestions:              suggestions,
		CacheHitRate:             cacheHitRate,
		Elapsed:                  elapsed,
	}
}
