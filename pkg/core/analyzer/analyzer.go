// Package analyzer scans schedule snapshots for structural conflicts,
// independently of constraint scoring. The nine detectors run
// concurrently; one detector failing flags its type as incomplete without
// aborting the others.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/events"
)

// Thresholds configures the structural detectors
type Thresholds struct {
	MinRestDays         int                `yaml:"minRestDays" validate:"min=0"`
	MaxTravelKm         float64            `yaml:"maxTravelKm" validate:"min=0"`
	BalanceTolerance    float64            `yaml:"balanceTolerance" validate:"min=0,max=0.5"`
	RivalryMinDays      int                `yaml:"rivalryMinDays" validate:"min=0"`
	RivalryMaxDays      int                `yaml:"rivalryMaxDays" validate:"min=0"`
	MaxRunLength        int                `yaml:"maxRunLength" validate:"min=1"`
	GameDurationMinutes int                `yaml:"gameDurationMinutes" validate:"min=1"`
	VenueBufferMinutes  int                `yaml:"venueBufferMinutes" validate:"min=0"`
	ChampionshipWindows []model.TimeWindow `yaml:"championshipWindows,omitempty"`
}

// DefaultThresholds returns sensible league defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRestDays:         2,
		MaxTravelKm:         1500,
		BalanceTolerance:    0.15,
		RivalryMinDays:      14,
		RivalryMaxDays:      90,
		MaxRunLength:        3,
		GameDurationMinutes: 180,
		VenueBufferMinutes:  60,
	}
}

// Analyzer detects structural conflicts in schedule snapshots. It never
// mutates the schedules it is given.
type Analyzer struct {
	thresholds Thresholds
	publisher  events.Publisher
	logger     *zap.Logger
}

// New creates an analyzer with injected collaborators
func New(thresholds Thresholds, publisher events.Publisher, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		thresholds: thresholds,
		publisher:  publisher,
		logger:     logger,
	}
}

type detector struct {
	conflictType model.ConflictType
	detect       func(*model.Schedule) []model.Conflict
}

// Analyze runs every detector concurrently and merges their findings by
// stable conflict ID. eval may be nil; when present, violated hard
// constraints surface as constraint_conflict entries, unifying the two
// detection paths.
func (a *Analyzer) Analyze(ctx context.Context, s *model.Schedule, eval *model.EvaluationResult) (*model.ConflictAnalysisResult, error) {
	return a.analyze(ctx, s, eval, true)
}

// Probe analyzes without publishing conflict.detected events. The
// resolution planner uses it to score scratch copies that are never
// committed.
func (a *Analyzer) Probe(ctx context.Context, s *model.Schedule, eval *model.EvaluationResult) (*model.ConflictAnalysisResult, error) {
	return a.analyze(ctx, s, eval, false)
}

func (a *Analyzer) analyze(ctx context.Context, s *model.Schedule, eval *model.EvaluationResult, publish bool) (*model.ConflictAnalysisResult, error) {
	if s == nil {
		return nil, model.NewValidationError("malformed_schedule", "schedule is nil")
	}
	start := time.Now()

	detectors := []detector{
		{model.ConflictRestDays, a.detectRestDays},
		{model.ConflictTravelDistance, a.detectTravelDistance},
		{model.ConflictVenueAvailability, a.detectVenueAvailability},
		{model.ConflictTeamAvailability, a.detectTeamAvailability},
		{model.ConflictHomeAwayBalance, a.detectHomeAwayBalance},
		{model.ConflictRivalrySpacing, a.detectRivalrySpacing},
		{model.ConflictConsecutiveGames, a.detectConsecutiveGames},
		{model.ConflictChampionshipAlignment, a.detectChampionshipAlignment},
		{model.ConflictConstraint, func(sched *model.Schedule) []model.Conflict {
			return constraintConflicts(eval)
		}},
	}

	perDetector, incompleteTypes, err := a.runDetectors(ctx, s, detectors)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]model.Conflict)
	for _, conflicts := range perDetector {
		for _, c := range conflicts {
			merged[c.ID] = c
		}
	}

	ordered := make([]model.Conflict, 0, len(merged))
	for _, c := range merged {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		wi, wj := model.SeverityWeight(ordered[i].Severity), model.SeverityWeight(ordered[j].Severity)
		if wi != wj {
			return wi > wj
		}
		return ordered[i].ID < ordered[j].ID
	})

	summary := model.ConflictSummary{
		Total:      len(ordered),
		ByType:     make(map[model.ConflictType]int),
		BySeverity: make(map[model.Severity]int),
	}
	for _, c := range ordered {
		summary.ByType[c.Type]++
		summary.BySeverity[c.Severity]++
	}
	summary.IncompleteTypes = incompleteTypes

	if publish {
		for _, c := range ordered {
			a.publisher.Publish(events.New(events.ConflictDetected, map[string]any{
				"conflictId": c.ID,
				"type":       string(c.Type),
				"severity":   string(c.Severity),
				"schedule":   s.Fingerprint(),
			}))
		}
	}

	return &model.ConflictAnalysisResult{
		ScheduleFingerprint: s.Fingerprint(),
		Conflicts:           ordered,
		Summary:             summary,
		Elapsed:             time.Since(start),
	}, nil
}

// runDetectors executes the detectors concurrently. A failing detector is
// isolated: its type is reported incomplete and the others still finish.
func (a *Analyzer) runDetectors(ctx context.Context, s *model.Schedule, detectors []detector) ([][]model.Conflict, []model.ConflictType, error) {
	perDetector := make([][]model.Conflict, len(detectors))
	incomplete := make([]bool, len(detectors))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		i, d := i, d
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			conflicts, err := a.runDetector(d, s)
			if err != nil {
				a.logger.Warn("conflict detector failed",
					zap.String("type", string(d.conflictType)), zap.Error(err))
				incomplete[i] = true
				return nil
			}
			perDetector[i] = conflicts
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		// Only cancellation reaches here; partial results are discarded.
		return nil, nil, err
	}

	var incompleteTypes []model.ConflictType
	for i, d := range detectors {
		if incomplete[i] {
			incompleteTypes = append(incompleteTypes, d.conflictType)
		}
	}
	return perDetector, incompleteTypes, nil
}

// runDetector isolates detector panics as per-type failures
func (a *Analyzer) runDetector(d detector, s *model.Schedule) (conflicts []model.Conflict, err error) {
	defer func() {
		if p := recover(); p != nil {
			conflicts = nil
			err = fmt.Errorf("detector %s panicked: %v", d.conflictType, p)
		}
	}()
	return d.detect(s), nil
}

// newConflict builds a conflict and attaches its candidate resolution
// descriptors
func newConflict(ct model.ConflictType, severity model.Severity, gameIDs, teamIDs, venueIDs []string, description string) model.Conflict {
	c := model.NewConflict(ct, severity, gameIDs, teamIDs, venueIDs, description)
	c.Candidates = model.CandidateResolutions(ct)
	return c
}

// constraintConflicts surfaces violated hard constraints from an
// evaluation result as conflicts
func constraintConflicts(eval *model.EvaluationResult) []model.Conflict {
	if eval == nil {
		return nil
	}
	var conflicts []model.Conflict
	for _, res := range eval.Results {
		if res.Hardness != model.HardnessHard {
			continue
		}
		if res.Satisfied || res.Status == model.StatusNotEvaluated {
			continue
		}
		for _, v := range res.Violations {
			conflicts = append(conflicts, newConflict(
				model.ConflictConstraint,
				v.Severity,
				v.GameIDs, v.TeamIDs, v.VenueIDs,
				fmt.Sprintf("constraint %s violated: %s", res.ConstraintID, v.Description),
			))
		}
	}
	return conflicts
}
