// Package resolution converts detected conflicts into ranked candidate
// fixes and applies them, either one at a time on approval or through the
// bounded automatic loop.
package resolution

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/engine"
	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
)

// date offsets tried when generating date-mutation candidates. adjust_dates
// makes small local shifts; move_game relocates by whole weeks.
var (
	adjustOffsets = []int{1, 2, 3, -1, -2, -3}
	moveOffsets   = []int{7, 14, -7, -14}
)

// venueCandidateLimit caps how many alternative venues are proposed per
// conflicting game
const venueCandidateLimit = 5

// Planner generates and ranks candidate resolutions for a conflict. Each
// candidate is scored by applying its mutation to a scratch copy of the
// schedule and re-running conflict analysis and (when a constraint set is
// provided) evaluation.
type Planner struct {
	engine   *engine.Engine
	analyzer *analyzer.Analyzer
	logger   *zap.Logger
}

// NewPlanner creates a planner with injected collaborators
func NewPlanner(e *engine.Engine, a *analyzer.Analyzer, logger *zap.Logger) *Planner {
	return &Planner{engine: e, analyzer: a, logger: logger}
}

// Plan returns the conflict's candidate resolutions ranked by projected
// improvement descending, ties broken by smaller mutation footprint.
// Candidates that cannot be applied are dropped, not surfaced.
func (p *Planner) Plan(ctx context.Context, s *model.Schedule, conflict model.Conflict, constraints []model.Constraint) ([]*model.Resolution, error) {
	baseAnalysis, err := p.analyzer.Probe(ctx, s, nil)
	if err != nil {
		return nil, err
	}
	baseOverall := 0.0
	if len(constraints) > 0 {
		baseEval, err := p.engine.Evaluate(ctx, s, constraints)
		if err != nil {
			return nil, err
		}
		baseOverall = baseEval.OverallScore
	}

	var ranked []*model.Resolution
	for _, candidate := range p.generate(s, conflict) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scratch, err := candidate.Mutation.Apply(s)
		if err != nil {
			// Drop the candidate from the ranked list, never fail the call
			p.logger.Debug("dropping unapplicable candidate",
				zap.String("conflict_id", conflict.ID),
				zap.String("type", string(candidate.Type)),
				zap.Error(fmt.Errorf("%w: %v", model.ErrResolutionNotApplicable, err)))
			continue
		}

		newAnalysis, err := p.analyzer.Probe(ctx, scratch, nil)
		if err != nil {
			return nil, err
		}
		delta := baseAnalysis.WeightedTotal() - newAnalysis.WeightedTotal()

		if len(constraints) > 0 {
			newEval, err := p.engine.Evaluate(ctx, scratch, constraints)
			if err != nil {
				return nil, err
			}
			delta += newEval.OverallScore - baseOverall
		}

		candidate.ProjectedDelta = delta
		ranked = append(ranked, candidate)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ProjectedDelta != ranked[j].ProjectedDelta {
			return ranked[i].ProjectedDelta > ranked[j].ProjectedDelta
		}
		if ranked[i].Mutation.GamesTouched() != ranked[j].Mutation.GamesTouched() {
			return ranked[i].Mutation.GamesTouched() < ranked[j].Mutation.GamesTouched()
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	return ranked, nil
}

// generate produces the raw candidates for a conflict, one mutation per
// applicable (resolution type, game, parameter) combination
func (p *Planner) generate(s *model.Schedule, conflict model.Conflict) []*model.Resolution {
	kinds := conflict.Candidates
	if len(kinds) == 0 {
		kinds = model.CandidateResolutions(conflict.Type)
	}

	var candidates []*model.Resolution
	for _, kind := range kinds {
		switch kind {
		case model.ResolutionSwapHomeAway:
			for _, gameID := range conflict.GameIDs {
				candidates = append(candidates, model.NewResolution(
					conflict.ID, s.Fingerprint(), kind,
					model.Mutation{GameID: gameID, SwapHomeAway: true}))
			}

		case model.ResolutionChangeVenue:
			for _, gameID := range conflict.GameIDs {
				game, ok := s.Game(gameID)
				if !ok {
					continue
				}
				for _, venueID := range alternativeVenues(s, game) {
					candidates = append(candidates, model.NewResolution(
						conflict.ID, s.Fingerprint(), kind,
						model.Mutation{GameID: gameID, NewVenueID: venueID}))
				}
			}

		case model.ResolutionAdjustDates, model.ResolutionMoveGame:
			offsets := adjustOffsets
			if kind == model.ResolutionMoveGame {
				offsets = moveOffsets
			}
			for _, gameID := range conflict.GameIDs {
				game, ok := s.Game(gameID)
				if !ok {
					continue
				}
				for _, days := range offsets {
					date := game.Date.Add(time.Duration(days) * 24 * time.Hour)
					candidates = append(candidates, model.NewResolution(
						conflict.ID, s.Fingerprint(), kind,
						model.Mutation{GameID: gameID, NewDate: &date}))
				}
			}
		}
	}
	return candidates
}

// alternativeVenues lists venues the game could move to, nearest first,
// capped at venueCandidateLimit
func alternativeVenues(s *model.Schedule, game model.Game) []string {
	current, hasCurrent := s.Venues[game.VenueID]

	ids := make([]string, 0, len(s.Venues))
	for id := range s.Venues {
		if id != game.VenueID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if hasCurrent {
		sort.SliceStable(ids, func(i, j int) bool {
			vi, vj := s.Venues[ids[i]], s.Venues[ids[j]]
			di := distanceKm(current, vi)
			dj := distanceKm(current, vj)
			return di < dj
		})
	}
	if len(ids) > venueCandidateLimit {
		ids = ids[:venueCandidateLimit]
	}
	return ids
}

func distanceKm(a, b model.Venue) float64 {
	return evaluators.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
