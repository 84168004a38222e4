package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResolutionType is the kind of mutation a resolution applies
type ResolutionType string

const (
	ResolutionMoveGame     ResolutionType = "move_game"
	ResolutionSwapHomeAway ResolutionType = "swap_home_away"
	ResolutionAdjustDates  ResolutionType = "adjust_dates"
	ResolutionChangeVenue  ResolutionType = "change_venue"
)

// ResolutionStatus is the approval state of a resolution.
// pending -> applied and pending -> rejected are the only transitions;
// both targets are terminal.
type ResolutionStatus string

const (
	ResolutionPending  ResolutionStatus = "pending"
	ResolutionApplied  ResolutionStatus = "applied"
	ResolutionRejected ResolutionStatus = "rejected"
)

// Mutation is the concrete schedule change a resolution carries. GameID is
// always set; the remaining fields depend on the resolution type.
type Mutation struct {
	GameID       string     `json:"gameId"`
	NewDate      *time.Time `json:"newDate,omitempty"`
	NewVenueID   string     `json:"newVenueId,omitempty"`
	SwapHomeAway bool       `json:"swapHomeAway,omitempty"`
}

// GamesTouched counts the games a mutation modifies, used as the
// tie-break when ranking candidates (smaller footprint wins)
func (m Mutation) GamesTouched() int {
	// Single-game mutations for now; kept as a method so multi-game
	// mutations (series swaps) slot in without changing the planner.
	return 1
}

// Resolution is a proposed fix for a conflict. Resolutions form an
// append-only history per schedule; applying one produces a new schedule
// snapshot, never a mutation of an existing one.
type Resolution struct {
	ID                  uuid.UUID        `json:"id"`
	ConflictID          string           `json:"conflictId"`
	ScheduleFingerprint string           `json:"scheduleFingerprint"`
	Type                ResolutionType   `json:"type"`
	Mutation            Mutation         `json:"mutation"`
	ProjectedDelta      float64          `json:"projectedDelta"`
	Status              ResolutionStatus `json:"status"`
	CreatedAt           time.Time        `json:"createdAt"`
	DecidedAt           *time.Time       `json:"decidedAt,omitempty"`
}

// NewResolution creates a pending resolution for the given conflict
func NewResolution(conflictID, scheduleFP string, rt ResolutionType, m Mutation) *Resolution {
	return &Resolution{
		ID:                  uuid.New(),
		ConflictID:          conflictID,
		ScheduleFingerprint: scheduleFP,
		Type:                rt,
		Mutation:            m,
		Status:              ResolutionPending,
		CreatedAt:           time.Now().UTC(),
	}
}

func (r *Resolution) transition(to ResolutionStatus) error {
	if r.Status != ResolutionPending {
		return fmt.Errorf("resolution %s is %s; applied and rejected are terminal", r.ID, r.Status)
	}
	now := time.Now().UTC()
	r.Status = to
	r.DecidedAt = &now
	return nil
}

// MarkApplied transitions pending -> applied
func (r *Resolution) MarkApplied() error {
	return r.transition(ResolutionApplied)
}

// MarkRejected transitions pending -> rejected
func (r *Resolution) MarkRejected() error {
	return r.transition(ResolutionRejected)
}

// Apply produces a new schedule snapshot with the mutation applied.
// The receiver schedule is never modified.
func (m Mutation) Apply(s *Schedule) (*Schedule, error) {
	switch {
	case m.SwapHomeAway:
		return s.WithHomeAwaySwapped(m.GameID)
	case m.NewVenueID != "":
		return s.WithGameVenue(m.GameID, m.NewVenueID)
	case m.NewDate != nil:
		return s.WithGameDate(m.GameID, *m.NewDate)
	default:
		return nil, fmt.Errorf("mutation for game %q carries no change", m.GameID)
	}
}
