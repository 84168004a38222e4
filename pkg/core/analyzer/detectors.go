package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
)

// teamIDs returns the schedule's team IDs in stable order
func teamIDs(s *model.Schedule) []string {
	ids := make([]string, 0, len(s.Teams))
	for id := range s.Teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func daysApart(a, b model.Game) int {
	diff := b.Date.Sub(a.Date)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// detectRestDays flags consecutive games of a team separated by less than
// the minimum rest, severity increasing as the gap shrinks
func (a *Analyzer) detectRestDays(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, teamID := range teamIDs(s) {
		games := s.GamesForTeam(teamID)
		for i := 1; i < len(games); i++ {
			gap := daysApart(games[i-1], games[i])
			if gap >= a.thresholds.MinRestDays {
				continue
			}
			severity := model.SeverityMinor
			shortfall := float64(a.thresholds.MinRestDays-gap) / float64(a.thresholds.MinRestDays)
			switch {
			case shortfall >= 0.66:
				severity = model.SeverityCritical
			case shortfall >= 0.33:
				severity = model.SeverityMajor
			}
			conflicts = append(conflicts, newConflict(
				model.ConflictRestDays, severity,
				[]string{games[i-1].ID, games[i].ID},
				[]string{teamID}, nil,
				fmt.Sprintf("team %s has only %d rest day(s) between games %s and %s (minimum %d)",
					teamID, gap, games[i-1].ID, games[i].ID, a.thresholds.MinRestDays),
			))
		}
	}
	return conflicts
}

// detectTravelDistance flags consecutive game pairs whose venue-to-venue
// distance exceeds the budget for the time available to travel
func (a *Analyzer) detectTravelDistance(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, teamID := range teamIDs(s) {
		games := s.GamesForTeam(teamID)
		for i := 1; i < len(games); i++ {
			from, okFrom := s.Venues[games[i-1].VenueID]
			to, okTo := s.Venues[games[i].VenueID]
			if !okFrom || !okTo {
				continue
			}
			dist := evaluators.Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
			if dist <= a.thresholds.MaxTravelKm {
				continue
			}
			// A tight turnaround makes long travel worse
			severity := model.SeverityMinor
			if daysApart(games[i-1], games[i]) <= 1 {
				severity = model.SeverityMajor
			}
			if dist > a.thresholds.MaxTravelKm*2 {
				severity = model.SeverityCritical
			}
			conflicts = append(conflicts, newConflict(
				model.ConflictTravelDistance, severity,
				[]string{games[i-1].ID, games[i].ID},
				[]string{teamID},
				[]string{from.ID, to.ID},
				fmt.Sprintf("team %s travels %.0f km between games %s and %s (threshold %.0f km)",
					teamID, dist, games[i-1].ID, games[i].ID, a.thresholds.MaxTravelKm),
			))
		}
	}
	return conflicts
}

// detectVenueAvailability flags overlapping bookings at a venue and games
// inside a venue's declared unavailable windows
func (a *Analyzer) detectVenueAvailability(s *model.Schedule) []model.Conflict {
	byVenue := make(map[string][]model.Game)
	for _, g := range s.Games {
		byVenue[g.VenueID] = append(byVenue[g.VenueID], g)
	}

	var conflicts []model.Conflict
	duration := a.thresholds.GameDurationMinutes
	buffer := a.thresholds.VenueBufferMinutes

	venueIDs := make([]string, 0, len(byVenue))
	for id := range byVenue {
		venueIDs = append(venueIDs, id)
	}
	sort.Strings(venueIDs)

	for _, venueID := range venueIDs {
		games := byVenue[venueID]
		venue := s.Venues[venueID]
		for i, g := range games {
			window := evaluators.GameWindow(g, duration, buffer)
			for _, other := range games[i+1:] {
				if window.Overlaps(evaluators.GameWindow(other, duration, buffer)) {
					conflicts = append(conflicts, newConflict(
						model.ConflictVenueAvailability, model.SeverityCritical,
						[]string{g.ID, other.ID}, nil, []string{venueID},
						fmt.Sprintf("venue %s double-booked: games %s and %s overlap", venueID, g.ID, other.ID),
					))
				}
			}
			for _, blocked := range venue.Unavailable {
				if window.Overlaps(blocked) {
					conflicts = append(conflicts, newConflict(
						model.ConflictVenueAvailability, model.SeverityCritical,
						[]string{g.ID}, nil, []string{venueID},
						fmt.Sprintf("game %s booked at venue %s during an unavailable window", g.ID, venueID),
					))
				}
			}
		}
	}
	return conflicts
}

// detectTeamAvailability flags games inside a team's declared unavailable
// windows
func (a *Analyzer) detectTeamAvailability(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, teamID := range teamIDs(s) {
		team := s.Teams[teamID]
		if len(team.Unavailable) == 0 {
			continue
		}
		for _, g := range s.GamesForTeam(teamID) {
			for _, blocked := range team.Unavailable {
				if blocked.Contains(g.Date) {
					conflicts = append(conflicts, newConflict(
						model.ConflictTeamAvailability, model.SeverityCritical,
						[]string{g.ID}, []string{teamID}, nil,
						fmt.Sprintf("game %s falls inside team %s's unavailable window", g.ID, teamID),
					))
					break
				}
			}
		}
	}
	return conflicts
}

// detectHomeAwayBalance flags teams whose home share deviates from parity
// beyond the tolerance
func (a *Analyzer) detectHomeAwayBalance(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, teamID := range teamIDs(s) {
		games := s.GamesForTeam(teamID)
		if len(games) < 2 {
			continue
		}
		home := 0
		for _, g := range games {
			if g.HomeTeamID == teamID {
				home++
			}
		}
		share := float64(home) / float64(len(games))
		deviation := math.Abs(share - 0.5)
		if deviation <= a.thresholds.BalanceTolerance {
			continue
		}
		severity := model.SeverityMinor
		if deviation > a.thresholds.BalanceTolerance*2 {
			severity = model.SeverityMajor
		}
		// Affected games are the surplus side; the planner picks one to swap
		var surplus []string
		for _, g := range games {
			isHome := g.HomeTeamID == teamID
			if (share > 0.5) == isHome {
				surplus = append(surplus, g.ID)
			}
		}
		conflicts = append(conflicts, newConflict(
			model.ConflictHomeAwayBalance, severity,
			surplus, []string{teamID}, nil,
			fmt.Sprintf("team %s plays %d of %d games at home (%.0f%%, tolerance ±%.0f%%)",
				teamID, home, len(games), share*100, a.thresholds.BalanceTolerance*100),
		))
	}
	return conflicts
}

// detectRivalrySpacing flags rivalry matchups spaced outside the preferred
// window
func (a *Analyzer) detectRivalrySpacing(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, rivalry := range s.Rivalries {
		var matchups []model.Game
		for _, g := range s.Games {
			if rivalry.Matches(g.HomeTeamID, g.AwayTeamID) {
				matchups = append(matchups, g)
			}
		}
		for i := 1; i < len(matchups); i++ {
			gap := daysApart(matchups[i-1], matchups[i])
			switch {
			case gap < a.thresholds.RivalryMinDays:
				conflicts = append(conflicts, newConflict(
					model.ConflictRivalrySpacing, model.SeverityMajor,
					[]string{matchups[i-1].ID, matchups[i].ID},
					[]string{rivalry.TeamA, rivalry.TeamB}, nil,
					fmt.Sprintf("rivalry games %s and %s are %d day(s) apart (minimum %d)",
						matchups[i-1].ID, matchups[i].ID, gap, a.thresholds.RivalryMinDays),
				))
			case a.thresholds.RivalryMaxDays > 0 && gap > a.thresholds.RivalryMaxDays:
				conflicts = append(conflicts, newConflict(
					model.ConflictRivalrySpacing, model.SeverityMinor,
					[]string{matchups[i-1].ID, matchups[i].ID},
					[]string{rivalry.TeamA, rivalry.TeamB}, nil,
					fmt.Sprintf("rivalry games %s and %s are %d day(s) apart (maximum %d)",
						matchups[i-1].ID, matchups[i].ID, gap, a.thresholds.RivalryMaxDays),
				))
			}
		}
	}
	return conflicts
}

// detectConsecutiveGames flags home-only or away-only runs beyond the
// maximum run length
func (a *Analyzer) detectConsecutiveGames(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	maxRun := a.thresholds.MaxRunLength

	for _, teamID := range teamIDs(s) {
		games := s.GamesForTeam(teamID)

		var run []model.Game
		runHome := false
		flush := func() {
			if len(run) <= maxRun {
				return
			}
			side := "away"
			if runHome {
				side = "home"
			}
			ids := make([]string, len(run))
			for i, g := range run {
				ids[i] = g.ID
			}
			severity := model.SeverityMinor
			if len(run) > maxRun+1 {
				severity = model.SeverityMajor
			}
			conflicts = append(conflicts, newConflict(
				model.ConflictConsecutiveGames, severity,
				ids, []string{teamID}, nil,
				fmt.Sprintf("team %s plays %d consecutive %s games (maximum %d)",
					teamID, len(run), side, maxRun),
			))
		}

		for _, g := range games {
			home := g.HomeTeamID == teamID
			if len(run) > 0 && home != runHome {
				flush()
				run = run[:0]
			}
			run = append(run, g)
			runHome = home
		}
		flush()
	}
	return conflicts
}

// detectChampionshipAlignment flags non-championship games inside reserved
// championship windows
func (a *Analyzer) detectChampionshipAlignment(s *model.Schedule) []model.Conflict {
	if len(a.thresholds.ChampionshipWindows) == 0 {
		return nil
	}
	var conflicts []model.Conflict
	for _, g := range s.Games {
		if g.Type == model.GameChampionship {
			continue
		}
		for _, window := range a.thresholds.ChampionshipWindows {
			if window.Contains(g.Date) {
				conflicts = append(conflicts, newConflict(
					model.ConflictChampionshipAlignment, model.SeverityCritical,
					[]string{g.ID}, []string{g.HomeTeamID, g.AwayTeamID}, nil,
					fmt.Sprintf("game %s is scheduled inside the reserved championship window %s – %s",
						g.ID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02")),
				))
				break
			}
		}
	}
	return conflicts
}
