package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// GameType categorizes a scheduled game
type GameType string

const (
	GameRegular      GameType = "regular"
	GameConference   GameType = "conference"
	GameRivalry      GameType = "rivalry"
	GameChampionship GameType = "championship"
	GameExhibition   GameType = "exhibition"
)

// TimeWindow is a half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// Overlaps reports whether two windows share any time
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Game is a single scheduled matchup
type Game struct {
	ID         string    `yaml:"id"`
	HomeTeamID string    `yaml:"homeTeam"`
	AwayTeamID string    `yaml:"awayTeam"`
	VenueID    string    `yaml:"venue"`
	Date       time.Time `yaml:"date"`
	Type       GameType  `yaml:"type"`
}

// Involves reports whether the team plays in this game (home or away)
func (g Game) Involves(teamID string) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// Team is a participating team with its declared unavailable windows
type Team struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	ConferenceID string       `yaml:"conference,omitempty"`
	DivisionID   string       `yaml:"division,omitempty"`
	HomeVenueID  string       `yaml:"homeVenue,omitempty"`
	Unavailable  []TimeWindow `yaml:"unavailable,omitempty"`
}

// Venue is a playing location with coordinates for travel calculations
type Venue struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Latitude    float64      `yaml:"latitude"`
	Longitude   float64      `yaml:"longitude"`
	Unavailable []TimeWindow `yaml:"unavailable,omitempty"`
}

// Rivalry designates a pair of teams whose matchups are subject to
// special spacing rules
type Rivalry struct {
	TeamA     string  `yaml:"teamA"`
	TeamB     string  `yaml:"teamB"`
	Intensity float64 `yaml:"intensity,omitempty"`
}

// Matches reports whether the rivalry covers the given pairing,
// in either order
func (r Rivalry) Matches(teamA, teamB string) bool {
	return (r.TeamA == teamA && r.TeamB == teamB) || (r.TeamA == teamB && r.TeamB == teamA)
}

// Schedule is an immutable snapshot of a proposed season schedule.
// The evaluation engine and conflict analyzer never mutate a schedule;
// the With* helpers produce new snapshots (copy-on-write), each with its
// own fingerprint.
type Schedule struct {
	ID        string
	Sport     string
	Season    string
	Games     []Game
	Teams     map[string]Team
	Venues    map[string]Venue
	Rivalries []Rivalry

	fingerprint string
}

// NewSchedule builds a snapshot from raw parts. Games are sorted
// chronologically (ties by ID) and the content fingerprint is computed
// once up front.
func NewSchedule(id, sport, season string, games []Game, teams []Team, venues []Venue, rivalries []Rivalry) *Schedule {
	teamMap := make(map[string]Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}
	venueMap := make(map[string]Venue, len(venues))
	for _, v := range venues {
		venueMap[v.ID] = v
	}

	sorted := make([]Game, len(games))
	copy(sorted, games)
	sortGames(sorted)

	s := &Schedule{
		ID:        id,
		Sport:     sport,
		Season:    season,
		Games:     sorted,
		Teams:     teamMap,
		Venues:    venueMap,
		Rivalries: rivalries,
	}
	s.fingerprint = computeFingerprint(s)
	return s
}

func sortGames(games []Game) {
	sort.Slice(games, func(i, j int) bool {
		if !games[i].Date.Equal(games[j].Date) {
			return games[i].Date.Before(games[j].Date)
		}
		return games[i].ID < games[j].ID
	})
}

// computeFingerprint hashes the canonical game content. Teams, venues and
// rivalries are treated as fixed context; only games change between
// snapshots of the same schedule.
func computeFingerprint(s *Schedule) string {
	var b strings.Builder
	b.WriteString(s.ID)
	b.WriteByte('|')
	b.WriteString(s.Sport)
	b.WriteByte('|')
	for _, g := range s.Games {
		fmt.Fprintf(&b, "%s:%s:%s:%s:%s:%s|",
			g.ID, g.HomeTeamID, g.AwayTeamID, g.VenueID,
			g.Date.UTC().Format(time.RFC3339), g.Type)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the stable content hash of this snapshot,
// used as a cache and dedup key
func (s *Schedule) Fingerprint() string {
	return s.fingerprint
}

// Game looks up a game by ID
func (s *Schedule) Game(id string) (Game, bool) {
	for _, g := range s.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// GamesForTeam returns the team's games in chronological order
func (s *Schedule) GamesForTeam(teamID string) []Game {
	var games []Game
	for _, g := range s.Games {
		if g.Involves(teamID) {
			games = append(games, g)
		}
	}
	return games
}

// Rivalry returns the rivalry covering the pairing, if one is declared
func (s *Schedule) Rivalry(teamA, teamB string) (Rivalry, bool) {
	for _, r := range s.Rivalries {
		if r.Matches(teamA, teamB) {
			return r, true
		}
	}
	return Rivalry{}, false
}

// clone duplicates the snapshot with a fresh games slice. Teams, venues and
// rivalries are shared; they never change across snapshots.
func (s *Schedule) clone() *Schedule {
	games := make([]Game, len(s.Games))
	copy(games, s.Games)
	return &Schedule{
		ID:        s.ID,
		Sport:     s.Sport,
		Season:    s.Season,
		Games:     games,
		Teams:     s.Teams,
		Venues:    s.Venues,
		Rivalries: s.Rivalries,
	}
}

func (s *Schedule) withGame(gameID string, mutate func(*Game)) (*Schedule, error) {
	next := s.clone()
	found := false
	for i := range next.Games {
		if next.Games[i].ID == gameID {
			mutate(&next.Games[i])
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("game %q not found in schedule %q", gameID, s.ID)
	}
	sortGames(next.Games)
	next.fingerprint = computeFingerprint(next)
	return next, nil
}

// WithGameDate returns a new snapshot with the game moved to a new date
func (s *Schedule) WithGameDate(gameID string, date time.Time) (*Schedule, error) {
	return s.withGame(gameID, func(g *Game) { g.Date = date })
}

// WithGameVenue returns a new snapshot with the game moved to a new venue
func (s *Schedule) WithGameVenue(gameID, venueID string) (*Schedule, error) {
	if _, ok := s.Venues[venueID]; !ok {
		return nil, fmt.Errorf("venue %q not found in schedule %q", venueID, s.ID)
	}
	return s.withGame(gameID, func(g *Game) { g.VenueID = venueID })
}

// WithHomeAwaySwapped returns a new snapshot with the game's home and away
// sides exchanged. The venue follows the new home team's home venue when
// one is declared.
func (s *Schedule) WithHomeAwaySwapped(gameID string) (*Schedule, error) {
	return s.withGame(gameID, func(g *Game) {
		g.HomeTeamID, g.AwayTeamID = g.AwayTeamID, g.HomeTeamID
		if home, ok := s.Teams[g.HomeTeamID]; ok && home.HomeVenueID != "" {
			g.VenueID = home.HomeVenueID
		}
	})
}
