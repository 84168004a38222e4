package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 19, 0, 0, 0, time.UTC)
}

func testSchedule() *Schedule {
	games := []Game{
		{ID: "g2", HomeTeamID: "t2", AwayTeamID: "t1", VenueID: "v2", Date: day(8), Type: GameRegular},
		{ID: "g1", HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1", Date: day(1), Type: GameRegular},
		{ID: "g3", HomeTeamID: "t1", AwayTeamID: "t3", VenueID: "v1", Date: day(15), Type: GameRegular},
	}
	teams := []Team{
		{ID: "t1", Name: "Harbor Hawks", HomeVenueID: "v1"},
		{ID: "t2", Name: "Summit Bears", HomeVenueID: "v2"},
		{ID: "t3", Name: "Valley Kings"},
	}
	venues := []Venue{
		{ID: "v1", Name: "Harbor Arena", Latitude: 51.5, Longitude: -0.12},
		{ID: "v2", Name: "Summit Dome", Latitude: 48.85, Longitude: 2.35},
	}
	return NewSchedule("sched-1", "basketball", "2026", games, teams, venues, nil)
}

func TestNewSchedule_SortsGamesChronologically(t *testing.T) {
	s := testSchedule()

	assert.Equal(t, "g1", s.Games[0].ID)
	assert.Equal(t, "g2", s.Games[1].ID)
	assert.Equal(t, "g3", s.Games[2].ID)
}

func TestSchedule_FingerprintIgnoresInputOrder(t *testing.T) {
	games := []Game{
		{ID: "g1", HomeTeamID: "t1", AwayTeamID: "t2", VenueID: "v1", Date: day(1)},
		{ID: "g2", HomeTeamID: "t2", AwayTeamID: "t1", VenueID: "v2", Date: day(8)},
	}
	reversed := []Game{games[1], games[0]}

	a := NewSchedule("s", "basketball", "2026", games, nil, nil, nil)
	b := NewSchedule("s", "basketball", "2026", reversed, nil, nil, nil)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestSchedule_FingerprintChangesWithContent(t *testing.T) {
	s := testSchedule()

	moved, err := s.WithGameDate("g1", day(2))
	require.NoError(t, err)

	assert.NotEqual(t, s.Fingerprint(), moved.Fingerprint())
}

func TestSchedule_WithGameDateIsCopyOnWrite(t *testing.T) {
	s := testSchedule()
	original := s.Fingerprint()

	moved, err := s.WithGameDate("g1", day(20))
	require.NoError(t, err)

	// Input snapshot is untouched
	assert.Equal(t, original, s.Fingerprint())
	assert.Equal(t, day(1), s.Games[0].Date)

	// New snapshot re-sorted: g1 now comes last
	g, ok := moved.Game("g1")
	require.True(t, ok)
	assert.Equal(t, day(20), g.Date)
	assert.Equal(t, "g1", moved.Games[2].ID)
}

func TestSchedule_WithGameDate_UnknownGame(t *testing.T) {
	s := testSchedule()

	_, err := s.WithGameDate("missing", day(5))
	assert.Error(t, err)
}

func TestSchedule_WithGameVenue_UnknownVenue(t *testing.T) {
	s := testSchedule()

	_, err := s.WithGameVenue("g1", "nowhere")
	assert.Error(t, err)
}

func TestSchedule_WithHomeAwaySwapped_VenueFollowsNewHomeTeam(t *testing.T) {
	s := testSchedule()

	swapped, err := s.WithHomeAwaySwapped("g1")
	require.NoError(t, err)

	g, ok := swapped.Game("g1")
	require.True(t, ok)
	assert.Equal(t, "t2", g.HomeTeamID)
	assert.Equal(t, "t1", g.AwayTeamID)
	// t2's home venue is v2
	assert.Equal(t, "v2", g.VenueID)
}

func TestSchedule_WithHomeAwaySwapped_KeepsVenueWhenNewHomeHasNone(t *testing.T) {
	s := testSchedule()

	// g3: t1 home vs t3; t3 declares no home venue
	swapped, err := s.WithHomeAwaySwapped("g3")
	require.NoError(t, err)

	g, ok := swapped.Game("g3")
	require.True(t, ok)
	assert.Equal(t, "t3", g.HomeTeamID)
	assert.Equal(t, "v1", g.VenueID)
}

func TestSchedule_GamesForTeam(t *testing.T) {
	s := testSchedule()

	games := s.GamesForTeam("t1")
	require.Len(t, games, 3)

	games = s.GamesForTeam("t3")
	require.Len(t, games, 1)
	assert.Equal(t, "g3", games[0].ID)
}

func TestTimeWindow_HalfOpen(t *testing.T) {
	w := TimeWindow{Start: day(1), End: day(5)}

	assert.True(t, w.Contains(day(1)))
	assert.True(t, w.Contains(day(4)))
	assert.False(t, w.Contains(day(5)), "end is exclusive")

	assert.True(t, w.Overlaps(TimeWindow{Start: day(4), End: day(10)}))
	assert.False(t, w.Overlaps(TimeWindow{Start: day(5), End: day(10)}), "touching windows do not overlap")
}
