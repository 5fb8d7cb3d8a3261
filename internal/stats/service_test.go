package stats

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpvargas/leaguedash/internal/domain"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedLeague(t *testing.T, db *store.DB, id int64, name, roundID string) {
	t.Helper()
	if err := db.UpsertLeague(&domain.League{ID: id, Name: name}); err != nil {
		t.Fatal(err)
	}
	err := db.UpsertRound(&domain.Round{
		ID:       roundID,
		LeagueID: id,
		Name:     "Round",
		Created:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func seedSubmission(t *testing.T, db *store.DB, roundID string, leagueID int64, uri, title string, artists ...string) {
	t.Helper()
	err := db.InsertSubmission(&domain.Submission{
		RoundID:     roundID,
		LeagueID:    leagueID,
		SubmitterID: "competitor-1",
		SpotifyURI:  uri,
		Title:       title,
		Artists:     domain.StringSlice(artists),
		Created:     time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func seedVote(t *testing.T, db *store.DB, id, roundID string, leagueID int64, uri string, points int) {
	t.Helper()
	err := db.InsertVote(&domain.Vote{
		ID:         id,
		RoundID:    roundID,
		LeagueID:   leagueID,
		VoterID:    "voter-1",
		SpotifyURI: uri,
		Points:     points,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func seedMetadata(t *testing.T, db *store.DB, uri, name, genre string, allGenres []string, popularity int, artists ...domain.ArtistRef) {
	t.Helper()
	track := domain.TrackMetadata{
		SpotifyURI: uri,
		Name:       name,
		Artists:    artists,
		Popularity: popularity,
		AllGenres:  domain.StringSlice(allGenres),
		FetchedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if genre != "" {
		track.Genre = &genre
	}
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{track}, false); err != nil {
		t.Fatal(err)
	}
}

func seedAnalyticsFixture(t *testing.T, db *store.DB) {
	t.Helper()
	seedLeague(t, db, 1, "Indie League", "r1")

	seedSubmission(t, db, "r1", 1, "spotify:track:rock", "Rock Song", "Rocker")
	seedSubmission(t, db, "r1", 1, "spotify:track:pop", "Pop Song", "Popper")
	seedSubmission(t, db, "r1", 1, "spotify:track:raw", "Mystery Song", "Mystery")

	seedVote(t, db, "v1", "r1", 1, "spotify:track:rock", 5)
	seedVote(t, db, "v2", "r1", 1, "spotify:track:rock", 3)
	seedVote(t, db, "v3", "r1", 1, "spotify:track:pop", 4)

	seedMetadata(t, db, "spotify:track:rock", "Rock Song", "rock",
		[]string{"rock", "indie rock"}, 70, domain.ArtistRef{Name: "Rocker", ID: "a1"})
	seedMetadata(t, db, "spotify:track:pop", "Pop Song", "pop",
		[]string{"pop"}, 0, domain.ArtistRef{Name: "Popper", ID: "a2"})
}

func TestLeagueAnalyticsGenres(t *testing.T) {
	db := newTestDB(t)
	seedAnalyticsFixture(t, db)

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}

	want := []GenreStat{
		{Genre: "rock", TotalVotes: 8, SubmissionCount: 1, AvgVotes: 8, RelatedGenres: 2},
		{Genre: "pop", TotalVotes: 4, SubmissionCount: 1, AvgVotes: 4, RelatedGenres: 1},
	}
	if len(analytics.GenreAnalysis) != len(want) {
		t.Fatalf("expected %d genres, got %d", len(want), len(analytics.GenreAnalysis))
	}
	for i, g := range analytics.GenreAnalysis {
		if g != want[i] {
			t.Errorf("genre %d: got %+v, want %+v", i, g, want[i])
		}
	}
}

func TestLeagueAnalyticsArtists(t *testing.T) {
	db := newTestDB(t)
	seedAnalyticsFixture(t, db)

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}

	// The metadata-less submission still contributes through its fallback
	// artist name.
	want := []ArtistStat{
		{Artist: "Rocker", TotalVotes: 8, SubmissionCount: 1, AvgVotes: 8},
		{Artist: "Popper", TotalVotes: 4, SubmissionCount: 1, AvgVotes: 4},
		{Artist: "Mystery", TotalVotes: 0, SubmissionCount: 1, AvgVotes: 0},
	}
	if len(analytics.ArtistAnalysis) != len(want) {
		t.Fatalf("expected %d artists, got %d", len(want), len(analytics.ArtistAnalysis))
	}
	for i, a := range analytics.ArtistAnalysis {
		if a != want[i] {
			t.Errorf("artist %d: got %+v, want %+v", i, a, want[i])
		}
	}
}

func TestLeagueAnalyticsPopularity(t *testing.T) {
	db := newTestDB(t)
	seedAnalyticsFixture(t, db)

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}

	// Zero popularity and metadata-less tracks are excluded.
	if len(analytics.PopularityAnalysis) != 1 {
		t.Fatalf("expected 1 popularity row, got %d", len(analytics.PopularityAnalysis))
	}
	row := analytics.PopularityAnalysis[0]
	if row.Title != "Rock Song" || row.Popularity != 70 || row.TotalVotes != 8 {
		t.Errorf("unexpected popularity row %+v", row)
	}
}

func TestLeagueAnalyticsTiesKeepSubmissionOrder(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "Tie League", "r1")

	seedSubmission(t, db, "r1", 1, "spotify:track:first", "First", "One")
	seedSubmission(t, db, "r1", 1, "spotify:track:second", "Second", "Two")
	seedVote(t, db, "v1", "r1", 1, "spotify:track:first", 3)
	seedVote(t, db, "v2", "r1", 1, "spotify:track:second", 3)
	seedMetadata(t, db, "spotify:track:first", "First", "jazz", []string{"jazz"}, 10,
		domain.ArtistRef{Name: "One", ID: "a1"})
	seedMetadata(t, db, "spotify:track:second", "Second", "blues", []string{"blues"}, 10,
		domain.ArtistRef{Name: "Two", ID: "a2"})

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}
	if analytics.GenreAnalysis[0].Genre != "jazz" || analytics.GenreAnalysis[1].Genre != "blues" {
		t.Errorf("tied genres should keep submission order, got %+v", analytics.GenreAnalysis)
	}
}

func TestLeagueAnalyticsTopTenArtists(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "Big League", "r1")

	for i := 0; i < 12; i++ {
		uri := fmt.Sprintf("spotify:track:t%d", i)
		seedSubmission(t, db, "r1", 1, uri, fmt.Sprintf("Song %d", i), fmt.Sprintf("Artist %d", i))
		seedVote(t, db, fmt.Sprintf("v%d", i), "r1", 1, uri, i)
	}

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(analytics.ArtistAnalysis) != 10 {
		t.Fatalf("expected top 10 artists, got %d", len(analytics.ArtistAnalysis))
	}
	if analytics.ArtistAnalysis[0].Artist != "Artist 11" {
		t.Errorf("expected Artist 11 first, got %s", analytics.ArtistAnalysis[0].Artist)
	}
}

func TestRoundDetail(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "League", "r1")
	seedSubmission(t, db, "r1", 1, "spotify:track:known", "CSV Title", "CSV Artist")
	seedSubmission(t, db, "r1", 1, "spotify:track:raw", "Raw Title", "Raw Artist")
	seedVote(t, db, "v1", "r1", 1, "spotify:track:known", 5)
	seedMetadata(t, db, "spotify:track:known", "Catalog Title", "rock", []string{"rock"}, 42,
		domain.ArtistRef{Name: "Catalog Artist", ID: "a1"})

	svc := New(db, logger.Default())
	detail, err := svc.RoundDetail("r1")
	if err != nil {
		t.Fatal(err)
	}

	if detail.ID != "r1" {
		t.Errorf("unexpected round %+v", detail.Round)
	}
	if len(detail.Submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(detail.Submissions))
	}
	known := detail.Submissions[0]
	if known.Metadata == nil || known.Metadata.Name != "Catalog Title" {
		t.Errorf("expected metadata join for enriched track, got %+v", known)
	}
	raw := detail.Submissions[1]
	if raw.Metadata != nil {
		t.Errorf("expected nil metadata for raw track, got %+v", raw.Metadata)
	}
	if len(detail.Votes) != 1 || detail.Votes[0].Points != 5 {
		t.Errorf("unexpected votes %+v", detail.Votes)
	}
}

func TestRoundDetailMissingRound(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, logger.Default())
	if _, err := svc.RoundDetail("nope"); err == nil {
		t.Fatal("expected error for unknown round")
	}
}

func TestArtistAnalysisUnknownArtistFallback(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "League", "r1")

	// Two submissions with no artist names anywhere group under one
	// fallback bucket.
	for i, uri := range []string{"spotify:track:x1", "spotify:track:x2"} {
		err := db.InsertSubmission(&domain.Submission{
			RoundID:     "r1",
			LeagueID:    1,
			SubmitterID: "c1",
			SpotifyURI:  uri,
			Title:       fmt.Sprintf("Song %d", i),
			Created:     time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	seedVote(t, db, "v1", "r1", 1, "spotify:track:x1", 2)

	svc := New(db, logger.Default())
	analytics, err := svc.LeagueAnalytics(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(analytics.ArtistAnalysis) != 1 {
		t.Fatalf("expected 1 artist bucket, got %+v", analytics.ArtistAnalysis)
	}
	got := analytics.ArtistAnalysis[0]
	if got.Artist != "Unknown Artist" || got.SubmissionCount != 2 || got.TotalVotes != 2 {
		t.Errorf("unexpected fallback bucket %+v", got)
	}
}

func TestOverview(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "Alpha", "r1")
	seedLeague(t, db, 2, "Beta", "r2")
	seedSubmission(t, db, "r1", 1, "spotify:track:t1", "Song", "Artist")
	seedVote(t, db, "v1", "r1", 1, "spotify:track:t1", 2)
	if err := db.UpsertCompetitor(&domain.Competitor{ID: "c1", Name: "Casey"}, 1); err != nil {
		t.Fatal(err)
	}

	svc := New(db, logger.Default())
	overview, err := svc.Overview()
	if err != nil {
		t.Fatal(err)
	}

	if overview.TotalLeagues != 2 {
		t.Errorf("expected 2 leagues, got %d", overview.TotalLeagues)
	}
	if overview.TotalRounds != 2 || overview.TotalSubmissions != 1 || overview.TotalVotes != 1 {
		t.Errorf("unexpected totals %+v", overview)
	}
	if overview.TotalCompetitors != 1 {
		t.Errorf("expected 1 competitor, got %d", overview.TotalCompetitors)
	}
	if len(overview.RecentRounds) != 2 {
		t.Fatalf("expected 2 recent rounds, got %d", len(overview.RecentRounds))
	}
	for _, r := range overview.RecentRounds {
		if r.LeagueName == "" {
			t.Errorf("round %s missing league name", r.ID)
		}
	}

	if len(overview.Leagues) != 2 {
		t.Fatalf("expected 2 league overviews, got %d", len(overview.Leagues))
	}
	// ListLeagues orders by name, so Alpha comes first.
	alpha := overview.Leagues[0]
	if alpha.Name != "Alpha" || alpha.Submissions != 1 || alpha.Votes != 1 || alpha.Competitors != 1 {
		t.Errorf("unexpected league overview %+v", alpha)
	}
}

func TestAllSongsResolvesFallbacks(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "League", "r1")
	seedSubmission(t, db, "r1", 1, "spotify:track:known", "CSV Title", "CSV Artist")
	seedSubmission(t, db, "r1", 1, "spotify:track:raw", "Raw Title", "Raw Artist")
	seedMetadata(t, db, "spotify:track:known", "Catalog Title", "rock", []string{"rock"}, 42,
		domain.ArtistRef{Name: "Catalog Artist", ID: "a1"})

	svc := New(db, logger.Default())
	songs, err := svc.AllSongs()
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}

	known := songs[0]
	if known.Title != "Catalog Title" || known.Artists[0] != "Catalog Artist" || !known.HasMetadata {
		t.Errorf("expected catalog fields for enriched song, got %+v", known)
	}
	raw := songs[1]
	if raw.Title != "Raw Title" || raw.Artists[0] != "Raw Artist" || raw.HasMetadata {
		t.Errorf("expected fallback fields for raw song, got %+v", raw)
	}
	if raw.Genre != nil {
		t.Errorf("expected nil genre for raw song, got %v", *raw.Genre)
	}
}

func TestCompetitorGenres(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1, "League", "r1")

	for i, uri := range []string{"spotify:track:r1", "spotify:track:r2", "spotify:track:p1"} {
		err := db.InsertSubmission(&domain.Submission{
			RoundID:     "r1",
			LeagueID:    1,
			SubmitterID: "casey",
			SpotifyURI:  uri,
			Title:       fmt.Sprintf("Song %d", i),
			Created:     time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	seedMetadata(t, db, "spotify:track:r1", "R1", "rock", []string{"rock"}, 1)
	seedMetadata(t, db, "spotify:track:r2", "R2", "rock", []string{"rock"}, 1)
	seedMetadata(t, db, "spotify:track:p1", "P1", "pop", []string{"pop"}, 1)

	svc := New(db, logger.Default())
	breakdown, err := svc.CompetitorGenres("casey")
	if err != nil {
		t.Fatal(err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 genres, got %d", len(breakdown))
	}
	if breakdown[0].Genre != "rock" || breakdown[0].Count != 2 {
		t.Errorf("expected rock/2 first, got %+v", breakdown[0])
	}
}
