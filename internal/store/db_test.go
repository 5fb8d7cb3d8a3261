package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jpvargas/leaguedash/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedLeagueAndRound(t *testing.T, db *DB) {
	t.Helper()
	if err := db.UpsertLeague(&domain.League{ID: 1, Name: "League"}); err != nil {
		t.Fatal(err)
	}
	err := db.UpsertRound(&domain.Round{ID: "r1", LeagueID: 1, Name: "Round", Created: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
}

func sampleTrack(uri string) domain.TrackMetadata {
	return domain.TrackMetadata{
		SpotifyURI: uri,
		Name:       "Original Name",
		Artists:    domain.ArtistRefs{{Name: "Artist", ID: "a1"}},
		Album:      "Album",
		Popularity: 40,
		AllGenres:  domain.StringSlice{},
		FetchedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

func TestUpsertTrackMetadataDoesNotOverwriteByDefault(t *testing.T) {
	db := newTestDB(t)

	track := sampleTrack("spotify:track:t1")
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{track}, false); err != nil {
		t.Fatal(err)
	}

	changed := track
	changed.Name = "Changed Name"
	written, err := db.UpsertTrackMetadata([]domain.TrackMetadata{changed}, false)
	if err != nil {
		t.Fatal(err)
	}
	if written != 0 {
		t.Errorf("expected 0 rows written without overwrite, got %d", written)
	}

	got, err := db.GetTrackMetadata("spotify:track:t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Original Name" {
		t.Errorf("existing record changed without overwrite: %s", got.Name)
	}
}

func TestUpsertTrackMetadataOverwriteKeepsDerivedGenres(t *testing.T) {
	db := newTestDB(t)

	track := sampleTrack("spotify:track:t1")
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{track}, false); err != nil {
		t.Fatal(err)
	}

	genre := "rock"
	err := db.UpdateTrackGenres([]GenreUpdate{{
		SpotifyURI: "spotify:track:t1",
		Genre:      &genre,
		AllGenres:  domain.StringSlice{"rock", "indie"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	refreshed := sampleTrack("spotify:track:t1")
	refreshed.Name = "Refreshed Name"
	refreshed.Popularity = 75
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{refreshed}, true); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetTrackMetadata("spotify:track:t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Refreshed Name" || got.Popularity != 75 {
		t.Errorf("catalog fields not overwritten: %+v", got)
	}
	if got.Genre == nil || *got.Genre != "rock" {
		t.Errorf("derived genre lost on overwrite: %v", got.Genre)
	}
	if len(got.AllGenres) != 2 {
		t.Errorf("derived allGenres lost on overwrite: %v", got.AllGenres)
	}
}

func TestUpsertArtistMetadataLastWriteWins(t *testing.T) {
	db := newTestDB(t)

	first := domain.ArtistMetadata{
		ArtistID:   "a1",
		Name:       "Artist",
		Genres:     domain.StringSlice{"rock"},
		Popularity: 10,
		FetchedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if _, err := db.UpsertArtistMetadata([]domain.ArtistMetadata{first}); err != nil {
		t.Fatal(err)
	}

	second := first
	second.Genres = domain.StringSlice{"rock", "shoegaze"}
	second.Popularity = 55
	if _, err := db.UpsertArtistMetadata([]domain.ArtistMetadata{second}); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetArtistMetadata("a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Popularity != 55 || len(got.Genres) != 2 {
		t.Errorf("expected refreshed record, got %+v", got)
	}

	count, err := db.CountArtistMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected a single record, got %d", count)
	}
}

func TestDistinctSubmissionURIsFirstSeenOrder(t *testing.T) {
	db := newTestDB(t)
	seedLeagueAndRound(t, db)

	for _, uri := range []string{"spotify:track:b", "spotify:track:a", "spotify:track:b"} {
		err := db.InsertSubmission(&domain.Submission{
			RoundID:     "r1",
			LeagueID:    1,
			SubmitterID: "c1",
			SpotifyURI:  uri,
			Created:     time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	uris, err := db.DistinctSubmissionURIs()
	if err != nil {
		t.Fatal(err)
	}
	if len(uris) != 2 || uris[0] != "spotify:track:b" || uris[1] != "spotify:track:a" {
		t.Errorf("expected first-seen order, got %v", uris)
	}
}

func TestRebuildGenresReplacesOldEntries(t *testing.T) {
	db := newTestDB(t)

	_, err := db.UpsertArtistMetadata([]domain.ArtistMetadata{{
		ArtistID: "a1", Name: "One", Genres: domain.StringSlice{"rock"},
		FetchedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildGenres(); err != nil {
		t.Fatal(err)
	}

	// Artist drops the genre; a rebuild must not keep the stale entry.
	_, err = db.UpsertArtistMetadata([]domain.ArtistMetadata{{
		ArtistID: "a1", Name: "One", Genres: domain.StringSlice{"pop"},
		FetchedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}
	count, err := db.RebuildGenres()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 genre, got %d", count)
	}

	genres, err := db.ListGenres()
	if err != nil {
		t.Fatal(err)
	}
	if len(genres) != 1 || genres[0].Name != "pop" {
		t.Errorf("stale taxonomy entries survived rebuild: %+v", genres)
	}
}

func TestSearchGenresCaseInsensitive(t *testing.T) {
	db := newTestDB(t)

	_, err := db.UpsertArtistMetadata([]domain.ArtistMetadata{{
		ArtistID: "a1", Name: "One", Genres: domain.StringSlice{"Indie Rock", "dream pop"},
		FetchedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildGenres(); err != nil {
		t.Fatal(err)
	}

	genres, err := db.SearchGenres("ROCK")
	if err != nil {
		t.Fatal(err)
	}
	if len(genres) != 1 || genres[0].Name != "Indie Rock" {
		t.Errorf("expected Indie Rock, got %+v", genres)
	}
}

func TestLeagueRollupJoinsVotesByURI(t *testing.T) {
	db := newTestDB(t)
	seedLeagueAndRound(t, db)

	err := db.InsertSubmission(&domain.Submission{
		RoundID:     "r1",
		LeagueID:    1,
		SubmitterID: "c1",
		SpotifyURI:  "spotify:track:t1",
		Title:       "CSV Title",
		Artists:     domain.StringSlice{"CSV Artist"},
		Created:     time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, points := range []int{3, 2} {
		err := db.InsertVote(&domain.Vote{
			ID:         []string{"v1", "v2"}[i],
			RoundID:    "r1",
			LeagueID:   1,
			VoterID:    "c2",
			SpotifyURI: "spotify:track:t1",
			Points:     points,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.LeagueRollup(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.TotalVotes != 5 || row.VoteCount != 2 {
		t.Errorf("unexpected vote totals %+v", row)
	}
	if row.HasMetadata {
		t.Error("expected no metadata for raw submission")
	}
	if names := row.ArtistNames(); len(names) != 1 || names[0] != "CSV Artist" {
		t.Errorf("expected fallback artists, got %v", names)
	}
}

func TestClearImportedDataKeepsMetadata(t *testing.T) {
	db := newTestDB(t)
	seedLeagueAndRound(t, db)

	err := db.InsertSubmission(&domain.Submission{
		RoundID:     "r1",
		LeagueID:    1,
		SubmitterID: "c1",
		SpotifyURI:  "spotify:track:t1",
		Created:     time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{sampleTrack("spotify:track:t1")}, false); err != nil {
		t.Fatal(err)
	}

	if err := db.ClearImportedData(); err != nil {
		t.Fatal(err)
	}

	uris, err := db.DistinctSubmissionURIs()
	if err != nil {
		t.Fatal(err)
	}
	if len(uris) != 0 {
		t.Errorf("expected submissions cleared, got %v", uris)
	}

	count, err := db.CountTrackMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected metadata to survive clear, got %d", count)
	}
}

func TestTracksByGenre(t *testing.T) {
	db := newTestDB(t)

	track := sampleTrack("spotify:track:t1")
	if _, err := db.UpsertTrackMetadata([]domain.TrackMetadata{track}, false); err != nil {
		t.Fatal(err)
	}
	genre := "rock"
	err := db.UpdateTrackGenres([]GenreUpdate{{
		SpotifyURI: "spotify:track:t1",
		Genre:      &genre,
		AllGenres:  domain.StringSlice{"rock", "indie"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	tracks, err := db.TracksByGenre("indie")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].SpotifyURI != "spotify:track:t1" {
		t.Errorf("unexpected tracks %+v", tracks)
	}

	tracks, err = db.TracksByGenre("jazz")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no jazz tracks, got %+v", tracks)
	}
}
