package importer

import (
	"os"
	"path/filepath"
	"testing"

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

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeLeagueFixture(t *testing.T, dataDir, leagueDir string) {
	t.Helper()
	base := filepath.Join(dataDir, leagueDir)
	writeFile(t, filepath.Join(base, "competitors.csv"),
		"ID,Name\ncomp-1,Alex\ncomp-2,Sam\n")
	writeFile(t, filepath.Join(base, "rounds.csv"),
		"ID,Created,Name,Description,Playlist URL\n"+
			"round-1,2024-03-01T12:00:00Z,Openers,First songs,https://example.com/p1\n")
	writeFile(t, filepath.Join(base, "submissions.csv"),
		"Spotify URI,Title,Album,Artist(s),Submitter ID,Created,Comment,Round ID\n"+
			"spotify:track:t1,Song One,Album A,Artist A,comp-1,2024-03-02T09:00:00Z,great opener,round-1\n"+
			"spotify:track:t2,Song Two,Album B,Artist B,comp-2,2024-03-02T10:00:00Z,,round-1\n")
	writeFile(t, filepath.Join(base, "votes.csv"),
		"Spotify URI,Voter ID,Created,Points Assigned,Comment,Round ID\n"+
			"spotify:track:t1,comp-2,2024-03-03T09:00:00Z,3,love it,round-1\n"+
			"spotify:track:t2,comp-1,2024-03-03T09:05:00Z,1,,round-1\n")
}

func TestRunImportsLeagueDirectories(t *testing.T) {
	db := newTestDB(t)
	dataDir := t.TempDir()
	writeLeagueFixture(t, dataDir, "league-1")

	im := New(db, dataDir, logger.Default())
	summary, err := im.Run()
	if err != nil {
		t.Fatal(err)
	}

	if summary.Leagues != 1 || summary.Competitors != 2 || summary.Rounds != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Submissions != 2 || summary.Votes != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	league, err := db.GetLeague(1)
	if err != nil {
		t.Fatal(err)
	}
	if league.Name != "League 1" {
		t.Errorf("expected name League 1, got %q", league.Name)
	}

	subs, err := db.ListSubmissionsByRound("round-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].Title != "Song One" || subs[0].LeagueID != 1 {
		t.Errorf("unexpected submission %+v", subs[0])
	}
	if len(subs[0].Artists) != 1 || subs[0].Artists[0] != "Artist A" {
		t.Errorf("unexpected artists %v", subs[0].Artists)
	}

	votes, err := db.ListVotesByRound("round-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 votes, got %d", len(votes))
	}
	for _, v := range votes {
		if v.ID == "" {
			t.Error("vote id not generated")
		}
	}
}

func TestRunSkipsRowsWithUnknownRound(t *testing.T) {
	db := newTestDB(t)
	dataDir := t.TempDir()
	base := filepath.Join(dataDir, "league-1")
	writeFile(t, filepath.Join(base, "rounds.csv"),
		"ID,Created,Name,Description,Playlist URL\nround-1,2024-03-01T12:00:00Z,Openers,,\n")
	writeFile(t, filepath.Join(base, "submissions.csv"),
		"Spotify URI,Title,Album,Artist(s),Submitter ID,Created,Comment,Round ID\n"+
			"spotify:track:t1,Kept,Album,Artist,comp-1,2024-03-02T09:00:00Z,,round-1\n"+
			"spotify:track:t2,Dropped,Album,Artist,comp-1,2024-03-02T09:00:00Z,,round-missing\n")

	im := New(db, dataDir, logger.Default())
	summary, err := im.Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Submissions != 1 {
		t.Errorf("expected 1 submission, got %d", summary.Submissions)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", summary.Skipped)
	}
}

func TestRunSharedCompetitorKeepsBothLeagues(t *testing.T) {
	db := newTestDB(t)
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "league-1", "competitors.csv"), "ID,Name\nshared,Casey\n")
	writeFile(t, filepath.Join(dataDir, "league-2", "competitors.csv"), "ID,Name\nshared,Casey\n")

	im := New(db, dataDir, logger.Default())
	if _, err := im.Run(); err != nil {
		t.Fatal(err)
	}

	competitor, err := db.GetCompetitor("shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(competitor.Leagues) != 2 {
		t.Fatalf("expected 2 league memberships, got %v", competitor.Leagues)
	}
}

func TestRunReplacesPreviousImport(t *testing.T) {
	db := newTestDB(t)
	dataDir := t.TempDir()
	writeLeagueFixture(t, dataDir, "league-1")

	im := New(db, dataDir, logger.Default())
	if _, err := im.Run(); err != nil {
		t.Fatal(err)
	}
	summary, err := im.Run()
	if err != nil {
		t.Fatal(err)
	}

	// A re-import must not double anything.
	if summary.Submissions != 2 || summary.Votes != 2 {
		t.Errorf("unexpected summary after re-import %+v", summary)
	}
	subs, err := db.ListSubmissionsByRound("round-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Errorf("expected 2 submissions after re-import, got %d", len(subs))
	}
}

func TestLeagueNameFromDir(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"league-1", "League 1"},
		{"summer_mixtape", "Summer Mixtape"},
		{"vibes", "Vibes"},
	}
	for _, tt := range tests {
		if got := leagueNameFromDir(tt.dir); got != tt.want {
			t.Errorf("leagueNameFromDir(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestRunFailsOnMissingDataDir(t *testing.T) {
	db := newTestDB(t)
	im := New(db, filepath.Join(t.TempDir(), "nope"), logger.Default())
	if _, err := im.Run(); err == nil {
		t.Fatal("expected error for missing data dir")
	}
}
