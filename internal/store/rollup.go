package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// OverviewCounts holds dataset-wide totals.
type OverviewCounts struct {
	Submissions int `db:"submissions"`
	Votes       int `db:"votes"`
	Rounds      int `db:"rounds"`
	Competitors int `db:"competitors"`
}

func (db *DB) CountOverview() (OverviewCounts, error) {
	var counts OverviewCounts
	query := `SELECT
		(SELECT COUNT(*) FROM submissions) AS submissions,
		(SELECT COUNT(*) FROM votes) AS votes,
		(SELECT COUNT(*) FROM rounds) AS rounds,
		(SELECT COUNT(*) FROM competitors) AS competitors`
	if err := db.Get(&counts, query); err != nil {
		return counts, fmt.Errorf("failed to count overview totals: %w", err)
	}
	return counts, nil
}

// LeagueCounts holds per-league totals.
type LeagueCounts struct {
	Rounds      int `db:"rounds" json:"rounds"`
	Competitors int `db:"competitors" json:"competitors"`
	Submissions int `db:"submissions" json:"submissions"`
	Votes       int `db:"votes" json:"votes"`
}

func (db *DB) CountLeague(leagueID int64) (LeagueCounts, error) {
	var counts LeagueCounts
	query := `SELECT
		(SELECT COUNT(*) FROM rounds WHERE league_id = ?) AS rounds,
		(SELECT COUNT(*) FROM competitor_leagues WHERE league_id = ?) AS competitors,
		(SELECT COUNT(*) FROM submissions WHERE league_id = ?) AS submissions,
		(SELECT COUNT(*) FROM votes WHERE league_id = ?) AS votes`
	if err := db.Get(&counts, query, leagueID, leagueID, leagueID, leagueID); err != nil {
		return counts, fmt.Errorf("failed to count league %d: %w", leagueID, err)
	}
	return counts, nil
}

// RollupRow is one submission joined with its vote totals and (optional)
// track metadata. Rows come back in submission insertion order so grouping
// downstream stays deterministic.
type RollupRow struct {
	SpotifyURI      string             `db:"spotify_uri"`
	Title           string             `db:"title"`
	FallbackArtists domain.StringSlice `db:"fallback_artists"`
	MetadataArtists domain.ArtistRefs  `db:"metadata_artists"`
	Genre           *string            `db:"genre"`
	AllGenres       domain.StringSlice `db:"all_genres"`
	Popularity      int                `db:"popularity"`
	TotalVotes      int                `db:"total_votes"`
	VoteCount       int                `db:"vote_count"`
	HasMetadata     bool               `db:"has_metadata"`
}

// ArtistNames resolves the display name list: metadata artists when present,
// otherwise the submission's denormalized artist names.
func (r *RollupRow) ArtistNames() []string {
	if len(r.MetadataArtists) > 0 {
		return r.MetadataArtists.Names()
	}
	return r.FallbackArtists
}

const rollupSelect = `SELECT s.spotify_uri,
		COALESCE(m.name, s.title) AS title,
		s.artists AS fallback_artists,
		m.artists AS metadata_artists,
		m.genre AS genre,
		COALESCE(m.all_genres, '[]') AS all_genres,
		COALESCE(m.popularity, 0) AS popularity,
		COALESCE(v.total_points, 0) AS total_votes,
		COALESCE(v.vote_count, 0) AS vote_count,
		m.spotify_uri IS NOT NULL AS has_metadata
	FROM submissions s
	LEFT JOIN track_metadata m ON m.spotify_uri = s.spotify_uri
	LEFT JOIN (
		SELECT spotify_uri, SUM(points) AS total_points, COUNT(*) AS vote_count
		FROM votes GROUP BY spotify_uri
	) v ON v.spotify_uri = s.spotify_uri`

// LeagueRollup joins one league's submissions with votes (by track URI) and
// track metadata for the analytics engine.
func (db *DB) LeagueRollup(leagueID int64) ([]RollupRow, error) {
	var rows []RollupRow
	query := rollupSelect + ` WHERE s.league_id = ? ORDER BY s.id`
	if err := db.Select(&rows, query, leagueID); err != nil {
		return nil, fmt.Errorf("failed to roll up league %d: %w", leagueID, err)
	}
	return rows, nil
}

// SongRow is one submission in the all-songs projection.
type SongRow struct {
	RollupRow
	Album      string `db:"album"`
	LeagueName string `db:"league_name"`
}

// AllSongRows returns every submission joined with votes, metadata and its
// league display name.
func (db *DB) AllSongRows() ([]SongRow, error) {
	var rows []SongRow
	query := `SELECT s.spotify_uri,
			COALESCE(m.name, s.title) AS title,
			s.artists AS fallback_artists,
			m.artists AS metadata_artists,
			m.genre AS genre,
			COALESCE(m.all_genres, '[]') AS all_genres,
			COALESCE(m.popularity, 0) AS popularity,
			COALESCE(v.total_points, 0) AS total_votes,
			COALESCE(v.vote_count, 0) AS vote_count,
			m.spotify_uri IS NOT NULL AS has_metadata,
			COALESCE(m.album, s.album) AS album,
			COALESCE(l.name, 'Unknown League') AS league_name
		FROM submissions s
		LEFT JOIN track_metadata m ON m.spotify_uri = s.spotify_uri
		LEFT JOIN leagues l ON l.id = s.league_id
		LEFT JOIN (
			SELECT spotify_uri, SUM(points) AS total_points, COUNT(*) AS vote_count
			FROM votes GROUP BY spotify_uri
		) v ON v.spotify_uri = s.spotify_uri
		ORDER BY s.id`
	if err := db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to roll up songs: %w", err)
	}
	return rows, nil
}

// GenreCount is one genre with a submission count.
type GenreCount struct {
	Genre string `db:"genre" json:"genre"`
	Count int    `db:"count" json:"count"`
}

// CompetitorGenreBreakdown groups one competitor's submissions by the
// primary genre of their track metadata. Submissions without a resolved
// genre are excluded.
func (db *DB) CompetitorGenreBreakdown(competitorID string) ([]GenreCount, error) {
	var rows []GenreCount
	query := `SELECT m.genre AS genre, COUNT(*) AS count
		FROM submissions s
		JOIN track_metadata m ON m.spotify_uri = s.spotify_uri
		WHERE s.submitter_id = ? AND m.genre IS NOT NULL
		GROUP BY m.genre
		ORDER BY count DESC, m.genre`
	if err := db.Select(&rows, query, competitorID); err != nil {
		return nil, fmt.Errorf("failed to break down genres for %s: %w", competitorID, err)
	}
	return rows, nil
}

// ClearImportedData removes all CSV-sourced rows before a re-import. Fetched
// track/artist metadata and derived tables survive; the pipeline recomputes
// what it needs from current state.
func (db *DB) ClearImportedData() error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"votes", "submissions", "rounds", "competitor_leagues", "competitors", "leagues"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
