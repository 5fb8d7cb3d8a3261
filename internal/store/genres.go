package store

import (
	"fmt"
	"time"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// RebuildGenres recomputes the genre taxonomy from artist_metadata: one row
// per distinct genre with the number of artists carrying it (an artist with N
// genres contributes to N rows). The delete and repopulate happen in one
// transaction so readers never observe a window of emptiness or a mix of
// stale and fresh counts.
func (db *DB) RebuildGenres() (int, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin taxonomy rebuild: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM genres`); err != nil {
		return 0, fmt.Errorf("failed to clear genres: %w", err)
	}

	query := `INSERT INTO genres (name, artist_count, updated_at)
		SELECT je.value, COUNT(*), ?
		FROM artist_metadata am, json_each(am.genres) je
		GROUP BY je.value`
	result, err := tx.Exec(query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to repopulate genres: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit taxonomy rebuild: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListGenres returns the taxonomy sorted by artist count descending.
func (db *DB) ListGenres() ([]domain.Genre, error) {
	var genres []domain.Genre
	query := `SELECT * FROM genres ORDER BY artist_count DESC, name`
	if err := db.Select(&genres, query); err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

// SearchGenres matches genre names by case-insensitive substring.
func (db *DB) SearchGenres(q string) ([]domain.Genre, error) {
	var genres []domain.Genre
	query := `SELECT * FROM genres
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY artist_count DESC, name`
	if err := db.Select(&genres, query, q); err != nil {
		return nil, fmt.Errorf("failed to search genres: %w", err)
	}
	return genres, nil
}

// TracksByGenre returns track metadata whose allGenres list contains the
// given genre name.
func (db *DB) TracksByGenre(name string) ([]domain.TrackMetadata, error) {
	var tracks []domain.TrackMetadata
	query := `SELECT * FROM track_metadata tm
		WHERE EXISTS (SELECT 1 FROM json_each(tm.all_genres) WHERE value = ?)
		ORDER BY tm.spotify_uri`
	if err := db.Select(&tracks, query, name); err != nil {
		return nil, fmt.Errorf("failed to list tracks for genre %s: %w", name, err)
	}
	return tracks, nil
}
