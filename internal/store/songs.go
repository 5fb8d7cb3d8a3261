package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// UpsertSongs writes derived song records keyed by their metadata URI so the
// rebuild is idempotent.
func (db *DB) UpsertSongs(songs []domain.Song) (int, error) {
	if len(songs) == 0 {
		return 0, nil
	}

	query := `INSERT INTO songs (metadata_uri, name, artists, genres, submission_count, updated_at)
		VALUES (:metadata_uri, :name, :artists, :genres, :submission_count, :updated_at)
		ON CONFLICT(metadata_uri) DO UPDATE SET
			name = excluded.name,
			artists = excluded.artists,
			genres = excluded.genres,
			submission_count = excluded.submission_count,
			updated_at = excluded.updated_at`

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin song upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareNamed(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare song upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	written := 0
	for i := range songs {
		if _, err := stmt.Exec(&songs[i]); err != nil {
			return written, fmt.Errorf("failed to upsert song %s: %w", songs[i].MetadataURI, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit song upsert: %w", err)
	}
	return written, nil
}

func (db *DB) ListDerivedSongs() ([]domain.Song, error) {
	var songs []domain.Song
	if err := db.Select(&songs, `SELECT * FROM songs ORDER BY submission_count DESC, name`); err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

func (db *DB) CountDerivedSongs() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM songs`)
	return count, err
}
