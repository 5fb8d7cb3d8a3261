package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// UpsertArtistMetadata writes artist records keyed by artist id. Artist
// attributes change over time (genres, popularity, followers), so the upsert
// always overwrites: last write wins, never a second document.
func (db *DB) UpsertArtistMetadata(artists []domain.ArtistMetadata) (int, error) {
	if len(artists) == 0 {
		return 0, nil
	}

	query := `INSERT INTO artist_metadata
		(artist_id, artist_uri, name, genres, popularity, followers, images, spotify_url, fetched_at, updated_at)
		VALUES (:artist_id, :artist_uri, :name, :genres, :popularity, :followers, :images, :spotify_url, :fetched_at, :updated_at)
		ON CONFLICT(artist_id) DO UPDATE SET
			artist_uri = excluded.artist_uri,
			name = excluded.name,
			genres = excluded.genres,
			popularity = excluded.popularity,
			followers = excluded.followers,
			images = excluded.images,
			spotify_url = excluded.spotify_url,
			updated_at = excluded.updated_at`

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin artist upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareNamed(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare artist upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	written := 0
	for i := range artists {
		if _, err := stmt.Exec(&artists[i]); err != nil {
			return written, fmt.Errorf("failed to upsert artist %s: %w", artists[i].ArtistID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit artist upsert: %w", err)
	}
	return written, nil
}

func (db *DB) GetArtistMetadata(artistID string) (*domain.ArtistMetadata, error) {
	var artist domain.ArtistMetadata
	err := db.Get(&artist, `SELECT * FROM artist_metadata WHERE artist_id = ?`, artistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (db *DB) AllArtistMetadata() ([]domain.ArtistMetadata, error) {
	var artists []domain.ArtistMetadata
	if err := db.Select(&artists, `SELECT * FROM artist_metadata ORDER BY artist_id`); err != nil {
		return nil, fmt.Errorf("failed to list artist metadata: %w", err)
	}
	return artists, nil
}

// ArtistIDsWithMetadata returns the set of artist ids that already have a record.
func (db *DB) ArtistIDsWithMetadata() (map[string]bool, error) {
	var ids []string
	if err := db.Select(&ids, `SELECT artist_id FROM artist_metadata`); err != nil {
		return nil, fmt.Errorf("failed to list artist ids: %w", err)
	}
	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}

func (db *DB) CountArtistMetadata() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM artist_metadata`)
	return count, err
}
