package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jpvargas/leaguedash/internal/domain"
)

const trackMetadataInsert = `INSERT INTO track_metadata
	(spotify_uri, name, artists, album, album_id, release_date, duration_ms, explicit,
	 popularity, preview_url, spotify_url,
	 energy, danceability, valence, acousticness, instrumentalness, liveness, speechiness,
	 tempo, key_value, mode, time_signature, loudness,
	 genre, all_genres, fetched_at, updated_at)
	VALUES
	(:spotify_uri, :name, :artists, :album, :album_id, :release_date, :duration_ms, :explicit,
	 :popularity, :preview_url, :spotify_url,
	 :energy, :danceability, :valence, :acousticness, :instrumentalness, :liveness, :speechiness,
	 :tempo, :key_value, :mode, :time_signature, :loudness,
	 :genre, :all_genres, :fetched_at, :updated_at)`

const trackMetadataOverwrite = ` ON CONFLICT(spotify_uri) DO UPDATE SET
	name = excluded.name,
	artists = excluded.artists,
	album = excluded.album,
	album_id = excluded.album_id,
	release_date = excluded.release_date,
	duration_ms = excluded.duration_ms,
	explicit = excluded.explicit,
	popularity = excluded.popularity,
	preview_url = excluded.preview_url,
	spotify_url = excluded.spotify_url,
	fetched_at = excluded.fetched_at,
	updated_at = excluded.updated_at`

// UpsertTrackMetadata writes track records keyed by URI. With overwrite set,
// an existing record's catalog fields are replaced (derived genre fields are
// left alone, genre propagation owns those); without it, existing records
// are untouched so a re-run cannot drift fields.
func (db *DB) UpsertTrackMetadata(tracks []domain.TrackMetadata, overwrite bool) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}

	query := trackMetadataInsert
	if overwrite {
		query += trackMetadataOverwrite
	} else {
		query += ` ON CONFLICT(spotify_uri) DO NOTHING`
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareNamed(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	written := 0
	for i := range tracks {
		result, err := stmt.Exec(&tracks[i])
		if err != nil {
			return written, fmt.Errorf("failed to upsert track %s: %w", tracks[i].SpotifyURI, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			written += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return written, nil
}

func (db *DB) GetTrackMetadata(spotifyURI string) (*domain.TrackMetadata, error) {
	var track domain.TrackMetadata
	err := db.Get(&track, `SELECT * FROM track_metadata WHERE spotify_uri = ?`, spotifyURI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (db *DB) AllTrackMetadata() ([]domain.TrackMetadata, error) {
	var tracks []domain.TrackMetadata
	if err := db.Select(&tracks, `SELECT * FROM track_metadata ORDER BY spotify_uri`); err != nil {
		return nil, fmt.Errorf("failed to list track metadata: %w", err)
	}
	return tracks, nil
}

// TrackMetadataForURIs returns the records for the given URIs; URIs without
// a record are simply absent from the result.
func (db *DB) TrackMetadataForURIs(uris []string) ([]domain.TrackMetadata, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM track_metadata WHERE spotify_uri IN (?)`, uris)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata lookup: %w", err)
	}
	var tracks []domain.TrackMetadata
	if err := db.Select(&tracks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to look up metadata: %w", err)
	}
	return tracks, nil
}

// TrackURIsWithMetadata returns the set of URIs that already have a record.
func (db *DB) TrackURIsWithMetadata() (map[string]bool, error) {
	var uris []string
	if err := db.Select(&uris, `SELECT spotify_uri FROM track_metadata`); err != nil {
		return nil, fmt.Errorf("failed to list metadata uris: %w", err)
	}
	existing := make(map[string]bool, len(uris))
	for _, uri := range uris {
		existing[uri] = true
	}
	return existing, nil
}

func (db *DB) CountTrackMetadata() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM track_metadata`)
	return count, err
}

// GenreUpdate carries the derived genre fields for one track.
type GenreUpdate struct {
	SpotifyURI string
	Genre      *string
	AllGenres  domain.StringSlice
}

// UpdateTrackGenres bulk-writes derived genre fields keyed by track URI.
func (db *DB) UpdateTrackGenres(updates []GenreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin genre update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Preparex(`UPDATE track_metadata
		SET genre = ?, all_genres = ?, updated_at = ?
		WHERE spotify_uri = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare genre update: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	now := time.Now().UTC()
	for _, u := range updates {
		if _, err := stmt.Exec(u.Genre, u.AllGenres, now, u.SpotifyURI); err != nil {
			return fmt.Errorf("failed to update genres for %s: %w", u.SpotifyURI, err)
		}
	}

	return tx.Commit()
}

// PopularityUpdate carries a refreshed popularity score for one track.
type PopularityUpdate struct {
	SpotifyURI string
	Popularity int
}

// UpdateTrackPopularity bulk-writes refreshed popularity scores.
func (db *DB) UpdateTrackPopularity(updates []PopularityUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin popularity update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Preparex(`UPDATE track_metadata
		SET popularity = ?, updated_at = ?
		WHERE spotify_uri = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare popularity update: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	now := time.Now().UTC()
	updated := 0
	for _, u := range updates {
		result, err := stmt.Exec(u.Popularity, now, u.SpotifyURI)
		if err != nil {
			return updated, fmt.Errorf("failed to update popularity for %s: %w", u.SpotifyURI, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			updated += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return updated, err
	}
	return updated, nil
}
