package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

func (db *DB) InsertSubmission(submission *domain.Submission) error {
	query := `INSERT INTO submissions
		(round_id, league_id, submitter_id, spotify_uri, title, artists, album, comment, created)
		VALUES (:round_id, :league_id, :submitter_id, :spotify_uri, :title, :artists, :album, :comment, :created)`
	result, err := db.NamedExec(query, submission)
	if err != nil {
		return fmt.Errorf("failed to insert submission for %s: %w", submission.SpotifyURI, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	submission.ID = id
	return nil
}

func (db *DB) ListSubmissionsByRound(roundID string) ([]domain.Submission, error) {
	var submissions []domain.Submission
	query := `SELECT * FROM submissions WHERE round_id = ? ORDER BY id`
	if err := db.Select(&submissions, query, roundID); err != nil {
		return nil, fmt.Errorf("failed to list submissions for round %s: %w", roundID, err)
	}
	return submissions, nil
}

// DistinctSubmissionURIs returns the distinct set of track URIs referenced
// by all submissions, in first-seen order.
func (db *DB) DistinctSubmissionURIs() ([]string, error) {
	var uris []string
	query := `SELECT spotify_uri FROM submissions GROUP BY spotify_uri ORDER BY MIN(id)`
	if err := db.Select(&uris, query); err != nil {
		return nil, fmt.Errorf("failed to collect distinct submission uris: %w", err)
	}
	return uris, nil
}

// SubmissionGroup is one track URI with its submission count and a sample
// title/artist fallback kept for when metadata is absent.
type SubmissionGroup struct {
	SpotifyURI    string             `db:"spotify_uri"`
	Count         int                `db:"count"`
	SampleTitle   string             `db:"sample_title"`
	SampleArtists domain.StringSlice `db:"sample_artists"`
}

func (db *DB) GroupSubmissionsByURI() ([]SubmissionGroup, error) {
	var groups []SubmissionGroup
	query := `SELECT spotify_uri,
			COUNT(*) AS count,
			MIN(title) AS sample_title,
			MIN(artists) AS sample_artists
		FROM submissions
		GROUP BY spotify_uri
		ORDER BY MIN(id)`
	if err := db.Select(&groups, query); err != nil {
		return nil, fmt.Errorf("failed to group submissions: %w", err)
	}
	return groups, nil
}
