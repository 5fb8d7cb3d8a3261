package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

func (db *DB) InsertVote(vote *domain.Vote) error {
	query := `INSERT INTO votes (id, round_id, league_id, voter_id, spotify_uri, points, comment)
		VALUES (:id, :round_id, :league_id, :voter_id, :spotify_uri, :points, :comment)
		ON CONFLICT(id) DO UPDATE SET
			points = excluded.points,
			comment = excluded.comment`
	if _, err := db.NamedExec(query, vote); err != nil {
		return fmt.Errorf("failed to insert vote %s: %w", vote.ID, err)
	}
	return nil
}

func (db *DB) ListVotesByRound(roundID string) ([]domain.Vote, error) {
	var votes []domain.Vote
	query := `SELECT * FROM votes WHERE round_id = ? ORDER BY id`
	if err := db.Select(&votes, query, roundID); err != nil {
		return nil, fmt.Errorf("failed to list votes for round %s: %w", roundID, err)
	}
	return votes, nil
}
