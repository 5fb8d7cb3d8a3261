package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

func (db *DB) UpsertRound(round *domain.Round) error {
	query := `INSERT INTO rounds (id, league_id, name, description, playlist_url, created)
		VALUES (:id, :league_id, :name, :description, :playlist_url, :created)
		ON CONFLICT(id) DO UPDATE SET
			league_id = excluded.league_id,
			name = excluded.name,
			description = excluded.description,
			playlist_url = excluded.playlist_url,
			created = excluded.created`
	if _, err := db.NamedExec(query, round); err != nil {
		return fmt.Errorf("failed to upsert round %s: %w", round.ID, err)
	}
	return nil
}

func (db *DB) GetRound(id string) (*domain.Round, error) {
	var round domain.Round
	query := `SELECT id, league_id, name, description, playlist_url, created
		FROM rounds WHERE id = ?`
	if err := db.Get(&round, query, id); err != nil {
		return nil, err
	}
	return &round, nil
}

func (db *DB) ListRoundsByLeague(leagueID int64) ([]domain.Round, error) {
	var rounds []domain.Round
	query := `SELECT id, league_id, name, description, playlist_url, created
		FROM rounds WHERE league_id = ? ORDER BY created DESC`
	if err := db.Select(&rounds, query, leagueID); err != nil {
		return nil, fmt.Errorf("failed to list rounds for league %d: %w", leagueID, err)
	}
	return rounds, nil
}

// RecentRounds returns the newest rounds across all leagues, annotated with
// the league display name.
func (db *DB) RecentRounds(limit int) ([]domain.Round, error) {
	var rounds []domain.Round
	query := `SELECT r.id, r.league_id, r.name, r.description, r.playlist_url, r.created,
			l.name AS league_name
		FROM rounds r
		JOIN leagues l ON l.id = r.league_id
		ORDER BY r.created DESC
		LIMIT ?`
	if err := db.Select(&rounds, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent rounds: %w", err)
	}
	return rounds, nil
}
