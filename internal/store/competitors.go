package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// UpsertCompetitor creates the competitor if missing and appends the league
// membership. Memberships only grow; re-importing never removes one.
func (db *DB) UpsertCompetitor(competitor *domain.Competitor, leagueID int64) error {
	query := `INSERT INTO competitors (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`
	if _, err := db.Exec(query, competitor.ID, competitor.Name); err != nil {
		return fmt.Errorf("failed to upsert competitor %s: %w", competitor.ID, err)
	}

	membership := `INSERT INTO competitor_leagues (competitor_id, league_id) VALUES (?, ?)
		ON CONFLICT(competitor_id, league_id) DO NOTHING`
	if _, err := db.Exec(membership, competitor.ID, leagueID); err != nil {
		return fmt.Errorf("failed to add league membership for %s: %w", competitor.ID, err)
	}
	return nil
}

func (db *DB) GetCompetitor(id string) (*domain.Competitor, error) {
	var competitor domain.Competitor
	if err := db.Get(&competitor, `SELECT * FROM competitors WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := db.Select(&competitor.Leagues,
		`SELECT league_id FROM competitor_leagues WHERE competitor_id = ? ORDER BY league_id`, id); err != nil {
		return nil, fmt.Errorf("failed to load memberships for %s: %w", id, err)
	}
	return &competitor, nil
}

func (db *DB) ListCompetitorsByLeague(leagueID int64) ([]domain.Competitor, error) {
	var competitors []domain.Competitor
	query := `SELECT c.id, c.name FROM competitors c
		JOIN competitor_leagues cl ON cl.competitor_id = c.id
		WHERE cl.league_id = ?
		ORDER BY c.name`
	if err := db.Select(&competitors, query, leagueID); err != nil {
		return nil, fmt.Errorf("failed to list competitors for league %d: %w", leagueID, err)
	}
	return competitors, nil
}

func (db *DB) CountCompetitorsByLeague(leagueID int64) (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM competitor_leagues WHERE league_id = ?`, leagueID)
	return count, err
}
