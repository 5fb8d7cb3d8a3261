package store

import (
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
)

func (db *DB) UpsertLeague(league *domain.League) error {
	query := `INSERT INTO leagues (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`
	if _, err := db.Exec(query, league.ID, league.Name); err != nil {
		return fmt.Errorf("failed to upsert league %d: %w", league.ID, err)
	}
	return nil
}

func (db *DB) GetLeague(id int64) (*domain.League, error) {
	var league domain.League
	if err := db.Get(&league, `SELECT * FROM leagues WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &league, nil
}

func (db *DB) ListLeagues() ([]domain.League, error) {
	var leagues []domain.League
	if err := db.Select(&leagues, `SELECT * FROM leagues ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	return leagues, nil
}
