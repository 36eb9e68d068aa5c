// Package sqlite stores panel observations in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	apperrors "capflow/internal/errors"
	"capflow/internal/store"
	"capflow/pkg/contracts/domain"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(path string) (*Store, error) {
	if path == "" {
		return nil, apperrors.NewConfigError("sqlite: path is required", nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err).WithContext("path", path)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("failed to migrate database", err).WithContext("path", path)
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SavePanels replaces the stored cells of every given panel in one
// transaction. Cells that are missing in the panel are removed from the
// database, so a value that disappears upstream does not linger.
func (s *Store) SavePanels(ctx context.Context, panels []*domain.Panel) error {
	if err := s.replace(ctx, panels); err != nil {
		return apperrors.NewStorageError("failed to save panels", err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, panels []*domain.Panel) (err error) {
	if len(panels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range panels {
		if _, err = tx.ExecContext(ctx, `DELETE FROM observations WHERE dataset = ?`, p.Name); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (dataset, key, series, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(dataset, key, series)
		DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range store.Flatten(panels) {
		if _, err = stmt.ExecContext(ctx, o.Dataset, o.Key, o.Series, o.Value, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Observations returns the stored cells of dataset ordered by key and series.
func (s *Store) Observations(ctx context.Context, dataset string) ([]store.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset, key, series, value
		FROM observations
		WHERE dataset = ?
		ORDER BY key, series
	`, dataset)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query observations", err).WithContext("dataset", dataset)
	}
	defer rows.Close()

	var out []store.Observation
	for rows.Next() {
		var o store.Observation
		if err := rows.Scan(&o.Dataset, &o.Key, &o.Series, &o.Value); err != nil {
			return nil, apperrors.NewStorageError("failed to scan observation", err).WithContext("dataset", dataset)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read observations", err).WithContext("dataset", dataset)
	}
	return out, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			dataset TEXT NOT NULL,
			key TEXT NOT NULL,
			series TEXT NOT NULL,
			value REAL NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (dataset, key, series)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
