package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS land_cover_stats (
			year INTEGER NOT NULL,
			category_code INTEGER NOT NULL,
			name TEXT NOT NULL,
			total_land_cover_hectares REAL NOT NULL,
			burned_hectares REAL NOT NULL,
			PRIMARY KEY (year, category_code)
		);

		CREATE TABLE IF NOT EXISTS population (
			year INTEGER PRIMARY KEY,
			affected REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_land_cover_stats_year ON land_cover_stats(year);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ImportStatistics replaces the stored statistics with t and returns how
// many records were written.
func (s *SQLiteDB) ImportStatistics(ctx context.Context, t *stats.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM land_cover_stats`); err != nil {
		return 0, fmt.Errorf("error clearing statistics: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO land_cover_stats (year, category_code, name, total_land_cover_hectares, burned_hectares)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	var (
		count  int
		insErr error
	)
	t.Each(func(year int, r models.LandCoverRecord) {
		if insErr != nil {
			return
		}
		if _, err := stmt.ExecContext(ctx, year, r.CategoryCode, r.Name, r.TotalLandCoverHectares, r.BurnedHectares); err != nil {
			insErr = fmt.Errorf("error inserting category %d for %d: %w", r.CategoryCode, year, err)
			return
		}
		count++
	})
	if insErr != nil {
		return 0, insErr
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing statistics: %w", err)
	}
	return count, nil
}

// ImportPopulation replaces the stored population with p.
func (s *SQLiteDB) ImportPopulation(ctx context.Context, p *stats.PopulationTable) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM population`); err != nil {
		return 0, fmt.Errorf("error clearing population: %w", err)
	}

	count := 0
	for _, year := range p.Years() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO population (year, affected) VALUES (?, ?)
		`, year, p.ForYear(year))
		if err != nil {
			return 0, fmt.Errorf("error inserting population for %d: %w", year, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing population: %w", err)
	}
	return count, nil
}

func (s *SQLiteDB) LoadStatistics(ctx context.Context) (*stats.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, category_code, name, total_land_cover_hectares, burned_hectares
		FROM land_cover_stats
		ORDER BY year, category_code
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying statistics: %w", err)
	}
	defer rows.Close()

	records := make(map[int][]models.LandCoverRecord)
	for rows.Next() {
		var (
			year int
			r    models.LandCoverRecord
		)
		if err := rows.Scan(&year, &r.CategoryCode, &r.Name, &r.TotalLandCoverHectares, &r.BurnedHectares); err != nil {
			return nil, fmt.Errorf("error scanning statistics row: %w", err)
		}
		records[year] = append(records[year], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statistics: %w", err)
	}

	return stats.NewTable(records)
}

func (s *SQLiteDB) LoadPopulation(ctx context.Context) (*stats.PopulationTable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, affected FROM population`)
	if err != nil {
		return nil, fmt.Errorf("error querying population: %w", err)
	}
	defer rows.Close()

	values := make(map[int]float64)
	for rows.Next() {
		var (
			year     int
			affected float64
		)
		if err := rows.Scan(&year, &affected); err != nil {
			return nil, fmt.Errorf("error scanning population row: %w", err)
		}
		values[year] = affected
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating population: %w", err)
	}

	return stats.NewPopulationTable(values), nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
