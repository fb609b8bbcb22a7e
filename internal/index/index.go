// Package index maintains a SQLite read model of the lap table for fast
// driver/track/date search. The CSV file stays the source of truth; the
// index is rebuilt from it and can be deleted at any time.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS laps (
	row_id       INTEGER PRIMARY KEY,
	date         TEXT NOT NULL,
	time         TEXT NOT NULL,
	heat         INTEGER NOT NULL,
	track        TEXT NOT NULL,
	driver       TEXT NOT NULL,
	position     INTEGER NOT NULL,
	lap_number   INTEGER NOT NULL,
	lap_time     REAL NOT NULL,
	best_lap     TEXT NOT NULL,
	source       TEXT NOT NULL,
	weather      TEXT NOT NULL,
	avg_speed    REAL NOT NULL,
	notes        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_laps_driver ON laps(driver);
CREATE INDEX IF NOT EXISTS idx_laps_track_date ON laps(track, date);
`

// Index is the SQLite-backed search mirror.
type Index struct {
	db   *sql.DB
	path string
}

// Open creates or opens the index database. If dataDir is empty it
// defaults to ~/.karting/data.
func Open(dataDir string) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".karting", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "laps.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	return &Index{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Rebuild replaces the whole index with the given rows inside one
// transaction.
func (i *Index) Rebuild(ctx context.Context, rows []domain.LapRow) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning index rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM laps"); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO laps (row_id, date, time, heat, track, driver, position,
			lap_number, lap_time, best_lap, source, weather, avg_speed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing index insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.RowID, row.Date, row.Time, row.Heat, row.Track, row.Driver,
			row.Position, row.LapNumber, row.LapTime, row.BestLap,
			row.Source, row.Weather, row.AvgSpeed, row.Notes,
		); err != nil {
			return fmt.Errorf("indexing row %d: %w", row.RowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index rebuild: %w", err)
	}
	logger.Debug("rebuilt search index with %d rows", len(rows))
	return nil
}

// Query filters indexed laps. Empty filter fields match everything;
// driver and track match as case-insensitive substrings, date matches
// exactly.
type Query struct {
	Driver string
	Track  string
	Date   string
}

// Hit is one indexed lap returned from a search.
type Hit struct {
	RowID     int
	Date      string
	Time      string
	Heat      int
	Track     string
	Driver    string
	Position  int
	LapNumber int
	LapTime   float64
	BestLap   string
	Source    string
	Weather   string
	AvgSpeed  float64
	Notes     string
}

// Search returns laps matching the query, fastest first.
func (i *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	where := "1=1"
	args := []any{}
	if q.Driver != "" {
		where += " AND driver LIKE ?"
		args = append(args, "%"+q.Driver+"%")
	}
	if q.Track != "" {
		where += " AND track LIKE ?"
		args = append(args, "%"+q.Track+"%")
	}
	if q.Date != "" {
		where += " AND date = ?"
		args = append(args, q.Date)
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT row_id, date, time, heat, track, driver, position,
			lap_number, lap_time, best_lap, source, weather, avg_speed, notes
		FROM laps WHERE `+where+` ORDER BY lap_time ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.RowID, &h.Date, &h.Time, &h.Heat, &h.Track,
			&h.Driver, &h.Position, &h.LapNumber, &h.LapTime, &h.BestLap,
			&h.Source, &h.Weather, &h.AvgSpeed, &h.Notes); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
