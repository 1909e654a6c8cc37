// ABOUTME: Legacy SQLite schema definition and in-place upgrades.
// ABOUTME: Older databases gain the time and sets_completed exercise columns with defaults.
package legacy

import (
	"fmt"
)

// initSchema creates the tables. There are no foreign keys: legacy data
// may hold dangling references and must load as-is.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS routines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		routine_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		repetitions INTEGER NOT NULL DEFAULT 0,
		weight REAL NOT NULL DEFAULT 0,
		sets INTEGER NOT NULL DEFAULT 0,
		distance REAL NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exercise_photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exercise_id INTEGER NOT NULL,
		blob BLOB NOT NULL,
		mime_type TEXT NOT NULL DEFAULT 'image/jpeg',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_routines_date ON routines(date);
	CREATE INDEX IF NOT EXISTS idx_exercises_routine ON exercises(routine_id);
	CREATE INDEX IF NOT EXISTS idx_photos_exercise ON exercise_photos(exercise_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// columnUpgrades are the exercise columns added after the first schema
// version, applied in order.
var columnUpgrades = []struct {
	column string
	ddl    string
}{
	{"time", "ALTER TABLE exercises ADD COLUMN time TEXT NOT NULL DEFAULT '00:00'"},
	{"sets_completed", "ALTER TABLE exercises ADD COLUMN sets_completed INTEGER NOT NULL DEFAULT 0"},
}

func (s *Store) upgrade() error {
	cols, err := s.columns("exercises")
	if err != nil {
		return err
	}
	for _, u := range columnUpgrades {
		if cols[u.column] {
			continue
		}
		if _, err := s.db.Exec(u.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", u.column, err)
		}
	}
	return nil
}

func (s *Store) columns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
