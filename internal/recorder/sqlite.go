package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"GradeSentinel/internal/model"
)

// SQLiteRecorder persists cycle and event history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the history command can read while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS check_cycles (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			trigger_type TEXT,
			status     TEXT,
			error      TEXT,
			courses    INTEGER,
			events     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON check_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS grade_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			kind       TEXT NOT NULL,
			course     TEXT,
			item       TEXT,
			old_score  REAL,
			new_score  REAL,
			old_value  REAL,
			new_value  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON grade_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_course ON grade_events(course)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO check_cycles
		(cycle_id, timestamp, trigger_type, status, error, courses, events)
		VALUES (?,?,?,?,?,?,?)`,
		rec.CycleID, rec.StartedAt.Unix(), string(rec.Trigger),
		rec.Status, rec.Error, rec.Courses, rec.Events,
	)
	return err
}

func (r *SQLiteRecorder) RecordEvents(cycleID string, at time.Time, events []model.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO grade_events
		(cycle_id, timestamp, kind, course, item, old_score, new_score, old_value, new_value)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		oldValue, newValue := e.Old, e.New
		if e.Kind == model.EventBaseline {
			oldValue, newValue = e.Achieved, e.Percentage
		}
		if _, err := stmt.Exec(cycleID, at.Unix(), string(e.Kind), e.Course, e.Item,
			nullFloat(e.OldScore), nullFloat(e.NewScore), oldValue, newValue); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// RecentEvents returns up to limit events, newest first.
func (r *SQLiteRecorder) RecentEvents(limit int) ([]EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT cycle_id, timestamp, kind, course, item,
		old_score, new_score, old_value, new_value
		FROM grade_events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			rec      EventRecord
			ts       int64
			kind     string
			oldScore sql.NullFloat64
			newScore sql.NullFloat64
		)
		if err := rows.Scan(&rec.CycleID, &ts, &kind, &rec.Course, &rec.Item,
			&oldScore, &newScore, &rec.Old, &rec.New); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.Kind = model.EventKind(kind)
		rec.OldScore = floatPtr(oldScore)
		rec.NewScore = floatPtr(newScore)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
