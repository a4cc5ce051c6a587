package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"relbench/internal/compare"
)

// timestampLayout is fixed-width so that text order is time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRecord is one recorded comparison.
type RunRecord struct {
	ID        string                `json:"id" yaml:"id" toml:"id"`
	Project   string                `json:"project" yaml:"project" toml:"project"`
	Level     string                `json:"level" yaml:"level" toml:"level"`
	Tools     []compare.ToolSummary `json:"tools" yaml:"tools" toml:"tools"`
	Shared    int                   `json:"shared" yaml:"shared" toml:"shared"`
	Union     int                   `json:"union" yaml:"union" toml:"union"`
	Histogram []compare.Bucket      `json:"histogram" yaml:"histogram" toml:"histogram"`
	// Excluded lists "tool:reason" pairs for tools left out of the run.
	Excluded  []string      `json:"excluded,omitempty" yaml:"excluded,omitempty" toml:"excluded,omitempty"`
	Duration  time.Duration `json:"durationNs" yaml:"durationNs" toml:"durationNs"`
	CreatedAt time.Time     `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
}

// NewRunRecord builds a record from a comparison summary.
func NewRunRecord(project, level string, summary compare.Summary, excluded []string, duration time.Duration) *RunRecord {
	return &RunRecord{
		Project:   project,
		Level:     level,
		Tools:     summary.Tools,
		Shared:    summary.Shared,
		Union:     summary.Union,
		Histogram: summary.Histogram,
		Excluded:  excluded,
		Duration:  duration,
	}
}

// SaveRun stores a run. An empty ID is filled with a fresh UUID and a zero
// CreatedAt with the current time; the stored ID is returned.
func (db *DB) SaveRun(rec *RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, project, level, shared_count, union_count, excluded, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.Project, rec.Level, rec.Shared, rec.Union,
			strings.Join(rec.Excluded, ","), rec.Duration.Milliseconds(),
			rec.CreatedAt.UTC().Format(timestampLayout))
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for i, t := range rec.Tools {
			if _, err := tx.Exec(`
				INSERT INTO run_tools (run_id, position, label, total, unique_count)
				VALUES (?, ?, ?, ?, ?)
			`, rec.ID, i, t.Label, t.Total, t.Unique); err != nil {
				return fmt.Errorf("failed to insert run tool %s: %w", t.Label, err)
			}
		}

		for _, b := range rec.Histogram {
			if _, err := tx.Exec(`
				INSERT INTO run_histogram (run_id, multiplicity, count)
				VALUES (?, ?, ?)
			`, rec.ID, b.Multiplicity, b.Count); err != nil {
				return fmt.Errorf("failed to insert histogram bucket: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	db.logger.Debug("Recorded run", "id", rec.ID, "project", rec.Project, "level", rec.Level)
	return rec.ID, nil
}

// ListRuns returns the most recent runs first. An empty project lists every
// project; limit <= 0 means no limit.
func (db *DB) ListRuns(project string, limit int) ([]*RunRecord, error) {
	query := `SELECT id, project, level, shared_count, union_count, excluded, duration_ms, created_at FROM runs`
	var args []interface{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, rec := range runs {
		if err := db.loadDetails(rec); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRun returns the run with the given ID, or nil when none exists.
func (db *DB) GetRun(id string) (*RunRecord, error) {
	row := db.QueryRow(`
		SELECT id, project, level, shared_count, union_count, excluded, duration_ms, created_at
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := db.loadDetails(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		excluded   string
		durationMs int64
		createdAt  string
	)
	if err := s.Scan(&rec.ID, &rec.Project, &rec.Level, &rec.Shared, &rec.Union, &excluded, &durationMs, &createdAt); err != nil {
		return nil, err
	}
	if excluded != "" {
		rec.Excluded = strings.Split(excluded, ",")
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	t, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %s has invalid timestamp %q: %w", rec.ID, createdAt, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

func (db *DB) loadDetails(rec *RunRecord) error {
	rows, err := db.Query(`SELECT label, total, unique_count FROM run_tools WHERE run_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load run tools: %w", err)
	}
	for rows.Next() {
		var t compare.ToolSummary
		if err := rows.Scan(&t.Label, &t.Total, &t.Unique); err != nil {
			_ = rows.Close()
			return err
		}
		rec.Tools = append(rec.Tools, t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	rows, err = db.Query(`SELECT multiplicity, count FROM run_histogram WHERE run_id = ? ORDER BY multiplicity`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load run histogram: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b compare.Bucket
		if err := rows.Scan(&b.Multiplicity, &b.Count); err != nil {
			return err
		}
		rec.Histogram = append(rec.Histogram, b)
	}
	return rows.Err()
}
