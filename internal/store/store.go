// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for runs, splits and attempts.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			game TEXT NOT NULL,
			category TEXT NOT NULL,
			attempt_count INTEGER NOT NULL,
			completed_run_before INTEGER NOT NULL,
			world_record_ms INTEGER,
			world_record_owner TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (game, category)
		);`,
		`CREATE TABLE IF NOT EXISTS segments (
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			pb_ms INTEGER,
			best_ms INTEGER,
			reset_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			run_id INTEGER NOT NULL,
			ended_at TEXT NOT NULL,
			reached INTEGER NOT NULL,
			segments_total INTEGER NOT NULL,
			finished INTEGER NOT NULL,
			time_ms INTEGER NOT NULL,
			personal_best INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_run_ended ON attempts(run_id, ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save implements timing.Sink.
func (s *Store) Save(run model.RunRecord) error {
	return s.SaveRun(context.Background(), run)
}

// LogAttempt implements timing.AttemptLogger.
func (s *Store) LogAttempt(game, category string, attempt model.AttemptRecord) error {
	_, err := s.InsertAttempt(context.Background(), game, category, attempt)
	return err
}

// SaveRun upserts the run metadata and replaces its segments. Saving the same
// run twice leaves the database unchanged apart from updated_at.
func (s *Store) SaveRun(ctx context.Context, run model.RunRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (game, category, attempt_count, completed_run_before, world_record_ms, world_record_owner, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (game, category) DO UPDATE SET
			attempt_count = excluded.attempt_count,
			completed_run_before = excluded.completed_run_before,
			world_record_ms = excluded.world_record_ms,
			world_record_owner = excluded.world_record_owner,
			updated_at = excluded.updated_at`,
		run.Game,
		run.Category,
		run.AttemptCount,
		boolToInt(run.CompletedRunBefore),
		durationToMs(run.WorldRecord),
		run.WorldRecordOwner,
		time.Now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	var runID int64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM runs WHERE game = ? AND category = ?`, run.Game, run.Category).Scan(&runID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM segments WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (run_id, position, name, pb_ms, best_ms, reset_count)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, seg := range run.Segments {
		if _, err = stmt.ExecContext(ctx, runID, i, seg.Name, durationToMs(seg.PB), durationToMs(seg.Best), seg.ResetCount); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRun returns the persisted run for game and category. The boolean is
// false when the run has never been saved.
func (s *Store) LoadRun(ctx context.Context, game, category string) (model.RunRecord, bool, error) {
	run := model.RunRecord{Game: game, Category: category}
	var (
		runID     int64
		completed int
		wrMs      sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, attempt_count, completed_run_before, world_record_ms, world_record_owner
		 FROM runs WHERE game = ? AND category = ?`, game, category).
		Scan(&runID, &run.AttemptCount, &completed, &wrMs, &run.WorldRecordOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunRecord{}, false, nil
	}
	if err != nil {
		return model.RunRecord{}, false, err
	}
	run.CompletedRunBefore = completed != 0
	run.WorldRecord = msToDuration(wrMs)

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, pb_ms, best_ms, reset_count FROM segments WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return model.RunRecord{}, false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var seg model.SegmentRecord
		var pbMs, bestMs sql.NullInt64
		if err := rows.Scan(&seg.Name, &pbMs, &bestMs, &seg.ResetCount); err != nil {
			return model.RunRecord{}, false, err
		}
		seg.PB = msToDuration(pbMs)
		seg.Best = msToDuration(bestMs)
		run.Segments = append(run.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

// InsertAttempt stores an attempt for the run identified by game and category.
func (s *Store) InsertAttempt(ctx context.Context, game, category string, attempt model.AttemptRecord) (int64, error) {
	var runID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE game = ? AND category = ?`, game, category).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("run %s / %s has not been saved", game, category)
	}
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, ended_at, reached, segments_total, finished, time_ms, personal_best)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		attempt.EndedAt.Format(time.RFC3339Nano),
		attempt.Reached,
		attempt.SegmentsTotal,
		boolToInt(attempt.Finished),
		attempt.Time.Milliseconds(),
		boolToInt(attempt.PersonalBest),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttempts returns attempts for a run, oldest first, limited to the last
// n when n > 0.
func (s *Store) ListAttempts(ctx context.Context, game, category string, last int) ([]model.AttemptRecord, error) {
	query := `SELECT a.id, a.ended_at, a.reached, a.segments_total, a.finished, a.time_ms, a.personal_best
		FROM attempts a
		JOIN runs r ON r.id = a.run_id
		WHERE r.game = ? AND r.category = ?
		ORDER BY a.ended_at DESC, a.id DESC`
	args := []any{game, category}
	if last > 0 {
		query += ` LIMIT ?`
		args = append(args, last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var attempts []model.AttemptRecord
	for rows.Next() {
		var a model.AttemptRecord
		var endedAt string
		var finished, pb int
		var timeMs int64
		if err := rows.Scan(&a.ID, &endedAt, &a.Reached, &a.SegmentsTotal, &finished, &timeMs, &pb); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		a.EndedAt = parsed
		a.Finished = finished != 0
		a.PersonalBest = pb != 0
		a.Time = time.Duration(timeMs) * time.Millisecond
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(attempts)-1; i < j; i, j = i+1, j-1 {
		attempts[i], attempts[j] = attempts[j], attempts[i]
	}
	return attempts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func durationToMs(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}

func msToDuration(ms sql.NullInt64) *time.Duration {
	if !ms.Valid {
		return nil
	}
	d := time.Duration(ms.Int64) * time.Millisecond
	return &d
}
