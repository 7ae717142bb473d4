package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/amr2daide/internal/model"
)

// timeFormat sorts lexically in time order
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.Mutex
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		input       TEXT NOT NULL,
		digest      TEXT NOT NULL,
		total       INTEGER NOT NULL,
		full_count    INTEGER NOT NULL DEFAULT 0,
		partial_count INTEGER NOT NULL DEFAULT 0,
		none_count    INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS run_records (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		record_id   TEXT NOT NULL,
		status      TEXT NOT NULL,
		daide       TEXT,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_run_records_id ON run_records(run_id, record_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, p SaveParams) (*Run, error) {
	started := p.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	started = started.UTC()

	run := &Run{
		ID:        s.newID(started),
		StartedAt: started,
		Input:     p.Input,
		Digest:    p.Digest,
		Total:     len(p.Records),
		Counts:    make(map[model.Status]int),
		Records:   p.Records,
	}
	for _, r := range p.Records {
		run.Counts[r.Status]++
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input, digest, total, full_count, partial_count, none_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, started.Format(timeFormat), run.Input, run.Digest, run.Total,
		run.Counts[model.StatusFull], run.Counts[model.StatusPartial], run.Counts[model.StatusNone])
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_records (run_id, seq, record_id, status, daide) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range p.Records {
		var daide *string
		if r.DAIDE != "" {
			d := r.DAIDE
			daide = &d
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.Seq, r.ID, string(r.Status), daide); err != nil {
			return nil, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, input, digest, total, full_count, partial_count, none_count
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string, withRecords bool) (*Run, error) {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, started_at, input, digest, total, full_count, partial_count, none_count
		 FROM runs WHERE id = ?`, full))
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", full, err)
	}

	if withRecords {
		records, err := s.records(ctx, full)
		if err != nil {
			return nil, err
		}
		r.Records = records
	}
	return &r, nil
}

func (s *SQLiteStore) DiffRuns(ctx context.Context, from, to string) (*Diff, error) {
	a, err := s.GetRun(ctx, from, true)
	if err != nil {
		return nil, err
	}
	b, err := s.GetRun(ctx, to, true)
	if err != nil {
		return nil, err
	}
	return Compare(a, b), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// resolveID expands a unique id prefix (case-insensitive, ULIDs are upper
// case) to a full run id
func (s *SQLiteStore) resolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? || '%' ORDER BY id LIMIT 2`, strings.ToUpper(prefix))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
	}
}

func (s *SQLiteStore) records(ctx context.Context, runID string) ([]RecordRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, record_id, status, daide FROM run_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		var status string
		var daide sql.NullString
		if err := rows.Scan(&r.Seq, &r.ID, &status, &daide); err != nil {
			return nil, err
		}
		r.Status = model.Status(status)
		r.DAIDE = daide.String
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var startedAt string
	var full, partial, none int

	if err := row.Scan(&r.ID, &startedAt, &r.Input, &r.Digest, &r.Total, &full, &partial, &none); err != nil {
		return r, err
	}
	if t, err := time.Parse(timeFormat, startedAt); err == nil {
		r.StartedAt = t
	}
	r.Counts = map[model.Status]int{
		model.StatusFull:    full,
		model.StatusPartial: partial,
		model.StatusNone:    none,
	}
	return r, nil
}
