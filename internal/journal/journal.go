// Package journal keeps a SQLite manifest of generation runs: which paths
// each run created, wrote or skipped, and a hash of the bytes written. It
// answers which generated files were edited by hand since.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/materialize"
	"github.com/agentic-research/fsbuild/internal/sink"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite"
)

// Dir and FileName locate the journal inside an output directory.
const (
	Dir      = ".fsbuild"
	FileName = "journal.db"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	description TEXT NOT NULL,
	base TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	run_id TEXT NOT NULL REFERENCES runs(id),
	seq INTEGER NOT NULL,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	outcome TEXT NOT NULL,
	hash TEXT,
	PRIMARY KEY (run_id, seq)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
`

// Journal is an open manifest database.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Run is one recorded generation.
type Run struct {
	ID          string
	StartedAt   time.Time
	Description string
	Base        string
	Written     int
	Skipped     int
}

// Entry is one recorded output of a run.
type Entry struct {
	RunID   string
	Seq     int
	Path    string
	Kind    string
	Outcome string
	// Hash is the xxh3 digest of the written bytes, empty for directories
	// and skipped files.
	Hash string
}

// DriftState classifies a generated file that no longer matches its last
// recorded write.
type DriftState string

const (
	DriftModified DriftState = "modified"
	DriftMissing  DriftState = "missing"
)

// Drift is a generated file whose content changed after generation.
type Drift struct {
	Path     string
	State    DriftState
	Recorded string
	Current  string
}

// OpenIn opens the journal of the output directory dir.
func OpenIn(dir string) (*Journal, error) {
	return Open(filepath.Join(dir, Dir, FileName))
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Hash returns the digest stored for content.
func Hash(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// Record stores a completed run and its entries in one transaction.
// startedAt is when materialization began; a zero value means now.
// description is the source the tree was loaded from, base the output
// directory.
func (j *Journal) Record(ctx context.Context, startedAt time.Time, description, base string, records []materialize.Record) (*Run, error) {
	if startedAt.IsZero() {
		startedAt = j.now()
	}
	run := &Run{
		ID:          uuid.NewString(),
		StartedAt:   startedAt,
		Description: description,
		Base:        base,
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, description, base) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), description, base); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (run_id, seq, path, kind, outcome, hash) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		var hash sql.NullString
		if r.Kind == api.EntryFile && r.Outcome == sink.Written {
			hash = sql.NullString{String: Hash(r.Content), Valid: true}
			run.Written++
		}
		if r.Outcome == sink.Skipped {
			run.Skipped++
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, filepath.ToSlash(r.Path), r.Kind.String(), r.Outcome.String(), hash); err != nil {
			return nil, fmt.Errorf("insert entry %s: %w", r.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

// Runs lists recorded runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.description, r.base,
			COALESCE(SUM(CASE WHEN e.kind = 'file' AND e.outcome = 'written' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN e.outcome = 'skipped' THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN entries e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			ns int64
		)
		if err := rows.Scan(&r.ID, &ns, &r.Description, &r.Base, &r.Written, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, ns)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries lists the entries of a run in the order they were produced.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, path, kind, outcome, COALESCE(hash, '')
		FROM entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Path, &e.Kind, &e.Outcome, &e.Hash); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Drift compares every file's last recorded write against its current
// content in fsys and returns the files that differ, sorted by path.
func (j *Journal) Drift(ctx context.Context, fsys billy.Filesystem) ([]Drift, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT e.path, e.hash
		FROM entries e JOIN runs r ON r.id = e.run_id
		WHERE e.kind = 'file' AND e.outcome = 'written'
		ORDER BY r.started_at, r.id, e.seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	last := map[string]string{}
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		last[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var drift []Drift
	for path, recorded := range last {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := util.ReadFile(fsys, filepath.FromSlash(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			drift = append(drift, Drift{Path: path, State: DriftMissing, Recorded: recorded})
			continue
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if cur := Hash(data); cur != recorded {
			drift = append(drift, Drift{Path: path, State: DriftModified, Recorded: recorded, Current: cur})
		}
	}
	sort.Slice(drift, func(a, b int) bool { return drift[a].Path < drift[b].Path })
	return drift, nil
}
