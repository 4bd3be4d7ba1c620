package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/recognize"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
	"github.com/banshee-data/gridsnap/internal/monitoring"
	"github.com/banshee-data/gridsnap/internal/timeutil"
)

// ErrUnknownRun is returned when a run id has no row.
var ErrUnknownRun = errors.New("unknown run")

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(ON)",
}

// Store wraps the run database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option customises Open.
type Option func(*Store)

// WithClock sets the clock used to stamp runs.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	var dsn strings.Builder
	dsn.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			dsn.WriteByte('?')
		} else {
			dsn.WriteByte('&')
		}
		dsn.WriteString("_pragma=" + p)
	}

	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// Commits arrive from many goroutines; a single connection serialises
	// them without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Run is one recorded snapping run.
type Run struct {
	ID         string
	SourcePath string
	ConfigJSON string
	StartedAt  time.Time
	Commits    int
}

// Commit is one persisted commit record. Anchor, Mode and Source are empty
// when the object kept its position.
type Commit struct {
	ObjectID   string
	SlideIndex int
	ShapeIndex int
	Left       int
	Top        int
	Move       layout.Vector
	Anchor     string
	Mode       string
	Source     string
}

// TemplateRow is one persisted template.
type TemplateRow struct {
	ID             string
	Category       layout.Category
	Representative layout.Rect
	Instances      []string
}

// BeginRun inserts a run row and returns a recorder for its commits.
func (s *Store) BeginRun(ctx context.Context, sourcePath, configJSON string) (*RunRecorder, error) {
	if configJSON == "" {
		configJSON = "{}"
	}
	id := uuid.NewString()
	started := s.clock.Now()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, source_path, config_json, started_at_ns) VALUES (?, ?, ?, ?)`,
		id, sourcePath, configJSON, started.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	monitoring.Debugf("sqlite: run %s started for %s", id, sourcePath)
	return &RunRecorder{store: s, id: id, started: started}, nil
}

// ListRuns returns every run, newest first, with its commit count.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.source_path, r.config_json, r.started_at_ns,
		       (SELECT COUNT(*) FROM commits c WHERE c.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at_ns DESC, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ns int64
		if err := rows.Scan(&r.ID, &r.SourcePath, &r.ConfigJSON, &ns, &r.Commits); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.StartedAt = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) checkRun(ctx context.Context, runID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// ListCommits returns the commits of a run ordered by slide and shape.
func (s *Store) ListCommits(ctx context.Context, runID string) ([]Commit, error) {
	if err := s.checkRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, slide_index, shape_index, left_pos, top_pos, dx, dy,
		       COALESCE(anchor, ''), COALESCE(mode, ''), COALESCE(source, '')
		FROM commits
		WHERE run_id = ?
		ORDER BY slide_index, shape_index, object_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var out []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.ObjectID, &c.SlideIndex, &c.ShapeIndex, &c.Left, &c.Top,
			&c.Move.DX, &c.Move.DY, &c.Anchor, &c.Mode, &c.Source); err != nil {
			return nil, fmt.Errorf("list commits: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTemplates returns the templates of a run ordered by id, each with its
// instances in recognition order.
func (s *Store) ListTemplates(ctx context.Context, runID string) ([]TemplateRow, error) {
	if err := s.checkRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.template_id, t.category, t.rep_left, t.rep_top, t.rep_width, t.rep_height, i.object_id
		FROM templates t
		JOIN template_instances i ON i.run_id = t.run_id AND i.template_id = t.template_id
		WHERE t.run_id = ?
		ORDER BY t.template_id, i.position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []TemplateRow
	for rows.Next() {
		var (
			id, cat, obj string
			r            layout.Rect
		)
		if err := rows.Scan(&id, &cat, &r.Left, &r.Top, &r.Width, &r.Height, &obj); err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, TemplateRow{ID: id, Category: layout.Category(cat), Representative: r})
		}
		last := &out[len(out)-1]
		last.Instances = append(last.Instances, obj)
	}
	return out, rows.Err()
}

// RunRecorder writes the commits of one run. It implements
// snapping.CommitSink; each commit is its own statement so one failure
// never rolls back another object.
type RunRecorder struct {
	store   *Store
	id      string
	started time.Time
}

// ID returns the run id.
func (r *RunRecorder) ID() string { return r.id }

// StartedAt returns the run timestamp.
func (r *RunRecorder) StartedAt() time.Time { return r.started }

// Commit stores one commit record.
func (r *RunRecorder) Commit(ctx context.Context, rec snapping.CommitRecord) error {
	var anchor, mode, source sql.NullString
	if c := rec.Candidate; c != nil {
		anchor = sql.NullString{String: c.Anchor.String(), Valid: true}
		mode = sql.NullString{String: c.Mode.String(), Valid: true}
		source = sql.NullString{String: c.Source, Valid: true}
	}
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO commits (run_id, object_id, slide_index, shape_index, left_pos, top_pos, dx, dy, anchor, mode, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, rec.ObjectID, rec.SlideIndex, rec.ShapeIndex, rec.Left, rec.Top,
		rec.Move.DX, rec.Move.DY, anchor, mode, source)
	if err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	return nil
}

// SaveTemplates stores templates and their instances in one transaction.
func (r *RunRecorder) SaveTemplates(ctx context.Context, templates []*recognize.Template) (err error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range templates {
		var rep layout.Rect
		if o := t.Representative(); o != nil {
			rep = o.Bounds()
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO templates (run_id, template_id, category, instance_count, rep_left, rep_top, rep_width, rep_height)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, t.ID(), string(t.Category()), t.Len(), rep.Left, rep.Top, rep.Width, rep.Height); err != nil {
			return fmt.Errorf("save template %s: %w", t.ID(), err)
		}
		for pos, o := range t.Instances() {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO template_instances (run_id, template_id, object_id, position) VALUES (?, ?, ?, ?)`,
				r.id, t.ID(), o.FullID(), pos); err != nil {
				return fmt.Errorf("save template %s: %w", t.ID(), err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	monitoring.Debugf("sqlite: run %s saved %d templates", r.id, len(templates))
	return nil
}
