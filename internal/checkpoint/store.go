package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Anchor is the persisted resume point of one group and filter pair.
type Anchor struct {
	Group     string
	Filter    string
	StartMs   int64
	UpdatedAt time.Time
}

// Store manages anchor persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the checkpoint database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure checkpoint dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save records startMs for group and filter. Anchors only move forward; an
// older value never replaces a newer one.
func (s *Store) Save(ctx context.Context, group, filter string, startMs int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO anchors (group_name, filter, start_ms, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (group_name, filter) DO UPDATE SET
             start_ms = MAX(anchors.start_ms, excluded.start_ms),
             updated_at = excluded.updated_at`,
		group,
		strings.TrimSpace(filter),
		startMs,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save anchor: %w", err)
	}
	return nil
}

// Load returns the anchor for group and filter. found is false when none
// has been saved.
func (s *Store) Load(ctx context.Context, group, filter string) (anchor Anchor, found bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT group_name, filter, start_ms, updated_at FROM anchors
         WHERE group_name = ? AND filter = ?`,
		group, strings.TrimSpace(filter),
	)
	anchor, err = scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Anchor{}, false, nil
	}
	if err != nil {
		return Anchor{}, false, fmt.Errorf("load anchor: %w", err)
	}
	return anchor, true, nil
}

// List returns every anchor ordered by group then filter.
func (s *Store) List(ctx context.Context) ([]Anchor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_name, filter, start_ms, updated_at FROM anchors
         ORDER BY group_name, filter`)
	if err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}
	defer rows.Close()

	var anchors []Anchor
	for rows.Next() {
		anchor, err := scanAnchor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		anchors = append(anchors, anchor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anchors: %w", err)
	}
	return anchors, nil
}

// Delete removes the anchors of group, or every anchor when group is empty.
// It returns the number of rows removed.
func (s *Store) Delete(ctx context.Context, group string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if strings.TrimSpace(group) == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM anchors`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM anchors WHERE group_name = ?`, group)
	}
	if err != nil {
		return 0, fmt.Errorf("delete anchors: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnchor(row rowScanner) (Anchor, error) {
	var (
		anchor  Anchor
		updated string
	)
	if err := row.Scan(&anchor.Group, &anchor.Filter, &anchor.StartMs, &updated); err != nil {
		return Anchor{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		anchor.UpdatedAt = ts
	}
	return anchor, nil
}
