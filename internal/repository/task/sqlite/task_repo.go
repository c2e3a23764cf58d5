// Package sqlite stores task documents in a single SQLite file. Owner and
// deletion are indexed columns; every other predicate runs in process.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database file and brings its schema up to
// date.
func New(ctx context.Context, path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	if err := migrateUp(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps the pragmas and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Repository: SQLite database ready", zap.String("path", path))
	return &Storage{db: db}, nil
}

func migrateUp(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: SQLite migration failed", err)
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("Repository: closing SQLite database", zap.Error(err))
	}
}

func (s *Storage) Close() {
	closeDB(s.db)
	logger.Info("Repository: SQLite database closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: SQLite ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, is_deleted, created_at, version, doc) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.OwnerID, t.IsDeleted, t.CreatedAt.UTC().Format(time.RFC3339Nano), t.Version, string(doc))
	if err != nil {
		logger.Error("Repository: inserting task", err, zap.String("task_id", t.ID.String()))
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// Save replaces the stored document. The last writer wins.
func (s *Storage) Save(ctx context.Context, t *task.Task) error {
	now := time.Now()
	t.UpdatedAt = &now
	t.Version++

	res, err := s.write(ctx, s.db, t)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Storage) write(ctx context.Context, db execer, t *task.Task) (sql.Result, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding task: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE tasks SET owner_id = ?, is_deleted = ?, version = ?, doc = ? WHERE id = ?`,
		t.OwnerID, t.IsDeleted, t.Version, string(doc), t.ID.String())
	if err != nil {
		logger.Error("Repository: saving task", err, zap.String("task_id", t.ID.String()))
		return nil, fmt.Errorf("saving task: %w", err)
	}
	return res, nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM tasks WHERE id = ?`, id.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("loading task: %w", err)
	}
	return decode(doc)
}

func (s *Storage) Find(ctx context.Context, f repo.Filter, sort repo.Sort) ([]*task.Task, error) {
	candidates, err := s.candidates(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	return repo.Select(candidates, f, sort), nil
}

func (s *Storage) Count(ctx context.Context, f repo.Filter) (int, error) {
	candidates, err := s.candidates(ctx, s.db, f)
	if err != nil {
		return 0, err
	}
	f.Limit, f.Offset = 0, 0
	return len(repo.Select(candidates, f, repo.DefaultSort)), nil
}

func (s *Storage) Distinct(ctx context.Context, field string, f repo.Filter) ([]string, error) {
	candidates, err := s.candidates(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	return repo.Distinct(candidates, field, f)
}

// UpdateMany rewrites every matching document in one transaction.
func (s *Storage) UpdateMany(ctx context.Context, f repo.Filter, patch repo.BulkPatch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Repository: rollback failed", zap.Error(err))
		}
	}()

	candidates, err := s.candidates(ctx, tx, f)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range candidates {
		if !f.Match(t) {
			continue
		}
		patch.Apply(t)
		if _, err := s.write(ctx, tx, t); err != nil {
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// candidates narrows by the indexed columns; the caller applies the rest of
// the filter.
func (s *Storage) candidates(ctx context.Context, db querier, f repo.Filter) ([]*task.Task, error) {
	var (
		clauses []string
		args    []any
	)
	if f.OwnerID != "" {
		clauses = append(clauses, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if !f.IncludeDeleted {
		clauses = append(clauses, "is_deleted = 0")
	}
	if len(f.IDs) > 0 {
		marks := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			marks[i] = "?"
			args = append(args, id.String())
		}
		clauses = append(clauses, "id IN ("+strings.Join(marks, ", ")+")")
	}

	query := `SELECT doc FROM tasks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: querying tasks", err)
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t, err := decode(doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return tasks, nil
}

func decode(doc string) (*task.Task, error) {
	t := &task.Task{}
	if err := json.Unmarshal([]byte(doc), t); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return t, nil
}
