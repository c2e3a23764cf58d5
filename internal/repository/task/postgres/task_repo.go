package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// Storage keeps each task as a JSONB document. The columns next to it
// mirror the fields that filters and sorting need.
type Storage struct {
	pool *pgxpool.Pool
}

type Config struct {
	URL            string
	MaxConnections int32
	MinConnections int32
	IdleTimeout    time.Duration
	ConnectRetries uint64
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: parsing database url", err)
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	connect := func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ConnectRetries), ctx)
	pool, err := backoff.RetryNotifyWithData[*pgxpool.Pool](connect, policy, func(err error, next time.Duration) {
		logger.Warn("Repository: database not ready, retrying", zap.Error(err), zap.Duration("next", next))
	})
	if err != nil {
		logger.Error("Repository: connecting to PostgreSQL", err)
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: PostgreSQL connections closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

const upsertColumns = `owner_id, title, status, priority, priority_rank, category, tags,
	completed, is_archived, is_deleted, due_date, reminder, created_at, updated_at, version, doc`

func columns(t *task.Task) ([]any, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding task: %w", err)
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		t.OwnerID, t.Title, string(t.Status), string(t.Priority), t.Priority.Rank(), t.Category, tags,
		t.Completed, t.IsArchived, t.IsDeleted, t.DueDate, t.Reminder, t.CreatedAt, t.UpdatedAt, t.Version, doc,
	}, nil
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	start := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = start
	}

	cols, err := columns(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (id, ` + upsertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	if _, err := s.pool.Exec(ctx, query, append([]any{t.ID}, cols...)...); err != nil {
		logger.Error("Repository: inserting task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserting task: %w", err)
	}
	warnSlow(start, "create")
	return nil
}

// Save overwrites the whole document. There is no version check: the last
// writer wins.
func (s *Storage) Save(ctx context.Context, t *task.Task) error {
	start := time.Now()
	now := start
	t.UpdatedAt = &now
	t.Version++

	cols, err := columns(t)
	if err != nil {
		return err
	}
	query := `UPDATE tasks SET (` + upsertColumns + `) =
		($2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, append([]any{t.ID}, cols...)...)
	if err != nil {
		logger.Error("Repository: saving task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("saving task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	warnSlow(start, "save")
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM tasks WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: loading task", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("loading task: %w", err)
	}
	warnSlow(start, "get_by_id")
	return decode(doc)
}

func (s *Storage) Find(ctx context.Context, f repo.Filter, sort repo.Sort) ([]*task.Task, error) {
	start := time.Now()
	where := buildWhere(f)
	query := `SELECT doc FROM tasks` + where.where() + orderBy(sort) + paginate(f)

	rows, err := s.pool.Query(ctx, query, where.args...)
	if err != nil {
		logger.Error("Repository: querying tasks", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		var doc []byte
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
		logger.Error("Repository: iterating rows", err)
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if time.Since(start) > slowQuery+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: slow query", zap.String("op", "find"), zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func (s *Storage) Count(ctx context.Context, f repo.Filter) (int, error) {
	start := time.Now()
	where := buildWhere(f)

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where.where(), where.args...).Scan(&n); err != nil {
		logger.Error("Repository: counting tasks", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	warnSlow(start, "count")
	return n, nil
}

func (s *Storage) Distinct(ctx context.Context, field string, f repo.Filter) ([]string, error) {
	var expr string
	switch field {
	case repo.FieldCategory:
		expr = "category"
	case repo.FieldTags:
		expr = "unnest(tags)"
	default:
		return nil, repo.ErrUnsupportedField
	}

	where := buildWhere(f)
	query := fmt.Sprintf(`SELECT DISTINCT v FROM (SELECT %s AS v FROM tasks%s) AS vals WHERE v <> '' ORDER BY v COLLATE "C"`,
		expr, where.where())

	rows, err := s.pool.Query(ctx, query, where.args...)
	if err != nil {
		logger.Error("Repository: distinct query", err, zap.String("field", field))
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	return values, nil
}

// UpdateMany patches every matching row inside one transaction. Rows are
// locked while the documents are rewritten.
func (s *Storage) UpdateMany(ctx context.Context, f repo.Filter, patch repo.BulkPatch) (int, error) {
	start := time.Now()
	where := buildWhere(f)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Repository: rollback failed", zap.Error(err))
		}
	}()

	rows, err := tx.Query(ctx, `SELECT doc FROM tasks`+where.where()+` FOR UPDATE`, where.args...)
	if err != nil {
		return 0, fmt.Errorf("selecting batch: %w", err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return 0, fmt.Errorf("selecting batch: %w", err)
	}

	query := `UPDATE tasks SET (` + upsertColumns + `) =
		($2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		WHERE id = $1`
	batch := &pgx.Batch{}
	for _, doc := range docs {
		t, err := decode(doc)
		if err != nil {
			return 0, err
		}
		patch.Apply(t)
		cols, err := columns(t)
		if err != nil {
			return 0, err
		}
		batch.Queue(query, append([]any{t.ID}, cols...)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		logger.Error("Repository: bulk update", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("bulk update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	warnSlow(start, "update_many")
	return len(docs), nil
}

func decode(doc []byte) (*task.Task, error) {
	t := &task.Task{}
	if err := json.Unmarshal(doc, t); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return t, nil
}

func warnSlow(start time.Time, op string) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: slow query", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}
