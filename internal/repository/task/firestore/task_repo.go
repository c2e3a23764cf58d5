// Package firestore keeps one Firestore document per task, keyed by the task
// id. Owner and deletion are queried server-side; the rest of a filter is
// applied after the documents are read.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "tasks"

type Config struct {
	ProjectID       string
	Collection      string
	CredentialsFile string
}

type Storage struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// New connects to Firestore. When FIRESTORE_EMULATOR_HOST is set the client
// talks to the emulator and credentials are ignored.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		logger.Error("Repository: creating Firestore client", err, zap.String("project", cfg.ProjectID))
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	logger.Info("Repository: Firestore client ready", zap.String("project", cfg.ProjectID), zap.String("collection", name))
	return &Storage{client: client, collection: client.Collection(name)}, nil
}

func (s *Storage) Close() {
	if err := s.client.Close(); err != nil {
		logger.Warn("Repository: closing Firestore client", zap.Error(err))
		return
	}
	logger.Info("Repository: Firestore client closed")
}

// HealthCheck reads at most one document; an empty collection is healthy.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if _, err := s.collection.Limit(1).Documents(ctx).GetAll(); err != nil {
		logger.Error("Repository: Firestore health check failed", err)
		return fmt.Errorf("firestore health check: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if _, err := s.collection.Doc(t.ID.String()).Create(ctx, t); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("task %s already exists", t.ID)
		}
		logger.Error("Repository: creating task document", err, zap.String("task_id", t.ID.String()))
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// Save replaces the whole document. The last writer wins.
func (s *Storage) Save(ctx context.Context, t *task.Task) error {
	now := time.Now()
	t.UpdatedAt = &now
	t.Version++

	ref := s.collection.Doc(t.ID.String())
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, t)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repo.ErrNotFound
		}
		logger.Error("Repository: saving task document", err, zap.String("task_id", t.ID.String()))
		return fmt.Errorf("saving task: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	snap, err := s.collection.Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: loading task document", err, zap.String("task_id", id.String()))
		return nil, fmt.Errorf("loading task: %w", err)
	}
	return decode(snap)
}

func (s *Storage) Find(ctx context.Context, f repo.Filter, sort repo.Sort) ([]*task.Task, error) {
	candidates, err := s.candidates(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	return repo.Select(candidates, f, sort), nil
}

func (s *Storage) Count(ctx context.Context, f repo.Filter) (int, error) {
	candidates, err := s.candidates(ctx, nil, f)
	if err != nil {
		return 0, err
	}
	f.Limit, f.Offset = 0, 0
	return len(repo.Select(candidates, f, repo.DefaultSort)), nil
}

func (s *Storage) Distinct(ctx context.Context, field string, f repo.Filter) ([]string, error) {
	candidates, err := s.candidates(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	return repo.Distinct(candidates, field, f)
}

// UpdateMany patches every matching document inside one transaction.
// Firestore may rerun the function on contention, so the count is rebuilt on
// every attempt.
func (s *Storage) UpdateMany(ctx context.Context, f repo.Filter, patch repo.BulkPatch) (int, error) {
	var n int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		candidates, err := s.candidates(ctx, tx, f)
		if err != nil {
			return err
		}
		for _, t := range candidates {
			if !f.Match(t) {
				continue
			}
			patch.Apply(t)
			if err := tx.Set(s.collection.Doc(t.ID.String()), t); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		logger.Error("Repository: bulk update", err)
		return 0, fmt.Errorf("bulk update: %w", err)
	}
	return n, nil
}

// candidates reads the documents a filter could match. Explicit ids are
// fetched by reference; otherwise owner and deletion narrow the query.
func (s *Storage) candidates(ctx context.Context, tx *firestore.Transaction, f repo.Filter) ([]*task.Task, error) {
	var (
		snaps []*firestore.DocumentSnapshot
		err   error
	)
	if len(f.IDs) > 0 {
		refs := make([]*firestore.DocumentRef, len(f.IDs))
		for i, id := range f.IDs {
			refs[i] = s.collection.Doc(id.String())
		}
		if tx != nil {
			snaps, err = tx.GetAll(refs)
		} else {
			snaps, err = s.client.GetAll(ctx, refs)
		}
	} else {
		q := s.collection.Query
		if f.OwnerID != "" {
			q = q.Where("ownerId", "==", f.OwnerID)
		}
		if !f.IncludeDeleted {
			q = q.Where("isDeleted", "==", false)
		}
		if tx != nil {
			snaps, err = tx.Documents(q).GetAll()
		} else {
			snaps, err = q.Documents(ctx).GetAll()
		}
	}
	if err != nil {
		logger.Error("Repository: querying task documents", err)
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		t, err := decode(snap)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

var errEmptyDocument = errors.New("empty task document")

func decode(snap *firestore.DocumentSnapshot) (*task.Task, error) {
	t := &task.Task{}
	if err := snap.DataTo(t); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", snap.Ref.ID, err)
	}
	if t.ID == uuid.Nil {
		return nil, fmt.Errorf("decoding task %s: %w", snap.Ref.ID, errEmptyDocument)
	}
	return t, nil
}
