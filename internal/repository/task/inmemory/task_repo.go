package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage keeps whole task documents in memory. Documents are copied on
// the way in and out, so callers never share state with the store.
type TaskStorage struct {
	storage map[uuid.UUID][]byte
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID][]byte),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: in-memory storage is healthy")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; ok {
		return fmt.Errorf("task %s already exists", taskToCreate.ID)
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	doc, err := json.Marshal(taskToCreate)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	s.storage[taskToCreate.ID] = doc
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

// Save replaces the whole document. The last writer wins.
func (s *TaskStorage) Save(ctx context.Context, taskToSave *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToSave.ID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToSave.UpdatedAt = &now
	taskToSave.Version++

	doc, err := json.Marshal(taskToSave)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	s.storage[taskToSave.ID] = doc
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	doc, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return decode(doc)
}

func (s *TaskStorage) Find(ctx context.Context, filter repo.Filter, sort repo.Sort) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	all, err := s.all()
	if err != nil {
		return nil, err
	}
	return repo.Select(all, filter, sort), nil
}

func (s *TaskStorage) Count(ctx context.Context, filter repo.Filter) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	all, err := s.all()
	if err != nil {
		return 0, err
	}
	filter.Limit, filter.Offset = 0, 0
	return len(repo.Select(all, filter, repo.DefaultSort)), nil
}

func (s *TaskStorage) Distinct(ctx context.Context, field string, filter repo.Filter) ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	all, err := s.all()
	if err != nil {
		return nil, err
	}
	return repo.Distinct(all, field, filter)
}

// UpdateMany patches every matching document under one lock, so the batch
// is atomic with respect to other calls.
func (s *TaskStorage) UpdateMany(ctx context.Context, filter repo.Filter, patch repo.BulkPatch) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	all, err := s.all()
	if err != nil {
		return 0, err
	}

	updates := make(map[uuid.UUID][]byte)
	for _, t := range all {
		if !filter.Match(t) {
			continue
		}
		patch.Apply(t)
		doc, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("encoding task: %w", err)
		}
		updates[t.ID] = doc
	}
	for id, doc := range updates {
		s.storage[id] = doc
	}
	return len(updates), nil
}

func (s *TaskStorage) all() ([]*task.Task, error) {
	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		t, err := decode(s.storage[id])
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func decode(doc []byte) (*task.Task, error) {
	t := &task.Task{}
	if err := json.Unmarshal(doc, t); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return t, nil
}
