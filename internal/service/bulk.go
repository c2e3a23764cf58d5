package service

import (
	"context"
	"fmt"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxBulkIDs = 100

type BulkUpdateInput struct {
	Status     *task.Status   `json:"status,omitempty" validate:"omitempty,status,ne=completed"`
	Priority   *task.Priority `json:"priority,omitempty" validate:"omitempty,priority"`
	Category   *string        `json:"category,omitempty" validate:"omitempty,max=50"`
	IsArchived *bool          `json:"is_archived,omitempty"`
}

func (in BulkUpdateInput) empty() bool {
	return in.Status == nil && in.Priority == nil && in.Category == nil && in.IsArchived == nil
}

// BulkUpdate writes the same fields to every listed task. The batch is
// rejected as a whole unless the actor owns every id. Completion is left to
// CompleteTask and IncompleteTask: completed tasks keep their status.
func (s *TaskService) BulkUpdate(ctx context.Context, actorID string, ids []uuid.UUID, in BulkUpdateInput) (int, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	if in.empty() {
		return 0, NewValidationError("patch", "at least one field is required")
	}
	return s.bulk(ctx, actorID, ids, "bulk_update", repository.BulkPatch{
		Status:     in.Status,
		Priority:   in.Priority,
		Category:   in.Category,
		IsArchived: in.IsArchived,
	})
}

// BulkDelete soft-deletes every listed task, all or nothing.
func (s *TaskService) BulkDelete(ctx context.Context, actorID string, ids []uuid.UUID) (int, error) {
	return s.bulk(ctx, actorID, ids, "bulk_delete", repository.BulkPatch{Delete: true})
}

func (s *TaskService) bulk(ctx context.Context, actorID string, ids []uuid.UUID, op string, patch repository.BulkPatch) (int, error) {
	ids, err := bulkIDs(ids)
	if err != nil {
		return 0, err
	}

	filter := repository.Filter{OwnerID: actorID, IDs: ids}
	owned, err := s.repo.Count(ctx, filter)
	if err != nil {
		logger.Error("Service: bulk ownership check failed", err, zap.String("operation", op))
		return 0, NewInternal(op, err)
	}
	if owned != len(ids) {
		logger.Warn("Service: bulk batch holds foreign or missing tasks",
			zap.String("actor_id", actorID),
			zap.Int("requested", len(ids)),
			zap.Int("owned", owned))
		return 0, NewForbidden(op)
	}

	patch.At = s.now()
	modified, err := s.repo.UpdateMany(ctx, filter, patch)
	if err != nil {
		logger.Error("Service: bulk write failed", err, zap.String("operation", op))
		return 0, NewInternal(op, err)
	}

	logger.Info("Service: bulk operation done",
		zap.String("operation", op),
		zap.String("actor_id", actorID),
		zap.Int("modified", modified))
	return modified, nil
}

func bulkIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, NewValidationError("ids", "required")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) > MaxBulkIDs {
		return nil, NewValidationError("ids", fmt.Sprintf("max=%d", MaxBulkIDs))
	}
	return unique, nil
}
