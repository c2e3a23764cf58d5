// Package activity keeps the append-only audit trail of a task.
package activity

import (
	"reflect"
	"time"

	"todoTracker/internal/models/task"
)

// Changes maps a field name to its old and new value.
type Changes map[string]task.Change

// Track records the field only when the value actually changed.
func (c Changes) Track(field string, old, new any) {
	if Equal(old, new) {
		return
	}
	c[field] = task.Change{Old: normalize(old), New: normalize(new)}
}

// Set records a change unconditionally, for deltas and structural events.
func (c Changes) Set(field string, old, new any) {
	c[field] = task.Change{Old: normalize(old), New: normalize(new)}
}

func (c Changes) Empty() bool {
	return len(c) == 0
}

// Record appends one entry. Entries already in the log are never touched.
func Record(t *task.Task, action task.Action, actorID string, changes Changes, at time.Time) {
	entry := task.Activity{
		Action:    action,
		ActorID:   actorID,
		Timestamp: at,
	}
	if len(changes) > 0 {
		entry.Changes = map[string]task.Change(changes)
	}
	t.ActivityLog = append(t.ActivityLog, entry)
}

// Equal compares two field values, treating nil and zero time pointers
// alike and comparing instants rather than locations.
func Equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func normalize(v any) any {
	switch x := v.(type) {
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case []string:
		if len(x) == 0 {
			return nil
		}
		return append([]string{}, x...)
	}
	return v
}
