package activity_test

import (
	"testing"
	"time"

	"todoTracker/internal/activity"
	"todoTracker/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanges_Track(t *testing.T) {
	now := time.Now()
	same := now.In(time.UTC)
	later := now.Add(time.Hour)

	c := activity.Changes{}
	c.Track("title", "a", "a")
	c.Track("due_date", &now, &same)
	c.Track("tags", nil, []string{})
	c.Track("priority", task.PriorityLow, task.PriorityLow)
	assert.True(t, c.Empty())

	c.Track("title", "a", "b")
	c.Track("reminder", nil, &later)
	c.Track("tags", []string{"x"}, []string{"x", "y"})
	require.Len(t, c, 3)
	assert.Equal(t, task.Change{Old: "a", New: "b"}, c["title"])
	assert.Nil(t, c["reminder"].Old)
	assert.Equal(t, later, c["reminder"].New)
}

func TestRecord_AppendsInOrder(t *testing.T) {
	tk := &task.Task{}
	t0 := time.Now()

	activity.Record(tk, task.ActionCreated, "u1", nil, t0)
	c := activity.Changes{}
	c.Set("actual_time", 0, 30)
	activity.Record(tk, task.ActionUpdated, "u1", c, t0.Add(time.Second))

	require.Len(t, tk.ActivityLog, 2)
	assert.Equal(t, task.ActionCreated, tk.ActivityLog[0].Action)
	assert.Nil(t, tk.ActivityLog[0].Changes)
	assert.Equal(t, task.ActionUpdated, tk.ActivityLog[1].Action)
	assert.Equal(t, task.Change{Old: 0, New: 30}, tk.ActivityLog[1].Changes["actual_time"])

	first := tk.ActivityLog[0]
	activity.Record(tk, task.ActionCommented, "u2", nil, t0.Add(2*time.Second))
	assert.Equal(t, first, tk.ActivityLog[0])
}

func TestEqual(t *testing.T) {
	var nilTime *time.Time
	now := time.Now()

	assert.True(t, activity.Equal(nilTime, nil))
	assert.False(t, activity.Equal(nilTime, &now))
	assert.True(t, activity.Equal(3, 3))
	assert.False(t, activity.Equal("a", "b"))
}
