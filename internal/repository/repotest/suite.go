// Package repotest holds the behaviour every task repository must share.
// Backends embed TaskRepoSuite in their own suite and provide Repo and
// Reset.
package repotest

import (
	"context"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type Repository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Save(context.Context, *task.Task) error
	Find(context.Context, repository.Filter, repository.Sort) ([]*task.Task, error)
	UpdateMany(context.Context, repository.Filter, repository.BulkPatch) (int, error)
	Count(context.Context, repository.Filter) (int, error)
	Distinct(context.Context, string, repository.Filter) ([]string, error)
}

type TaskRepoSuite struct {
	suite.Suite
	Repo  Repository
	Reset func() error
	ctx   context.Context
}

var base = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func (s *TaskRepoSuite) SetupTest() {
	s.ctx = context.Background()
	if s.Reset != nil {
		s.Require().NoError(s.Reset())
	}
}

func (s *TaskRepoSuite) seed(owner, title string, offset time.Duration, opts ...task.TaskOption) *task.Task {
	t := task.New(owner, title, base.Add(offset), opts...)
	s.Require().NoError(s.Repo.Create(s.ctx, t))
	return t
}

func (s *TaskRepoSuite) titles(tasks []*task.Task) []string {
	res := make([]string, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.Title)
	}
	return res
}

func (s *TaskRepoSuite) TestHealthCheck() {
	s.NoError(s.Repo.HealthCheck(s.ctx))
}

func (s *TaskRepoSuite) TestCreateAndGet() {
	due := base.Add(48 * time.Hour)
	created := s.seed("u1", "Document round trip", 0,
		task.WithTags([]string{"a", "b"}),
		task.WithDueDate(&due),
		task.WithSubtasks([]task.Subtask{{
			ID:       uuid.New(),
			Title:    "child",
			Status:   task.StatusTodo,
			Priority: task.PriorityLow,
			Subtasks: []task.Subtask{{ID: uuid.New(), Title: "grandchild", Subtasks: []task.Subtask{}}},
		}}),
	)

	got, err := s.Repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("Document round trip", got.Title)
	s.Equal([]string{"a", "b"}, got.Tags)
	s.Require().NotNil(got.DueDate)
	s.True(due.Equal(*got.DueDate))
	s.Require().Len(got.Subtasks, 1)
	s.Require().Len(got.Subtasks[0].Subtasks, 1)
	s.Equal("grandchild", got.Subtasks[0].Subtasks[0].Title)

	_, err = s.Repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *TaskRepoSuite) TestSaveLastWriterWins() {
	created := s.seed("u1", "Contended", 0)

	first, err := s.Repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	second, err := s.Repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)

	first.Title = "first writer"
	s.Require().NoError(s.Repo.Save(s.ctx, first))
	second.Description = "second writer"
	s.Require().NoError(s.Repo.Save(s.ctx, second))

	got, err := s.Repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Contended", got.Title, "second save overwrote the whole document")
	s.Equal("second writer", got.Description)
	s.Equal(created.Version+1, got.Version)
	s.NotNil(got.UpdatedAt)

	missing := task.New("u1", "ghost", base)
	s.ErrorIs(s.Repo.Save(s.ctx, missing), repository.ErrNotFound)
}

func (s *TaskRepoSuite) TestFindFilters() {
	yesterday := base.Add(-24 * time.Hour)
	tomorrow := base.Add(24 * time.Hour)

	s.seed("u1", "Pay rent", 0, task.WithPriority(task.PriorityUrgent), task.WithDueDate(&yesterday), task.WithTags([]string{"home"}))
	s.seed("u1", "Call 100% mom", time.Minute, task.WithCategory("family"), task.WithDueDate(&tomorrow), task.WithTags([]string{"phone"}))
	archived := s.seed("u1", "Old receipts", 2*time.Minute)
	deleted := s.seed("u1", "Gone", 3*time.Minute)
	s.seed("u2", "Other owner", 4*time.Minute, task.WithTags([]string{"home"}))

	archived.IsArchived = true
	s.Require().NoError(s.Repo.Save(s.ctx, archived))
	deleted.IsDeleted = true
	deleted.DeletedAt = &base
	s.Require().NoError(s.Repo.Save(s.ctx, deleted))

	cases := []struct {
		name   string
		filter repository.Filter
		want   []string
	}{
		{"owner skips deleted", repository.Filter{OwnerID: "u1"}, []string{"Old receipts", "Call 100% mom", "Pay rent"}},
		{"include deleted", repository.Filter{OwnerID: "u1", IncludeDeleted: true}, []string{"Gone", "Old receipts", "Call 100% mom", "Pay rent"}},
		{"not archived", repository.Filter{OwnerID: "u1", Archived: ptr(false)}, []string{"Call 100% mom", "Pay rent"}},
		{"tag is exact", repository.Filter{Tag: "home"}, []string{"Other owner", "Pay rent"}},
		{"tag prefix is no match", repository.Filter{Tag: "hom"}, []string{}},
		{"priority", repository.Filter{Priority: task.PriorityUrgent}, []string{"Pay rent"}},
		{"category", repository.Filter{Category: "family"}, []string{"Call 100% mom"}},
		{"search title case-insensitive", repository.Filter{OwnerID: "u1", Search: "RENT"}, []string{"Pay rent"}},
		{"search tags", repository.Filter{OwnerID: "u1", Search: "phon"}, []string{"Call 100% mom"}},
		{"search wildcard is literal", repository.Filter{Search: "100%"}, []string{"Call 100% mom"}},
		{"due before", repository.Filter{DueBefore: &base}, []string{"Pay rent"}},
		{"due window", repository.Filter{DueFrom: &base, DueTo: ptr(base.Add(48 * time.Hour))}, []string{"Call 100% mom"}},
		{"ids", repository.Filter{IDs: []uuid.UUID{archived.ID, deleted.ID}}, []string{"Old receipts"}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			got, err := s.Repo.Find(s.ctx, tc.filter, repository.DefaultSort)
			s.Require().NoError(err)
			s.Equal(tc.want, s.titles(got))

			n, err := s.Repo.Count(s.ctx, tc.filter)
			s.Require().NoError(err)
			s.Equal(len(tc.want), n)
		})
	}
}

func (s *TaskRepoSuite) TestReminderFilter() {
	past := base.Add(-time.Hour)
	future := base.Add(time.Hour)
	s.seed("u1", "Remind me", 0, task.WithReminder(&past))
	s.seed("u1", "Later", time.Minute, task.WithReminder(&future))
	s.seed("u1", "Never", 2*time.Minute)

	got, err := s.Repo.Find(s.ctx, repository.Filter{ReminderBefore: &base, Completed: ptr(false)}, repository.DefaultSort)
	s.Require().NoError(err)
	s.Equal([]string{"Remind me"}, s.titles(got))
}

func (s *TaskRepoSuite) TestSortAndPaginate() {
	early := base.Add(time.Hour)
	late := base.Add(5 * time.Hour)
	s.seed("u1", "bravo", 0, task.WithPriority(task.PriorityLow), task.WithDueDate(&late))
	s.seed("u1", "Alpha", time.Minute, task.WithPriority(task.PriorityUrgent))
	s.seed("u1", "charlie", 2*time.Minute, task.WithPriority(task.PriorityHigh), task.WithDueDate(&early))

	cases := []struct {
		sort repository.Sort
		want []string
	}{
		{repository.DefaultSort, []string{"charlie", "Alpha", "bravo"}},
		{repository.Sort{Field: repository.SortCreatedAt}, []string{"bravo", "Alpha", "charlie"}},
		{repository.Sort{Field: repository.SortTitle}, []string{"Alpha", "bravo", "charlie"}},
		{repository.Sort{Field: repository.SortPriority, Desc: true}, []string{"Alpha", "charlie", "bravo"}},
		{repository.Sort{Field: repository.SortDueDate}, []string{"charlie", "bravo", "Alpha"}},
		{repository.Sort{Field: repository.SortDueDate, Desc: true}, []string{"bravo", "charlie", "Alpha"}},
	}
	for _, tc := range cases {
		got, err := s.Repo.Find(s.ctx, repository.Filter{OwnerID: "u1"}, tc.sort)
		s.Require().NoError(err)
		s.Equal(tc.want, s.titles(got), "sort %+v", tc.sort)
	}

	page, err := s.Repo.Find(s.ctx, repository.Filter{OwnerID: "u1", Limit: 2, Offset: 1}, repository.Sort{Field: repository.SortTitle})
	s.Require().NoError(err)
	s.Equal([]string{"bravo", "charlie"}, s.titles(page))

	n, err := s.Repo.Count(s.ctx, repository.Filter{OwnerID: "u1", Limit: 1})
	s.Require().NoError(err)
	s.Equal(3, n, "count ignores pagination")
}

func (s *TaskRepoSuite) TestDistinct() {
	s.seed("u1", "one", 0, task.WithCategory("work"), task.WithTags([]string{"b", "a"}))
	s.seed("u1", "two", time.Minute, task.WithTags([]string{"a", "c"}))
	s.seed("u2", "three", 2*time.Minute, task.WithCategory("private"), task.WithTags([]string{"z"}))

	categories, err := s.Repo.Distinct(s.ctx, repository.FieldCategory, repository.Filter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal([]string{"general", "work"}, categories)

	tags, err := s.Repo.Distinct(s.ctx, repository.FieldTags, repository.Filter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c"}, tags)

	_, err = s.Repo.Distinct(s.ctx, "title", repository.Filter{})
	s.ErrorIs(err, repository.ErrUnsupportedField)
}

func (s *TaskRepoSuite) TestUpdateMany() {
	a := s.seed("u1", "first", 0)
	b := s.seed("u1", "second", time.Minute)
	other := s.seed("u2", "foreign", 2*time.Minute)

	at := base.Add(time.Hour)
	status := task.StatusBlocked
	n, err := s.Repo.UpdateMany(s.ctx,
		repository.Filter{OwnerID: "u1", IDs: []uuid.UUID{a.ID, b.ID, other.ID}},
		repository.BulkPatch{Status: &status, At: at})
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.Repo.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(task.StatusBlocked, got.Status)
	s.False(got.Completed)
	s.Require().NotNil(got.UpdatedAt)
	s.True(at.Equal(*got.UpdatedAt))
	s.Equal(b.Version+1, got.Version)

	untouched, err := s.Repo.GetByID(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Equal(task.StatusTodo, untouched.Status)

	n, err = s.Repo.UpdateMany(s.ctx, repository.Filter{OwnerID: "u1", IDs: []uuid.UUID{a.ID}}, repository.BulkPatch{Delete: true, At: at})
	s.Require().NoError(err)
	s.Equal(1, n)

	count, err := s.Repo.Count(s.ctx, repository.Filter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal(1, count)
}

func ptr[T any](v T) *T {
	return &v
}
