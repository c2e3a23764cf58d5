package postgres

import (
	"fmt"
	"strings"

	repo "todoTracker/internal/repository"
)

// conditions builds a WHERE clause from a filter. Arguments are numbered
// from $1.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func buildWhere(f repo.Filter) *conditions {
	c := &conditions{}
	if !f.IncludeDeleted {
		c.add("NOT is_deleted")
	}
	if f.OwnerID != "" {
		c.add("owner_id = ?", f.OwnerID)
	}
	if len(f.IDs) > 0 {
		c.add("id = ANY(?)", f.IDs)
	}
	if f.Status != "" {
		c.add("status = ?", string(f.Status))
	}
	if f.Priority != "" {
		c.add("priority = ?", string(f.Priority))
	}
	if f.Tag != "" {
		c.add("? = ANY(tags)", f.Tag)
	}
	if f.Category != "" {
		c.add("category = ?", f.Category)
	}
	if f.Archived != nil {
		c.add("is_archived = ?", *f.Archived)
	}
	if f.Completed != nil {
		c.add("completed = ?", *f.Completed)
	}
	if f.DueBefore != nil {
		c.add("due_date < ?", *f.DueBefore)
	}
	if f.DueFrom != nil {
		c.add("due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		c.add("due_date < ?", *f.DueTo)
	}
	if f.ReminderBefore != nil {
		c.add("reminder <= ?", *f.ReminderBefore)
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		c.add("(title ILIKE ? OR doc->>'description' ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?))",
			pattern, pattern, pattern)
	}
	return c
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func orderBy(s repo.Sort) string {
	if !s.Valid() {
		s = repo.DefaultSort
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}

	var col string
	switch s.Field {
	case repo.SortDueDate:
		return fmt.Sprintf(" ORDER BY due_date %s NULLS LAST, created_at, id", dir)
	case repo.SortPriority:
		col = "priority_rank"
	case repo.SortTitle:
		col = "lower(title)"
	default:
		col = "created_at"
	}
	return fmt.Sprintf(" ORDER BY %s %s, created_at, id", col, dir)
}

func paginate(f repo.Filter) string {
	var b strings.Builder
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", f.Offset)
	}
	return b.String()
}
