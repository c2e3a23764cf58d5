package service

import (
	"context"
	"slices"
	"strings"

	"todoTracker/internal/access"
	"todoTracker/internal/activity"
	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"

	"github.com/google/uuid"
)

type CommentInput struct {
	Text     string   `json:"text" validate:"notblank,max=1000"`
	Mentions []string `json:"mentions,omitempty" validate:"max=20,dive,required"`
}

type AttachmentInput struct {
	URL      string `json:"url" validate:"required,url"`
	Filename string `json:"filename" validate:"notblank,max=255"`
	Type     string `json:"type" validate:"max=100"`
	Size     int64  `json:"size" validate:"min=0,max=104857600"`
}

// AddComment needs view access. Mentioned users are notified apart from
// the rest of the task's audience.
func (s *TaskService) AddComment(ctx context.Context, taskID uuid.UUID, actorID string, in CommentInput) (*task.Task, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "comment"); err != nil {
		return nil, err
	}

	mentions := uniqueStrings(in.Mentions)
	for _, userID := range mentions {
		if err := s.ensureUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	comment := task.Comment{
		ID:        uuid.New(),
		AuthorID:  actorID,
		Text:      in.Text,
		Mentions:  mentions,
		CreatedAt: now,
	}
	t.Comments = append(t.Comments, comment)

	changes := activity.Changes{}
	changes.Set("comment", nil, comment.ID.String())
	activity.Record(t, task.ActionCommented, actorID, changes, now)

	if err := s.persist(ctx, t, "add_comment"); err != nil {
		return nil, err
	}

	mentioned := slices.DeleteFunc(slices.Clone(mentions), func(id string) bool { return id == actorID })
	s.publish(notify.KindMentioned, t, actorID, mentioned)
	s.publish(notify.KindCommented, t, actorID, slices.DeleteFunc(t.Audience(actorID), func(id string) bool {
		return slices.Contains(mentioned, id)
	}))
	return t, nil
}

// UpdateComment lets the author rewrite their own comment.
func (s *TaskService) UpdateComment(ctx context.Context, taskID, commentID uuid.UUID, actorID, text string) (*task.Task, error) {
	in := CommentInput{Text: strings.TrimSpace(text)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "edit comment"); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(t.Comments, func(c task.Comment) bool { return c.ID == commentID })
	if idx < 0 {
		return nil, NewNotFound("comment", commentID.String())
	}
	c := &t.Comments[idx]
	if !access.IsAuthor(c.AuthorID, actorID) {
		return nil, NewForbidden("edit comment")
	}
	if c.Text == in.Text {
		return t, nil
	}

	now := s.now()
	changes := activity.Changes{}
	changes.Set("comment_text", c.Text, in.Text)
	c.Text = in.Text
	c.UpdatedAt = &now
	activity.Record(t, task.ActionUpdated, actorID, changes, now)

	if err := s.persist(ctx, t, "update_comment"); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, taskID, commentID uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "delete comment"); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(t.Comments, func(c task.Comment) bool { return c.ID == commentID })
	if idx < 0 {
		return nil, NewNotFound("comment", commentID.String())
	}
	if !access.IsAuthor(t.Comments[idx].AuthorID, actorID) {
		return nil, NewForbidden("delete comment")
	}
	t.Comments = slices.Delete(t.Comments, idx, idx+1)

	changes := activity.Changes{}
	changes.Set("comment_removed", commentID.String(), nil)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "delete_comment"); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) AddAttachment(ctx context.Context, taskID uuid.UUID, actorID string, in AttachmentInput) (*task.Task, error) {
	in.Filename = strings.TrimSpace(in.Filename)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Edit, "attach file"); err != nil {
		return nil, err
	}

	now := s.now()
	att := task.Attachment{
		ID:         uuid.New(),
		URL:        in.URL,
		Filename:   in.Filename,
		Type:       in.Type,
		Size:       in.Size,
		UploadedBy: actorID,
		UploadedAt: now,
	}
	t.Attachments = append(t.Attachments, att)

	changes := activity.Changes{}
	changes.Set("attachment_added", nil, att.Filename)
	activity.Record(t, task.ActionUpdated, actorID, changes, now)

	if err := s.persist(ctx, t, "add_attachment"); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteAttachment is reserved to the uploader.
func (s *TaskService) DeleteAttachment(ctx context.Context, taskID, attachmentID uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "delete attachment"); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(t.Attachments, func(a task.Attachment) bool { return a.ID == attachmentID })
	if idx < 0 {
		return nil, NewNotFound("attachment", attachmentID.String())
	}
	att := t.Attachments[idx]
	if !access.IsAuthor(att.UploadedBy, actorID) {
		return nil, NewForbidden("delete attachment")
	}
	t.Attachments = slices.Delete(t.Attachments, idx, idx+1)

	changes := activity.Changes{}
	changes.Set("attachment_removed", att.Filename, nil)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "delete_attachment"); err != nil {
		return nil, err
	}
	return t, nil
}

func uniqueStrings(in []string) []string {
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
