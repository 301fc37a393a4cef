package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
)

func NewCommentService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger, mode common.AggregationMode, fanout int) *CommentService {
	return &CommentService{
		m:      newCommentModel(db),
		c:      c,
		mb:     mb,
		logger: logger,
		mode:   mode,
		fanout: fanout,
	}
}

type CreateCommentRequest struct {
	PostID   uuid.UUID  `json:"post_id"`
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CreateComment adds a comment to postID. A reply must point at a top-level comment of the
// same post.
func (s *CommentService) CreateComment(ctx context.Context, postID, authorID uuid.UUID, content string, parentID *uuid.UUID) (*Comment, error) {
	if authorID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	content = strings.TrimSpace(content)

	v := common.NewValidator()
	validateContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if parentID != nil {
		parentPost, grandparent, err := s.m.getParent(ctx, *parentID)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrRecordNotFound):
				return nil, parentError("must reference an existing comment")
			default:
				return nil, err
			}
		}

		if parentPost != postID || grandparent != nil {
			return nil, parentError("must reference a top-level comment on the same post")
		}
	}

	c := Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
		ParentID: parentID,
	}

	err := s.m.insertComment(ctx, &c)
	if err != nil {
		switch {
		case errors.Is(err, errParentGone):
			return nil, parentError("must reference an existing comment")
		default:
			return nil, err
		}
	}

	created, err := s.m.getComment(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	s.notifyCreated(ctx, created)

	return created, nil
}

// UpdateComment replaces the content of the caller's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, commentID uuid.UUID, content string, callerID uuid.UUID) (*Comment, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	content = strings.TrimSpace(content)

	v := common.NewValidator()
	validateContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.updateComment(ctx, commentID, callerID, content)
	if err != nil {
		return nil, err
	}

	updated, err := s.m.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	s.commentsChanged(ctx, updated.ID, updated.PostID)

	return updated, nil
}

// DeleteComment removes the caller's own comment. Replies of a top-level comment go with it.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return common.ErrUnauthorized
	}

	postID, err := s.m.deleteComment(ctx, commentID, callerID)
	if err != nil {
		return err
	}

	s.commentsChanged(ctx, commentID, postID)

	return nil
}

// notifyCreated signals the page change and mails the post author about a comment they did
// not write themselves. Failures are logged only.
func (s *CommentService) notifyCreated(ctx context.Context, c *Comment) {
	target := s.commentsChanged(ctx, c.ID, c.PostID)
	if target == nil || target.AuthorID == c.AuthorID {
		return
	}

	ev := common.CommentCreated{
		CommentID:      c.ID,
		PostTitle:      target.PostTitle,
		PostSlug:       target.PostSlug,
		RecipientEmail: target.AuthorEmail,
		Commenter:      c.Author.Username,
		Content:        c.Content,
	}

	err := common.PublishJSON(ctx, s.mb, ev, common.CommentCreatedKey, common.CommentExchange)
	if err != nil {
		s.logger.Warn("could not publish comment notification", slog.String("comment_id", c.ID.String()), slog.String("error", err.Error()))
	}
}

// commentsChanged flushes cached listings and publishes content.changed. It returns the
// post the comment belongs to, or nil when it could not be resolved.
func (s *CommentService) commentsChanged(ctx context.Context, commentID, postID uuid.UUID) *notificationTarget {
	s.c.InvalidatePosts()

	ev := common.ContentChanged{Resource: common.ResourceComment, ID: commentID}

	target, err := s.m.getNotificationTarget(ctx, postID)
	if err != nil {
		s.logger.Warn("could not resolve post of comment", slog.String("post_id", postID.String()), slog.String("error", err.Error()))
	} else {
		ev.PostSlug = target.PostSlug
	}

	common.NotifyContentChanged(ctx, s.mb, s.logger, ev)

	return target
}
