package postservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/sushihentaime/postline/internal/postservice")

// GetPostBySlug assembles the public view of one post and counts the view. viewerID is
// uuid.Nil for anonymous readers. Drafts are only visible to their author; to everyone
// else they do not exist.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string, viewerID uuid.UUID) (*PostDetail, error) {
	ctx, span := tracer.Start(ctx, "postservice.GetPostBySlug", trace.WithAttributes(
		attribute.String("post.slug", slug),
		attribute.Bool("viewer.anonymous", viewerID == uuid.Nil),
	))
	defer span.End()

	summary, err := s.m.getPostBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, common.ErrRecordNotFound) {
			span.RecordError(err)
			s.logger.Error("could not fetch post", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return nil, common.ErrRecordNotFound
	}

	if !summary.Published && summary.AuthorID != viewerID {
		return nil, common.ErrRecordNotFound
	}

	span.SetAttributes(attribute.String("post.id", summary.ID.String()))

	detail := &PostDetail{PostSummary: *summary}

	tags, err := s.m.getTags(ctx, summary.ID)
	if err := s.settle(ctx, span, "tags", err); err != nil {
		return nil, err
	}
	if tags != nil {
		detail.Tags = tags
	}

	likes, err := s.m.countLikes(ctx, summary.ID)
	if err := s.settle(ctx, span, "likes_count", err); err != nil {
		return nil, err
	}
	detail.LikesCount = likes

	if viewerID != uuid.Nil {
		liked, err := s.m.isLiked(ctx, summary.ID, viewerID)
		if err := s.settle(ctx, span, "is_liked", err); err != nil {
			return nil, err
		}
		detail.IsLiked = liked
	}

	comments, err := s.m.countComments(ctx, summary.ID)
	if err := s.settle(ctx, span, "comments_count", err); err != nil {
		return nil, err
	}
	detail.CommentsCount = comments

	html, err := renderMarkdown(summary.Content)
	if err := s.settle(ctx, span, "content_html", err); err != nil {
		return nil, err
	}
	detail.ContentHTML = html

	// view_count in the result is the value read before this view
	err = s.m.incrementViews(ctx, summary.ID)
	if err := s.settle(ctx, span, "view_count", err); err != nil {
		return nil, err
	}

	return detail, nil
}

// settle applies the aggregation mode to a failed secondary read. It returns err only in
// strict mode; in lenient mode the failure is logged and the piece keeps its zero value.
func (s *PostService) settle(ctx context.Context, span trace.Span, part string, err error) error {
	if err == nil {
		return nil
	}

	span.RecordError(err, trace.WithAttributes(attribute.String("post.part", part)))

	if s.mode.Strict() {
		span.SetStatus(codes.Error, part)
		return err
	}

	s.logger.WarnContext(ctx, "post aggregation degraded", slog.String("part", part), slog.String("error", err.Error()))

	return nil
}
