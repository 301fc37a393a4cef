package commentservice

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/sushihentaime/postline/internal/commentservice")

// GetComments returns the two-level comment tree of postID: top-level comments newest
// first, each with its replies oldest first. Replies are fetched concurrently, one query
// per top-level comment.
func (s *CommentService) GetComments(ctx context.Context, postID uuid.UUID) ([]TopLevelComment, error) {
	ctx, span := tracer.Start(ctx, "commentservice.GetComments", trace.WithAttributes(
		attribute.String("post.id", postID.String()),
	))
	defer span.End()

	roots, err := s.m.getTopLevel(ctx, postID)
	if err != nil {
		span.RecordError(err)
		if s.mode.Strict() {
			span.SetStatus(codes.Error, "top-level comments")
			return nil, err
		}

		s.logger.WarnContext(ctx, "could not fetch comments", slog.String("post_id", postID.String()), slog.String("error", err.Error()))
		return []TopLevelComment{}, nil
	}

	span.SetAttributes(attribute.Int("comments.top_level", len(roots)))

	tree := make([]TopLevelComment, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	if s.fanout > 0 {
		g.SetLimit(s.fanout)
	}

	for i := range roots {
		tree[i] = TopLevelComment{Comment: roots[i], Replies: []Comment{}}

		i := i
		g.Go(func() error {
			replies, err := s.m.getReplies(gctx, roots[i].ID)
			if err != nil {
				if s.mode.Strict() {
					return err
				}

				s.logger.WarnContext(gctx, "could not fetch replies", slog.String("comment_id", roots[i].ID.String()), slog.String("error", err.Error()))
				return nil
			}

			// each goroutine owns its slot
			tree[i].Replies = replies
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replies")
		return nil, err
	}

	return tree, nil
}
