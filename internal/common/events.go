package common

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Resource names carried by ContentChanged.
const (
	ResourcePost     = "post"
	ResourceComment  = "comment"
	ResourceLike     = "like"
	ResourceCategory = "category"
	ResourceTag      = "tag"
	ResourceProfile  = "profile"
)

// ContentChanged tells every instance that views depending on the resource are stale.
type ContentChanged struct {
	Resource string    `json:"resource"`
	ID       uuid.UUID `json:"id"`
	PostSlug string    `json:"post_slug,omitempty"`
}

// CommentCreated feeds the new-comment notification mail.
type CommentCreated struct {
	CommentID      uuid.UUID `json:"comment_id"`
	PostTitle      string    `json:"post_title"`
	PostSlug       string    `json:"post_slug"`
	RecipientEmail string    `json:"recipient_email"`
	Commenter      string    `json:"commenter"`
	Content        string    `json:"content"`
}

// NotifyContentChanged publishes a content.changed message. The signal is fire-and-forget:
// failures are logged and never reach the caller.
func NotifyContentChanged(ctx context.Context, mb MessageProducer, logger *slog.Logger, ev ContentChanged) {
	err := PublishJSON(ctx, mb, ev, ContentChangedKey, ContentExchange)
	if err != nil && logger != nil {
		logger.Warn("could not publish content change", slog.String("resource", ev.Resource), slog.String("error", err.Error()))
	}
}
