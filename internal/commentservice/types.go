package commentservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/userservice"
)

// Comment is a single comment row with its author. Replies have ParentID set.
type Comment struct {
	ID        uuid.UUID           `json:"id"`
	PostID    uuid.UUID           `json:"post_id"`
	AuthorID  uuid.UUID           `json:"author_id"`
	Content   string              `json:"content"`
	ParentID  *uuid.UUID          `json:"parent_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Author    userservice.Profile `json:"author"`
}

// TopLevelComment is a root of the comment tree. Replies never carry replies of their own.
type TopLevelComment struct {
	Comment
	Replies []Comment `json:"replies"`
}

type DBModel struct {
	db *sql.DB
}

type CommentService struct {
	m      *DBModel
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
	mode   common.AggregationMode
	// fanout bounds the concurrent reply queries of one GetComments call. Zero is unbounded.
	fanout int
}

// notificationTarget is the post a comment was written on, with what the author mail needs.
type notificationTarget struct {
	PostTitle   string
	PostSlug    string
	AuthorID    uuid.UUID
	AuthorEmail string
}
