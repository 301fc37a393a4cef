package postservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/taxonomyservice"
	"github.com/sushihentaime/postline/internal/userservice"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type Post struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
	// Content is stored in Markdown format.
	Content       string     `json:"content"`
	Excerpt       *string    `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image"`
	BannerImage   *string    `json:"banner_image"`
	AuthorID      uuid.UUID  `json:"author_id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at"`
	ViewCount     int64      `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PostSummary is a list row: the post with its relations and counts.
type PostSummary struct {
	Post
	Author        userservice.Profile       `json:"author"`
	Category      *taxonomyservice.Category `json:"category"`
	Tags          []taxonomyservice.Tag     `json:"tags"`
	LikesCount    int                       `json:"likes_count"`
	CommentsCount int                       `json:"comments_count"`
}

// PostDetail is the full public view of a single post.
type PostDetail struct {
	PostSummary
	IsLiked     bool   `json:"is_liked"`
	ContentHTML string `json:"content_html"`
}

// PostInput carries the writable fields of a post. AuthorID is set from the caller, never
// from the request body.
type PostInput struct {
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt"`
	FeaturedImage string      `json:"featured_image"`
	BannerImage   string      `json:"banner_image"`
	CategoryID    *uuid.UUID  `json:"category_id"`
	TagIDs        []uuid.UUID `json:"tag_ids"`
	Published     bool        `json:"published"`
	AuthorID      uuid.UUID   `json:"-"`
}

// ListFilter selects published posts. Empty strings disable a filter.
type ListFilter struct {
	Limit    int
	Offset   int
	Category string
	Tag      string
	Author   string
}

type DBModel struct {
	db *sql.DB
}

type PostService struct {
	m      *DBModel
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
	mode   common.AggregationMode
}
