package postservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/slug"
)

// maxSlugAttempts bounds the retries when a concurrent writer takes the chosen slug first.
const maxSlugAttempts = 3

func NewPostService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger, mode common.AggregationMode) *PostService {
	return &PostService{
		m:      newPostModel(db),
		c:      c,
		mb:     mb,
		logger: logger,
		mode:   mode,
	}
}

// CreatePost writes a new post owned by in.AuthorID. The slug is derived from the title; a
// taken slug gets the first free numeric suffix.
func (s *PostService) CreatePost(ctx context.Context, in *PostInput) (*Post, error) {
	if in.AuthorID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	p, err := s.newPost(in)
	if err != nil {
		return nil, err
	}

	err = s.withSlugRetry(func() error {
		tx, err := s.m.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		taken, err := s.m.takenSlugs(tx, ctx, slug.Generate(p.Title), uuid.Nil)
		if err != nil {
			return err
		}
		p.Slug = slug.NextFree(slug.Generate(p.Title), taken)

		if err := s.m.insertPost(tx, ctx, p); err != nil {
			return err
		}

		if err := s.m.setTags(tx, ctx, p.ID, in.TagIDs); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	s.postChanged(ctx, common.ResourcePost, p.ID, p.Slug)

	return p, nil
}

// UpdatePost overwrites the post and its tag set. Only the author may update it.
func (s *PostService) UpdatePost(ctx context.Context, postID, callerID uuid.UUID, in *PostInput) (*Post, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	p, err := s.newPost(in)
	if err != nil {
		return nil, err
	}
	p.ID = postID

	err = s.withSlugRetry(func() error {
		tx, err := s.m.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		authorID, _, err := s.m.getPostOwner(tx, ctx, postID)
		if err != nil {
			return err
		}

		if authorID != callerID {
			return common.ErrForbidden
		}

		taken, err := s.m.takenSlugs(tx, ctx, slug.Generate(p.Title), postID)
		if err != nil {
			return err
		}
		p.Slug = slug.NextFree(slug.Generate(p.Title), taken)

		if err := s.m.updatePost(tx, ctx, p); err != nil {
			return err
		}

		if err := s.m.setTags(tx, ctx, p.ID, in.TagIDs); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	s.postChanged(ctx, common.ResourcePost, p.ID, p.Slug)

	return p, nil
}

// DeletePost hard-deletes the post. Tags links, likes and comments go with it.
func (s *PostService) DeletePost(ctx context.Context, postID, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return common.ErrUnauthorized
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	authorID, postSlug, err := s.m.getPostOwner(tx, ctx, postID)
	if err != nil {
		return err
	}

	if authorID != callerID {
		return common.ErrForbidden
	}

	if err := s.m.deletePost(tx, ctx, postID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.postChanged(ctx, common.ResourcePost, postID, postSlug)

	return nil
}

// ListPosts returns published posts, newest first. Results are cached per filter.
func (s *PostService) ListPosts(ctx context.Context, f ListFilter) ([]PostSummary, error) {
	if f.Limit < 1 {
		f.Limit = DefaultListLimit
	}

	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}

	if f.Offset < 0 {
		f.Offset = 0
	}

	key := common.CacheKeyPosts(f.Limit, f.Offset, f.Category, f.Tag, f.Author)
	if cached, ok := s.c.Get(key); ok {
		return cached.([]PostSummary), nil
	}

	posts, err := s.m.listPosts(ctx, f)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, posts)

	return posts, nil
}

// ListPostsByAuthor returns every post of the author, drafts included.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]PostSummary, error) {
	if authorID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	return s.m.getPostsByAuthor(ctx, authorID)
}

// ToggleLike flips the like of userID on postID and reports the new state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, common.ErrUnauthorized
	}

	liked, err := s.m.toggleLike(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	s.postChanged(ctx, common.ResourceLike, postID, "")

	return liked, nil
}

func (s *PostService) newPost(in *PostInput) (*Post, error) {
	in.Title = strings.TrimSpace(in.Title)

	v := common.NewValidator()
	validatePostInput(v, in)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	in.TagIDs = uniqueIDs(in.TagIDs)

	return &Post{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       nullString(in.Excerpt),
		FeaturedImage: nullString(in.FeaturedImage),
		BannerImage:   nullString(in.BannerImage),
		AuthorID:      in.AuthorID,
		CategoryID:    in.CategoryID,
		Published:     in.Published,
	}, nil
}

func (s *PostService) withSlugRetry(fn func() error) error {
	var err error
	for i := 0; i < maxSlugAttempts; i++ {
		err = fn()
		if !errors.Is(err, ErrDuplicateSlug) {
			return err
		}
	}

	return err
}

func (s *PostService) postChanged(ctx context.Context, resource string, id uuid.UUID, postSlug string) {
	s.c.InvalidatePosts()
	common.NotifyContentChanged(ctx, s.mb, s.logger, common.ContentChanged{Resource: resource, ID: id, PostSlug: postSlug})
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
