package postservice

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/taxonomyservice"
)

var (
	ErrDuplicateSlug   = errors.New("duplicate slug")
	ErrUnknownCategory = errors.New("category does not exist")
	ErrUnknownTag      = errors.New("tag does not exist")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func newPostModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

var summaryColumns = []string{
	"p.id", "p.title", "p.slug", "p.content", "p.excerpt", "p.featured_image", "p.banner_image",
	"p.author_id", "p.category_id", "p.published", "p.published_at", "p.view_count", "p.created_at", "p.updated_at",
	"a.id", "a.username", "a.full_name", "a.avatar_url", "a.bio", "a.website", "a.created_at", "a.updated_at",
	"c.id", "c.name", "c.slug", "c.description", "c.created_at",
}

var countColumns = []string{
	"(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count",
	"(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comments_count",
}

// summarySelect joins a post with its author and optional category. withCounts adds the
// like and comment counts as correlated subqueries.
func summarySelect(withCounts bool) sq.SelectBuilder {
	cols := summaryColumns
	if withCounts {
		cols = append(append([]string{}, summaryColumns...), countColumns...)
	}

	return psql.Select(cols...).
		From("posts p").
		Join("profiles a ON a.id = p.author_id").
		LeftJoin("categories c ON c.id = p.category_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner, withCounts bool) (*PostSummary, error) {
	var (
		s          PostSummary
		categoryID uuid.NullUUID
		catID      uuid.NullUUID
		catName    sql.NullString
		catSlug    sql.NullString
		catDesc    sql.NullString
		catCreated sql.NullTime
	)

	dest := []any{
		&s.ID, &s.Title, &s.Slug, &s.Content, &s.Excerpt, &s.FeaturedImage, &s.BannerImage,
		&s.AuthorID, &categoryID, &s.Published, &s.PublishedAt, &s.ViewCount, &s.CreatedAt, &s.UpdatedAt,
		&s.Author.ID, &s.Author.Username, &s.Author.FullName, &s.Author.AvatarURL, &s.Author.Bio, &s.Author.Website, &s.Author.CreatedAt, &s.Author.UpdatedAt,
		&catID, &catName, &catSlug, &catDesc, &catCreated,
	}
	if withCounts {
		dest = append(dest, &s.LikesCount, &s.CommentsCount)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		s.CategoryID = &categoryID.UUID
	}

	if catID.Valid {
		s.Category = &taxonomyservice.Category{
			ID:        catID.UUID,
			Name:      catName.String,
			Slug:      catSlug.String,
			CreatedAt: catCreated.Time,
		}
		if catDesc.Valid {
			s.Category.Description = &catDesc.String
		}
	}

	s.Tags = []taxonomyservice.Tag{}

	return &s, nil
}

func (m *DBModel) querySummaries(ctx context.Context, b sq.SelectBuilder, withCounts bool) ([]PostSummary, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []PostSummary{}
	for rows.Next() {
		s, err := scanSummary(rows, withCounts)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, m.attachTags(ctx, posts)
}

func (m *DBModel) getPostBySlug(ctx context.Context, slug string) (*PostSummary, error) {
	query, args, err := summarySelect(false).Where(sq.Eq{"p.slug": slug}).ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSummary(m.db.QueryRowContext(ctx, query, args...), false)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return s, nil
}

// getTags returns the tags of postID in attach order.
func (m *DBModel) getTags(ctx context.Context, postID uuid.UUID) ([]taxonomyservice.Tag, error) {
	byPost, err := m.getTagsForPosts(ctx, []uuid.UUID{postID})
	if err != nil {
		return nil, err
	}

	tags := byPost[postID]
	if tags == nil {
		tags = []taxonomyservice.Tag{}
	}

	return tags, nil
}

func (m *DBModel) getTagsForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]taxonomyservice.Tag, error) {
	query := `
		SELECT pt.post_id, t.id, t.name, t.slug, t.created_at
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY pt.post_id, pt.position`

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id.String()
	}

	rows, err := m.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPost := make(map[uuid.UUID][]taxonomyservice.Tag)
	for rows.Next() {
		var (
			postID uuid.UUID
			t      taxonomyservice.Tag
		)
		err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		byPost[postID] = append(byPost[postID], t)
	}

	return byPost, rows.Err()
}

func (m *DBModel) attachTags(ctx context.Context, posts []PostSummary) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	byPost, err := m.getTagsForPosts(ctx, ids)
	if err != nil {
		return err
	}

	for i := range posts {
		if tags, ok := byPost[posts[i].ID]; ok {
			posts[i].Tags = tags
		}
	}

	return nil
}

func (m *DBModel) countLikes(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (m *DBModel) countComments(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (m *DBModel) isLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var liked bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`, postID, userID).Scan(&liked)
	return liked, err
}

func (m *DBModel) incrementViews(ctx context.Context, postID uuid.UUID) error {
	_, err := m.db.ExecContext(ctx, `SELECT increment_post_views($1)`, postID)
	return err
}

// takenSlugs returns base and every base-N slug in use, ignoring the post excludeID.
func (m *DBModel) takenSlugs(tx *sql.Tx, ctx context.Context, base string, excludeID uuid.UUID) ([]string, error) {
	query := `
		SELECT slug
		FROM posts
		WHERE (slug = $1 OR slug LIKE $1 || '-%') AND id <> $2`

	rows, err := tx.QueryContext(ctx, query, base, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		taken = append(taken, s)
	}

	return taken, rows.Err()
}

func (m *DBModel) insertPost(tx *sql.Tx, ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (title, slug, content, excerpt, featured_image, banner_image, author_id, category_id, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CASE WHEN $9 THEN NOW() END)
		RETURNING id, published_at, view_count, created_at, updated_at`

	err := tx.QueryRowContext(ctx, query, p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage, p.BannerImage,
		p.AuthorID, p.CategoryID, p.Published).Scan(&p.ID, &p.PublishedAt, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateWriteError(err)
	}

	return nil
}

// getPostOwner returns the author and slug of postID and locks the row for the rest of tx.
func (m *DBModel) getPostOwner(tx *sql.Tx, ctx context.Context, postID uuid.UUID) (authorID uuid.UUID, slug string, err error) {
	err = tx.QueryRowContext(ctx, `SELECT author_id, slug FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&authorID, &slug)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return uuid.Nil, "", common.ErrRecordNotFound
		default:
			return uuid.Nil, "", err
		}
	}

	return authorID, slug, nil
}

// updatePost overwrites the writable fields. published_at is only ever set on the first publish.
func (m *DBModel) updatePost(tx *sql.Tx, ctx context.Context, p *Post) error {
	query := `
		UPDATE posts
		SET title = $1, slug = $2, content = $3, excerpt = $4, featured_image = $5, banner_image = $6,
			category_id = $7, published = $8,
			published_at = CASE WHEN $8 AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $9
		RETURNING author_id, published_at, view_count, created_at, updated_at`

	err := tx.QueryRowContext(ctx, query, p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage, p.BannerImage,
		p.CategoryID, p.Published, p.ID).Scan(&p.AuthorID, &p.PublishedAt, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		default:
			return translateWriteError(err)
		}
	}

	return nil
}

// setTags replaces the tag set of postID, keeping the order of tagIDs.
func (m *DBModel) setTags(tx *sql.Tx, ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID)
	if err != nil {
		return err
	}

	if len(tagIDs) == 0 {
		return nil
	}

	b := psql.Insert("post_tags").Columns("post_id", "tag_id", "position")
	for i, id := range tagIDs {
		b = b.Values(postID.String(), id.String(), i)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return translateWriteError(err)
	}

	return nil
}

func (m *DBModel) deletePost(tx *sql.Tx, ctx context.Context, postID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return common.ErrRecordNotFound
	}

	return nil
}

func (m *DBModel) getPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]PostSummary, error) {
	b := summarySelect(true).
		Where(sq.Eq{"p.author_id": authorID.String()}).
		OrderBy("p.created_at DESC", "p.id")

	return m.querySummaries(ctx, b, true)
}

func (m *DBModel) listPosts(ctx context.Context, f ListFilter) ([]PostSummary, error) {
	b := summarySelect(true).Where(sq.Eq{"p.published": true})

	if f.Category != "" {
		b = b.Where(sq.Eq{"c.slug": f.Category})
	}

	if f.Author != "" {
		b = b.Where(sq.Eq{"a.username": f.Author})
	}

	if f.Tag != "" {
		b = b.Where(sq.Expr("EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id AND t.slug = ?)", f.Tag))
	}

	b = b.OrderBy("p.published_at DESC", "p.id").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	return m.querySummaries(ctx, b, true)
}

// toggleLike removes the like of (postID, userID) if present and inserts it otherwise, in
// one statement. It reports whether the like exists afterwards.
func (m *DBModel) toggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	query := `
		WITH deleted AS (
			DELETE FROM likes WHERE post_id = $1 AND user_id = $2
			RETURNING id
		), inserted AS (
			INSERT INTO likes (post_id, user_id)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM deleted)
			ON CONFLICT ON CONSTRAINT likes_post_id_user_id_key DO NOTHING
			RETURNING id
		)
		SELECT EXISTS (SELECT 1 FROM inserted)`

	var liked bool
	err := m.db.QueryRowContext(ctx, query, postID, userID).Scan(&liked)
	if err != nil {
		switch {
		case common.IsForeignKeyViolation(err, "likes_post_id_fkey"):
			return false, common.ErrRecordNotFound
		default:
			return false, err
		}
	}

	return liked, nil
}

func translateWriteError(err error) error {
	switch {
	case common.IsUniqueViolation(err, "posts_slug_key"):
		return ErrDuplicateSlug
	case common.IsForeignKeyViolation(err, "posts_category_id_fkey"):
		return ErrUnknownCategory
	case common.IsForeignKeyViolation(err, "post_tags_tag_id_fkey"):
		return ErrUnknownTag
	default:
		return err
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
