package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
)

func newCommentModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

const commentSelect = `
		SELECT c.id, c.post_id, c.author_id, c.content, c.parent_id, c.created_at, c.updated_at,
			a.id, a.username, a.full_name, a.avatar_url, a.bio, a.website, a.created_at, a.updated_at
		FROM comments c
		JOIN profiles a ON a.id = c.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner, c *Comment) error {
	var parentID uuid.NullUUID

	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &parentID, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Username, &c.Author.FullName, &c.Author.AvatarURL, &c.Author.Bio, &c.Author.Website, &c.Author.CreatedAt, &c.Author.UpdatedAt)
	if err != nil {
		return err
	}

	if parentID.Valid {
		c.ParentID = &parentID.UUID
	}

	return nil
}

func (m *DBModel) queryComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// getTopLevel returns the root comments of postID, newest first.
func (m *DBModel) getTopLevel(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	query := commentSelect + `
		WHERE c.post_id = $1 AND c.parent_id IS NULL
		ORDER BY c.created_at DESC, c.id`

	return m.queryComments(ctx, query, postID)
}

// getReplies returns the direct replies of parentID, oldest first.
func (m *DBModel) getReplies(ctx context.Context, parentID uuid.UUID) ([]Comment, error) {
	query := commentSelect + `
		WHERE c.parent_id = $1
		ORDER BY c.created_at ASC, c.id`

	return m.queryComments(ctx, query, parentID)
}

func (m *DBModel) getComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := commentSelect + `
		WHERE c.id = $1`

	var c Comment
	err := scanComment(m.db.QueryRowContext(ctx, query, id), &c)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// getParent returns the post and parent of the comment a reply would attach to.
func (m *DBModel) getParent(ctx context.Context, id uuid.UUID) (postID uuid.UUID, parentID *uuid.UUID, err error) {
	var parent uuid.NullUUID

	err = m.db.QueryRowContext(ctx, `SELECT post_id, parent_id FROM comments WHERE id = $1`, id).Scan(&postID, &parent)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return uuid.Nil, nil, common.ErrRecordNotFound
		default:
			return uuid.Nil, nil, err
		}
	}

	if parent.Valid {
		parentID = &parent.UUID
	}

	return postID, parentID, nil
}

func (m *DBModel) insertComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, content, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, c.PostID, c.AuthorID, c.Content, c.ParentID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case common.IsForeignKeyViolation(err, "comments_post_id_fkey"):
			return common.ErrRecordNotFound
		case common.IsForeignKeyViolation(err, "comments_parent_id_fkey"):
			return errParentGone
		default:
			return err
		}
	}

	return nil
}

// updateComment changes the content of a comment owned by authorID. A missing comment and
// a foreign one are both ErrForbidden.
func (m *DBModel) updateComment(ctx context.Context, id, authorID uuid.UUID, content string) error {
	query := `
		UPDATE comments
		SET content = $1, updated_at = clock_timestamp()
		WHERE id = $2 AND author_id = $3`

	res, err := m.db.ExecContext(ctx, query, content, id, authorID)
	if err != nil {
		return err
	}

	return requireOneRow(res)
}

// deleteComment removes a comment owned by authorID together with its replies and returns
// the post it belonged to.
func (m *DBModel) deleteComment(ctx context.Context, id, authorID uuid.UUID) (uuid.UUID, error) {
	query := `
		DELETE FROM comments
		WHERE id = $1 AND author_id = $2
		RETURNING post_id`

	var postID uuid.UUID
	err := m.db.QueryRowContext(ctx, query, id, authorID).Scan(&postID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return uuid.Nil, common.ErrForbidden
		default:
			return uuid.Nil, err
		}
	}

	return postID, nil
}

func (m *DBModel) getNotificationTarget(ctx context.Context, postID uuid.UUID) (*notificationTarget, error) {
	query := `
		SELECT p.title, p.slug, p.author_id, u.email
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`

	var t notificationTarget
	err := m.db.QueryRowContext(ctx, query, postID).Scan(&t.PostTitle, &t.PostSlug, &t.AuthorID, &t.AuthorEmail)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &t, nil
}

func requireOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return common.ErrForbidden
	}

	return nil
}
