package taxonomyservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
)

var (
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrDuplicateTag      = errors.New("duplicate tag")
)

func newTaxonomyModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) getCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, description, created_at
		FROM categories
		ORDER BY name`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (m *DBModel) getCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `
		SELECT id, name, slug, description, created_at
		FROM categories
		WHERE slug = $1`

	var c Category
	err := m.db.QueryRowContext(ctx, query, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
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

func (m *DBModel) insertCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := m.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		switch {
		case common.IsUniqueViolation(err, "categories_slug_key"):
			return ErrDuplicateCategory
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) updateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, description = $3
		WHERE id = $4
		RETURNING created_at`

	err := m.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description, c.ID).Scan(&c.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case common.IsUniqueViolation(err, "categories_slug_key"):
			return ErrDuplicateCategory
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) getTags(ctx context.Context) ([]Tag, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM tags
		ORDER BY name`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

func (m *DBModel) getTagBySlug(ctx context.Context, slug string) (*Tag, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM tags
		WHERE slug = $1`

	var t Tag
	err := m.db.QueryRowContext(ctx, query, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
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

// upsertTag inserts the tag or returns the row already holding its slug. The no-op update
// makes RETURNING yield the existing row on conflict.
func (m *DBModel) upsertTag(ctx context.Context, t *Tag) (created bool, err error) {
	query := `
		INSERT INTO tags (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, name, created_at, (xmax = 0)`

	err = m.db.QueryRowContext(ctx, query, t.Name, t.Slug).Scan(&t.ID, &t.Name, &t.CreatedAt, &created)
	return created, err
}

func (m *DBModel) updateTag(ctx context.Context, t *Tag) error {
	query := `
		UPDATE tags
		SET name = $1, slug = $2
		WHERE id = $3
		RETURNING created_at`

	err := m.db.QueryRowContext(ctx, query, t.Name, t.Slug, t.ID).Scan(&t.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case common.IsUniqueViolation(err, "tags_slug_key"):
			return ErrDuplicateTag
		default:
			return err
		}
	}

	return nil
}

// deleteByID removes a row of table. table is one of the package constants, never user input.
func (m *DBModel) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	query := `DELETE FROM ` + table + ` WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
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

const (
	tableCategories = "categories"
	tableTags       = "tags"
)
