package taxonomyservice

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/slug"
)

func NewTaxonomyService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{
		m:      newTaxonomyModel(db),
		c:      c,
		mb:     mb,
		logger: logger,
	}
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TagRequest struct {
	Name string `json:"name"`
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]Category, error) {
	if cached, ok := s.c.Get(common.CacheKeyCategories()); ok {
		return cached.([]Category), nil
	}

	categories, err := s.m.getCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyCategories(), categories)

	return categories, nil
}

func (s *TaxonomyService) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.m.getCategoryBySlug(ctx, slug)
}

// CreateCategory derives the slug from the name. A taken slug is ErrDuplicateCategory.
func (s *TaxonomyService) CreateCategory(ctx context.Context, callerID uuid.UUID, req *CategoryRequest) (*Category, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	c, err := newCategory(req)
	if err != nil {
		return nil, err
	}

	err = s.m.insertCategory(ctx, c)
	if err != nil {
		return nil, err
	}

	s.categoriesChanged(ctx, c.ID)

	return c, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id, callerID uuid.UUID, req *CategoryRequest) (*Category, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	c, err := newCategory(req)
	if err != nil {
		return nil, err
	}
	c.ID = id

	err = s.m.updateCategory(ctx, c)
	if err != nil {
		return nil, err
	}

	s.categoriesChanged(ctx, c.ID)

	return c, nil
}

// DeleteCategory removes the category. Its posts keep existing without one.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return common.ErrUnauthorized
	}

	err := s.m.deleteByID(ctx, tableCategories, id)
	if err != nil {
		return err
	}

	s.categoriesChanged(ctx, id)

	return nil
}

func (s *TaxonomyService) ListTags(ctx context.Context) ([]Tag, error) {
	if cached, ok := s.c.Get(common.CacheKeyTags()); ok {
		return cached.([]Tag), nil
	}

	tags, err := s.m.getTags(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyTags(), tags)

	return tags, nil
}

func (s *TaxonomyService) GetTagBySlug(ctx context.Context, slug string) (*Tag, error) {
	return s.m.getTagBySlug(ctx, slug)
}

// CreateTag returns the existing tag when one with the same slug exists. created reports
// whether a new row was written.
func (s *TaxonomyService) CreateTag(ctx context.Context, callerID uuid.UUID, req *TagRequest) (tag *Tag, created bool, err error) {
	if callerID == uuid.Nil {
		return nil, false, common.ErrUnauthorized
	}

	t, err := newTag(req)
	if err != nil {
		return nil, false, err
	}

	created, err = s.m.upsertTag(ctx, t)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.tagsChanged(ctx, t.ID)
	}

	return t, created, nil
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, id, callerID uuid.UUID, req *TagRequest) (*Tag, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	t, err := newTag(req)
	if err != nil {
		return nil, err
	}
	t.ID = id

	err = s.m.updateTag(ctx, t)
	if err != nil {
		return nil, err
	}

	s.tagsChanged(ctx, t.ID)

	return t, nil
}

func (s *TaxonomyService) DeleteTag(ctx context.Context, id, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return common.ErrUnauthorized
	}

	err := s.m.deleteByID(ctx, tableTags, id)
	if err != nil {
		return err
	}

	s.tagsChanged(ctx, id)

	return nil
}

func newCategory(req *CategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)

	v := common.NewValidator()
	validateName(v, name)
	validateDescription(v, description)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c := &Category{Name: name, Slug: slug.Generate(name)}
	if description != "" {
		c.Description = &description
	}

	return c, nil
}

func newTag(req *TagRequest) (*Tag, error) {
	name := strings.TrimSpace(req.Name)

	v := common.NewValidator()
	validateName(v, name)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return &Tag{Name: name, Slug: slug.Generate(name)}, nil
}

// Post listings embed categories and tags, so they go stale together.
func (s *TaxonomyService) categoriesChanged(ctx context.Context, id uuid.UUID) {
	s.c.InvalidateCategories()
	s.c.InvalidatePosts()
	common.NotifyContentChanged(ctx, s.mb, s.logger, common.ContentChanged{Resource: common.ResourceCategory, ID: id})
}

func (s *TaxonomyService) tagsChanged(ctx context.Context, id uuid.UUID) {
	s.c.InvalidateTags()
	s.c.InvalidatePosts()
	common.NotifyContentChanged(ctx, s.mb, s.logger, common.ContentChanged{Resource: common.ResourceTag, ID: id})
}
