package service

import (
	"context"
	"log/slog"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/nullable"
	"supplyhub/pkg/slug"
	"supplyhub/pkg/validate"
)

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=120"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parentId"`
	IsActive    *bool  `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
}

type UpdateCategoryInput struct {
	Name        *string     `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string     `json:"slug" validate:"omitempty,max=120"`
	Description *string     `json:"description"`
	ParentID    nullable.ID `json:"parentId"`
	IsActive    *bool       `json:"isActive"`
	SortOrder   *int        `json:"sortOrder"`
}

// CategoryDetail is a category with its immediate neighbourhood.
type CategoryDetail struct {
	model.Category
	Parent   *model.Category  `json:"parent"`
	Children []model.Category `json:"children"`
}

// CategoryService maintains the category tree: unique slugs, an acyclic
// parent graph and guarded deletes.
type CategoryService struct {
	repo CategoryRepository
	log  *slog.Logger
}

func NewCategoryService(repo CategoryRepository, log *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*model.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	sl, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, sl, 0); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	c := &model.Category{
		Name:        in.Name,
		Slug:        sl,
		Description: in.Description,
		ParentID:    in.ParentID,
		IsActive:    true,
		SortOrder:   in.SortOrder,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.ProductCount = 0
	s.log.InfoContext(ctx, "category created", "category_id", c.ID, "slug", c.Slug)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, in UpdateCategoryInput) (*model.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Slug != nil && *in.Slug != c.Slug {
		if !slug.Valid(*in.Slug) {
			return nil, invalidSlug()
		}
		if err := s.ensureSlugFree(ctx, *in.Slug, c.ID); err != nil {
			return nil, err
		}
		c.Slug = *in.Slug
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	if in.ParentID.Set {
		if err := s.reparent(ctx, c, in.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if c.ProductCount, err = s.repo.CountProducts(ctx, c.ID); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "category updated", "category_id", c.ID)
	return c, nil
}

// reparent checks the cheap cases up front. The repository re-walks the new
// parent's ancestors while it writes, which is what keeps the graph acyclic
// under concurrent moves.
func (s *CategoryService) reparent(ctx context.Context, c *model.Category, parent nullable.ID) error {
	if !parent.Valid {
		c.ParentID = nil
		return nil
	}
	pid := parent.Value
	if pid == c.ID {
		return model.ErrCircularReference
	}
	if _, err := s.repo.Get(ctx, pid); err != nil {
		return err
	}
	c.ParentID = &pid
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	children, err := s.repo.ChildIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return apperr.Conflict("category has children")
	}
	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return apperr.Conflict("category has products")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "category deleted", "category_id", id)
	return nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*CategoryDetail, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

func (s *CategoryService) GetBySlug(ctx context.Context, sl string) (*CategoryDetail, error) {
	c, err := s.repo.GetBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

func (s *CategoryService) detail(ctx context.Context, c *model.Category) (*CategoryDetail, error) {
	d := &CategoryDetail{Category: *c, Children: []model.Category{}}
	if c.ParentID != nil {
		parent, err := s.repo.Get(ctx, *c.ParentID)
		switch {
		case err == nil:
			d.Parent = parent
		case !apperr.Is(err, apperr.KindNotFound):
			return nil, err
		}
	}

	children, err := s.repo.List(ctx, model.CategoryFilter{ParentID: &c.ID})
	if err != nil {
		return nil, err
	}
	d.Children = append(d.Children, children...)
	d.ChildCount = int64(len(children))
	if d.ProductCount, err = s.repo.CountProducts(ctx, c.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *CategoryService) List(ctx context.Context, f model.CategoryFilter) ([]model.Category, error) {
	return s.repo.List(ctx, f)
}

// Tree returns the whole hierarchy as a forest of arbitrary depth.
func (s *CategoryService) Tree(ctx context.Context, activeOnly bool) ([]*CategoryNode, error) {
	var f model.CategoryFilter
	if activeOnly {
		active := true
		f.IsActive = &active
	}
	all, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return BuildTree(all), nil
}

// Path returns the breadcrumb from the root down to id. A dangling parent
// reference truncates the path rather than failing.
func (s *CategoryService) Path(ctx context.Context, id uint) ([]model.Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	path := []model.Category{*c}
	seen := map[uint]bool{c.ID: true}
	for c.ParentID != nil && !seen[*c.ParentID] {
		parent, err := s.repo.Get(ctx, *c.ParentID)
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WarnContext(ctx, "category path truncated", "category_id", c.ID, "missing_parent", *c.ParentID)
			break
		}
		if err != nil {
			return nil, err
		}
		seen[parent.ID] = true
		path = append(path, *parent)
		c = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, sl string, excludeID uint) error {
	taken, err := s.repo.SlugTaken(ctx, sl, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("slug already exists: " + sl)
	}
	return nil
}

// resolveSlug validates an explicit slug or derives one from name.
func resolveSlug(explicit, name string) (string, error) {
	sl := explicit
	if sl == "" {
		sl = slug.Make(name)
	}
	if !slug.Valid(sl) {
		return "", invalidSlug()
	}
	return sl, nil
}

func invalidSlug() error {
	return apperr.Validation("slug", "must be lowercase kebab-case (a-z, 0-9, single dashes)")
}
