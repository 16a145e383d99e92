package service

import (
	"context"
	"log/slog"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/slug"
	"supplyhub/pkg/validate"
)

type CreateBrandInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Slug            string `json:"slug" validate:"max=120"`
	Description     string `json:"description"`
	Website         string `json:"website" validate:"omitempty,url"`
	CountryOfOrigin string `json:"countryOfOrigin" validate:"max=80"`
	IsActive        *bool  `json:"isActive"`
}

type UpdateBrandInput struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug            *string `json:"slug" validate:"omitempty,max=120"`
	Description     *string `json:"description"`
	Website         *string `json:"website" validate:"omitempty,url"`
	CountryOfOrigin *string `json:"countryOfOrigin" validate:"omitempty,max=80"`
	IsActive        *bool   `json:"isActive"`
}

type BrandService struct {
	brands   BrandRepository
	products ProductRepository
	log      *slog.Logger
}

func NewBrandService(brands BrandRepository, products ProductRepository, log *slog.Logger) *BrandService {
	return &BrandService{brands: brands, products: products, log: log}
}

func (s *BrandService) Create(ctx context.Context, in CreateBrandInput) (*model.Brand, error) {
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

	b := &model.Brand{
		Name:            in.Name,
		Slug:            sl,
		Description:     in.Description,
		Website:         in.Website,
		CountryOfOrigin: in.CountryOfOrigin,
		IsActive:        true,
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if err := s.brands.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "brand created", "brand_id", b.ID, "slug", b.Slug)
	return b, nil
}

func (s *BrandService) Update(ctx context.Context, id uint, in UpdateBrandInput) (*model.Brand, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	b, err := s.brands.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if in.Slug != nil && *in.Slug != b.Slug {
		if !slug.Valid(*in.Slug) {
			return nil, invalidSlug()
		}
		if err := s.ensureSlugFree(ctx, *in.Slug, b.ID); err != nil {
			return nil, err
		}
		b.Slug = *in.Slug
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Website != nil {
		b.Website = *in.Website
	}
	if in.CountryOfOrigin != nil {
		b.CountryOfOrigin = *in.CountryOfOrigin
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if err := s.brands.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete refuses while any product still references the brand.
func (s *BrandService) Delete(ctx context.Context, id uint) error {
	if _, err := s.brands.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.products.CountByBrand(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("brand has products")
	}
	if err := s.brands.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "brand deleted", "brand_id", id)
	return nil
}

func (s *BrandService) Get(ctx context.Context, id uint) (*model.Brand, error) {
	b, err := s.brands.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ProductCount, err = s.products.CountByBrand(ctx, id); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BrandService) List(ctx context.Context, f model.BrandFilter) ([]model.Brand, error) {
	return s.brands.List(ctx, f)
}

func (s *BrandService) ensureSlugFree(ctx context.Context, sl string, excludeID uint) error {
	taken, err := s.brands.SlugTaken(ctx, sl, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("slug already exists: " + sl)
	}
	return nil
}
