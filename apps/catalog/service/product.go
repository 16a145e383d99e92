package service

import (
	"context"
	"log/slog"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/nullable"
	"supplyhub/pkg/slug"
	"supplyhub/pkg/validate"

	"github.com/shopspring/decimal"
)

type ImageInput struct {
	URL       string `json:"url" validate:"required,url,max=500"`
	Alt       string `json:"alt" validate:"max=200"`
	IsPrimary bool   `json:"isPrimary"`
}

type CreateProductInput struct {
	SKU               string          `json:"sku" validate:"required,max=64"`
	Name              string          `json:"name" validate:"required,max=200"`
	Slug              string          `json:"slug" validate:"max=220"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stockQuantity" validate:"gte=0"`
	LowStockThreshold *int            `json:"lowStockThreshold" validate:"omitempty,gte=0"`
	CategoryID        uint            `json:"categoryId" validate:"required"`
	BrandID           *uint           `json:"brandId"`
	IsPublished       bool            `json:"isPublished"`
	Images            []ImageInput    `json:"images" validate:"dive"`
}

type UpdateProductInput struct {
	SKU               *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Name              *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Slug              *string          `json:"slug" validate:"omitempty,max=220"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	LowStockThreshold *int             `json:"lowStockThreshold" validate:"omitempty,gte=0"`
	CategoryID        *uint            `json:"categoryId"`
	BrandID           nullable.ID      `json:"brandId"`
	IsPublished       *bool            `json:"isPublished"`
	// nil keeps the current images; an empty slice removes them all
	Images *[]ImageInput `json:"images" validate:"omitempty,dive"`
}

type ProductService struct {
	products   ProductRepository
	categories CategoryRepository
	brands     BrandRepository
	lowStock   int
	log        *slog.Logger
}

// NewProductService uses lowStock as the threshold for products created
// without one.
func NewProductService(products ProductRepository, categories CategoryRepository, brands BrandRepository, lowStock int, log *slog.Logger) *ProductService {
	return &ProductService{products: products, categories: categories, brands: brands, lowStock: lowStock, log: log}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("price", "must not be negative")
	}
	sl, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	images, err := buildImages(in.Images)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &in.CategoryID, in.BrandID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.SKU, sl, 0); err != nil {
		return nil, err
	}

	p := &model.Product{
		SKU:               in.SKU,
		Name:              in.Name,
		Slug:              sl,
		Description:       in.Description,
		Price:             in.Price,
		StockQuantity:     in.StockQuantity,
		LowStockThreshold: s.lowStock,
		CategoryID:        in.CategoryID,
		BrandID:           in.BrandID,
		IsPublished:       in.IsPublished,
		Images:            images,
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	p.DeriveStockStatus()
	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in UpdateProductInput) (*model.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sku, sl := p.SKU, p.Slug
	if in.SKU != nil {
		sku = *in.SKU
	}
	if in.Slug != nil {
		if !slug.Valid(*in.Slug) {
			return nil, invalidSlug()
		}
		sl = *in.Slug
	}
	if sku != p.SKU || sl != p.Slug {
		if err := s.ensureUnique(ctx, sku, sl, p.ID); err != nil {
			return nil, err
		}
	}
	p.SKU, p.Slug = sku, sl

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validation("price", "must not be negative")
		}
		p.Price = *in.Price
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.CategoryID != nil {
		if err := s.checkRefs(ctx, in.CategoryID, nil); err != nil {
			return nil, err
		}
		p.CategoryID = *in.CategoryID
	}
	if in.BrandID.Set {
		if err := s.checkRefs(ctx, nil, in.BrandID.Ptr()); err != nil {
			return nil, err
		}
		p.BrandID = in.BrandID.Ptr()
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}
	replaceImages := in.Images != nil
	if replaceImages {
		if p.Images, err = buildImages(*in.Images); err != nil {
			return nil, err
		}
	}

	if err := s.products.Update(ctx, p, replaceImages); err != nil {
		return nil, err
	}
	p.DeriveStockStatus()
	return p, nil
}

// AdjustStock applies a manual stock correction (receiving, write-off).
func (s *ProductService) AdjustStock(ctx context.Context, id uint, delta int) (*model.Product, error) {
	if delta == 0 {
		return nil, apperr.Validation("delta", "must not be zero")
	}
	p, err := s.products.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	p.DeriveStockStatus()
	s.log.InfoContext(ctx, "stock adjusted", "product_id", id, "delta", delta, "stock", p.StockQuantity)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.products.Get(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// Get returns any product, published or not.
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	return s.products.Get(ctx, id)
}

// GetPublished hides unpublished products behind a not-found error.
func (s *ProductService) GetPublished(ctx context.Context, sl string) (*model.Product, error) {
	p, err := s.products.GetBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished {
		return nil, apperr.NotFound("product", sl)
	}
	return p, nil
}

// ListPublished is the storefront listing: unpublished products never appear.
func (s *ProductService) ListPublished(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	f.PublishedOnly = true
	f.Normalize()
	return s.products.List(ctx, f)
}

// ListAll is the back-office listing.
func (s *ProductService) ListAll(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	f.Normalize()
	return s.products.List(ctx, f)
}

func (s *ProductService) checkRefs(ctx context.Context, categoryID, brandID *uint) error {
	if categoryID != nil {
		if _, err := s.categories.Get(ctx, *categoryID); err != nil {
			return err
		}
	}
	if brandID != nil {
		if _, err := s.brands.Get(ctx, *brandID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) ensureUnique(ctx context.Context, sku, sl string, excludeID uint) error {
	taken, err := s.products.SKUTaken(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("sku already exists: " + sku)
	}
	if taken, err = s.products.SlugTaken(ctx, sl, excludeID); err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("slug already exists: " + sl)
	}
	return nil
}

// buildImages keeps input order and guarantees exactly one primary image
// when any exist: the first one if none is flagged.
func buildImages(in []ImageInput) ([]model.ProductImage, error) {
	images := make([]model.ProductImage, 0, len(in))
	primaries := 0
	for i, img := range in {
		if img.IsPrimary {
			primaries++
		}
		images = append(images, model.ProductImage{URL: img.URL, Alt: img.Alt, Position: i, IsPrimary: img.IsPrimary})
	}
	if primaries > 1 {
		return nil, apperr.Validation("images", "only one image may be primary")
	}
	if primaries == 0 && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images, nil
}
