package service

import (
	"context"

	"supplyhub/apps/catalog/model"
)

// Repositories return *apperr.Error of KindNotFound for missing rows and
// KindConflict for unique-index violations.

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	Get(ctx context.Context, id uint) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	// SlugTaken ignores the row with excludeID (0 excludes nothing).
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	// Update fails with model.ErrCircularReference when c's new parent lies
	// in c's own subtree. The check and the write are atomic.
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uint) error
	// List fills ProductCount and ChildCount.
	List(ctx context.Context, f model.CategoryFilter) ([]model.Category, error)
	ChildIDs(ctx context.Context, parentID uint) ([]uint, error)
	CountProducts(ctx context.Context, categoryID uint) (int64, error)
}

type BrandRepository interface {
	Create(ctx context.Context, b *model.Brand) error
	Get(ctx context.Context, id uint) (*model.Brand, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	Update(ctx context.Context, b *model.Brand) error
	Delete(ctx context.Context, id uint) error
	// List fills ProductCount.
	List(ctx context.Context, f model.BrandFilter) ([]model.Brand, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id uint) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	SKUTaken(ctx context.Context, sku string, excludeID uint) (bool, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	// Update saves scalar fields; images are replaced when replaceImages is set.
	Update(ctx context.Context, p *model.Product, replaceImages bool) error
	// AdjustStock adds delta atomically and fails with a validation error
	// when the result would be negative.
	AdjustStock(ctx context.Context, id uint, delta int) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error)
	CountByBrand(ctx context.Context, brandID uint) (int64, error)
}
