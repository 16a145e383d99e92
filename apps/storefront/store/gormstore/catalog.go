package gormstore

import (
	"context"
	"errors"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"

	"gorm.io/gorm"
)

const categoryCounts = "categories.*, " +
	"(SELECT COUNT(*) FROM products p WHERE p.category_id = categories.id) AS product_count, " +
	"(SELECT COUNT(*) FROM categories c2 WHERE c2.parent_id = categories.id) AS child_count"

type CategoryRepo struct{ db *gorm.DB }

func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "category", c.Slug)
}

func (r *CategoryRepo) Get(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Select(categoryCounts).First(&c, id).Error; err != nil {
		return nil, translate(err, "category", id)
	}
	return &c, nil
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Select(categoryCounts).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err, "category", slug)
	}
	return &c, nil
}

func (r *CategoryRepo) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, translate(err, "category", slug)
}

// Update walks the new parent's ancestor chain with row locks inside the
// same transaction as the write, so two crossing moves cannot both pass.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).Select("id").First(&model.Category{}, c.ID).Error; err != nil {
			return err
		}
		if c.ParentID != nil {
			if err := checkAncestry(tx, c.ID, *c.ParentID); err != nil {
				return err
			}
		}
		return tx.Model(&model.Category{ID: c.ID}).Updates(map[string]any{
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
			"parent_id":   c.ParentID,
			"is_active":   c.IsActive,
			"sort_order":  c.SortOrder,
		}).Error
	})
	return translate(err, "category", c.ID)
}

func checkAncestry(tx *gorm.DB, id, parentID uint) error {
	seen := map[uint]bool{}
	for cur := parentID; !seen[cur]; {
		if cur == id {
			return model.ErrCircularReference
		}
		seen[cur] = true
		var p model.Category
		err := tx.Clauses(forUpdate()).Select("id", "parent_id").First(&p, cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if cur == parentID {
				return apperr.NotFound("category", parentID)
			}
			return nil
		}
		if err != nil {
			return err
		}
		if p.ParentID == nil {
			return nil
		}
		cur = *p.ParentID
	}
	return nil
}

// Delete locks the row and re-checks the guards inside the transaction.
func (r *CategoryRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Category
		if err := tx.Clauses(forUpdate()).First(&c, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("category has children")
		}
		if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("category has products")
		}
		return tx.Delete(&model.Category{}, id).Error
	})
	return translate(err, "category", id)
}

func (r *CategoryRepo) List(ctx context.Context, f model.CategoryFilter) ([]model.Category, error) {
	q := r.db.WithContext(ctx).Select(categoryCounts)
	switch {
	case f.RootsOnly:
		q = q.Where("parent_id IS NULL")
	case f.ParentID != nil:
		q = q.Where("parent_id = ?", *f.ParentID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	out := []model.Category{}
	err := q.Order("sort_order, name").Find(&out).Error
	return out, translate(err, "category", "list")
}

func (r *CategoryRepo) ChildIDs(ctx context.Context, parentID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", parentID).Order("id").Pluck("id", &ids).Error
	return ids, translate(err, "category", parentID)
}

func (r *CategoryRepo) CountProducts(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, translate(err, "category", categoryID)
}

type BrandRepo struct{ db *gorm.DB }

func (r *BrandRepo) Create(ctx context.Context, b *model.Brand) error {
	return translate(r.db.WithContext(ctx).Create(b).Error, "brand", b.Slug)
}

func (r *BrandRepo) Get(ctx context.Context, id uint) (*model.Brand, error) {
	var b model.Brand
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err, "brand", id)
	}
	return &b, nil
}

func (r *BrandRepo) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Brand{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, translate(err, "brand", slug)
}

func (r *BrandRepo) Update(ctx context.Context, b *model.Brand) error {
	err := r.db.WithContext(ctx).Model(&model.Brand{ID: b.ID}).Updates(map[string]any{
		"name":              b.Name,
		"slug":              b.Slug,
		"description":       b.Description,
		"website":           b.Website,
		"country_of_origin": b.CountryOfOrigin,
		"is_active":         b.IsActive,
	}).Error
	return translate(err, "brand", b.ID)
}

func (r *BrandRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b model.Brand
		if err := tx.Clauses(forUpdate()).First(&b, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Product{}).Where("brand_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("brand has products")
		}
		return tx.Delete(&model.Brand{}, id).Error
	})
	return translate(err, "brand", id)
}

func (r *BrandRepo) List(ctx context.Context, f model.BrandFilter) ([]model.Brand, error) {
	q := r.db.WithContext(ctx).
		Select("brands.*, (SELECT COUNT(*) FROM products p WHERE p.brand_id = brands.id) AS product_count")
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	out := []model.Brand{}
	err := q.Order("name").Find(&out).Error
	return out, translate(err, "brand", "list")
}

type ProductRepo struct{ db *gorm.DB }

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, "product", p.SKU)
}

func (r *ProductRepo) Get(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Scopes(withImages).First(&p, id).Error; err != nil {
		return nil, translate(err, "product", id)
	}
	return &p, nil
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Scopes(withImages).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, translate(err, "product", slug)
	}
	return &p, nil
}

func (r *ProductRepo) SKUTaken(ctx context.Context, sku string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ? AND id <> ?", sku, excludeID).Count(&n).Error
	return n > 0, translate(err, "product", sku)
}

func (r *ProductRepo) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, translate(err, "product", slug)
}

// Update never writes stock_quantity; see AdjustStock.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product, replaceImages bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{ID: p.ID}).Updates(map[string]any{
			"sku":                 p.SKU,
			"name":                p.Name,
			"slug":                p.Slug,
			"description":         p.Description,
			"price":               p.Price,
			"low_stock_threshold": p.LowStockThreshold,
			"category_id":         p.CategoryID,
			"brand_id":            p.BrandID,
			"is_published":        p.IsPublished,
		})
		if res.Error != nil {
			return res.Error
		}
		if !replaceImages {
			return nil
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		if len(p.Images) == 0 {
			return nil
		}
		for i := range p.Images {
			p.Images[i].ID = 0
			p.Images[i].ProductID = p.ID
		}
		return tx.Create(&p.Images).Error
	})
	return translate(err, "product", p.ID)
}

func (r *ProductRepo) AdjustStock(ctx context.Context, id uint, delta int) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&p, id).Error; err != nil {
			return err
		}
		if p.StockQuantity+delta < 0 {
			return apperr.Validation("delta", "stock cannot go below zero")
		}
		p.StockQuantity += delta
		return tx.Model(&model.Product{ID: id}).Update("stock_quantity", p.StockQuantity).Error
	})
	if err != nil {
		return nil, translate(err, "product", id)
	}
	return r.Get(ctx, id)
}

func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error == nil && res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return res.Error
	})
	return translate(err, "product", id)
}

func (r *ProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if f.PublishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.BrandID != nil {
		q = q.Where("brand_id = ?", *f.BrandID)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("name LIKE ? OR sku LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "product", "list")
	}
	out := []model.Product{}
	err := q.Scopes(withImages, paginate(f.Page, f.PageSize)).Order("id DESC").Find(&out).Error
	return out, total, translate(err, "product", "list")
}

func (r *ProductRepo) CountByBrand(ctx context.Context, brandID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("brand_id = ?", brandID).Count(&n).Error
	return n, translate(err, "product", brandID)
}
