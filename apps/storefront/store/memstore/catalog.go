package memstore

import (
	"context"
	"sort"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"
)

type CategoryRepo struct{ s *Store }

func (r *CategoryRepo) Create(_ context.Context, c *model.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categorySlugTaken(c.Slug, 0) {
		return apperr.Conflict("slug already exists: " + c.Slug)
	}
	now := s.stamp()
	c.ID = s.id("categories")
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.ParentID = cloneUint(c.ParentID)
	s.categories[c.ID] = stored
	return nil
}

func (r *CategoryRepo) Get(_ context.Context, id uint) (*model.Category, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperr.NotFound("category", id)
	}
	c = s.withCategoryCounts(c)
	return &c, nil
}

func (r *CategoryRepo) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			c = s.withCategoryCounts(c)
			return &c, nil
		}
	}
	return nil, apperr.NotFound("category", slug)
}

func (r *CategoryRepo) SlugTaken(_ context.Context, slug string, excludeID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.categorySlugTaken(slug, excludeID), nil
}

func (s *Store) categorySlugTaken(slug string, excludeID uint) bool {
	for id, c := range s.categories {
		if c.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *CategoryRepo) Update(_ context.Context, c *model.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories[c.ID]
	if !ok {
		return apperr.NotFound("category", c.ID)
	}
	if s.categorySlugTaken(c.Slug, c.ID) {
		return apperr.Conflict("slug already exists: " + c.Slug)
	}
	if c.ParentID != nil {
		if err := s.checkAncestry(c.ID, *c.ParentID); err != nil {
			return err
		}
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.stamp()
	stored := *c
	stored.ParentID = cloneUint(c.ParentID)
	stored.ProductCount, stored.ChildCount = 0, 0
	s.categories[c.ID] = stored
	return nil
}

// checkAncestry walks up from parentID and refuses the move when it meets id.
// A dangling reference further up ends the walk.
func (s *Store) checkAncestry(id, parentID uint) error {
	if _, ok := s.categories[parentID]; !ok {
		return apperr.NotFound("category", parentID)
	}
	seen := map[uint]bool{}
	for cur := parentID; !seen[cur]; {
		if cur == id {
			return model.ErrCircularReference
		}
		seen[cur] = true
		p, ok := s.categories[cur]
		if !ok || p.ParentID == nil {
			return nil
		}
		cur = *p.ParentID
	}
	return nil
}

// Delete re-checks the child and product guards under the write lock.
func (r *CategoryRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return apperr.NotFound("category", id)
	}
	c = s.withCategoryCounts(c)
	if c.ChildCount > 0 {
		return apperr.Conflict("category has children")
	}
	if c.ProductCount > 0 {
		return apperr.Conflict("category has products")
	}
	delete(s.categories, id)
	return nil
}

func (r *CategoryRepo) List(_ context.Context, f model.CategoryFilter) ([]model.Category, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Category{}
	for _, c := range s.categories {
		switch {
		case f.RootsOnly && c.ParentID != nil:
			continue
		case !f.RootsOnly && f.ParentID != nil && (c.ParentID == nil || *c.ParentID != *f.ParentID):
			continue
		case f.IsActive != nil && c.IsActive != *f.IsActive:
			continue
		}
		out = append(out, s.withCategoryCounts(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoryRepo) ChildIDs(_ context.Context, parentID uint) ([]uint, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []uint{}
	for _, id := range sortedIDs(s.categories, false) {
		if p := s.categories[id].ParentID; p != nil && *p == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *CategoryRepo) CountProducts(_ context.Context, categoryID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countProducts(func(p model.Product) bool { return p.CategoryID == categoryID }), nil
}

func (s *Store) withCategoryCounts(c model.Category) model.Category {
	c.ParentID = cloneUint(c.ParentID)
	c.ProductCount = s.countProducts(func(p model.Product) bool { return p.CategoryID == c.ID })
	c.ChildCount = 0
	for _, other := range s.categories {
		if other.ParentID != nil && *other.ParentID == c.ID {
			c.ChildCount++
		}
	}
	return c
}

func (s *Store) countProducts(match func(model.Product) bool) int64 {
	var n int64
	for _, p := range s.products {
		if match(p) {
			n++
		}
	}
	return n
}

type BrandRepo struct{ s *Store }

func (r *BrandRepo) Create(_ context.Context, b *model.Brand) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brandSlugTaken(b.Slug, 0) {
		return apperr.Conflict("slug already exists: " + b.Slug)
	}
	now := s.stamp()
	b.ID = s.id("brands")
	b.CreatedAt, b.UpdatedAt = now, now
	s.brands[b.ID] = *b
	return nil
}

func (r *BrandRepo) Get(_ context.Context, id uint) (*model.Brand, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return nil, apperr.NotFound("brand", id)
	}
	return &b, nil
}

func (r *BrandRepo) SlugTaken(_ context.Context, slug string, excludeID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.brandSlugTaken(slug, excludeID), nil
}

func (s *Store) brandSlugTaken(slug string, excludeID uint) bool {
	for id, b := range s.brands {
		if b.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *BrandRepo) Update(_ context.Context, b *model.Brand) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.brands[b.ID]
	if !ok {
		return apperr.NotFound("brand", b.ID)
	}
	if s.brandSlugTaken(b.Slug, b.ID) {
		return apperr.Conflict("slug already exists: " + b.Slug)
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = s.stamp()
	stored := *b
	stored.ProductCount = 0
	s.brands[b.ID] = stored
	return nil
}

func (r *BrandRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[id]; !ok {
		return apperr.NotFound("brand", id)
	}
	if s.countProducts(func(p model.Product) bool { return p.BrandID != nil && *p.BrandID == id }) > 0 {
		return apperr.Conflict("brand has products")
	}
	delete(s.brands, id)
	return nil
}

func (r *BrandRepo) List(_ context.Context, f model.BrandFilter) ([]model.Brand, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Brand{}
	for _, b := range s.brands {
		if f.IsActive != nil && b.IsActive != *f.IsActive {
			continue
		}
		id := b.ID
		b.ProductCount = s.countProducts(func(p model.Product) bool { return p.BrandID != nil && *p.BrandID == id })
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *model.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.productUnique(p.SKU, p.Slug, 0); err != nil {
		return err
	}
	now := s.stamp()
	p.ID = s.id("products")
	p.CreatedAt, p.UpdatedAt = now, now
	s.assignImageIDs(p)
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *Store) assignImageIDs(p *model.Product) {
	for i := range p.Images {
		p.Images[i].ProductID = p.ID
		if p.Images[i].ID == 0 {
			p.Images[i].ID = s.id("product_images")
		}
	}
}

func (s *Store) productUnique(sku, slug string, excludeID uint) error {
	for id, p := range s.products {
		if id == excludeID {
			continue
		}
		if p.SKU == sku {
			return apperr.Conflict("sku already exists: " + sku)
		}
		if p.Slug == slug {
			return apperr.Conflict("slug already exists: " + slug)
		}
	}
	return nil
}

func (r *ProductRepo) Get(_ context.Context, id uint) (*model.Product, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *ProductRepo) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug {
			p = cloneProduct(p)
			return &p, nil
		}
	}
	return nil, apperr.NotFound("product", slug)
}

func (r *ProductRepo) SKUTaken(_ context.Context, sku string, excludeID uint) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.products {
		if p.SKU == sku && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepo) SlugTaken(_ context.Context, slug string, excludeID uint) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.products {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Update keeps the stored stock level: quantities change only through
// AdjustStock and order placement.
func (r *ProductRepo) Update(_ context.Context, p *model.Product, replaceImages bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.products[p.ID]
	if !ok {
		return apperr.NotFound("product", p.ID)
	}
	if err := s.productUnique(p.SKU, p.Slug, p.ID); err != nil {
		return err
	}
	p.StockQuantity = old.StockQuantity
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.stamp()
	if replaceImages {
		s.assignImageIDs(p)
	} else {
		p.Images = old.Images
	}
	s.products[p.ID] = cloneProduct(*p)
	*p = cloneProduct(*p)
	return nil
}

func (r *ProductRepo) AdjustStock(_ context.Context, id uint, delta int) (*model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	if p.StockQuantity+delta < 0 {
		return nil, apperr.Validation("delta", "stock cannot go below zero")
	}
	p.StockQuantity += delta
	p.UpdatedAt = s.stamp()
	s.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (r *ProductRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return apperr.NotFound("product", id)
	}
	delete(s.products, id)
	return nil
}

// List returns newest first.
func (r *ProductRepo) List(_ context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.Product{}
	for _, id := range sortedIDs(s.products, true) {
		p := s.products[id]
		switch {
		case f.PublishedOnly && !p.IsPublished:
			continue
		case f.CategoryID != nil && p.CategoryID != *f.CategoryID:
			continue
		case f.BrandID != nil && (p.BrandID == nil || *p.BrandID != *f.BrandID):
			continue
		case f.Query != "" && !containsFold(p.Name, f.Query) && !containsFold(p.SKU, f.Query):
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	return paginate(matched, f.Page, f.PageSize), int64(len(matched)), nil
}

func (r *ProductRepo) CountByBrand(_ context.Context, brandID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countProducts(func(p model.Product) bool { return p.BrandID != nil && *p.BrandID == brandID }), nil
}
