package gormstore

import (
	"context"
	"testing"

	"supplyhub/apps/catalog/model"
	"supplyhub/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCategory(t *testing.T, st *Store, slug string, parent *uint) *model.Category {
	t.Helper()
	c := &model.Category{Name: slug, Slug: slug, ParentID: parent, IsActive: true}
	require.NoError(t, st.Categories().Create(context.Background(), c))
	return c
}

func TestCategoryCounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	root := seedCategory(t, st, "hardware", nil)
	seedCategory(t, st, "bolts", &root.ID)
	seedCategory(t, st, "nuts", &root.ID)
	p := seedProduct(t, st, "hx-1", 3)
	p.CategoryID = root.ID
	require.NoError(t, st.Products().Update(ctx, p, false))

	got, err := st.Categories().Get(ctx, root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ProductCount)
	assert.EqualValues(t, 2, got.ChildCount)

	roots, err := st.Categories().List(ctx, model.CategoryFilter{RootsOnly: true})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.EqualValues(t, 2, roots[0].ChildCount)

	children, err := st.Categories().List(ctx, model.CategoryFilter{ParentID: &root.ID})
	require.NoError(t, err)
	assert.Len(t, children, 2)
	ids, err := st.Categories().ChildIDs(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	bySlug, err := st.Categories().GetBySlug(ctx, "hardware")
	require.NoError(t, err)
	assert.Equal(t, root.ID, bySlug.ID)
	taken, err := st.Categories().SlugTaken(ctx, "hardware", root.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCategoryUpdate_RefusesCycles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	a := seedCategory(t, st, "a", nil)
	b := seedCategory(t, st, "b", &a.ID)
	c := seedCategory(t, st, "c", &b.ID)

	a.ParentID = &c.ID
	ae := requireKind(t, st.Categories().Update(ctx, a), apperr.KindValidation)
	assert.Equal(t, "parentId", ae.Field)
	stored, err := st.Categories().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)

	missing := uint(999)
	c.ParentID = &missing
	requireKind(t, st.Categories().Update(ctx, c), apperr.KindNotFound)

	c.ParentID = nil
	c.Name = "Carriage bolts"
	require.NoError(t, st.Categories().Update(ctx, c))
	a.ParentID = &c.ID
	require.NoError(t, st.Categories().Update(ctx, a))
	stored, err = st.Categories().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, *stored.ParentID)

	requireKind(t, st.Categories().Update(ctx, &model.Category{ID: 999, Slug: "ghost"}), apperr.KindNotFound)
}

func TestCategoryDelete_Guards(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	parent := seedCategory(t, st, "fasteners", nil)
	child := seedCategory(t, st, "washers", &parent.ID)
	p := seedProduct(t, st, "w-1", 1)
	p.CategoryID = child.ID
	require.NoError(t, st.Products().Update(ctx, p, false))

	ae := requireKind(t, st.Categories().Delete(ctx, parent.ID), apperr.KindConflict)
	assert.Equal(t, "category has children", ae.Message)
	ae = requireKind(t, st.Categories().Delete(ctx, child.ID), apperr.KindConflict)
	assert.Equal(t, "category has products", ae.Message)

	require.NoError(t, st.Products().Delete(ctx, p.ID))
	require.NoError(t, st.Categories().Delete(ctx, child.ID))
	require.NoError(t, st.Categories().Delete(ctx, parent.ID))
	requireKind(t, st.Categories().Delete(ctx, parent.ID), apperr.KindNotFound)
}

func TestProductStock(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, st, "st-1", 3)

	requireKind(t, adjust(st, p.ID, -5), apperr.KindValidation)
	assert.Equal(t, 3, stockOf(t, st, p.ID))

	got, err := st.Products().AdjustStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
	assert.Equal(t, model.InStock, got.StockStatus)

	// Update never writes stock
	got.StockQuantity = 100
	got.Name = "Renamed"
	require.NoError(t, st.Products().Update(ctx, got, false))
	again, err := st.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.StockQuantity)
	assert.Equal(t, "Renamed", again.Name)

	requireKind(t, adjust(st, 999, 1), apperr.KindNotFound)
}

func adjust(st *Store, id uint, delta int) error {
	_, err := st.Products().AdjustStock(context.Background(), id, delta)
	return err
}

func TestProductImagesReplaced(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, st, "img-1", 1)

	p.Images = []model.ProductImage{{URL: "https://cdn.example.com/b.jpg", Position: 2}, {URL: "https://cdn.example.com/a.jpg", Position: 1, IsPrimary: true}}
	require.NoError(t, st.Products().Update(ctx, p, true))
	got, err := st.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.jpg", got.Images[0].URL)

	got.Images = nil
	require.NoError(t, st.Products().Update(ctx, got, true))
	got, err = st.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
}

func TestBrandDelete_Guarded(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := &model.Brand{Name: "Acme", Slug: "acme", IsActive: true}
	require.NoError(t, st.Brands().Create(ctx, b))
	p := seedProduct(t, st, "ac-1", 1)
	p.BrandID = &b.ID
	require.NoError(t, st.Products().Update(ctx, p, false))

	brands, err := st.Brands().List(ctx, model.BrandFilter{})
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.EqualValues(t, 1, brands[0].ProductCount)

	ae := requireKind(t, st.Brands().Delete(ctx, b.ID), apperr.KindConflict)
	assert.Equal(t, "brand has products", ae.Message)

	p.BrandID = nil
	require.NoError(t, st.Products().Update(ctx, p, false))
	require.NoError(t, st.Brands().Delete(ctx, b.ID))
}
