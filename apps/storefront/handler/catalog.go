package handler

import (
	"context"

	"supplyhub/apps/catalog/model"
	catalogservice "supplyhub/apps/catalog/service"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// listCategories 分类列表. parentId=null lists the roots only.
func (h *Handler) listCategories(c *gin.Context) {
	var f model.CategoryFilter
	if c.Query("parentId") == "null" {
		f.RootsOnly = true
	} else {
		parentID, err := queryUint(c, "parentId")
		if err != nil {
			response.Fail(c, err)
			return
		}
		f.ParentID = parentID
	}
	active, err := queryBool(c, "isActive")
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.IsActive = active

	list, err := h.svc.Categories.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) categoryTree(c *gin.Context) {
	active, err := queryBool(c, "isActive")
	if err != nil {
		response.Fail(c, err)
		return
	}
	tree, err := h.svc.Categories.Tree(c.Request.Context(), active != nil && *active)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, tree)
}

func (h *Handler) getCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Categories.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, d)
}

func (h *Handler) getCategoryBySlug(c *gin.Context) {
	d, err := h.svc.Categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, d)
}

func (h *Handler) categoryPath(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path, err := h.svc.Categories.Path(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, path)
}

func (h *Handler) createCategory(c *gin.Context) {
	var in catalogservice.CreateCategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.svc.Categories.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in catalogservice.UpdateCategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.svc.Categories.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, cat)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Categories.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listBrands(c *gin.Context) {
	active, err := queryBool(c, "isActive")
	if err != nil {
		response.Fail(c, err)
		return
	}
	list, err := h.svc.Brands.List(c.Request.Context(), model.BrandFilter{IsActive: active})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) getBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.svc.Brands.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, b)
}

func (h *Handler) createBrand(c *gin.Context) {
	var in catalogservice.CreateBrandInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Brands.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, b)
}

func (h *Handler) updateBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in catalogservice.UpdateBrandInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Brands.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, b)
}

func (h *Handler) deleteBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Brands.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}

func productFilter(c *gin.Context) (model.ProductFilter, error) {
	f := model.ProductFilter{Query: c.Query("q")}
	var err error
	if f.CategoryID, err = queryUint(c, "categoryId"); err != nil {
		return f, err
	}
	if f.BrandID, err = queryUint(c, "brandId"); err != nil {
		return f, err
	}
	f.Page, f.PageSize, err = paging(c)
	return f, err
}

func (h *Handler) listPublishedProducts(c *gin.Context) {
	h.listProducts(c, h.svc.Products.ListPublished)
}

func (h *Handler) listAllProducts(c *gin.Context) {
	h.listProducts(c, h.svc.Products.ListAll)
}

type productLister func(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error)

func (h *Handler) listProducts(c *gin.Context, list productLister) {
	f, err := productFilter(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	products, total, err := list(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.Normalize()
	response.Success(c, response.Page{Items: products, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *Handler) getPublishedProduct(c *gin.Context) {
	p, err := h.svc.Products.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) createProduct(c *gin.Context) {
	var in catalogservice.CreateProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Products.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in catalogservice.UpdateProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Products.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, p)
}

// adjustStock 库存调整: {"delta": -3}
func (h *Handler) adjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Delta *int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Delta == nil {
		response.Fail(c, apperr.Validation("delta", "is required"))
		return
	}
	p, err := h.svc.Products.AdjustStock(c.Request.Context(), id, *req.Delta)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Products.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
