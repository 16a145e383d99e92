package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

// Product 商品
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	SKU               string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name              string          `gorm:"type:varchar(200);not null" json:"name"`
	Slug              string          `gorm:"type:varchar(220);not null;uniqueIndex" json:"slug"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity     int             `gorm:"not null" json:"stockQuantity"`
	LowStockThreshold int             `gorm:"not null" json:"lowStockThreshold"`
	StockStatus       StockStatus     `gorm:"-" json:"stockStatus"`
	CategoryID        uint            `gorm:"not null;index" json:"categoryId"`
	BrandID           *uint           `gorm:"index" json:"brandId"`
	IsPublished       bool            `gorm:"not null;index" json:"isPublished"`
	Images            []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ProductImage 商品图片, ordered by Position.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"-"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
	Alt       string `gorm:"type:varchar(200)" json:"alt"`
	Position  int    `gorm:"not null" json:"position"`
	IsPrimary bool   `gorm:"not null" json:"isPrimary"`
}

func (Product) TableName() string {
	return "products"
}

func (ProductImage) TableName() string {
	return "product_images"
}

// StockStatusFor classifies a quantity against a low-stock threshold.
func StockStatusFor(quantity, threshold int) StockStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= threshold:
		return LowStock
	default:
		return InStock
	}
}

// DeriveStockStatus refreshes the computed StockStatus field.
func (p *Product) DeriveStockStatus() {
	p.StockStatus = StockStatusFor(p.StockQuantity, p.LowStockThreshold)
}

func (p *Product) AfterFind(*gorm.DB) error {
	p.DeriveStockStatus()
	return nil
}

// ProductFilter narrows List. PublishedOnly is forced on every public listing.
type ProductFilter struct {
	CategoryID    *uint
	BrandID       *uint
	PublishedOnly bool
	Query         string // substring match on name or sku
	Page          int
	PageSize      int
}

// Normalize clamps paging to sane bounds.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
