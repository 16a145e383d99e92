package model

import (
	"time"

	"supplyhub/pkg/apperr"
)

// ErrCircularReference rejects a parent that would close a loop.
var ErrCircularReference = apperr.Validation("parentId", "circular reference")

// Category 商品分类, a self-referencing tree.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	ParentID    *uint  `gorm:"index" json:"parentId"`
	IsActive    bool   `gorm:"not null" json:"isActive"`
	SortOrder   int    `gorm:"not null" json:"sortOrder"`
	// derived on read, never stored
	ProductCount int64     `gorm:"->;-:migration" json:"productCount"`
	ChildCount   int64     `gorm:"->;-:migration" json:"childCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// CategoryFilter narrows List. RootsOnly wins over ParentID.
type CategoryFilter struct {
	ParentID  *uint
	RootsOnly bool
	IsActive  *bool
}
