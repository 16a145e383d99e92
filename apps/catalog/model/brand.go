package model

import "time"

type Brand struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug            string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Description     string    `gorm:"type:text" json:"description"`
	Website         string    `gorm:"type:varchar(255)" json:"website"`
	CountryOfOrigin string    `gorm:"type:varchar(80)" json:"countryOfOrigin"`
	IsActive        bool      `gorm:"not null" json:"isActive"`
	ProductCount    int64     `gorm:"->;-:migration" json:"productCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Brand) TableName() string {
	return "brands"
}

type BrandFilter struct {
	IsActive *bool
}
