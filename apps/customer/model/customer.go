package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBlocked:
		return true
	}
	return false
}

// Address is a postal address value object, embedded by customers and
// order shipping details.
type Address struct {
	Recipient  string `gorm:"type:varchar(120)" json:"recipient"`
	Line1      string `gorm:"type:varchar(200)" json:"line1" validate:"required,max=200"`
	Line2      string `gorm:"type:varchar(200)" json:"line2" validate:"max=200"`
	City       string `gorm:"type:varchar(100)" json:"city" validate:"required,max=100"`
	State      string `gorm:"type:varchar(100)" json:"state" validate:"max=100"`
	PostalCode string `gorm:"type:varchar(20)" json:"postalCode" validate:"max=20"`
	Country    string `gorm:"type:varchar(2)" json:"country" validate:"required,len=2"`
	Phone      string `gorm:"type:varchar(40)" json:"phone" validate:"max=40"`
}

type Customer struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Email   string   `gorm:"type:varchar(190);not null;uniqueIndex" json:"email"`
	Name    string   `gorm:"type:varchar(120);not null" json:"name"`
	Company string   `gorm:"type:varchar(160)" json:"company"`
	Phone   string   `gorm:"type:varchar(40)" json:"phone"`
	Address Address  `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Status  Status   `gorm:"type:varchar(16);not null;index" json:"status"`
	Tags    []string `gorm:"serializer:json;type:json" json:"tags"`
	Notes   string   `gorm:"type:text" json:"notes"`
	// aggregates over non-cancelled, non-refunded orders, computed on read
	TotalOrders int64           `gorm:"->;-:migration" json:"totalOrders"`
	TotalSpent  decimal.Decimal `gorm:"->;-:migration" json:"totalSpent"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Customer) TableName() string {
	return "customers"
}

type Filter struct {
	Status   Status
	Tag      string
	Query    string // name, email or company substring
	Page     int
	PageSize int
}

func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
