package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewed  Status = "reviewed"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusReviewed, StatusSent, StatusRejected, StatusExpired},
	StatusReviewed:  {StatusSent, StatusRejected, StatusExpired},
	StatusSent:      {StatusAccepted, StatusRejected, StatusExpired, StatusConverted},
	StatusAccepted:  {StatusConverted},
	StatusRejected:  nil,
	StatusExpired:   nil,
	StatusConverted: nil,
}

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Respondable reports whether pricing may still be attached.
func (s Status) Respondable() bool {
	return s == StatusPending || s == StatusReviewed
}

// Quote is a request for quotation, optionally from a guest.
type Quote struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	QuoteNumber  string              `gorm:"type:varchar(64);not null;uniqueIndex" json:"quoteNumber"`
	CustomerID   *uint               `gorm:"index" json:"customerId"`
	CustomerName string              `gorm:"type:varchar(120);not null" json:"customerName"`
	Email        string              `gorm:"type:varchar(190);not null;index" json:"email"`
	Company      string              `gorm:"type:varchar(160)" json:"company"`
	Phone        string              `gorm:"type:varchar(40)" json:"phone"`
	Items        []QuoteItem         `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items"`
	Notes        string              `gorm:"type:text" json:"notes"`
	Status       Status              `gorm:"type:varchar(16);not null;index" json:"status"`
	Subtotal     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	Discount     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount"`
	Total        decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"total"`
	ValidUntil   *time.Time          `json:"validUntil"`
	AdminMessage string              `gorm:"type:text" json:"adminMessage"`
	OrderID      *uint               `gorm:"index" json:"orderId"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	ReviewedAt   *time.Time          `json:"reviewedAt"`
	SentAt       *time.Time          `json:"sentAt"`
	RespondedAt  *time.Time          `json:"respondedAt"`
	ConvertedAt  *time.Time          `json:"convertedAt"`
}

type QuoteItem struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	QuoteID        uint                `gorm:"not null;index" json:"-"`
	ProductID      *uint               `gorm:"index" json:"productId"`
	ProductName    string              `gorm:"type:varchar(200);not null" json:"productName"`
	Quantity       int                 `gorm:"not null" json:"quantity"`
	RequestedPrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"requestedPrice"`
	QuotedPrice    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"quotedPrice"`
}

func (Quote) TableName() string {
	return "quotes"
}

func (QuoteItem) TableName() string {
	return "quote_items"
}

type Filter struct {
	CustomerID *uint
	Status     Status
	Email      string
	Page       int
	PageSize   int
}

func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
