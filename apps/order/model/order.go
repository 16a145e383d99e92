package model

import (
	"time"

	customermodel "supplyhub/apps/customer/model"

	"github.com/shopspring/decimal"
)

// Order 订单主表
type Order struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	OrderNumber     string                `gorm:"type:varchar(64);not null;uniqueIndex" json:"orderNumber"`
	CustomerID      uint                  `gorm:"not null;index" json:"customerId"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"tax"`
	Shipping        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"shipping"`
	Discount        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total           decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"total"`
	Status          Status                `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentStatus   PaymentStatus         `gorm:"type:varchar(16);not null;index" json:"paymentStatus"`
	ShippingAddress customermodel.Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	TrackingNumber  string                `gorm:"type:varchar(100)" json:"trackingNumber"`
	InternalNote    string                `gorm:"type:text" json:"internalNote"`
	Notes           string                `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	PaidAt          *time.Time            `json:"paidAt"`
	ShippedAt       *time.Time            `json:"shippedAt"`
	DeliveredAt     *time.Time            `json:"deliveredAt"`
	CancelledAt     *time.Time            `json:"cancelledAt"`
	// StockReserved is set while the order's item quantities are taken out
	// of product stock. Only the store flips it.
	StockReserved bool `gorm:"not null" json:"-"`
}

// OrderItem 订单明细表. UnitPrice is the price at order time.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"-"`
	ProductID   uint            `gorm:"not null;index" json:"productId"`
	SKU         string          `gorm:"column:sku;type:varchar(64)" json:"sku"`
	ProductName string          `gorm:"type:varchar(200)" json:"productName"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"lineTotal"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Recalculate derives line totals, subtotal and total from items and the
// tax, shipping and discount adjustments:
// total = subtotal - discount + shipping + tax.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(it.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Sub(o.Discount).Add(o.Shipping).Add(o.Tax)
}

type Filter struct {
	CustomerID    *uint
	Status        Status
	PaymentStatus PaymentStatus
	Page          int
	PageSize      int
}

func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
