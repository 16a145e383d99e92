package model

import "github.com/shopspring/decimal"

// DashboardStats 后台首页统计
type DashboardStats struct {
	// TotalSales sums the totals of paid orders.
	TotalSales       decimal.Decimal `json:"totalSales"`
	OrderCount       int64           `json:"orderCount"`
	PendingOrders    int64           `json:"pendingOrders"`
	CustomerCount    int64           `json:"customerCount"`
	UserCount        int64           `json:"userCount"`
	ProductCount     int64           `json:"productCount"`
	LowStockProducts int64           `json:"lowStockProducts"`
	PendingQuotes    int64           `json:"pendingQuotes"`
	UnreadMessages   int64           `json:"unreadMessages"`
}
