package gormstore

import (
	"context"

	adminmodel "supplyhub/apps/admin/model"
	messagemodel "supplyhub/apps/message/model"
	ordermodel "supplyhub/apps/order/model"
	quotemodel "supplyhub/apps/quote/model"
)

func (r *StatsRepo) DashboardStats(ctx context.Context) (*adminmodel.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var st adminmodel.DashboardStats

	row := db.Table("orders").Where("payment_status = ?", ordermodel.PaymentPaid).Select("COALESCE(SUM(total), 0)").Row()
	if err := row.Scan(&st.TotalSales); err != nil {
		return nil, translate(err, "stats", "sales")
	}
	counts := []struct {
		dst   *int64
		table string
		where string
		args  []any
	}{
		{&st.OrderCount, "orders", "", nil},
		{&st.PendingOrders, "orders", "status = ?", []any{ordermodel.StatusPending}},
		{&st.CustomerCount, "customers", "", nil},
		{&st.UserCount, "users", "", nil},
		{&st.ProductCount, "products", "", nil},
		{&st.LowStockProducts, "products", "stock_quantity <= low_stock_threshold", nil},
		{&st.PendingQuotes, "quotes", "status = ?", []any{quotemodel.StatusPending}},
		{&st.UnreadMessages, "messages", "status = ?", []any{messagemodel.StatusUnread}},
	}
	for _, c := range counts {
		q := db.Table(c.table)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, translate(err, "stats", c.table)
		}
	}
	return &st, nil
}
