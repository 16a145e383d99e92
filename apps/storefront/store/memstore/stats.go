package memstore

import (
	"context"

	adminmodel "supplyhub/apps/admin/model"
	catalogmodel "supplyhub/apps/catalog/model"
	messagemodel "supplyhub/apps/message/model"
	ordermodel "supplyhub/apps/order/model"
	quotemodel "supplyhub/apps/quote/model"

	"github.com/shopspring/decimal"
)

func (s *Store) DashboardStats(_ context.Context) (*adminmodel.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &adminmodel.DashboardStats{
		TotalSales:    decimal.Zero,
		OrderCount:    int64(len(s.orders)),
		CustomerCount: int64(len(s.customers)),
		UserCount:     int64(len(s.users)),
		ProductCount:  int64(len(s.products)),
	}
	for _, o := range s.orders {
		if o.PaymentStatus == ordermodel.PaymentPaid {
			st.TotalSales = st.TotalSales.Add(o.Total)
		}
		if o.Status == ordermodel.StatusPending {
			st.PendingOrders++
		}
	}
	for _, p := range s.products {
		if catalogmodel.StockStatusFor(p.StockQuantity, p.LowStockThreshold) != catalogmodel.InStock {
			st.LowStockProducts++
		}
	}
	for _, q := range s.quotes {
		if q.Status == quotemodel.StatusPending {
			st.PendingQuotes++
		}
	}
	for _, m := range s.messages {
		if m.Status == messagemodel.StatusUnread {
			st.UnreadMessages++
		}
	}
	return st, nil
}
