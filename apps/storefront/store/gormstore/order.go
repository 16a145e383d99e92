package gormstore

import (
	"context"
	"fmt"

	catalogmodel "supplyhub/apps/catalog/model"
	"supplyhub/apps/order/model"
	"supplyhub/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct{ db *gorm.DB }

// Place 扣库存 + 创建订单 in one transaction.
func (r *OrderRepo) Place(ctx context.Context, o *model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserve(tx, o.Items); err != nil {
			return err
		}
		o.StockReserved = true
		return tx.Create(o).Error
	})
	return translate(err, "order", o.OrderNumber)
}

// reserve locks the product rows in id order, re-checks every line and only
// then decrements, so a concurrent order can never oversell.
func reserve(tx *gorm.DB, items []model.OrderItem) error {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []catalogmodel.Product
	if err := tx.Clauses(forUpdate()).Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
		return err
	}
	stock := make(map[uint]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.StockQuantity
	}
	for i, it := range items {
		have, ok := stock[it.ProductID]
		if !ok {
			return apperr.NotFound("product", it.ProductID)
		}
		if have < it.Quantity {
			return apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "out of stock")
		}
	}
	for _, it := range items {
		if err := moveStock(tx, it.ProductID, -it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func moveStock(tx *gorm.DB, productID uint, delta int) error {
	return tx.Model(&catalogmodel.Product{}).Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
}

// restock returns item quantities; rows of deleted products are skipped by
// the UPDATE matching nothing.
func restock(tx *gorm.DB, items []model.OrderItem) error {
	for _, it := range items {
		if err := moveStock(tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// lockOrder reads the stored order row FOR UPDATE together with its items.
func lockOrder(tx *gorm.DB, id uint) (*model.Order, error) {
	var stored model.Order
	if err := tx.Clauses(forUpdate()).First(&stored, id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", id).Order("id").Find(&stored.Items).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, translate(err, "order", id)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f model.Filter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "order", "list")
	}
	out := []model.Order{}
	err := q.Preload("Items").Scopes(paginate(f.Page, f.PageSize)).Order("id DESC").Find(&out).Error
	return out, total, translate(err, "order", "list")
}

func (r *OrderRepo) Save(ctx context.Context, o *model.Order, from model.Status) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := lockOrder(tx, o.ID)
		if err != nil {
			return err
		}
		if stored.Status != from {
			return apperr.Conflict(fmt.Sprintf("order %d was changed by another request, reload and retry", o.ID))
		}
		hold := o.Status.HoldsStock(stored.StockReserved)
		switch {
		case stored.StockReserved && !hold:
			err = restock(tx, stored.Items)
		case !stored.StockReserved && hold:
			err = reserve(tx, stored.Items)
		}
		if err != nil {
			return err
		}
		o.StockReserved = hold
		return tx.Select("*").Omit(clause.Associations, "CreatedAt").Where("id = ?", o.ID).Updates(o).Error
	})
	return translate(err, "order", o.ID)
}

func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		if !stored.Status.Deletable() {
			return apperr.Conflict(fmt.Sprintf("cannot delete a %s order", stored.Status))
		}
		if stored.StockReserved {
			if err := restock(tx, stored.Items); err != nil {
				return err
			}
		}
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, id).Error
	})
	return translate(err, "order", id)
}
