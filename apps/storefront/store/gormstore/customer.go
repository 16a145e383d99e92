package gormstore

import (
	"context"

	"supplyhub/apps/customer/model"
	ordermodel "supplyhub/apps/order/model"
	"supplyhub/pkg/apperr"

	"gorm.io/gorm"
)

// customerTotals are computed on read from orders that still count.
var customerTotals = "customers.*, " +
	"(SELECT COUNT(*) FROM orders o WHERE o.customer_id = customers.id AND o.status NOT IN ('" +
	string(ordermodel.StatusCancelled) + "','" + string(ordermodel.StatusRefunded) + "')) AS total_orders, " +
	"(SELECT COALESCE(SUM(o.total), 0) FROM orders o WHERE o.customer_id = customers.id AND o.status NOT IN ('" +
	string(ordermodel.StatusCancelled) + "','" + string(ordermodel.StatusRefunded) + "')) AS total_spent"

type CustomerRepo struct{ db *gorm.DB }

func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "customer", c.Email)
}

func (r *CustomerRepo) Get(ctx context.Context, id uint) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Select(customerTotals).First(&c, id).Error; err != nil {
		return nil, translate(err, "customer", id)
	}
	return &c, nil
}

func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Select(customerTotals).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, translate(err, "customer", email)
	}
	return &c, nil
}

func (r *CustomerRepo) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Where("email = ? AND id <> ?", email, excludeID).Count(&n).Error
	return n > 0, translate(err, "customer", email)
}

func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	err := r.db.WithContext(ctx).Select("*").Omit("CreatedAt", "TotalOrders", "TotalSpent").
		Where("id = ?", c.ID).Updates(c).Error
	return translate(err, "customer", c.ID)
}

func (r *CustomerRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Customer
		if err := tx.Clauses(forUpdate()).First(&c, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&ordermodel.Order{}).Where("customer_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("customer has orders")
		}
		return tx.Delete(&model.Customer{}, id).Error
	})
	return translate(err, "customer", id)
}

func (r *CustomerRepo) List(ctx context.Context, f model.Filter) ([]model.Customer, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Tag != "" {
		q = q.Where("JSON_CONTAINS(tags, JSON_QUOTE(?))", f.Tag)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR company LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "customer", "list")
	}
	out := []model.Customer{}
	err := q.Select(customerTotals).Scopes(paginate(f.Page, f.PageSize)).Order("id DESC").Find(&out).Error
	return out, total, translate(err, "customer", "list")
}

func (r *CustomerRepo) CountOrders(ctx context.Context, customerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ordermodel.Order{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, translate(err, "customer", customerID)
}
