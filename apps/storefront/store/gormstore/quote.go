package gormstore

import (
	"context"
	"fmt"
	"time"

	"supplyhub/apps/quote/model"
	"supplyhub/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuoteRepo struct{ db *gorm.DB }

func (r *QuoteRepo) Create(ctx context.Context, q *model.Quote) error {
	return translate(r.db.WithContext(ctx).Create(q).Error, "quote", q.QuoteNumber)
}

func (r *QuoteRepo) Get(ctx context.Context, id uint) (*model.Quote, error) {
	var q model.Quote
	if err := r.db.WithContext(ctx).Preload("Items").First(&q, id).Error; err != nil {
		return nil, translate(err, "quote", id)
	}
	return &q, nil
}

func (r *QuoteRepo) List(ctx context.Context, f model.Filter) ([]model.Quote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Quote{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Email != "" {
		q = q.Where("email LIKE ?", "%"+f.Email+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "quote", "list")
	}
	out := []model.Quote{}
	err := q.Preload("Items").Scopes(paginate(f.Page, f.PageSize)).Order("id DESC").Find(&out).Error
	return out, total, translate(err, "quote", "list")
}

// Save locks the stored row and checks its status before writing.
func (r *QuoteRepo) Save(ctx context.Context, q *model.Quote, from model.Status) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored model.Quote
		if err := tx.Clauses(forUpdate()).Select("id", "status").First(&stored, q.ID).Error; err != nil {
			return err
		}
		if stored.Status != from {
			if stored.Status == model.StatusConverted {
				return apperr.Conflict("quote already converted")
			}
			return apperr.Conflict(fmt.Sprintf("quote %d was changed by another request, reload and retry", q.ID))
		}
		if err := tx.Select("*").Omit(clause.Associations, "CreatedAt").Where("id = ?", q.ID).Updates(q).Error; err != nil {
			return err
		}
		for _, it := range q.Items {
			err := tx.Model(&model.QuoteItem{}).Where("id = ? AND quote_id = ?", it.ID, q.ID).
				Update("quoted_price", it.QuotedPrice).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "quote", q.ID)
}

func (r *QuoteRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&model.QuoteItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Quote{}, id)
		if res.Error == nil && res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return res.Error
	})
	return translate(err, "quote", id)
}

func (r *QuoteRepo) ListStale(ctx context.Context, t time.Time) ([]model.Quote, error) {
	out := []model.Quote{}
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", model.StatusSent, t).
		Order("id").Find(&out).Error
	return out, translate(err, "quote", "stale")
}
