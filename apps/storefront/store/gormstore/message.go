package gormstore

import (
	"context"

	"supplyhub/apps/message/model"

	"gorm.io/gorm"
)

type MessageRepo struct{ db *gorm.DB }

func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error, "message", m.Subject)
}

func (r *MessageRepo) Get(ctx context.Context, id uint) (*model.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err, "message", id)
	}
	return &m, nil
}

func (r *MessageRepo) Save(ctx context.Context, m *model.Message) error {
	err := r.db.WithContext(ctx).Select("*").Omit("CreatedAt").Where("id = ?", m.ID).Updates(m).Error
	return translate(err, "message", m.ID)
}

func (r *MessageRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Message{}, id)
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "message", id)
	}
	return translate(res.Error, "message", id)
}

func (r *MessageRepo) List(ctx context.Context, f model.Filter) ([]model.Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Message{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.IsStarred != nil {
		q = q.Where("is_starred = ?", *f.IsStarred)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "message", "list")
	}
	out := []model.Message{}
	err := q.Scopes(paginate(f.Page, f.PageSize)).Order("id DESC").Find(&out).Error
	return out, total, translate(err, "message", "list")
}
