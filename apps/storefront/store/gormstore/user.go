package gormstore

import (
	"context"

	"supplyhub/apps/user/model"

	"gorm.io/gorm"
)

type UserRepo struct{ db *gorm.DB }

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "user", u.Email)
}

func (r *UserRepo) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	err := r.db.WithContext(ctx).Select("*").Omit("CreatedAt").Where("id = ?", u.ID).Updates(u).Error
	return translate(err, "user", u.ID)
}

func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]model.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "user", "list")
	}
	out := []model.User{}
	err := r.db.WithContext(ctx).Scopes(paginate(page, pageSize)).Order("id").Find(&out).Error
	return out, total, translate(err, "user", "list")
}
