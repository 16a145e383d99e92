package service

import (
	"context"
	"log/slog"

	"supplyhub/apps/admin/model"
	usermodel "supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"
)

type StatsRepository interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

type UserDirectory interface {
	List(ctx context.Context, page, pageSize int) ([]usermodel.User, int64, error)
	Get(ctx context.Context, id uint) (*usermodel.User, error)
	Update(ctx context.Context, u *usermodel.User) error
}

type UpdateUserInput struct {
	Role       *usermodel.Role `json:"role"`
	IsDisabled *bool           `json:"isDisabled"`
}

type DashboardService struct {
	stats StatsRepository
	users UserDirectory
	log   *slog.Logger
}

func NewDashboardService(stats StatsRepository, users UserDirectory, log *slog.Logger) *DashboardService {
	return &DashboardService{stats: stats, users: users, log: log}
}

// GetDashboardStats 获取后台统计数据
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	return s.stats.DashboardStats(ctx)
}

func (s *DashboardService) ListUsers(ctx context.Context, page, pageSize int) ([]usermodel.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.users.List(ctx, page, pageSize)
}

// UpdateUser changes a user's role or disabled flag. The acting user may
// not change itself, and only a superadmin grants or revokes superadmin.
func (s *DashboardService) UpdateUser(ctx context.Context, actorID uint, actorRole usermodel.Role, id uint, in UpdateUserInput) (*usermodel.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperr.Validation("role", "unknown role")
		}
		if id == actorID && *in.Role != u.Role {
			return nil, apperr.Conflict("cannot change your own role")
		}
		touchesSuper := *in.Role == usermodel.RoleSuperadmin || u.Role == usermodel.RoleSuperadmin
		if touchesSuper && *in.Role != u.Role && actorRole != usermodel.RoleSuperadmin {
			return nil, apperr.Forbidden("only a superadmin can grant or revoke superadmin")
		}
		u.Role = *in.Role
	}
	if in.IsDisabled != nil {
		if id == actorID && *in.IsDisabled {
			return nil, apperr.Conflict("cannot disable your own account")
		}
		u.IsDisabled = *in.IsDisabled
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "user updated", "user_id", u.ID, "role", u.Role, "disabled", u.IsDisabled, "by", actorID)
	return u, nil
}
