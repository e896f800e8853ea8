package service

import (
	"context"

	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

type ListUsersInput struct {
	Role   string `form:"role" validate:"omitempty,oneof=Admin Faculty Student"`
	Search string `form:"search" validate:"max=64"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type AdminListPostsInput struct {
	Section        string `form:"section" validate:"omitempty,oneof=Official Student Anonymous"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
}

type UpdateUserInput struct {
	Role     *domain.Role `json:"role" validate:"omitnil,oneof=Admin Faculty Student"`
	IsActive *bool        `json:"isActive"`
}

type Stats struct {
	TotalUsers     int64                 `json:"totalUsers"`
	TotalPosts     int64                 `json:"totalPosts"`
	TotalComments  int64                 `json:"totalComments"`
	UsersByRole    []domain.RoleCount    `json:"usersByRole"`
	PostsBySection []domain.SectionCount `json:"postsBySection"`
	RecentPosts    []domain.Post         `json:"recentPosts"`
}

type AdminService struct {
	users    domain.UserRepository
	posts    domain.PostRepository
	comments domain.CommentRepository
	stats    *StatsCache
	log      *zap.Logger
}

func NewAdminService(users domain.UserRepository, posts domain.PostRepository, comments domain.CommentRepository,
	stats *StatsCache, log *zap.Logger) *AdminService {
	return &AdminService{users: users, posts: posts, comments: comments, stats: stats, log: log.Named("admin")}
}

func (s *AdminService) ListUsers(ctx context.Context, in ListUsersInput) (*domain.Page[domain.User], error) {
	if err := check(in); err != nil {
		return nil, err
	}
	page := domain.PageRequest{Page: in.Page, Limit: in.Limit}.Normalize(20)
	items, total, err := s.users.List(ctx, domain.UserFilter{Role: domain.Role(in.Role), Search: in.Search, Page: page})
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.User]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

func (s *AdminService) ListPosts(ctx context.Context, in AdminListPostsInput) (*domain.Page[domain.Post], error) {
	if err := check(in); err != nil {
		return nil, err
	}
	page := domain.PageRequest{Page: in.Page, Limit: in.Limit}.Normalize(20)
	items, total, err := s.posts.List(ctx, domain.PostFilter{
		Section:        domain.Section(in.Section),
		IncludeDeleted: in.IncludeDeleted,
		Page:           page,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.Post]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	return s.stats.get(ctx, s.loadStats)
}

func (s *AdminService) loadStats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if st.TotalPosts, err = s.posts.CountLive(ctx); err != nil {
		return nil, err
	}
	if st.TotalComments, err = s.comments.CountLive(ctx); err != nil {
		return nil, err
	}
	if st.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
		return nil, err
	}
	if st.PostsBySection, err = s.posts.CountBySection(ctx); err != nil {
		return nil, err
	}
	if st.RecentPosts, err = s.posts.Recent(ctx, 5); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateUser changes role and/or active flag only.
func (s *AdminService) UpdateUser(ctx context.Context, caller *domain.User, id string, in UpdateUserInput) (*domain.User, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		u.Role = *in.Role
		if u.Role != domain.RoleStudent {
			u.Year = nil
		}
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	s.log.Info("user updated", zap.String("by", caller.ID), zap.String("uid", u.ID),
		zap.String("role", string(u.Role)), zap.Bool("active", u.IsActive))
	return u, nil
}

// DeleteUser hard-deletes a user that has authored nothing. Accounts with posts
// or comments are refused with Conflict; deactivate them instead.
func (s *AdminService) DeleteUser(ctx context.Context, caller *domain.User, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if caller.ID == id {
		return domain.Conflict("admins cannot delete their own account")
	}
	has, err := s.users.HasContent(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return domain.Conflict("user has posts or comments; deactivate the account instead")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	s.log.Info("user deleted", zap.String("by", caller.ID), zap.String("uid", id))
	return nil
}
