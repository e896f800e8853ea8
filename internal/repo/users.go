package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Conflict("email already registered")
	}
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := q.Scopes(paginate(f.Page)).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepo) HasContent(ctx context.Context, id string) (bool, error) {
	db := r.db.WithContext(ctx)
	var n int64
	if err := db.Model(&domain.Post{}).Where("author_id = ?", id).Count(&n).Error; err != nil || n > 0 {
		return n > 0, err
	}
	err := db.Model(&domain.Comment{}).Where("author_id = ?", id).Count(&n).Error
	return n > 0, err
}

// Delete removes the user row together with the rows that only make sense while
// the user exists: received notifications and upvote memberships. Affected
// upvote counters are recomputed in the same transaction.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs, commentIDs []string
		if err := tx.Model(&domain.PostUpvote{}).Where("user_id = ?", id).Pluck("post_id", &postIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.CommentUpvote{}).Where("user_id = ?", id).Pluck("comment_id", &commentIDs).Error; err != nil {
			return err
		}
		steps := []func() error{
			func() error { return tx.Where("recipient_id = ?", id).Delete(&domain.Notification{}).Error },
			func() error {
				return tx.Model(&domain.Notification{}).Where("sender_id = ?", id).UpdateColumn("sender_id", nil).Error
			},
			func() error {
				return tx.Model(&domain.Post{}).Where("verified_by_id = ?", id).UpdateColumn("verified_by_id", nil).Error
			},
			func() error {
				return tx.Model(&domain.Comment{}).Where("verified_by_id = ?", id).UpdateColumn("verified_by_id", nil).Error
			},
			func() error { return tx.Where("user_id = ?", id).Delete(&domain.PostUpvote{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&domain.CommentUpvote{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		if len(postIDs) > 0 {
			if err := tx.Model(&domain.Post{}).Where("id IN ?", postIDs).UpdateColumn("upvote_count", postUpvoteCount).Error; err != nil {
				return err
			}
		}
		if len(commentIDs) > 0 {
			if err := tx.Model(&domain.Comment{}).Where("id IN ?", commentIDs).UpdateColumn("upvote_count", commentUpvoteCount).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("user not found")
		}
		return nil
	})
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) CountByRole(ctx context.Context) ([]domain.RoleCount, error) {
	var out []domain.RoleCount
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("role, COUNT(*) AS count").Group("role").Order("role").Scan(&out).Error
	return out, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
