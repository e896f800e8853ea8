package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

var _ domain.CommentRepository = (*CommentRepo)(nil)

func recountComments(tx *gorm.DB, postID string) error {
	return tx.Model(&domain.Post{}).Where("id = ?", postID).UpdateColumn("comment_count", liveCommentCount).Error
}

// Create 插入评论并重算帖子的 comment_count
func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return recountComments(tx, c.PostID)
	})
}

func (r *CommentRepo) find(ctx context.Context, id string, scopes ...func(*gorm.DB) *gorm.DB) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.WithContext(ctx).Scopes(scopes...).Scopes(withAuthor).Preload("Upvotes").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "comment")
	}
	return &c, nil
}

func (r *CommentRepo) FindLive(ctx context.Context, id string) (*domain.Comment, error) {
	return r.find(ctx, id, live)
}

func (r *CommentRepo) FindAny(ctx context.Context, id string) (*domain.Comment, error) {
	return r.find(ctx, id)
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string, page domain.PageRequest) ([]domain.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Comment{}).Scopes(live).Where("post_id = ?", postID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Comment
	err := q.Scopes(withAuthor, paginate(page)).Preload("Upvotes").Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *CommentRepo) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Comment
		if err := tx.Select("id", "post_id").First(&c, "id = ?", id).Error; err != nil {
			return notFound(err, "comment")
		}
		if err := tx.Model(&domain.Comment{}).Where("id = ?", id).Update("status", domain.StatusDeleted).Error; err != nil {
			return err
		}
		return recountComments(tx, c.PostID)
	})
}

func (r *CommentRepo) ToggleUpvote(ctx context.Context, id, userID string) (added bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND user_id = ?", id, userID).Delete(&domain.CommentUpvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			up := domain.CommentUpvote{CommentID: id, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&up).Error; err != nil {
				return err
			}
			added = true
		}
		return tx.Model(&domain.Comment{}).Where("id = ?", id).UpdateColumn("upvote_count", commentUpvoteCount).Error
	})
	return added, err
}

func (r *CommentRepo) SetVerifiedBy(ctx context.Context, id string, verifierID *string) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).Where("id = ?", id).Updates(map[string]any{
		"is_verified":    verifierID != nil,
		"verified_by_id": verifierID,
	}).Error
}

func (r *CommentRepo) CountLive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Comment{}).Scopes(live).Count(&n).Error
	return n, err
}
