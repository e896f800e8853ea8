package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

func withSenderAndPost(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sender", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "profile_picture") }).
		Preload("Post")
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = utils.NewID()
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(n).Error; err != nil {
		return err
	}
	// 回填 sender/post，推送时直接带上
	return db.Scopes(withSenderAndPost).First(n, "id = ?", n.ID).Error
}

func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient_id = ?", f.RecipientID)
	if f.IsRead != nil {
		q = q.Where("is_read = ?", *f.IsRead)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Notification
	if err := q.Scopes(withSenderAndPost, paginate(f.Page)).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&n).Error
	return n, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error) {
	db := r.db.WithContext(ctx)
	var n domain.Notification
	if err := db.First(&n, "id = ? AND recipient_id = ?", id, recipientID).Error; err != nil {
		return nil, notFound(err, "notification")
	}
	if !n.IsRead {
		if err := db.Model(&domain.Notification{}).Where("id = ?", id).Update("is_read", true).Error; err != nil {
			return nil, err
		}
	}
	if err := db.Scopes(withSenderAndPost).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepo) Delete(ctx context.Context, id, recipientID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&domain.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("notification not found")
	}
	return nil
}
