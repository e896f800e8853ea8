package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotifyComment  NotificationType = "comment"
	NotifyUpvote   NotificationType = "upvote"
	NotifyVerified NotificationType = "verified"
)

type Notification struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	RecipientID string           `gorm:"size:36;not null;index:idx_notifications_inbox,priority:1" json:"recipientId"`
	SenderID    *string          `gorm:"size:36" json:"senderId,omitempty"`
	Sender      *UserRef         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        NotificationType `gorm:"size:16;not null" json:"type"`
	PostID      *string          `gorm:"size:36" json:"postId,omitempty"`
	Post        *PostRef         `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CommentID   *string          `gorm:"size:36" json:"commentId,omitempty"`
	Message     string           `gorm:"size:255;not null" json:"message"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notifications_inbox,priority:2" json:"isRead"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_inbox,priority:3" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }

type NotificationFilter struct {
	RecipientID string
	IsRead      *bool
	Page        PageRequest
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, f NotificationFilter) ([]Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead 以 (id, recipient) 为作用域，不匹配时返回 NotFound
	MarkRead(ctx context.Context, id, recipientID string) (*Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id, recipientID string) error
}
