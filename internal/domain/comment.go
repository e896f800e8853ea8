package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Comment struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	PostID       string          `gorm:"size:36;not null;index:idx_comments_post_created,priority:1" json:"postId"`
	AuthorID     *string         `gorm:"size:36;index" json:"authorId,omitempty"`
	Author       *UserRef        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content      string          `gorm:"type:text;not null" json:"content"`
	IsAnonymous  bool            `gorm:"not null;default:false" json:"isAnonymous"`
	Upvotes      []CommentUpvote `gorm:"foreignKey:CommentID" json:"upvotes"`
	UpvoteCount  int             `gorm:"not null;default:0" json:"upvoteCount"`
	IsVerified   bool            `gorm:"not null;default:false" json:"isVerified"`
	VerifiedByID *string         `gorm:"size:36" json:"verifiedById,omitempty"`
	VerifiedBy   *UserRef        `gorm:"foreignKey:VerifiedByID" json:"verifiedBy,omitempty"`
	Status       Status          `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt    time.Time       `gorm:"index:idx_comments_post_created,priority:2" json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (Comment) TableName() string { return "comments" }

type CommentUpvote struct {
	CommentID string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (CommentUpvote) TableName() string { return "comment_upvotes" }

func (u CommentUpvote) MarshalJSON() ([]byte, error) { return json.Marshal(u.UserID) }

func (u *CommentUpvote) UnmarshalJSON(b []byte) error { return json.Unmarshal(b, &u.UserID) }

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	FindLive(ctx context.Context, id string) (*Comment, error)
	FindAny(ctx context.Context, id string) (*Comment, error)
	ListByPost(ctx context.Context, postID string, page PageRequest) ([]Comment, int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	SoftDelete(ctx context.Context, id string) error
	ToggleUpvote(ctx context.Context, id, userID string) (bool, error)
	// SetVerifiedBy 传 nil 表示取消认证
	SetVerifiedBy(ctx context.Context, id string, verifierID *string) error
	CountLive(ctx context.Context) (int64, error)
}
