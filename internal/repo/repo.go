package repo

import (
	"errors"

	"gorm.io/gorm"

	"campusconnect/internal/domain"
)

// Models 迁移顺序即依赖顺序
var Models = []any{
	&domain.User{},
	&domain.Post{},
	&domain.Attachment{},
	&domain.PostTag{},
	&domain.PostUpvote{},
	&domain.Comment{},
	&domain.CommentUpvote{},
	&domain.Notification{},
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models...) }

// live 软删除过滤统一在这里加，调用方不要自己拼 status 条件
func live(db *gorm.DB) *gorm.DB { return db.Where("status = ?", domain.StatusActive) }

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("VerifiedBy", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "role")
	})
}

func paginate(p domain.PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Offset(p.Offset()).Limit(p.Limit) }
}

// 反范式计数器，均为单条语句内的全量重算
var (
	postUpvoteCount    = gorm.Expr("(SELECT COUNT(*) FROM post_upvotes WHERE post_upvotes.post_id = posts.id)")
	commentUpvoteCount = gorm.Expr("(SELECT COUNT(*) FROM comment_upvotes WHERE comment_upvotes.comment_id = comments.id)")
	liveCommentCount   = gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.status = ?)", domain.StatusActive)
)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(what + " not found")
	}
	return err
}
