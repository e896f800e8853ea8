package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

var _ domain.PostRepository = (*PostRepo)(nil)

// withChildren 预加载附件、标签（按原始顺序）和点赞集合
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Preload("Upvotes", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at") })
}

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	for i := range p.Tags {
		p.Tags[i].Position = i
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Author", "VerifiedBy", "Upvotes").Create(p).Error
	})
}

func (r *PostRepo) find(ctx context.Context, id string, scopes ...func(*gorm.DB) *gorm.DB) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).Scopes(scopes...).Scopes(withAuthor, withChildren).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "post")
	}
	return &p, nil
}

func (r *PostRepo) FindLive(ctx context.Context, id string) (*domain.Post, error) {
	return r.find(ctx, id, live)
}

func (r *PostRepo) FindAny(ctx context.Context, id string) (*domain.Post, error) {
	return r.find(ctx, id)
}

func (r *PostRepo) List(ctx context.Context, f domain.PostFilter) ([]domain.Post, int64, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&domain.Post{})
	if !f.IncludeDeleted {
		q = q.Scopes(live)
	}
	if f.Section != "" {
		q = q.Where("section = ?", f.Section)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if len(f.Tags) > 0 {
		q = q.Where("id IN (?)", db.Model(&domain.PostTag{}).Select("post_id").Where("tag IN ?", f.Tags))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.PinnedFirst {
		q = q.Order("is_pinned DESC")
	}
	var posts []domain.Post
	err := q.Scopes(withAuthor, withChildren, paginate(f.Page)).Order("created_at DESC").Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) Update(ctx context.Context, id string, patch domain.PostPatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := map[string]any{}
		if patch.Title != nil {
			cols["title"] = *patch.Title
		}
		if patch.Content != nil {
			cols["content"] = *patch.Content
		}
		if patch.Category != nil {
			cols["category"] = *patch.Category
		}
		if len(cols) > 0 {
			if err := tx.Model(&domain.Post{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		} else if err := tx.Model(&domain.Post{}).Where("id = ?", id).Update("updated_at", time.Now()).Error; err != nil {
			return err
		}
		if patch.Tags != nil {
			if err := tx.Where("post_id = ?", id).Delete(&domain.PostTag{}).Error; err != nil {
				return err
			}
			tags := make([]domain.PostTag, 0, len(*patch.Tags))
			for i, t := range *patch.Tags {
				tags = append(tags, domain.PostTag{PostID: id, Tag: t, Position: i})
			}
			if len(tags) > 0 {
				if err := tx.Create(&tags).Error; err != nil {
					return err
				}
			}
		}
		if patch.Attachments != nil {
			if err := tx.Where("post_id = ?", id).Delete(&domain.Attachment{}).Error; err != nil {
				return err
			}
			atts := make([]domain.Attachment, 0, len(*patch.Attachments))
			for _, a := range *patch.Attachments {
				atts = append(atts, domain.Attachment{PostID: id, URL: a.URL, Type: a.Type, Filename: a.Filename})
			}
			if len(atts) > 0 {
				if err := tx.Create(&atts).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *PostRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).Update("status", domain.StatusDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("post not found")
	}
	return nil
}

// ToggleUpvote 先尝试删除成员关系，未命中则插入；计数在同一事务里按集合大小重算
func (r *PostRepo) ToggleUpvote(ctx context.Context, id, userID string) (added bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", id, userID).Delete(&domain.PostUpvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			up := domain.PostUpvote{PostID: id, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&up).Error; err != nil {
				return err
			}
			added = true
		}
		return tx.Model(&domain.Post{}).Where("id = ?", id).UpdateColumn("upvote_count", postUpvoteCount).Error
	})
	return added, err
}

func (r *PostRepo) SetVerification(ctx context.Context, id string, v domain.Verification) error {
	return r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).Updates(map[string]any{
		"is_verified":       v.IsVerified,
		"is_misinformation": v.IsMisinformation,
		"verified_by_id":    v.VerifierID,
	}).Error
}

func (r *PostRepo) TogglePin(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).
		Update("is_pinned", gorm.Expr("NOT is_pinned")).Error
}

func (r *PostRepo) CountLive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Scopes(live).Count(&n).Error
	return n, err
}

func (r *PostRepo) CountBySection(ctx context.Context) ([]domain.SectionCount, error) {
	var out []domain.SectionCount
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Scopes(live).
		Select("section, COUNT(*) AS count").Group("section").Order("section").Scan(&out).Error
	return out, err
}

func (r *PostRepo) Recent(ctx context.Context, n int) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).Scopes(live, withAuthor, withChildren).Order("created_at DESC").Limit(n).Find(&posts).Error
	return posts, err
}
