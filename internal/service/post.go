package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type AttachmentInput struct {
	URL      string `json:"url" validate:"required,url,max=1024"`
	Type     string `json:"type" validate:"omitempty,oneof=image pdf document"`
	Filename string `json:"filename" validate:"max=255"`
}

type CreatePostInput struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Content     string            `json:"content" validate:"required,max=20000"`
	Section     domain.Section    `json:"section" validate:"required,oneof=Official Student Anonymous"`
	Category    string            `json:"category" validate:"omitempty,category"`
	Tags        []string          `json:"tags" validate:"max=20,dive,max=32"`
	Attachments []AttachmentInput `json:"attachments" validate:"max=10,dive"`
	IsAnonymous bool              `json:"isAnonymous"`
}

// UpdatePostInput 省略的字段保持不变；tags/attachments 传 [] 表示清空
type UpdatePostInput struct {
	Title       *string           `json:"title" validate:"omitnil,min=1,max=200"`
	Content     *string           `json:"content" validate:"omitnil,min=1,max=20000"`
	Category    *string           `json:"category" validate:"omitnil,category"`
	Tags        []string          `json:"tags" validate:"max=20,dive,max=32"`
	Attachments []AttachmentInput `json:"attachments" validate:"max=10,dive"`
}

type ListPostsInput struct {
	Section  string `form:"section" validate:"omitempty,oneof=Official Student Anonymous"`
	Category string `form:"category" validate:"omitempty,category"`
	Tags     string `form:"tags"` // 逗号分隔
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type VerifyPostInput struct {
	IsVerified       bool `json:"isVerified"`
	IsMisinformation bool `json:"isMisinformation"`
}

// PostService 的每个写操作都会让统计缓存失效（recentPosts 里带着帖子本体）
type PostService struct {
	posts  domain.PostRepository
	notify *NotificationService
	stats  *StatsCache
	log    *zap.Logger
}

func NewPostService(posts domain.PostRepository, notify *NotificationService, stats *StatsCache, log *zap.Logger) *PostService {
	return &PostService{posts: posts, notify: notify, stats: stats, log: log.Named("post")}
}

func (s *PostService) List(ctx context.Context, in ListPostsInput) (*domain.Page[domain.Post], error) {
	if err := check(in); err != nil {
		return nil, err
	}
	page := domain.PageRequest{Page: in.Page, Limit: in.Limit}.Normalize(10)
	f := domain.PostFilter{
		Section:     domain.Section(in.Section),
		Category:    in.Category,
		PinnedFirst: true,
		Page:        page,
	}
	if in.Tags != "" {
		f.Tags = cleanTags(strings.Split(in.Tags, ","))
	}
	items, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.Post]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.FindLive(ctx, id)
}

func attachments(in []AttachmentInput) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Attachment{URL: strings.TrimSpace(a.URL), Type: a.Type, Filename: strings.TrimSpace(a.Filename)})
	}
	return out
}

func (s *PostService) Create(ctx context.Context, caller *domain.User, in CreatePostInput) (*domain.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = cleanTags(in.Tags)
	if err := check(in); err != nil {
		return nil, err
	}
	content := utils.Sanitize(in.Content)
	if content == "" {
		return nil, domain.Validation("content is required")
	}
	if in.Section == domain.SectionOfficial && (caller == nil || !caller.Role.Elevated()) {
		return nil, domain.Forbidden("only Admin and Faculty can post in the Official section")
	}

	p := &domain.Post{
		Title:       in.Title,
		Content:     content,
		Section:     in.Section,
		Category:    in.Category,
		IsAnonymous: in.Section == domain.SectionAnonymous || in.IsAnonymous,
		Attachments: attachments(in.Attachments),
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	for _, t := range in.Tags {
		p.Tags = append(p.Tags, domain.PostTag{Tag: t})
	}
	if !p.IsAnonymous && caller != nil {
		p.AuthorID = &caller.ID
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	return s.posts.FindLive(ctx, p.ID)
}

func (s *PostService) Update(ctx context.Context, caller *domain.User, id string, in UpdatePostInput) (*domain.Post, error) {
	trimPtr(in.Title)
	if in.Tags != nil {
		in.Tags = cleanTags(in.Tags)
	}
	if err := check(in); err != nil {
		return nil, err
	}
	p, err := s.posts.FindLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(p.AuthorID) {
		return nil, domain.Forbidden("not authorized to update this post")
	}

	patch := domain.PostPatch{Title: in.Title, Category: in.Category}
	if in.Content != nil {
		c := utils.Sanitize(*in.Content)
		if c == "" {
			return nil, domain.Validation("content is required")
		}
		patch.Content = &c
	}
	if in.Tags != nil {
		patch.Tags = &in.Tags
	}
	if in.Attachments != nil {
		atts := attachments(in.Attachments)
		patch.Attachments = &atts
	}
	if err := s.posts.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	return s.posts.FindLive(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, caller *domain.User, id string) error {
	p, err := s.posts.FindAny(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(p.AuthorID) {
		return domain.Forbidden("not authorized to delete this post")
	}
	if err := s.posts.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// ToggleUpvote adds or removes the caller's upvote. Only an add notifies the author.
func (s *PostService) ToggleUpvote(ctx context.Context, caller *domain.User, id string) (*domain.Post, error) {
	if caller == nil {
		return nil, domain.Unauthenticated("login required to upvote")
	}
	p, err := s.posts.FindLive(ctx, id)
	if err != nil {
		return nil, err
	}
	added, err := s.posts.ToggleUpvote(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	if added && p.AuthorID != nil && *p.AuthorID != caller.ID {
		s.notify.emit(ctx, &domain.Notification{
			RecipientID: *p.AuthorID,
			SenderID:    &caller.ID,
			Type:        domain.NotifyUpvote,
			PostID:      &p.ID,
			Message:     caller.Name + " upvoted your post",
		})
	}
	return s.posts.FindLive(ctx, id)
}

func (s *PostService) Verify(ctx context.Context, caller *domain.User, id string, in VerifyPostInput) (*domain.Post, error) {
	if caller == nil || !caller.Role.Elevated() {
		return nil, domain.Forbidden("only Admin and Faculty can verify posts")
	}
	p, err := s.posts.FindLive(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.posts.SetVerification(ctx, id, domain.Verification{
		IsVerified:       in.IsVerified,
		IsMisinformation: in.IsMisinformation,
		VerifierID:       caller.ID,
	})
	if err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	// 只在 未认证 -> 已认证 时通知作者
	if in.IsVerified && !p.IsVerified && p.AuthorID != nil {
		s.notify.emit(ctx, &domain.Notification{
			RecipientID: *p.AuthorID,
			SenderID:    &caller.ID,
			Type:        domain.NotifyVerified,
			PostID:      &p.ID,
			Message:     "Your post has been verified by " + caller.Name,
		})
	}
	return s.posts.FindLive(ctx, id)
}

func (s *PostService) TogglePin(ctx context.Context, caller *domain.User, id string) (*domain.Post, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("only Admin can pin posts")
	}
	if _, err := s.posts.FindLive(ctx, id); err != nil {
		return nil, err
	}
	if err := s.posts.TogglePin(ctx, id); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)
	return s.posts.FindLive(ctx, id)
}
