package service

import (
	"context"

	"go.uber.org/zap"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type CreateCommentInput struct {
	Content     string `json:"content" validate:"required,max=5000"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type PageInput struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type CommentService struct {
	comments domain.CommentRepository
	posts    domain.PostRepository
	notify   *NotificationService
	stats    *StatsCache
	log      *zap.Logger
}

func NewCommentService(comments domain.CommentRepository, posts domain.PostRepository, notify *NotificationService,
	stats *StatsCache, log *zap.Logger) *CommentService {
	return &CommentService{comments: comments, posts: posts, notify: notify, stats: stats, log: log.Named("comment")}
}

func (s *CommentService) List(ctx context.Context, postID string, in PageInput) (*domain.Page[domain.Comment], error) {
	page := domain.PageRequest{Page: in.Page, Limit: in.Limit}.Normalize(20)
	items, total, err := s.comments.ListByPost(ctx, postID, page)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.Comment]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

func sanitizeComment(raw string) (string, error) {
	c := utils.Sanitize(raw)
	if c == "" {
		return "", domain.Validation("content is required")
	}
	return c, nil
}

func (s *CommentService) Create(ctx context.Context, caller *domain.User, postID string, in CreateCommentInput) (*domain.Comment, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	content, err := sanitizeComment(in.Content)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.FindLive(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &domain.Comment{
		PostID:      post.ID,
		Content:     content,
		IsAnonymous: post.Section == domain.SectionAnonymous || in.IsAnonymous,
	}
	if !c.IsAnonymous && caller != nil {
		c.AuthorID = &caller.ID
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	// 评论数和帖子的 commentCount 都变了
	s.stats.Invalidate(ctx)

	if post.AuthorID != nil && caller != nil && *post.AuthorID != caller.ID {
		n := &domain.Notification{
			RecipientID: *post.AuthorID,
			Type:        domain.NotifyComment,
			PostID:      &post.ID,
			CommentID:   &c.ID,
			Message:     "Someone commented on your post",
		}
		if !c.IsAnonymous {
			n.SenderID = &caller.ID
			n.Message = caller.Name + " commented on your post"
		}
		s.notify.emit(ctx, n)
	}
	return s.comments.FindLive(ctx, c.ID)
}

func (s *CommentService) Update(ctx context.Context, caller *domain.User, id string, in UpdateCommentInput) (*domain.Comment, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	content, err := sanitizeComment(in.Content)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.FindLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(c.AuthorID) {
		return nil, domain.Forbidden("not authorized to update this comment")
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.comments.FindLive(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, caller *domain.User, id string) error {
	c, err := s.comments.FindAny(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(c.AuthorID) {
		return domain.Forbidden("not authorized to delete this comment")
	}
	if err := s.comments.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// ToggleUpvote never notifies, unlike post upvotes.
func (s *CommentService) ToggleUpvote(ctx context.Context, caller *domain.User, id string) (*domain.Comment, error) {
	if caller == nil {
		return nil, domain.Unauthenticated("login required to upvote")
	}
	if _, err := s.comments.FindLive(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.comments.ToggleUpvote(ctx, id, caller.ID); err != nil {
		return nil, err
	}
	return s.comments.FindLive(ctx, id)
}

// ToggleVerify flips the verified flag; the verifier is set on verify and cleared on unverify.
func (s *CommentService) ToggleVerify(ctx context.Context, caller *domain.User, id string) (*domain.Comment, error) {
	if caller == nil || !caller.Role.Elevated() {
		return nil, domain.Forbidden("only Admin and Faculty can verify comments")
	}
	c, err := s.comments.FindLive(ctx, id)
	if err != nil {
		return nil, err
	}
	var verifier *string
	if !c.IsVerified {
		verifier = &caller.ID
	}
	if err := s.comments.SetVerifiedBy(ctx, id, verifier); err != nil {
		return nil, err
	}
	return s.comments.FindLive(ctx, id)
}
