package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "campus_notifications_total", Help: "Notifications created, by type and live delivery result"},
	[]string{"type", "delivery"},
)

func init() { prometheus.MustRegister(notificationsTotal) }

// Pusher delivers a persisted notification to the recipient's live connection.
// delivered is false when the recipient has no connection this pusher can reach.
type Pusher interface {
	Push(ctx context.Context, recipientID string, n *domain.Notification) (delivered bool, err error)
}

type NotificationListInput struct {
	IsRead *bool `form:"isRead"`
	Page   int   `form:"page"`
	Limit  int   `form:"limit"`
}

type NotificationPage struct {
	domain.Page[domain.Notification]
	UnreadCount int64
}

type NotificationService struct {
	repo   domain.NotificationRepository
	pusher Pusher
	log    *zap.Logger
}

// NewNotificationService 的 pusher 可以为 nil（只落库不推送）
func NewNotificationService(repo domain.NotificationRepository, pusher Pusher, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, log: log.Named("notify")}
}

// Notify persists n and pushes it live. There is no dedup: every event is a row.
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	delivery := "stored"
	if s.pusher != nil {
		ok, err := s.pusher.Push(ctx, n.RecipientID, n)
		switch {
		case err != nil:
			delivery = "failed"
			s.log.Warn("live push failed", zap.String("recipient", n.RecipientID), zap.Error(err))
		case ok:
			delivery = "pushed"
		}
	}
	notificationsTotal.WithLabelValues(string(n.Type), delivery).Inc()
	return nil
}

// emit is used by the lifecycle services after their own write has committed;
// a failed notification must not fail the request that caused it.
func (s *NotificationService) emit(ctx context.Context, n *domain.Notification) {
	if s == nil {
		return
	}
	if err := s.Notify(ctx, n); err != nil {
		s.log.Error("create notification", zap.String("type", string(n.Type)), zap.String("recipient", n.RecipientID), zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, caller *domain.User, in NotificationListInput) (*NotificationPage, error) {
	page := domain.PageRequest{Page: in.Page, Limit: in.Limit}.Normalize(20)
	items, total, err := s.repo.List(ctx, domain.NotificationFilter{RecipientID: caller.ID, IsRead: in.IsRead, Page: page})
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{
		Page:        domain.Page[domain.Notification]{Items: items, Pagination: domain.NewPagination(page, total)},
		UnreadCount: unread,
	}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, id, caller.ID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller *domain.User) (int64, error) {
	return s.repo.MarkAllRead(ctx, caller.ID)
}

func (s *NotificationService) Delete(ctx context.Context, caller *domain.User, id string) error {
	return s.repo.Delete(ctx, id, caller.ID)
}

func (p *NotificationPage) Unread() int64 { return p.UnreadCount }
