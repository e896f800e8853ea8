package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusconnect/internal/core/auth"
	"campusconnect/internal/core/cache"
	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	tu "campusconnect/internal/testutil"
)

type pushed struct {
	recipient string
	n         domain.Notification
}

// fakePusher 记录推送；online 之外的用户视为离线
type fakePusher struct {
	mu     sync.Mutex
	online map[string]bool
	fail   error
	sent   []pushed
}

func (p *fakePusher) Push(_ context.Context, recipientID string, n *domain.Notification) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return false, p.fail
	}
	if !p.online[recipientID] {
		return false, nil
	}
	p.sent = append(p.sent, pushed{recipient: recipientID, n: *n})
	return true, nil
}

type env struct {
	db       *gorm.DB
	repos    tu.Repos
	pusher   *fakePusher
	auth     *service.AuthService
	posts    *service.PostService
	comments *service.CommentService
	notes    *service.NotificationService
	admin    *service.AdminService
}

func newEnv(t *testing.T, c *cache.Cache) *env {
	t.Helper()
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	log := zap.NewNop()
	p := &fakePusher{online: map[string]bool{}}
	notes := service.NewNotificationService(r.Notifications, p, log)
	stats := service.NewStatsCache(c, time.Minute, log)
	return &env{
		db:       db,
		repos:    r,
		pusher:   p,
		auth:     service.NewAuthService(r.Users, auth.NewJWTer("test-secret", "campus", time.Hour), log),
		posts:    service.NewPostService(r.Posts, notes, stats, log),
		comments: service.NewCommentService(r.Comments, r.Posts, notes, stats, log),
		notes:    notes,
		admin:    service.NewAdminService(r.Users, r.Posts, r.Comments, stats, log),
	}
}

func (e *env) notificationsFor(t *testing.T, u *domain.User) []domain.Notification {
	t.Helper()
	items, _, err := e.repos.Notifications.List(context.Background(), domain.NotificationFilter{
		RecipientID: u.ID, Page: domain.PageRequest{Page: 1, Limit: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	return items
}
