// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusconnect/internal/core/database"
	"campusconnect/internal/domain"
	"campusconnect/internal/repo"
	"campusconnect/pkg/utils"
)

// NewDB 每个测试一个独立的内存 sqlite；单连接，事务内只能用 tx
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type Repos struct {
	Users         *repo.UserRepo
	Posts         *repo.PostRepo
	Comments      *repo.CommentRepo
	Notifications *repo.NotificationRepo
}

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:         repo.NewUserRepo(db),
		Posts:         repo.NewPostRepo(db),
		Comments:      repo.NewCommentRepo(db),
		Notifications: repo.NewNotificationRepo(db),
	}
}

// User inserts an active user; the password is always "secret123".
func User(t testing.TB, db *gorm.DB, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	u := &domain.User{
		Name:         name,
		Email:        name + "@college.edu",
		PasswordHash: hash,
		Role:         role,
		Department:   "Computer Science",
		IsActive:     true,
	}
	require.NoError(t, repo.NewUserRepo(db).Create(context.Background(), u))
	return u
}

func Post(t testing.TB, db *gorm.DB, author *domain.User, section domain.Section, tags ...string) *domain.Post {
	t.Helper()
	p := &domain.Post{
		Title:    "post in " + string(section),
		Content:  "body",
		Section:  section,
		Category: domain.DefaultCategory,
	}
	if author != nil && section != domain.SectionAnonymous {
		p.AuthorID = &author.ID
	}
	p.IsAnonymous = section == domain.SectionAnonymous
	for _, tag := range tags {
		p.Tags = append(p.Tags, domain.PostTag{Tag: tag})
	}
	require.NoError(t, repo.NewPostRepo(db).Create(context.Background(), p))
	return p
}

func Ptr[T any](v T) *T { return &v }
