package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusconnect/internal/domain"
	tu "campusconnect/internal/testutil"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	tu.User(t, db, "john", domain.RoleStudent)

	err := r.Users.Create(ctx, &domain.User{Name: "John 2", Email: "JOHN@college.edu", PasswordHash: "x", Role: domain.RoleStudent, IsActive: true})
	assert.ErrorIs(t, err, domain.ErrConflict)

	u, err := r.Users.FindByEmail(ctx, "  John@College.edu ")
	require.NoError(t, err)
	assert.Equal(t, "john", u.Name)

	_, err = r.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserListFilters(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	tu.User(t, db, "admin", domain.RoleAdmin)
	tu.User(t, db, "sarah", domain.RoleFaculty)
	tu.User(t, db, "john_doe", domain.RoleStudent)
	tu.User(t, db, "jane", domain.RoleStudent)
	page := domain.PageRequest{Page: 1, Limit: 20}

	_, n, err := r.Users.List(ctx, domain.UserFilter{Role: domain.RoleStudent, Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	items, n, err := r.Users.List(ctx, domain.UserFilter{Search: "SAR", Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, "sarah", items[0].Name)

	// 下划线按字面匹配
	_, n, err = r.Users.List(ctx, domain.UserFilter{Search: "n_d", Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	byRole, err := r.Users.CountByRole(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.RoleCount{
		{Role: domain.RoleAdmin, Count: 1}, {Role: domain.RoleFaculty, Count: 1}, {Role: domain.RoleStudent, Count: 2},
	}, byRole)
}

func TestUserDeleteCleansMemberships(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	author := tu.User(t, db, "author", domain.RoleStudent)
	voter := tu.User(t, db, "voter", domain.RoleStudent)
	p := tu.Post(t, db, author, domain.SectionStudent)

	_, err := r.Posts.ToggleUpvote(ctx, p.ID, voter.ID)
	require.NoError(t, err)
	require.NoError(t, r.Notifications.Create(ctx, &domain.Notification{RecipientID: voter.ID, Type: domain.NotifyComment, Message: "x"}))
	require.NoError(t, r.Notifications.Create(ctx, &domain.Notification{RecipientID: author.ID, SenderID: &voter.ID, Type: domain.NotifyUpvote, Message: "y"}))

	has, err := r.Users.HasContent(ctx, voter.ID)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = r.Users.HasContent(ctx, author.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, r.Users.Delete(ctx, voter.ID))

	got, err := r.Posts.FindLive(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UpvoteCount)
	assert.Empty(t, got.Upvotes)

	items, _, err := r.Notifications.List(ctx, domain.NotificationFilter{RecipientID: author.ID, Page: domain.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].SenderID)

	assert.ErrorIs(t, r.Users.Delete(ctx, voter.ID), domain.ErrNotFound)
}
