package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusconnect/internal/domain"
	tu "campusconnect/internal/testutil"
)

func TestNotificationScopedToRecipient(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	owner := tu.User(t, db, "owner", domain.RoleStudent)
	other := tu.User(t, db, "other", domain.RoleStudent)
	p := tu.Post(t, db, owner, domain.SectionStudent)

	n := &domain.Notification{RecipientID: owner.ID, SenderID: &other.ID, Type: domain.NotifyUpvote, PostID: &p.ID, Message: "other upvoted your post"}
	require.NoError(t, r.Notifications.Create(ctx, n))
	require.NotNil(t, n.Sender)
	assert.Equal(t, "other", n.Sender.Name)
	assert.Empty(t, n.Sender.Email)
	require.NotNil(t, n.Post)
	assert.Equal(t, p.Title, n.Post.Title)

	_, err := r.Notifications.MarkRead(ctx, n.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Notifications.Delete(ctx, n.ID, other.ID), domain.ErrNotFound)

	read, err := r.Notifications.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	// 已读再标记仍然成功
	_, err = r.Notifications.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)

	require.NoError(t, r.Notifications.Delete(ctx, n.ID, owner.ID))
	_, err = r.Notifications.MarkRead(ctx, n.ID, owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationListAndUnread(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	me := tu.User(t, db, "me", domain.RoleStudent)
	you := tu.User(t, db, "you", domain.RoleStudent)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Notifications.Create(ctx, &domain.Notification{RecipientID: me.ID, Type: domain.NotifyComment, Message: "m"}))
	}
	require.NoError(t, r.Notifications.Create(ctx, &domain.Notification{RecipientID: you.ID, Type: domain.NotifyComment, Message: "y"}))

	items, total, err := r.Notifications.List(ctx, domain.NotificationFilter{RecipientID: me.ID, Page: domain.PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	_, err = r.Notifications.MarkRead(ctx, items[0].ID, me.ID)
	require.NoError(t, err)

	unread, err := r.Notifications.CountUnread(ctx, me.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	_, total, err = r.Notifications.List(ctx, domain.NotificationFilter{RecipientID: me.ID, IsRead: tu.Ptr(true), Page: domain.PageRequest{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	changed, err := r.Notifications.MarkAllRead(ctx, me.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)
	changed, err = r.Notifications.MarkAllRead(ctx, me.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)

	unread, err = r.Notifications.CountUnread(ctx, you.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}
