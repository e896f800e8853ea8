package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	tu "campusconnect/internal/testutil"
)

func TestNotifyPersistsAndPushes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	me := tu.User(t, e.db, "me", domain.RoleStudent)
	e.pusher.online[me.ID] = true

	for i := 0; i < 2; i++ {
		require.NoError(t, e.notes.Notify(ctx, &domain.Notification{RecipientID: me.ID, Type: domain.NotifyComment, Message: "dup"}))
	}
	// 不去重
	assert.Len(t, e.notificationsFor(t, me), 2)
	assert.Len(t, e.pusher.sent, 2)
	assert.NotEmpty(t, e.pusher.sent[0].n.ID)
}

func TestNotifyPushFailureStillPersists(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	me := tu.User(t, e.db, "me", domain.RoleStudent)
	e.pusher.fail = errors.New("redis down")

	require.NoError(t, e.notes.Notify(ctx, &domain.Notification{RecipientID: me.ID, Type: domain.NotifyUpvote, Message: "m"}))
	assert.Len(t, e.notificationsFor(t, me), 1)

	offline := service.NewNotificationService(e.repos.Notifications, nil, zap.NewNop())
	require.NoError(t, offline.Notify(ctx, &domain.Notification{RecipientID: me.ID, Type: domain.NotifyUpvote, Message: "m"}))
	assert.Len(t, e.notificationsFor(t, me), 2)
}

func TestNotificationInboxOperations(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	me := tu.User(t, e.db, "me", domain.RoleStudent)
	other := tu.User(t, e.db, "other", domain.RoleStudent)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.notes.Notify(ctx, &domain.Notification{RecipientID: me.ID, Type: domain.NotifyComment, Message: "m"}))
	}

	page, err := e.notes.List(ctx, me, service.NotificationListInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.UnreadCount)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 2, Total: 3, Pages: 2}, page.Pagination)

	id := page.Items[0].ID
	_, err = e.notes.MarkRead(ctx, other, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err := e.notes.MarkRead(ctx, me, id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	page, err = e.notes.List(ctx, me, service.NotificationListInput{IsRead: tu.Ptr(false)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)
	assert.EqualValues(t, 2, page.UnreadCount)

	changed, err := e.notes.MarkAllRead(ctx, me)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)
	changed, err = e.notes.MarkAllRead(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, changed)

	assert.ErrorIs(t, e.notes.Delete(ctx, other, id), domain.ErrNotFound)
	require.NoError(t, e.notes.Delete(ctx, me, id))
	page, err = e.notes.List(ctx, me, service.NotificationListInput{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Zero(t, page.UnreadCount)
}
