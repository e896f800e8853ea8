package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, PageRequest{}.Normalize(10))
	assert.Equal(t, PageRequest{Page: 3, Limit: 100}, PageRequest{Page: 3, Limit: 5000}.Normalize(10))
	assert.Equal(t, 10, PageRequest{Page: 2, Limit: 10}.Offset())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(PageRequest{Page: 2, Limit: 10}, 15)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 15, Pages: 2}, p)
	assert.EqualValues(t, 0, NewPagination(PageRequest{Page: 1, Limit: 10}, 0).Pages)
	assert.EqualValues(t, 1, NewPagination(PageRequest{Page: 1, Limit: 10}, 10).Pages)
}

func TestAppErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("post not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, http.StatusNotFound, CodeOf(err))
	assert.Equal(t, "post not found", errors.Unwrap(err).Error())

	cause := errors.New("disk full")
	ie := Internal("could not save", cause)
	assert.ErrorIs(t, ie, cause)
	assert.Equal(t, http.StatusInternalServerError, CodeOf(errors.New("raw")))
	assert.Equal(t, http.StatusGatewayTimeout, CodeOf(fmt.Errorf("select posts: %w", context.DeadlineExceeded)))
}

func TestOwns(t *testing.T) {
	me := &User{ID: "u1", Role: RoleStudent}
	admin := &User{ID: "a", Role: RoleAdmin}
	mine, other := "u1", "u2"

	assert.True(t, me.Owns(&mine))
	assert.False(t, me.Owns(&other))
	assert.False(t, me.Owns(nil))
	assert.True(t, admin.Owns(&other))
	assert.True(t, admin.Owns(nil))
	var nobody *User
	assert.False(t, nobody.Owns(&mine))
}

func TestPostJSONShape(t *testing.T) {
	p := Post{
		ID:      "p1",
		Tags:    []PostTag{{Tag: "exams"}, {Tag: "cs"}},
		Upvotes: []PostUpvote{{UserID: "u1"}},
	}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, []any{"exams", "cs"}, m["tags"])
	assert.Equal(t, []any{"u1"}, m["upvotes"])

	var back Post
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"exams", "cs"}, back.TagNames())
	assert.True(t, back.UpvotedBy("u1"))
}

func TestUserHidesPassword(t *testing.T) {
	b, err := json.Marshal(User{ID: "u", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash")
}
