package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusconnect/internal/domain"
	tu "campusconnect/internal/testutil"
)

func TestPostCreateAndFind(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	author := tu.User(t, db, "sarah", domain.RoleFaculty)

	p := &domain.Post{
		Title:       "Mid-sem schedule",
		Content:     "Exams start Monday",
		Section:     domain.SectionOfficial,
		Category:    "Exams",
		AuthorID:    &author.ID,
		Tags:        []domain.PostTag{{Tag: "exams"}, {Tag: "schedule"}},
		Attachments: []domain.Attachment{{URL: "https://cdn/x.pdf", Type: "pdf", Filename: "x.pdf"}},
	}
	require.NoError(t, r.Posts.Create(ctx, p))

	got, err := r.Posts.FindLive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"exams", "schedule"}, got.TagNames())
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "x.pdf", got.Attachments[0].Filename)
	require.NotNil(t, got.Author)
	assert.Equal(t, "sarah", got.Author.Name)
	assert.Equal(t, domain.RoleFaculty, got.Author.Role)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestPostSoftDeleteHiddenFromDefaultReads(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	p := tu.Post(t, db, nil, domain.SectionStudent)

	require.NoError(t, r.Posts.SoftDelete(ctx, p.ID))

	_, err := r.Posts.FindLive(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	raw, err := r.Posts.FindAny(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeleted, raw.Status)

	items, total, err := r.Posts.List(ctx, domain.PostFilter{Page: domain.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	_, total, err = r.Posts.List(ctx, domain.PostFilter{IncludeDeleted: true, Page: domain.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	assert.ErrorIs(t, r.Posts.SoftDelete(ctx, "missing"), domain.ErrNotFound)
}

func TestPostListPaginationAndOrder(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 15; i++ {
		p := &domain.Post{Title: fmt.Sprintf("p%02d", i), Content: "c", Section: domain.SectionStudent,
			Category: domain.DefaultCategory, IsAnonymous: false, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, r.Posts.Create(ctx, p))
		ids = append(ids, p.ID)
	}
	// 置顶最早的一条
	require.NoError(t, r.Posts.TogglePin(ctx, ids[0]))

	page1, total, err := r.Posts.List(ctx, domain.PostFilter{PinnedFirst: true, Page: domain.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	require.Len(t, page1, 10)
	assert.Equal(t, ids[0], page1[0].ID)
	assert.True(t, page1[0].IsPinned)
	assert.Equal(t, ids[14], page1[1].ID)

	page2, _, err := r.Posts.List(ctx, domain.PostFilter{PinnedFirst: true, Page: domain.PageRequest{Page: 2, Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, page2, 5)
	assert.EqualValues(t, 2, domain.NewPagination(domain.PageRequest{Page: 2, Limit: 10}, total).Pages)
}

func TestPostListFilters(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	fac := tu.User(t, db, "fac", domain.RoleFaculty)
	tu.Post(t, db, fac, domain.SectionOfficial, "exams")
	tu.Post(t, db, nil, domain.SectionStudent, "clubs", "music")
	tu.Post(t, db, nil, domain.SectionAnonymous, "music")

	page := domain.PageRequest{Page: 1, Limit: 10}
	_, n, err := r.Posts.List(ctx, domain.PostFilter{Section: domain.SectionOfficial, Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	items, n, err := r.Posts.List(ctx, domain.PostFilter{Tags: []string{"music"}, Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Len(t, items, 2)

	_, n, err = r.Posts.List(ctx, domain.PostFilter{Tags: []string{"music"}, Section: domain.SectionStudent, Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, n, err = r.Posts.List(ctx, domain.PostFilter{Category: "Events", Page: page})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostUpvoteToggleKeepsCountInSync(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	p := tu.Post(t, db, nil, domain.SectionStudent)
	a := tu.User(t, db, "a", domain.RoleStudent)
	b := tu.User(t, db, "b", domain.RoleStudent)

	seq := []*domain.User{a, b, a, a, b, b, a}
	for _, u := range seq {
		_, err := r.Posts.ToggleUpvote(ctx, p.ID, u.ID)
		require.NoError(t, err)
		got, err := r.Posts.FindLive(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, len(got.Upvotes), got.UpvoteCount)
	}
	got, err := r.Posts.FindLive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvoteCount)
	assert.True(t, got.UpvotedBy(a.ID))
	assert.False(t, got.UpvotedBy(b.ID))

	added, err := r.Posts.ToggleUpvote(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.Posts.ToggleUpvote(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestPostUpdatePatch(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	p := tu.Post(t, db, nil, domain.SectionStudent, "old")

	tags := []string{"new", "tags"}
	require.NoError(t, r.Posts.Update(ctx, p.ID, domain.PostPatch{Title: tu.Ptr("renamed"), Tags: &tags}))

	got, err := r.Posts.FindLive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, []string{"new", "tags"}, got.TagNames())
	assert.Equal(t, domain.SectionStudent, got.Section)
}

func TestPostVerificationAndStats(t *testing.T) {
	db := tu.NewDB(t)
	r := tu.NewRepos(db)
	ctx := context.Background()
	fac := tu.User(t, db, "fac", domain.RoleFaculty)
	p := tu.Post(t, db, nil, domain.SectionStudent)
	tu.Post(t, db, fac, domain.SectionOfficial)
	gone := tu.Post(t, db, nil, domain.SectionStudent)
	require.NoError(t, r.Posts.SoftDelete(ctx, gone.ID))

	require.NoError(t, r.Posts.SetVerification(ctx, p.ID, domain.Verification{IsVerified: true, IsMisinformation: true, VerifierID: fac.ID}))
	got, err := r.Posts.FindLive(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.True(t, got.IsMisinformation)
	require.NotNil(t, got.VerifiedBy)
	assert.Equal(t, fac.ID, got.VerifiedBy.ID)
	assert.Empty(t, got.VerifiedBy.Email)

	n, err := r.Posts.CountLive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	bySection, err := r.Posts.CountBySection(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.SectionCount{
		{Section: domain.SectionOfficial, Count: 1},
		{Section: domain.SectionStudent, Count: 1},
	}, bySection)

	recent, err := r.Posts.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
