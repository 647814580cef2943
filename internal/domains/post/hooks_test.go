package post

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/access"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func draftPost(author uuid.UUID) *Post {
	return &Post{
		Title:    "A Reasonable Title",
		Content:  "body long enough to pass",
		Status:   StatusDraft,
		AuthorID: author,
	}
}

func TestPrepareCreate_AssignsActorAsAuthor(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	p := draftPost(uuid.Nil)
	require.NoError(t, pl.PrepareCreate(actor, p))

	assert.Equal(t, actor.ID, p.AuthorID)
}

func TestPrepareCreate_AnonymousCannotCreate(t *testing.T) {
	pl := NewPipeline(nil, nil)

	p := draftPost(uuid.Nil)
	err := pl.PrepareCreate(access.Anonymous, p)

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPrepareCreate_ExplicitAuthorRequiresAdmin(t *testing.T) {
	other := uuid.New()
	pl := NewPipeline(nil, nil)

	t.Run("author cannot attribute to someone else", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
		p := draftPost(other)
		assert.ErrorIs(t, pl.PrepareCreate(actor, p), ErrForbidden)
	})

	t.Run("admin can attribute to someone else", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		p := draftPost(other)
		require.NoError(t, pl.PrepareCreate(actor, p))
		assert.Equal(t, other, p.AuthorID)
	})

	t.Run("author may name themselves explicitly", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
		p := draftPost(actor.ID)
		assert.NoError(t, pl.PrepareCreate(actor, p))
	})
}

func TestPrepareCreate_StampsPublishedAt(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(fixedClock(now), nil)

	t.Run("published post gets the stamp", func(t *testing.T) {
		p := draftPost(uuid.Nil)
		p.Status = StatusPublished
		require.NoError(t, pl.PrepareCreate(actor, p))
		require.NotNil(t, p.PublishedAt)
		assert.Equal(t, now, *p.PublishedAt)
	})

	t.Run("draft stays unstamped", func(t *testing.T) {
		p := draftPost(uuid.Nil)
		require.NoError(t, pl.PrepareCreate(actor, p))
		assert.Nil(t, p.PublishedAt)
	})

	t.Run("client-supplied stamp is preserved", func(t *testing.T) {
		earlier := now.Add(-24 * time.Hour)
		p := draftPost(uuid.Nil)
		p.Status = StatusPublished
		p.PublishedAt = &earlier
		require.NoError(t, pl.PrepareCreate(actor, p))
		assert.Equal(t, earlier, *p.PublishedAt)
	})
}

func TestPrepareCreate_DerivesSlugFromTitle(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	p := draftPost(uuid.Nil)
	p.Title = "Hello, World! A First Post"
	require.NoError(t, pl.PrepareCreate(actor, p))

	require.NotNil(t, p.Slug)
	assert.Equal(t, "hello-world-a-first-post", *p.Slug)
}

func TestPrepareCreate_KeepsExplicitSlug(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	slug := "Custom Slug Here"
	p := draftPost(uuid.Nil)
	p.Slug = &slug
	require.NoError(t, pl.PrepareCreate(actor, p))

	require.NotNil(t, p.Slug)
	assert.Equal(t, "custom-slug-here", *p.Slug)
}

func TestPrepareCreate_ValidatesLengths(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	tests := []struct {
		name   string
		mutate func(*Post)
		field  string
	}{
		{"short title", func(p *Post) { p.Title = "ab" }, "title"},
		{"missing title", func(p *Post) { p.Title = "" }, "title"},
		{"short content", func(p *Post) { p.Content = "tiny" }, "content"},
		{"long excerpt", func(p *Post) {
			e := string(make([]byte, ExcerptMaxLength+1))
			p.Excerpt = &e
		}, "excerpt"},
		{"bogus status", func(p *Post) { p.Status = Status("archived") }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := draftPost(uuid.Nil)
			tt.mutate(p)
			err := pl.PrepareCreate(actor, p)
			require.Error(t, err)

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs, tt.field)
		})
	}
}

func TestPrepareUpdate_PublishStampIsSetOnce(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}

	stored := draftPost(actor.ID)
	stored.ID = uuid.New()

	pl := NewPipeline(fixedClock(first), nil)
	status := StatusPublished
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Status: &status}))
	require.NotNil(t, stored.PublishedAt)
	assert.Equal(t, first, *stored.PublishedAt)

	// Later edits, including republish after an unpublish round-trip
	// to draft, must not move the original stamp.
	pl = NewPipeline(fixedClock(second), nil)
	title := "An Edited Title"
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Title: &title}))
	assert.Equal(t, first, *stored.PublishedAt)

	draft := StatusDraft
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Status: &draft}))
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Status: &status}))
	assert.Equal(t, first, *stored.PublishedAt)
}

func TestPrepareUpdate_SlugStableAcrossTitleEdits(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	stored := draftPost(actor.ID)
	stored.Title = "Original Title"
	require.NoError(t, pl.PrepareCreate(actor, stored))
	require.NotNil(t, stored.Slug)
	assert.Equal(t, "original-title", *stored.Slug)

	title := "Completely Different Title"
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Title: &title}))
	assert.Equal(t, "original-title", *stored.Slug)
}

func TestPrepareUpdate_EmptySlugRederives(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	stored := draftPost(actor.ID)
	stored.Title = "Original Title"
	require.NoError(t, pl.PrepareCreate(actor, stored))

	title := "Completely Different Title"
	empty := ""
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Title: &title, Slug: &empty}))
	require.NotNil(t, stored.Slug)
	assert.Equal(t, "completely-different-title", *stored.Slug)
}

func TestPrepareUpdate_ExplicitSlugIsNormalized(t *testing.T) {
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	pl := NewPipeline(nil, nil)

	stored := draftPost(actor.ID)
	require.NoError(t, pl.PrepareCreate(actor, stored))

	// Manually entered slugs go through the same derivation rules as
	// title-derived ones, including the length cap.
	long := "An Extremely Long Custom Slug That Keeps Going Well Past The Limit"
	require.NoError(t, pl.PrepareUpdate(actor, stored, UpdatePostRequest{Slug: &long}))

	require.NotNil(t, stored.Slug)
	assert.LessOrEqual(t, len(*stored.Slug), 50)
	assert.Equal(t, "an-extremely-long-custom-slug-that-keeps-going-wel", *stored.Slug)
}

func TestPrepareUpdate_AuthorReassignment(t *testing.T) {
	owner := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	other := uuid.New()
	pl := NewPipeline(nil, nil)

	t.Run("author cannot hand off ownership", func(t *testing.T) {
		stored := draftPost(owner.ID)
		err := pl.PrepareUpdate(owner, stored, UpdatePostRequest{AuthorID: &other})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, owner.ID, stored.AuthorID)
	})

	t.Run("admin can reassign", func(t *testing.T) {
		admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		stored := draftPost(owner.ID)
		require.NoError(t, pl.PrepareUpdate(admin, stored, UpdatePostRequest{AuthorID: &other}))
		assert.Equal(t, other, stored.AuthorID)
	})
}

func TestRunPostCommit_HookFailureIsSwallowed(t *testing.T) {
	var warned bool
	warn := func(msg string, err error, fields map[string]interface{}) { warned = true }

	calls := 0
	failing := func(ctx context.Context, p *Post, delta int) error {
		calls++
		return errors.New("counter unavailable")
	}
	succeeding := func(ctx context.Context, p *Post, delta int) error {
		calls++
		return nil
	}

	pl := NewPipeline(nil, warn, failing, succeeding)
	p := draftPost(uuid.New())
	p.ID = uuid.New()

	pl.RunPostCommit(context.Background(), p, 1)

	assert.Equal(t, 2, calls, "a failing hook must not stop later hooks")
	assert.True(t, warned)
}
