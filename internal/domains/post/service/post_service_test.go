package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/access"
	"blog-backend/internal/domains/post"
)

// ========================================
// FAKES
// ========================================

type fakeRepo struct {
	posts  map[uuid.UUID]*post.Post
	slugs  map[string]uuid.UUID
	lastQ  post.ListQuery
	listed []post.Post
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts: make(map[uuid.UUID]*post.Post),
		slugs: make(map[string]uuid.UUID),
	}
}

func (f *fakeRepo) Create(ctx context.Context, p *post.Post) error {
	if p.Slug != nil {
		if _, taken := f.slugs[*p.Slug]; taken {
			return post.ErrSlugConflict
		}
		f.slugs[*p.Slug] = p.ID
	}
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) FindBySlug(ctx context.Context, slug string) (*post.Post, error) {
	id, ok := f.slugs[slug]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	return f.FindByID(ctx, id)
}

func (f *fakeRepo) List(ctx context.Context, q post.ListQuery) ([]post.Post, int, error) {
	f.lastQ = q
	return f.listed, len(f.listed), nil
}

func (f *fakeRepo) Update(ctx context.Context, p *post.Post) error {
	if _, ok := f.posts[p.ID]; !ok {
		return post.ErrPostNotFound
	}
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.posts[id]; !ok {
		return post.ErrPostNotFound
	}
	delete(f.posts, id)
	return nil
}

type fakeCounter struct {
	deltas map[uuid.UUID]int
	fail   bool
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{deltas: make(map[uuid.UUID]int)}
}

func (f *fakeCounter) IncrementPostCount(ctx context.Context, id uuid.UUID, delta int) error {
	if f.fail {
		return errors.New("counter unavailable")
	}
	f.deltas[id] += delta
	return nil
}

func newService(repo post.Repository, counter post.AuthorCounter) post.Service {
	pipeline := post.NewPipeline(nil, nil, NewAuthorCountHook(counter))
	return NewPostService(repo, access.NewEvaluator(), pipeline)
}

func validCreate() post.CreatePostRequest {
	return post.CreatePostRequest{
		Title:   "Testing In Production",
		Content: "a body that clears the minimum length",
		Status:  post.StatusDraft,
	}
}

// ========================================
// CREATE
// ========================================

func TestCreate_AuthorOwnsResult(t *testing.T) {
	repo := newFakeRepo()
	counter := newFakeCounter()
	svc := newService(repo, counter)

	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	p, err := svc.Create(context.Background(), actor, validCreate())
	require.NoError(t, err)

	assert.Equal(t, actor.ID, p.AuthorID)
	require.NotNil(t, p.Slug)
	assert.Equal(t, "testing-in-production", *p.Slug)
	assert.Equal(t, 1, counter.deltas[actor.ID], "counter increments on create")
}

func TestCreate_DeniedRoles(t *testing.T) {
	svc := newService(newFakeRepo(), newFakeCounter())

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Create(context.Background(), access.Anonymous, validCreate())
		assert.ErrorIs(t, err, post.ErrUnauthenticated)
	})

	t.Run("member", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleMember}
		_, err := svc.Create(context.Background(), actor, validCreate())
		assert.ErrorIs(t, err, post.ErrForbidden)
	})
}

func TestCreate_SlugConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())
	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}

	_, err := svc.Create(context.Background(), actor, validCreate())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actor, validCreate())
	assert.ErrorIs(t, err, post.ErrSlugConflict)
}

func TestCreate_CounterFailureDoesNotFailCreate(t *testing.T) {
	repo := newFakeRepo()
	counter := newFakeCounter()
	counter.fail = true
	svc := newService(repo, counter)

	actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	p, err := svc.Create(context.Background(), actor, validCreate())

	require.NoError(t, err)
	_, stored := repo.posts[p.ID]
	assert.True(t, stored)
}

// ========================================
// READ VISIBILITY
// ========================================

func seedPost(t *testing.T, repo *fakeRepo, author uuid.UUID, status post.Status, slug string) *post.Post {
	t.Helper()
	p := &post.Post{
		ID:       uuid.New(),
		Title:    "Seeded Post",
		Content:  "content long enough for the rules",
		Status:   status,
		AuthorID: author,
		Slug:     &slug,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestGet_DraftInvisibleToOthers(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	owner := uuid.New()
	draft := seedPost(t, repo, owner, post.StatusDraft, "hidden-draft")

	t.Run("anonymous sees not-found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), access.Anonymous, draft.ID)
		assert.ErrorIs(t, err, post.ErrPostNotFound)
	})

	t.Run("other author sees not-found", func(t *testing.T) {
		other := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
		_, err := svc.Get(context.Background(), other, draft.ID)
		assert.ErrorIs(t, err, post.ErrPostNotFound)
	})

	t.Run("owner sees the draft", func(t *testing.T) {
		actor := access.Actor{ID: owner, Role: access.RoleAuthor}
		got, err := svc.Get(context.Background(), actor, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, draft.ID, got.ID)
	})

	t.Run("admin sees the draft", func(t *testing.T) {
		admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		_, err := svc.Get(context.Background(), admin, draft.ID)
		assert.NoError(t, err)
	})
}

func TestGetBySlug_PublishedVisibleToAnonymous(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	seedPost(t, repo, uuid.New(), post.StatusPublished, "public-piece")

	got, err := svc.GetBySlug(context.Background(), access.Anonymous, "public-piece")
	require.NoError(t, err)
	assert.Equal(t, post.StatusPublished, got.Status)
}

func TestList_AppliesAccessFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	t.Run("anonymous gets published-only filter", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), access.Anonymous, post.ListPostsRequest{})
		require.NoError(t, err)
		require.NotNil(t, repo.lastQ.Access)
		assert.Equal(t, []access.Clause{access.StatusIs(access.StatusPublished)}, repo.lastQ.Access.Any)
	})

	t.Run("author filter includes own drafts", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
		_, _, err := svc.List(context.Background(), actor, post.ListPostsRequest{})
		require.NoError(t, err)
		require.NotNil(t, repo.lastQ.Access)
		assert.Contains(t, repo.lastQ.Access.Any, access.AuthorIs(actor.ID))
	})

	t.Run("admin lists unrestricted", func(t *testing.T) {
		admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		_, _, err := svc.List(context.Background(), admin, post.ListPostsRequest{})
		require.NoError(t, err)
		assert.Nil(t, repo.lastQ.Access)
	})
}

// ========================================
// UPDATE & DELETE
// ========================================

func TestUpdate_OwnershipEnforcedOnStoredRow(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	owner := uuid.New()
	published := seedPost(t, repo, owner, post.StatusPublished, "owned-public")

	title := "A Fresh Title"

	t.Run("non-owner author gets forbidden on a visible post", func(t *testing.T) {
		other := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
		_, err := svc.Update(context.Background(), other, published.ID, post.UpdatePostRequest{Title: &title})
		assert.ErrorIs(t, err, post.ErrForbidden)
	})

	t.Run("member gets forbidden", func(t *testing.T) {
		member := access.Actor{ID: uuid.New(), Role: access.RoleMember}
		_, err := svc.Update(context.Background(), member, published.ID, post.UpdatePostRequest{Title: &title})
		assert.ErrorIs(t, err, post.ErrForbidden)
	})

	t.Run("owner updates, slug stays put", func(t *testing.T) {
		actor := access.Actor{ID: owner, Role: access.RoleAuthor}
		got, err := svc.Update(context.Background(), actor, published.ID, post.UpdatePostRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		require.NotNil(t, got.Slug)
		assert.Equal(t, "owned-public", *got.Slug)
	})

	t.Run("admin updates someone else's post", func(t *testing.T) {
		admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		_, err := svc.Update(context.Background(), admin, published.ID, post.UpdatePostRequest{Title: &title})
		assert.NoError(t, err)
	})
}

func TestUpdate_RoleFieldGateViaAuthor(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	owner := uuid.New()
	p := seedPost(t, repo, owner, post.StatusDraft, "draft-here")

	someoneElse := uuid.New()
	actor := access.Actor{ID: owner, Role: access.RoleAuthor}
	_, err := svc.Update(context.Background(), actor, p.ID, post.UpdatePostRequest{AuthorID: &someoneElse})

	assert.ErrorIs(t, err, post.ErrForbidden)
}

func TestDelete_DecrementsCounter(t *testing.T) {
	repo := newFakeRepo()
	counter := newFakeCounter()
	svc := newService(repo, counter)

	owner := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	p, err := svc.Create(context.Background(), owner, validCreate())
	require.NoError(t, err)
	require.Equal(t, 1, counter.deltas[owner.ID])

	require.NoError(t, svc.Delete(context.Background(), owner, p.ID))
	assert.Equal(t, 0, counter.deltas[owner.ID])

	_, err = svc.Get(context.Background(), owner, p.ID)
	assert.ErrorIs(t, err, post.ErrPostNotFound)
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, newFakeCounter())

	p := seedPost(t, repo, uuid.New(), post.StatusPublished, "to-delete")

	other := access.Actor{ID: uuid.New(), Role: access.RoleAuthor}
	err := svc.Delete(context.Background(), other, p.ID)

	assert.ErrorIs(t, err, post.ErrForbidden)
}
