package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"blog-backend/internal/access"
	"blog-backend/internal/domains/post"
)

// postService implements post.Service. Every operation evaluates access
// first; single-document writes resolve the decision against the stored
// row, never against a list filter.
type postService struct {
	repo      post.Repository
	evaluator access.Evaluator
	pipeline  *post.Pipeline
}

func NewPostService(repo post.Repository, evaluator access.Evaluator, pipeline *post.Pipeline) post.Service {
	return &postService{
		repo:      repo,
		evaluator: evaluator,
		pipeline:  pipeline,
	}
}

// NewAuthorCountHook returns the post-commit hook keeping the author's
// denormalized post counter in step with creates and deletes.
func NewAuthorCountHook(counter post.AuthorCounter) post.PostCommitHook {
	return func(ctx context.Context, p *post.Post, delta int) error {
		return counter.IncrementPostCount(ctx, p.AuthorID, delta)
	}
}

// ========================================
// COMMANDS
// ========================================

func (s *postService) Create(ctx context.Context, actor access.Actor, req post.CreatePostRequest) (*post.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision := s.evaluator.Evaluate(access.OpCreate, access.CollectionPosts, actor)
	if !decision.Allowed() {
		return nil, s.authError(actor)
	}

	now := time.Now()
	p := &post.Post{
		ID:          uuid.New(),
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Status:      req.Status,
		PublishedAt: nil,
		Slug:        req.Slug,
		Featured:    req.Featured,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.AuthorID != nil {
		p.AuthorID = *req.AuthorID
	}

	if err := s.pipeline.PrepareCreate(actor, p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.pipeline.RunPostCommit(ctx, p, 1)

	return p, nil
}

func (s *postService) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req post.UpdatePostRequest) (*post.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	decision := s.evaluator.Evaluate(access.OpUpdate, access.CollectionPosts, actor)
	if !decision.Resolve(stored.AccessFields()) {
		return nil, s.authError(actor)
	}

	if err := s.pipeline.PrepareUpdate(actor, stored, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, stored); err != nil {
		return nil, err
	}

	return stored, nil
}

func (s *postService) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	stored, err := s.visible(ctx, actor, id)
	if err != nil {
		return err
	}

	decision := s.evaluator.Evaluate(access.OpDelete, access.CollectionPosts, actor)
	if !decision.Resolve(stored.AccessFields()) {
		return s.authError(actor)
	}

	if err := s.repo.Delete(ctx, stored.ID); err != nil {
		return err
	}

	s.pipeline.RunPostCommit(ctx, stored, -1)

	return nil
}

// ========================================
// QUERIES
// ========================================

func (s *postService) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*post.Post, error) {
	return s.visible(ctx, actor, id)
}

func (s *postService) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*post.Post, error) {
	p, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	decision := s.evaluator.Evaluate(access.OpRead, access.CollectionPosts, actor)
	if !decision.Resolve(p.AccessFields()) {
		// Invisible reads are indistinguishable from absent rows.
		return nil, post.ErrPostNotFound
	}

	return p, nil
}

func (s *postService) List(ctx context.Context, actor access.Actor, req post.ListPostsRequest) ([]post.Post, int, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}

	decision := s.evaluator.Evaluate(access.OpRead, access.CollectionPosts, actor)
	if !decision.Allowed() {
		return nil, 0, s.authError(actor)
	}

	q := post.ListQuery{
		Status:   req.Status,
		Tag:      req.Tag,
		Featured: req.Featured,
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
	}
	if decision.Effect == access.EffectFiltered {
		q.Access = decision.Filter
	}
	if req.Author != "" {
		authorID, err := uuid.Parse(req.Author)
		if err == nil {
			q.Author = &authorID
		}
	}

	return s.repo.List(ctx, q)
}

// visible loads a post and enforces read visibility for the actor.
func (s *postService) visible(ctx context.Context, actor access.Actor, id uuid.UUID) (*post.Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := s.evaluator.Evaluate(access.OpRead, access.CollectionPosts, actor)
	if !decision.Resolve(p.AccessFields()) {
		return nil, post.ErrPostNotFound
	}

	return p, nil
}

func (s *postService) authError(actor access.Actor) error {
	if !actor.Authenticated() {
		return post.ErrUnauthenticated
	}
	return post.ErrForbidden
}
