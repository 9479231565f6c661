package service

import (
	"context"
	"sync"

	"postboard/internal/models"
	"postboard/internal/repository"
)

// userRepoStub is a stub for repository.UserRepository backed by a slice.
type userRepoStub struct {
	users    []*models.User
	createFn func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, u)
	}
	u.ID = uint(len(s.users) + 1)
	s.users = append(s.users, u)
	return nil
}

func (s *userRepoStub) SetAdmin(_ context.Context, id uint, isAdmin bool) error {
	for _, u := range s.users {
		if u.ID == id {
			u.IsAdmin = isAdmin
			return nil
		}
	}
	return models.NewNotFoundError("User", id)
}

func (s *userRepoStub) ListAdmins(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn      func(context.Context, uint, uint) (bool, error)
	deleteFn      func(context.Context, uint, uint) (bool, error)
	existsFn      func(context.Context, uint, uint) (bool, error)
	followerIDsFn func(context.Context, uint) ([]uint, error)
	createCalls   int
}

func (s *followRepoStub) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	s.createCalls++
	return s.createFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.deleteFn(ctx, userID, authorID)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(context.Context, uint) (int64, error) { return 0, nil }
func (s *followRepoStub) CountFollowing(context.Context, uint) (int64, error) { return 0, nil }
func (s *followRepoStub) ListFollowers(context.Context, uint) ([]models.User, error) {
	return nil, nil
}
func (s *followRepoStub) ListFollowing(context.Context, uint) ([]models.User, error) {
	return nil, nil
}
func (s *followRepoStub) FollowerIDs(ctx context.Context, authorID uint) ([]uint, error) {
	if s.followerIDsFn == nil {
		return nil, nil
	}
	return s.followerIDsFn(ctx, authorID)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	countFn   func(context.Context, repository.PostFilter) (int64, error)
	listFn    func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, offset, limit int) ([]models.Post, error) {
	return s.listFn(ctx, f, offset, limit)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	created []*models.Comment
}

func (s *commentRepoStub) Create(_ context.Context, c *models.Comment) error {
	c.ID = uint(len(s.created) + 1)
	s.created = append(s.created, c)
	return nil
}
func (s *commentRepoStub) ListByPost(context.Context, uint) ([]models.Comment, error) {
	out := make([]models.Comment, 0, len(s.created))
	for _, c := range s.created {
		out = append(out, *c)
	}
	return out, nil
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	groups []*models.Group
}

func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for _, g := range s.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", id)
}
func (s *groupRepoStub) Create(_ context.Context, g *models.Group) error {
	for _, existing := range s.groups {
		if existing.Slug == g.Slug {
			return models.NewFieldValidationError(map[string]string{"slug": "exists"})
		}
	}
	g.ID = uint(len(s.groups) + 1)
	s.groups = append(s.groups, g)
	return nil
}
func (s *groupRepoStub) List(context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, *g)
	}
	return out, nil
}

type published struct {
	userID  uint
	payload string
}

// recordingPublisher captures realtime events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, payload: payload})
	return nil
}

// imageStoreStub records saved and deleted image paths.
type imageStoreStub struct {
	saveErr error
	saved   []string
	deleted []string
}

func (s *imageStoreStub) Save(_ context.Context, filename string, _ []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	rel := "posts/" + filename
	s.saved = append(s.saved, rel)
	return rel, nil
}

func (s *imageStoreStub) Delete(_ context.Context, rel string) error {
	s.deleted = append(s.deleted, rel)
	return nil
}
