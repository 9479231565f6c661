package service

import (
	"context"
	"errors"
	"log/slog"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
	"postboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ErrNotAuthor is returned by edits from anyone but the post's author. The
// post is left untouched; callers redirect to the post view.
var ErrNotAuthor = errors.New("only the author may edit this post")

// ImageStore persists uploaded post images and returns their stored path.
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
	Delete(ctx context.Context, rel string) error
}

// PostDetail is a single post with its comments and author stats.
type PostDetail struct {
	Post     *models.Post     `json:"post"`
	Comments []models.Comment `json:"comments"`
	AuthorStats
}

// PostService handles post and comment mutation.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	groupRepo   repository.GroupRepository
	followRepo  repository.FollowRepository
	follows     *FollowService
	images      ImageStore
	events      *Events
}

// NewPostService returns a new PostService. images may be nil, in which case
// uploads are rejected.
func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	groupRepo repository.GroupRepository,
	followRepo repository.FollowRepository,
	follows *FollowService,
	images ImageStore,
	events *Events,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		groupRepo:   groupRepo,
		followRepo:  followRepo,
		follows:     follows,
		images:      images,
		events:      events,
	}
}

// Create publishes a post by authorID.
func (s *PostService) Create(ctx context.Context, authorID uint, form PostForm) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "create", attribute.Int("post.author_id", int(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.validate(ctx, form); err != nil {
		return nil, err
	}

	post = &models.Post{
		Text:     form.Text,
		AuthorID: authorID,
		GroupID:  form.Group,
	}
	if form.Image != nil {
		if post.Image, err = s.saveImage(ctx, form.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(ctx, post.Image)
		return nil, err
	}
	observability.PostsCreated.Inc()

	s.notifyFollowers(ctx, post)
	return post, nil
}

// Get loads the post postID if it was written by username.
func (s *PostService) Get(ctx context.Context, username string, postID, viewerID uint) (*PostDetail, error) {
	post, err := s.load(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	stats, err := s.follows.Stats(ctx, post.AuthorID, viewerID)
	if err != nil {
		return nil, err
	}
	post.CommentsCount = len(comments)
	return &PostDetail{Post: post, Comments: comments, AuthorStats: stats}, nil
}

// ForEdit returns the post for the edit form. Non-authors get ErrNotAuthor.
func (s *PostService) ForEdit(ctx context.Context, actorID uint, username string, postID uint) (*models.Post, error) {
	post, err := s.load(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, ErrNotAuthor
	}
	return post, nil
}

// Edit replaces the text, group and (if a new file is given) the image of a
// post. The author and pub_date never change.
func (s *PostService) Edit(ctx context.Context, actorID uint, username string, postID uint, form PostForm) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "edit", attribute.Int("post.id", int(postID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.ForEdit(ctx, actorID, username, postID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, form); err != nil {
		return post, err
	}

	previous := post.Image
	post.Text = form.Text
	post.GroupID = form.Group
	if form.Image != nil {
		if post.Image, err = s.saveImage(ctx, form.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.UpdateContent(ctx, post); err != nil {
		if post.Image != previous {
			s.discardImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != previous {
		s.discardImage(ctx, previous)
	}
	return post, nil
}

// AddComment appends a comment by actorID to the post.
func (s *PostService) AddComment(ctx context.Context, actorID uint, username string, postID uint, form CommentForm) (*models.Comment, error) {
	post, err := s.load(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(&form); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: actorID, Text: form.Text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

func (s *PostService) load(ctx context.Context, username string, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Author.Username != username {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *PostService) validate(ctx context.Context, form PostForm) error {
	if err := validation.Struct(&form); err != nil {
		return err
	}
	if form.Group == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *form.Group); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewFieldValidationError(map[string]string{
				"group": "Select a valid choice. That choice is not one of the available choices.",
			})
		}
		return err
	}
	return nil
}

func (s *PostService) saveImage(ctx context.Context, up *Upload) (string, error) {
	if s.images == nil {
		return "", models.NewFieldValidationError(map[string]string{"image": "Image uploads are disabled."})
	}
	return s.images.Save(ctx, up.Filename, up.Data)
}

func (s *PostService) discardImage(ctx context.Context, rel string) {
	if rel == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, rel); err != nil {
		slog.WarnContext(ctx, "failed to remove post image", "image", rel, "err", err)
	}
}

func (s *PostService) notifyFollowers(ctx context.Context, post *models.Post) {
	if s.events == nil || s.events.pub == nil {
		return
	}
	ids, err := s.followRepo.FollowerIDs(ctx, post.AuthorID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load followers for new post", "post_id", post.ID, "err", err)
		return
	}
	payload := map[string]any{
		"post_id":   post.ID,
		"author_id": post.AuthorID,
		"text":      post.Text,
		"group_id":  post.GroupID,
	}
	for _, id := range ids {
		s.events.publish(ctx, id, EventNewPost, payload)
	}
}
