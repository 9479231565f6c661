package service

import (
	"context"
	"time"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/pagination"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Feed is one page of posts, newest first.
type Feed struct {
	Posts []models.Post   `json:"posts"`
	Page  pagination.Page `json:"page"`
}

// GroupFeed is a group's feed.
type GroupFeed struct {
	Group *models.Group `json:"group"`
	Feed
}

// ProfileFeed is an author's feed with their follow stats for the viewer.
type ProfileFeed struct {
	Author *models.User `json:"author"`
	AuthorStats
	Feed
}

// FeedService composes the paginated post feeds.
type FeedService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
	follows   *FollowService
	perPage   int
}

// NewFeedService returns a FeedService with the default page size.
func NewFeedService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	follows *FollowService,
) *FeedService {
	return &FeedService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		groupRepo: groupRepo,
		follows:   follows,
		perPage:   pagination.DefaultPerPage,
	}
}

// Global returns every post.
func (s *FeedService) Global(ctx context.Context, page int) (*Feed, error) {
	return s.load(ctx, "global", repository.PostFilter{}, page)
}

// Group returns the posts of the group with slug.
func (s *FeedService) Group(ctx context.Context, slug string, page int) (*GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	feed, err := s.load(ctx, "group", repository.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Feed: *feed}, nil
}

// Profile returns the posts of username. viewerID is zero for anonymous viewers.
func (s *FeedService) Profile(ctx context.Context, username string, viewerID uint, page int) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	feed, err := s.load(ctx, "profile", repository.PostFilter{AuthorID: &author.ID}, page)
	if err != nil {
		return nil, err
	}
	stats, err := s.follows.Stats(ctx, author.ID, viewerID)
	if err != nil {
		return nil, err
	}
	return &ProfileFeed{Author: author, AuthorStats: stats, Feed: *feed}, nil
}

// Following returns the posts of every author viewerID follows.
func (s *FeedService) Following(ctx context.Context, viewerID uint, page int) (*Feed, error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.load(ctx, "following", repository.PostFilter{FollowerID: &viewerID}, page)
}

func (s *FeedService) load(ctx context.Context, kind string, f repository.PostFilter, requested int) (feed *Feed, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", kind, attribute.Int("feed.page", requested))
	defer func() { observability.EndSpan(span, err) }()
	defer func(start time.Time) {
		observability.FeedQueryLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}(time.Now())

	count, err := s.postRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := pagination.Resolve(requested, count, s.perPage)

	posts := []models.Post{}
	if count > 0 {
		posts, err = s.postRepo.List(ctx, f, page.Offset(), page.PerPage)
		if err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int64("feed.count", count))
	return &Feed{Posts: posts, Page: page}, nil
}
