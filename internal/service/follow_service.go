package service

import (
	"context"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
)

// FollowService maintains the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	events     *Events
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, events *Events) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		events:     events,
	}
}

// Follow makes followerID follow the user named authorUsername. Following
// yourself is a no-op and an existing edge is left alone; created reports
// whether a new edge was written.
func (s *FollowService) Follow(ctx context.Context, followerID uint, authorUsername string) (author *models.User, created bool, err error) {
	ctx, span := observability.StartSpan(ctx, "follow", "follow")
	defer func() { observability.EndSpan(span, err) }()

	author, err = s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		observability.FollowOperations.WithLabelValues("follow", "not_found").Inc()
		return nil, false, err
	}
	if author.ID == followerID {
		observability.FollowOperations.WithLabelValues("follow", "self").Inc()
		return author, false, nil
	}

	created, err = s.followRepo.Create(ctx, followerID, author.ID)
	if err != nil {
		observability.FollowOperations.WithLabelValues("follow", "error").Inc()
		return nil, false, err
	}
	if !created {
		observability.FollowOperations.WithLabelValues("follow", "exists").Inc()
		return author, false, nil
	}
	observability.FollowOperations.WithLabelValues("follow", "created").Inc()

	if follower, ferr := s.userRepo.GetByID(ctx, followerID); ferr == nil {
		s.events.publish(ctx, author.ID, EventNewFollower, map[string]any{
			"follower": userSummary(follower),
		})
	}
	return author, true, nil
}

// Unfollow removes the edge from followerID to authorUsername. A missing
// author or a missing edge is NOT_FOUND.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, authorUsername string) (author *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "follow", "unfollow")
	defer func() { observability.EndSpan(span, err) }()

	author, err = s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		observability.FollowOperations.WithLabelValues("unfollow", "not_found").Inc()
		return nil, err
	}

	removed, err := s.followRepo.Delete(ctx, followerID, author.ID)
	if err != nil {
		observability.FollowOperations.WithLabelValues("unfollow", "error").Inc()
		return nil, err
	}
	if !removed {
		observability.FollowOperations.WithLabelValues("unfollow", "not_found").Inc()
		return nil, models.NewNotFoundError("Follow", authorUsername)
	}
	observability.FollowOperations.WithLabelValues("unfollow", "removed").Inc()
	return author, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	if followerID == 0 || followerID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, followerID, authorID)
}

func (s *FollowService) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, authorID)
}

func (s *FollowService) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

// ListFollowers returns the users following authorID, ordered by username.
func (s *FollowService) ListFollowers(ctx context.Context, authorID uint) ([]models.User, error) {
	return s.followRepo.ListFollowers(ctx, authorID)
}

// ListFollowing returns the users userID follows, ordered by username.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.ListFollowing(ctx, userID)
}

// AuthorStats are the follow counts shown next to an author.
type AuthorStats struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	Following      bool  `json:"following"`
}

// Stats loads the counts for authorID and whether viewerID follows them.
// A zero viewerID is an anonymous viewer.
func (s *FollowService) Stats(ctx context.Context, authorID, viewerID uint) (AuthorStats, error) {
	var st AuthorStats
	var err error
	if st.FollowersCount, err = s.CountFollowers(ctx, authorID); err != nil {
		return st, err
	}
	if st.FollowingCount, err = s.CountFollowing(ctx, authorID); err != nil {
		return st, err
	}
	if st.Following, err = s.IsFollowing(ctx, viewerID, authorID); err != nil {
		return st, err
	}
	return st, nil
}
