// Package seed populates a database with demo data for development and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"postboard/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	// GroupsFile is a YAML fixture path; empty uses the built-in groups.
	GroupsFile string
	// GroupShare is the percentage of posts placed in a group.
	GroupShare int
	Clean      bool
	SkipBcrypt bool
	MaxDays    int
	RandSeed   int64
}

// DefaultOptions returns the sizes used by cmd/seed when no flags are given.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    5,
		CommentsPerPost: 2,
		FollowsPerUser:  4,
		GroupShare:      50,
		MaxDays:         90,
	}
}

// Summary counts the rows a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seed creates groups, users, posts, comments and follows.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	slog.InfoContext(ctx, "starting database seed",
		"users", opts.Users, "posts_per_user", opts.PostsPerUser, "clean", opts.Clean)

	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
	}

	fixtures, err := LoadGroupFixtures(opts.GroupsFile)
	if err != nil {
		return nil, err
	}
	groups, err := Groups(ctx, db, fixtures)
	if err != nil {
		return nil, err
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Groups: len(groups)}

	users := make([]*models.User, 0, opts.Users)
	for range opts.Users {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	posts := make([]*models.Post, 0, len(users)*opts.PostsPerUser)
	for _, u := range users {
		for range opts.PostsPerUser {
			var group *models.Group
			if len(groups) > 0 && f.Pick(100) < opts.GroupShare {
				group = &groups[f.Pick(len(groups))]
			}
			posts = append(posts, f.BuildPost(u, group))
		}
	}
	if err := f.CreatePosts(ctx, posts); err != nil {
		return summary, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)

	for _, p := range posts {
		for range opts.CommentsPerPost {
			if _, err := f.CreateComment(ctx, users[f.Pick(len(users))], p); err != nil {
				return summary, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	if len(users) > 1 {
		for _, u := range users {
			for range opts.FollowsPerUser {
				created, err := f.Follow(ctx, u, users[f.Pick(len(users))])
				if err != nil {
					return summary, fmt.Errorf("create follow: %w", err)
				}
				if created {
					summary.Follows++
				}
			}
		}
	}

	slog.InfoContext(ctx, "database seed completed",
		"users", summary.Users, "groups", summary.Groups, "posts", summary.Posts,
		"comments", summary.Comments, "follows", summary.Follows)
	return summary, nil
}

// Clean removes every row the seeder writes, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clean %T: %w", m, err)
		}
	}
	return nil
}
