// Command seed populates the database with fake users, posts, comments and follows.
package main

import (
	"context"
	"flag"
	"log"

	"postboard/internal/bootstrap"
	"postboard/internal/config"
	"postboard/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	defaults := seed.DefaultOptions()

	opts := seed.Options{}
	flag.IntVar(&opts.Users, "users", defaults.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.CommentsPerPost, "comments", defaults.CommentsPerPost, "Maximum comments per post")
	flag.IntVar(&opts.FollowsPerUser, "follows", defaults.FollowsPerUser, "Authors each user follows")
	flag.StringVar(&opts.GroupsFile, "groups", "", "YAML group fixtures (default: built-in groups)")
	flag.IntVar(&opts.GroupShare, "group-share", defaults.GroupShare, "Percentage of posts placed in a group")
	flag.IntVar(&opts.MaxDays, "days", defaults.MaxDays, "Spread pub dates over this many past days")
	flag.Int64Var(&opts.RandSeed, "rand-seed", 0, "Faker seed (0 picks one)")
	flag.BoolVar(&opts.Clean, "clean", false, "Delete existing content before seeding")
	flag.BoolVar(&opts.SkipBcrypt, "fast", false, "Skip password hashing; seeded users cannot log in")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	summary, err := seed.Seed(ctx, rt.DB, opts)
	if err != nil {
		rt.Close()
		log.Fatalf("Seeding failed: %v", err)
	}

	// Cached pages would hide the new content until they expire.
	if err := rt.PageCache.Clear(ctx); err != nil {
		log.Printf("Failed to clear page cache: %v", err)
	}

	log.Printf("Seeded %d users, %d groups, %d posts, %d comments, %d follows",
		summary.Users, summary.Groups, summary.Posts, summary.Comments, summary.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
