// Command seed populates the database with demo data for development.
package main

import (
	"flag"
	"log"

	"gatepost/internal/bootstrap"
	"gatepost/internal/config"
	"gatepost/internal/seed"
)

func main() {
	users := flag.Int("users", 8, "Number of demo users to create")
	postsPerUser := flag.Int("posts", 3, "Posts per demo user")
	commentsPerPost := flag.Int("comments", 2, "Comments per demo post")
	likeProb := flag.Float64("likes", 0.4, "Probability each user likes each post")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedInvites: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	opts := seed.Options{
		Users:           *users,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
		LikeProbability: *likeProb,
	}
	if err := seed.Demo(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d demo users (password %q)", *users, seed.DemoPassword)
}
