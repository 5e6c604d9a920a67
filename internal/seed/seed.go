// Package seed creates demo data for development environments.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"gatepost/internal/invites"
	"gatepost/internal/middleware"
	"gatepost/internal/models"
	"gatepost/internal/repository"
	"gatepost/internal/service"
)

// Options tune the amount of demo data produced.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	LikeProbability float64
}

// DefaultOptions returns a small but lively demo dataset configuration.
func DefaultOptions() Options {
	return Options{
		Users:           8,
		PostsPerUser:    3,
		CommentsPerPost: 2,
		LikeProbability: 0.4,
	}
}

// DemoPassword is the shared password of all seeded demo accounts.
const DemoPassword = "password123"

// Demo populates the database with invite-registered demo users, posts,
// comments and likes. Everything goes through the real services so counters
// and invite attribution stay consistent.
func Demo(db *gorm.DB, opts Options) error {
	ctx := context.Background()
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	userRepo := repository.NewUserRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	accounts := service.NewAccountService(db, userRepo, inviteRepo)
	posts := service.NewPostService(postRepo)
	comments := service.NewCommentService(commentRepo, postRepo)

	// Demo users burn real invite codes, like any other registration.
	codes, err := invites.Generate(opts.Users)
	if err != nil {
		return fmt.Errorf("failed to generate demo invite codes: %w", err)
	}
	rows := make([]models.InviteCode, len(codes))
	for i, code := range codes {
		rows[i] = models.InviteCode{Code: code}
	}
	if err := inviteRepo.CreateBatch(ctx, rows, 100); err != nil {
		return fmt.Errorf("failed to insert demo invite codes: %w", err)
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), r.Intn(1000))
		if len(username) > 50 {
			username = username[:50]
		}
		user, err := accounts.Register(ctx, service.RegisterInput{
			Username:   username,
			Password:   DemoPassword,
			InviteCode: codes[i],
		})
		if err != nil {
			return fmt.Errorf("failed to register demo user %q: %w", username, err)
		}
		users = append(users, user)
	}

	var allPosts []*models.Post
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := posts.CreatePost(ctx, service.CreatePostInput{
				UserID:  user.ID,
				Title:   gofakeit.Sentence(5),
				Content: gofakeit.Paragraph(1, 3, 5, "\n"),
			})
			if err != nil {
				return fmt.Errorf("failed to create demo post: %w", err)
			}
			allPosts = append(allPosts, post)
		}
	}

	for _, post := range allPosts {
		for i := 0; i < opts.CommentsPerPost; i++ {
			commenter := users[r.Intn(len(users))]
			if _, err := comments.CreateComment(ctx, service.CreateCommentInput{
				UserID:  commenter.ID,
				PostID:  post.ID,
				Content: gofakeit.Sentence(8),
			}); err != nil {
				return fmt.Errorf("failed to create demo comment: %w", err)
			}
		}
		for _, user := range users {
			if r.Float64() < opts.LikeProbability {
				if _, err := posts.ToggleLike(ctx, post.ID, user.ID); err != nil {
					return fmt.Errorf("failed to like demo post: %w", err)
				}
			}
		}
	}

	middleware.Logger.Info("Seeded demo data",
		slog.Int("users", len(users)),
		slog.Int("posts", len(allPosts)),
	)
	return nil
}
