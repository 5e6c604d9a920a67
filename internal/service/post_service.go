package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"gatepost/internal/models"
	"gatepost/internal/repository"
)

const (
	maxTitleLen   = 200
	maxContentLen = 10000
)

// PostService handles post creation, listing and like toggling.
type PostService struct {
	posts repository.PostRepository
}

// CreatePostInput carries the new-post form fields.
type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
}

// ToggleResult reports the like state after a toggle.
type ToggleResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if title == "" || content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, models.NewValidationError("Title must be at most 200 characters")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, models.NewValidationError("Content must be at most 10000 characters")
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  in.UserID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id, currentUserID)
}

// ListPosts returns every post, most liked first, newest breaking ties.
func (s *PostService) ListPosts(ctx context.Context, currentUserID uint) ([]*models.Post, error) {
	return s.posts.List(ctx, currentUserID)
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*ToggleResult, error) {
	liked, count, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Liked: liked, LikesCount: count}, nil
}
