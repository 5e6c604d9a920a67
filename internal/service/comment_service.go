package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"gatepost/internal/models"
	"gatepost/internal/repository"
)

const maxCommentLen = 5000

// CommentService handles comment creation, listing, deletion and like toggling.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

// CreateCommentInput carries the new-comment form fields.
type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	exists, err := s.posts.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Content must be at most 5000 characters")
	}

	comment := &models.Comment{
		Content: content,
		PostID:  in.PostID,
		UserID:  in.UserID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a post's comments, most liked first, newest breaking
// ties. The post must exist.
func (s *CommentService) ListComments(ctx context.Context, postID uint, currentUserID uint) ([]*models.Comment, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.comments.ListByPost(ctx, postID, currentUserID)
}

// DeleteComment removes a comment. Only the author may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID, 0)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("Only the author can delete this comment")
	}
	return s.comments.Delete(ctx, comment)
}

func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID uint) (*ToggleResult, error) {
	liked, count, err := s.comments.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Liked: liked, LikesCount: count}, nil
}
